/*
Package d2o reads D2O containers, a self-describing object store that embeds
the schemas of the classes it holds.

# File layout

All integers are big-endian int32. Strings are an int16 length followed by
UTF-8 bytes.

	"D2O" indexPointer
	... object data ...
	at indexPointer:
	  indexByteLen (id offset)*            indexByteLen/8 pairs
	  classCount class*
	  [querySection]                      absent if the file ends here

	class = id name package fieldCount field*
	field = name type (name type)*        repeated while type == -99

	querySection = sectionByteLen (name relPointer valueType bucketCount)* trailer:int32
	bucket       = value idListByteLen id*

A query's relPointer is relative to the end of the query section including
its 4-byte trailer, i.e. to sectionStart + 4 + sectionByteLen + 4.

# Objects

An object is a class id followed by its fields in schema order. Scalars are
encoded as primitives; vectors as an element count followed by the elements;
embedded objects inline, starting with their own class id.

# Queries

A query key groups every object having a given property into buckets by
value. Scanning a query decodes each bucket's value and skips the id lists of
buckets that don't match, so filtering never touches non-matching objects.
Nothing is cached; every query call re-reads its buckets.
*/
package d2o
