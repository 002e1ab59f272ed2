package d2o

import (
	"strconv"
)

// TypeCode is a field type as stored in the class table. Negative values
// are primitive types; anything outside the fixed vocabulary refers to a
// class and is decoded as an embedded object.
type TypeCode int32

const (
	TypeInt    TypeCode = -1
	TypeBool   TypeCode = -2
	TypeString TypeCode = -3
	TypeDouble TypeCode = -4
	// TypeI18N is an int32 id into a D2I string table.
	TypeI18N   TypeCode = -5
	TypeUint   TypeCode = -6
	TypeVector TypeCode = -99
)

type Kind uint8

const (
	KindObject Kind = iota
	KindInt
	KindBool
	KindString
	KindDouble
	KindI18N
	KindUint
	KindVector
)

func (c TypeCode) Kind() Kind {
	switch c {
	case TypeInt:
		return KindInt
	case TypeBool:
		return KindBool
	case TypeString:
		return KindString
	case TypeDouble:
		return KindDouble
	case TypeI18N:
		return KindI18N
	case TypeUint:
		return KindUint
	case TypeVector:
		return KindVector
	default:
		return KindObject
	}
}

func (c TypeCode) IsScalar() bool {
	return c.Kind().IsScalar()
}

func (c TypeCode) String() string {
	if k := c.Kind(); k != KindObject {
		return k.String()
	}
	return "class#" + strconv.Itoa(int(c))
}

func (k Kind) IsScalar() bool {
	return k != KindObject && k != KindVector
}

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindDouble:
		return "double"
	case KindI18N:
		return "i18n"
	case KindUint:
		return "uint"
	case KindVector:
		return "Vector"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}
