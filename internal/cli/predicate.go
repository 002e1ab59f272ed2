package cli

import (
	"cmp"
	"fmt"
	"strconv"

	"github.com/andreyvit/d2data/d2o"
)

var ops = []string{"=", "!=", "<", "<=", ">", ">="}

// parsePredicate builds a predicate comparing bucket values of type typ
// against the literal value.
func parsePredicate(typ d2o.TypeCode, op, value string) (d2o.Predicate, error) {
	switch typ.Kind() {
	case d2o.KindInt, d2o.KindI18N:
		n, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid %v value %q", typ, value)
		}
		return ordered(op, int32(n))
	case d2o.KindUint:
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid %v value %q", typ, value)
		}
		return ordered(op, uint32(n))
	case d2o.KindDouble:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %v value %q", typ, value)
		}
		return ordered(op, f)
	case d2o.KindString:
		return ordered(op, value)
	case d2o.KindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid %v value %q", typ, value)
		}
		switch op {
		case "=":
			return func(v any) bool { return v.(bool) == b }, nil
		case "!=":
			return func(v any) bool { return v.(bool) != b }, nil
		}
		return nil, fmt.Errorf("operator %q does not apply to bool", op)
	default:
		return nil, fmt.Errorf("%w: %v", d2o.ErrUnsupportedQueryType, typ)
	}
}

func ordered[T cmp.Ordered](op string, want T) (d2o.Predicate, error) {
	var test func(c int) bool
	switch op {
	case "=", "==":
		test = func(c int) bool { return c == 0 }
	case "!=":
		test = func(c int) bool { return c != 0 }
	case "<":
		test = func(c int) bool { return c < 0 }
	case "<=":
		test = func(c int) bool { return c <= 0 }
	case ">":
		test = func(c int) bool { return c > 0 }
	case ">=":
		test = func(c int) bool { return c >= 0 }
	default:
		return nil, fmt.Errorf("unknown operator %q, wanted one of %v", op, ops)
	}
	return func(v any) bool {
		return test(cmp.Compare(v.(T), want))
	}, nil
}
