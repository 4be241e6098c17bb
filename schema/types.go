package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// TypeKind is the semantic type of a column, independent of any database dialect.
type TypeKind int

const (
	TypeString TypeKind = iota + 1
	TypeNumeric
	TypeBoolean
	TypeInteger
	TypeBigInteger
)

func (k TypeKind) String() string {
	switch k {
	case TypeString:
		return "string"
	case TypeNumeric:
		return "numeric"
	case TypeBoolean:
		return "boolean"
	case TypeInteger:
		return "integer"
	case TypeBigInteger:
		return "biginteger"
	default:
		// This should never happen.
		return fmt.Sprintf("unknown (%d)", k)
	}
}

// Type describes a column type. Length applies to strings (0 means unbounded), Precision and Scale
// apply to numerics.
type Type struct {
	Kind      TypeKind
	Length    int
	Precision int
	Scale     int
}

// String returns a string type with the given maximum length. A length of 0 is unbounded.
func String(length int) Type { return Type{Kind: TypeString, Length: length} }

// Numeric returns a fixed-point numeric type.
func Numeric(precision, scale int) Type {
	return Type{Kind: TypeNumeric, Precision: precision, Scale: scale}
}

func Boolean() Type    { return Type{Kind: TypeBoolean} }
func Integer() Type    { return Type{Kind: TypeInteger} }
func BigInteger() Type { return Type{Kind: TypeBigInteger} }

func (t Type) String() string {
	switch t.Kind {
	case TypeString:
		if t.Length > 0 {
			return "string(" + strconv.Itoa(t.Length) + ")"
		}
		return "string"
	case TypeNumeric:
		return fmt.Sprintf("numeric(%d,%d)", t.Precision, t.Scale)
	default:
		return t.Kind.String()
	}
}

func (t Type) validate() error {
	switch t.Kind {
	case TypeString:
		if t.Length < 0 {
			return fmt.Errorf("invalid string length: %d", t.Length)
		}
	case TypeNumeric:
		if t.Precision < 1 || t.Scale < 0 || t.Scale > t.Precision {
			return fmt.Errorf("invalid numeric precision/scale: %d,%d", t.Precision, t.Scale)
		}
	case TypeBoolean, TypeInteger, TypeBigInteger:
	default:
		return fmt.Errorf("unknown column type: %s", t.Kind)
	}
	return nil
}

// Value is a typed literal used for column defaults and catalog rows. The zero Value is NULL.
type Value struct {
	kind TypeKind
	s    string
	b    bool
	i    int64
	d    decimal.Decimal
}

func StringValue(s string) *Value { return &Value{kind: TypeString, s: s} }
func BoolValue(b bool) *Value     { return &Value{kind: TypeBoolean, b: b} }
func IntValue(i int64) *Value     { return &Value{kind: TypeInteger, i: i} }

// DecimalValue parses s as a decimal literal. It panics if s is not a valid decimal, which is only
// appropriate for literals written in migration source.
func DecimalValue(s string) *Value {
	return &Value{kind: TypeNumeric, d: decimal.RequireFromString(s)}
}

// IsNull reports whether v is nil or the zero Value.
func (v *Value) IsNull() bool { return v == nil || v.kind == 0 }

// Kind returns the kind of the literal. It is 0 for NULL.
func (v *Value) Kind() TypeKind {
	if v == nil {
		return 0
	}
	return v.kind
}

func (v *Value) Str() string              { return v.s }
func (v *Value) Bool() bool               { return v.b }
func (v *Value) Int() int64               { return v.i }
func (v *Value) Decimal() decimal.Decimal { return v.d }

// Equal reports whether two literals are the same kind and value.
func (v *Value) Equal(other *Value) bool {
	if v.IsNull() || other.IsNull() {
		return v.IsNull() == other.IsNull()
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case TypeString:
		return v.s == other.s
	case TypeBoolean:
		return v.b == other.b
	case TypeInteger:
		return v.i == other.i
	case TypeNumeric:
		return v.d.Equal(other.d)
	}
	return false
}

// String renders the literal in a dialect-neutral SQL form.
func (v *Value) String() string {
	if v.IsNull() {
		return "NULL"
	}
	switch v.kind {
	case TypeString:
		return "'" + strings.ReplaceAll(v.s, "'", "''") + "'"
	case TypeBoolean:
		if v.b {
			return "TRUE"
		}
		return "FALSE"
	case TypeInteger:
		return strconv.FormatInt(v.i, 10)
	case TypeNumeric:
		return v.d.String()
	}
	return "NULL"
}

// assignable reports whether a literal may be stored in a column of type t.
func (v *Value) assignable(t Type) bool {
	if v.IsNull() {
		return true
	}
	switch t.Kind {
	case TypeString:
		return v.kind == TypeString && (t.Length == 0 || len([]rune(v.s)) <= t.Length)
	case TypeBoolean:
		return v.kind == TypeBoolean
	case TypeInteger, TypeBigInteger:
		return v.kind == TypeInteger
	case TypeNumeric:
		return v.kind == TypeNumeric || v.kind == TypeInteger
	}
	return false
}
