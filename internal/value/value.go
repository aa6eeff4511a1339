// Package value implements vanta's runtime Value type: a small tagged
// union over Int, Bool, String and List, with the arithmetic, comparison,
// logical, indexing and stringification operations the VM and the tree
// evaluator both drive through.
package value

import (
	"fmt"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNone Kind = iota
	KindInt
	KindBool
	KindString
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return "none"
	}
}

// Value is vanta's runtime value representation. Exactly one of the
// fields below is meaningful, selected by Kind; List additionally holds
// its elements as Value so nesting falls out for free.
type Value struct {
	Kind Kind
	I    int
	B    bool
	S    string
	L    []Value
}

// None is the zero Value, used where no result exists (e.g. the result
// of a print statement, or a function body with no return).
var None = Value{Kind: KindNone}

func Int(i int) Value       { return Value{Kind: KindInt, I: i} }
func Bool(b bool) Value     { return Value{Kind: KindBool, B: b} }
func String(s string) Value { return Value{Kind: KindString, S: s} }
func List(l []Value) Value  { return Value{Kind: KindList, L: l} }

func (v Value) IsInt() bool    { return v.Kind == KindInt }
func (v Value) IsBool() bool   { return v.Kind == KindBool }
func (v Value) IsString() bool { return v.Kind == KindString }
func (v Value) IsList() bool   { return v.Kind == KindList }
func (v Value) IsNone() bool   { return v.Kind == KindNone }

// TypeName returns the name the `type` builtin reports for v.
func (v Value) TypeName() string {
	return v.Kind.String()
}

// String renders v for print output: a top-level string is unquoted,
// while string elements nested inside lists are quoted.
func (v Value) String() string {
	return v.render(false)
}

// Quoted renders v with every string wrapped in double quotes,
// including at top level.
func (v Value) Quoted() string {
	return v.render(true)
}

func (v Value) render(quote bool) string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.I)
	case KindBool:
		if v.B {
			return "true"
		}
		return "false"
	case KindString:
		if quote {
			return "\"" + v.S + "\""
		}
		return v.S
	case KindList:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, e := range v.L {
			if i > 0 {
				sb.WriteString(", ")
			}
			// String elements inside a list always render quoted.
			sb.WriteString(e.render(true))
		}
		sb.WriteByte(']')
		return sb.String()
	default:
		return "UNKNOWN VALUE"
	}
}

// OpError is raised for any operator/builtin applied to the wrong
// combination of Kinds. Callers translate this into verrors.TypeMismatch.
type OpError struct {
	Op  string
	Lhs Kind
	Rhs Kind // KindNone when the operator is unary or takes no rhs
}

func (e *OpError) Error() string {
	if e.Rhs == KindNone {
		return fmt.Sprintf("incorrect type for %s operator: %s", e.Op, e.Lhs)
	}
	return fmt.Sprintf("incorrect types for %s operator: %s, %s", e.Op, e.Lhs, e.Rhs)
}

func opErr(op string, lhs Kind, rhs Kind) error { return &OpError{Op: op, Lhs: lhs, Rhs: rhs} }

// Add implements `+`: int+int, string+string (concat), list+list (concat).
func Add(a, b Value) (Value, error) {
	switch {
	case a.IsInt() && b.IsInt():
		return Int(a.I + b.I), nil
	case a.IsString() && b.IsString():
		return String(a.S + b.S), nil
	case a.IsList() && b.IsList():
		res := make([]Value, 0, len(a.L)+len(b.L))
		res = append(res, a.L...)
		res = append(res, b.L...)
		return List(res), nil
	}
	return None, opErr("+", a.Kind, b.Kind)
}

// Sub implements `-`: int-int only.
func Sub(a, b Value) (Value, error) {
	if a.IsInt() && b.IsInt() {
		return Int(a.I - b.I), nil
	}
	return None, opErr("-", a.Kind, b.Kind)
}

// Mul implements `*`: int*int, string*int (repeat), list*int (repeat).
func Mul(a, b Value) (Value, error) {
	switch {
	case a.IsInt() && b.IsInt():
		return Int(a.I * b.I), nil
	case a.IsString() && b.IsInt():
		if b.I <= 0 {
			return String(""), nil
		}
		return String(strings.Repeat(a.S, b.I)), nil
	case a.IsList() && b.IsInt():
		if b.I <= 0 {
			return List([]Value{}), nil
		}
		res := make([]Value, 0, len(a.L)*b.I)
		for i := 0; i < b.I; i++ {
			res = append(res, a.L...)
		}
		return List(res), nil
	}
	return None, opErr("*", a.Kind, b.Kind)
}

// Div implements `/`: int/int, Go integer division truncated toward zero
// like C++'s built-in `/`. Division by zero is the caller's concern
// (verrors.DivideByZero), not this package's.
func Div(a, b Value) (Value, error) {
	if a.IsInt() && b.IsInt() {
		return Int(a.I / b.I), nil
	}
	return None, opErr("/", a.Kind, b.Kind)
}

// Pow implements `^`: integer exponentiation via repeated multiplication;
// a negative exponent yields 0.
func Pow(a, b Value) (Value, error) {
	if a.IsInt() && b.IsInt() {
		return Int(intPow(a.I, b.I)), nil
	}
	return None, opErr("^", a.Kind, b.Kind)
}

func intPow(base, exp int) int {
	if exp < 0 {
		return 0
	}
	res := 1
	for ; exp > 0; exp-- {
		res *= base
	}
	return res
}

// Mod implements `%`: int%int.
func Mod(a, b Value) (Value, error) {
	if a.IsInt() && b.IsInt() {
		return Int(a.I % b.I), nil
	}
	return None, opErr("%", a.Kind, b.Kind)
}

func Gt(a, b Value) (Value, error) {
	if a.IsInt() && b.IsInt() {
		return Bool(a.I > b.I), nil
	}
	return None, opErr(">", a.Kind, b.Kind)
}

func Gte(a, b Value) (Value, error) {
	if a.IsInt() && b.IsInt() {
		return Bool(a.I >= b.I), nil
	}
	return None, opErr(">=", a.Kind, b.Kind)
}

func Lt(a, b Value) (Value, error) {
	if a.IsInt() && b.IsInt() {
		return Bool(a.I < b.I), nil
	}
	return None, opErr("<", a.Kind, b.Kind)
}

func Lte(a, b Value) (Value, error) {
	if a.IsInt() && b.IsInt() {
		return Bool(a.I <= b.I), nil
	}
	return None, opErr("<=", a.Kind, b.Kind)
}

// Equals implements structural equality across all four Kinds. List
// equality compares element i against element i on both sides.
func Equals(a, b Value) (bool, error) {
	switch {
	case a.IsInt() && b.IsInt():
		return a.I == b.I, nil
	case a.IsString() && b.IsString():
		return a.S == b.S, nil
	case a.IsBool() && b.IsBool():
		return a.B == b.B, nil
	case a.IsList() && b.IsList():
		if len(a.L) != len(b.L) {
			return false, nil
		}
		for i := range a.L {
			eq, err := Equals(a.L[i], b.L[i])
			if err != nil {
				return false, err
			}
			if !eq {
				return false, nil
			}
		}
		return true, nil
	}
	return false, opErr("==/!=", a.Kind, b.Kind)
}

func Eq(a, b Value) (Value, error) {
	eq, err := Equals(a, b)
	if err != nil {
		return None, err
	}
	return Bool(eq), nil
}

func Neq(a, b Value) (Value, error) {
	eq, err := Equals(a, b)
	if err != nil {
		return None, err
	}
	return Bool(!eq), nil
}

func And(a, b Value) (Value, error) {
	if a.IsBool() && b.IsBool() {
		return Bool(a.B && b.B), nil
	}
	return None, opErr("&&", a.Kind, b.Kind)
}

func Or(a, b Value) (Value, error) {
	if a.IsBool() && b.IsBool() {
		return Bool(a.B || b.B), nil
	}
	return None, opErr("||", a.Kind, b.Kind)
}

// Neg implements unary `-`.
func Neg(a Value) (Value, error) {
	if a.IsInt() {
		return Int(-a.I), nil
	}
	return None, opErr("unary -", a.Kind, KindNone)
}

// Not implements unary `!`.
func Not(a Value) (Value, error) {
	if a.IsBool() {
		return Bool(!a.B), nil
	}
	return None, opErr("!", a.Kind, KindNone)
}

// IndexError reports an out-of-bounds subscript, translated by callers
// into verrors.IndexOutOfBounds.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of bounds for length %d", e.Index, e.Len)
}

// Index implements `a[i]` for String and List receivers.
func Index(a, idx Value) (Value, error) {
	if !idx.IsInt() {
		return None, opErr("[]", a.Kind, idx.Kind)
	}
	i := idx.I
	switch a.Kind {
	case KindString:
		if i < 0 || i >= len(a.S) {
			return None, &IndexError{Index: i, Len: len(a.S)}
		}
		return String(string(a.S[i])), nil
	case KindList:
		if i < 0 || i >= len(a.L) {
			return None, &IndexError{Index: i, Len: len(a.L)}
		}
		return a.L[i], nil
	}
	return None, opErr("[]", a.Kind, KindNone)
}

// Modify implements `a[i] = x`, returning the new whole value (vanta has
// no in-place aliasing: every assignment rebinds a name to a fresh Value,
// matching the tree evaluator and VM's copy-on-write list semantics).
func Modify(a, idx, replacement Value) (Value, error) {
	if !idx.IsInt() {
		return None, opErr("[]=", a.Kind, idx.Kind)
	}
	i := idx.I
	switch {
	case a.IsString() && replacement.IsString():
		if i < 0 || i >= len(a.S) {
			return None, &IndexError{Index: i, Len: len(a.S)}
		}
		if len(replacement.S) != 1 {
			return None, fmt.Errorf("value for string[i] = x is not a single char")
		}
		b := []byte(a.S)
		b[i] = replacement.S[0]
		return String(string(b)), nil
	case a.IsList():
		if i < 0 || i >= len(a.L) {
			return None, &IndexError{Index: i, Len: len(a.L)}
		}
		arr := make([]Value, len(a.L))
		copy(arr, a.L)
		arr[i] = replacement
		return List(arr), nil
	}
	return None, opErr("[]=", a.Kind, replacement.Kind)
}

// Size implements the `size` unary operator for String and List.
func Size(a Value) (Value, error) {
	switch a.Kind {
	case KindString:
		return Int(len(a.S)), nil
	case KindList:
		return Int(len(a.L)), nil
	}
	return None, opErr("size", a.Kind, KindNone)
}

// Append returns a, with e appended, as a new List Value.
func Append(a, e Value) (Value, error) {
	if !a.IsList() {
		return None, opErr("append", a.Kind, KindNone)
	}
	res := make([]Value, len(a.L)+1)
	copy(res, a.L)
	res[len(a.L)] = e
	return List(res), nil
}

// Remove returns a, with the element at idx removed, as a new List Value.
func Remove(a, idx Value) (Value, error) {
	if !a.IsList() {
		return None, opErr("remove", a.Kind, KindNone)
	}
	if !idx.IsInt() {
		return None, opErr("remove", a.Kind, idx.Kind)
	}
	i := idx.I
	if i < 0 || i >= len(a.L) {
		return None, &IndexError{Index: i, Len: len(a.L)}
	}
	res := make([]Value, 0, len(a.L)-1)
	res = append(res, a.L[:i]...)
	res = append(res, a.L[i+1:]...)
	return List(res), nil
}
