package report

import "strconv"

type valueKind uint8

const (
	absent valueKind = iota
	text
	integer
)

// Value is one optional report cell: absent, text or an integer.
// The zero Value is absent.
type Value struct {
	kind valueKind
	s    string
	n    int64
}

func Absent() Value         { return Value{} }
func Text(s string) Value   { return Value{kind: text, s: s} }
func Int(n int) Value       { return Value{kind: integer, n: int64(n)} }
func Hours(h float64) Value { return Text(strconv.FormatFloat(h, 'f', 2, 64)) }

// Optional is Text(s) when ok, Absent otherwise.
func Optional(s string, ok bool) Value {
	if !ok {
		return Absent()
	}
	return Text(s)
}

func (v Value) Present() bool { return v.kind != absent }

// Format renders absent as "" and keeps integer zero as "0".
func (v Value) Format() string {
	switch v.kind {
	case text:
		return v.s
	case integer:
		return strconv.FormatInt(v.n, 10)
	default:
		return ""
	}
}
