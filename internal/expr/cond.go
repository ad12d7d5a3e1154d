package expr

import "fmt"

// Cond is a boolean expression used in if-conditions, switches and
// attribute constraints.
type Cond interface {
	Test(b Bindings) (bool, error)
	String() string
	cond()
}

// CmpOp enumerates comparison predicates.
type CmpOp int

const (
	CmpLt CmpOp = iota
	CmpLe
	CmpGt
	CmpGe
	CmpEq
	CmpNe
)

var cmpSymbols = map[CmpOp]string{
	CmpLt: "<", CmpLe: "<=", CmpGt: ">", CmpGe: ">=", CmpEq: "==", CmpNe: "!=",
}

func (op CmpOp) String() string { return cmpSymbols[op] }

// Apply compares two numbers.
func (op CmpOp) Apply(l, r float64) bool {
	switch op {
	case CmpLt:
		return l < r
	case CmpLe:
		return l <= r
	case CmpGt:
		return l > r
	case CmpGe:
		return l >= r
	case CmpEq:
		return l == r
	case CmpNe:
		return l != r
	default:
		panic(fmt.Sprintf("expr: unknown comparison %d", op))
	}
}

// Compare is a binary predicate over two numeric expressions.
type Compare struct {
	Op   CmpOp
	L, R Node
}

// LogicOp enumerates the binary connectives.
type LogicOp int

const (
	LogicAnd LogicOp = iota
	LogicOr
)

// Logic joins two conditions. Evaluation short-circuits.
type Logic struct {
	Op   LogicOp
	L, R Cond
}

// Not negates a condition.
type Not struct {
	X Cond
}

func (Compare) cond() {}
func (Logic) cond()   {}
func (Not) cond()     {}

func (c Compare) Test(b Bindings) (bool, error) {
	l, err := c.L.Eval(b)
	if err != nil {
		return false, err
	}
	r, err := c.R.Eval(b)
	if err != nil {
		return false, err
	}
	return c.Op.Apply(l, r), nil
}

func (c Logic) Test(b Bindings) (bool, error) {
	l, err := c.L.Test(b)
	if err != nil {
		return false, err
	}
	switch c.Op {
	case LogicAnd:
		if !l {
			return false, nil
		}
	case LogicOr:
		if l {
			return true, nil
		}
	default:
		panic(fmt.Sprintf("expr: unknown connective %d", c.Op))
	}
	return c.R.Test(b)
}

func (c Not) Test(b Bindings) (bool, error) {
	x, err := c.X.Test(b)
	return !x, err
}

func (c Compare) String() string {
	return c.L.String() + " " + c.Op.String() + " " + c.R.String()
}

func (c Logic) String() string {
	op := "&&"
	if c.Op == LogicOr {
		op = "||"
	}
	return "(" + c.L.String() + " " + op + " " + c.R.String() + ")"
}

func (c Not) String() string { return "!" + c.X.String() }
