// Package expr builds and evaluates numeric and logical expression trees
// over float64 with optional free variables.
//
// Trees are immutable once built and may be evaluated any number of times
// against different Bindings. Division by zero and overflow follow IEEE-754
// and are not trapped.
package expr

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Bindings maps free variable names to values at evaluation time.
type Bindings map[string]float64

// UndefinedVariableError is returned when a Var is evaluated without a binding,
// or when a variable appears where none is allowed.
type UndefinedVariableError struct {
	Name string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined variable %q", e.Name)
}

// Node is a numeric expression. The unexported method closes the set of
// implementations to this package.
type Node interface {
	Eval(b Bindings) (float64, error)
	String() string
	node()
}

// Const is a literal.
type Const struct {
	Value float64
}

// Var is a free variable resolved at evaluation time.
type Var struct {
	Name string
}

// BinaryOp enumerates the two-operand operators.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpPow
	OpMin
	OpMax
)

// Binary applies Op to L and R.
type Binary struct {
	Op   BinaryOp
	L, R Node
}

// UnaryOp enumerates the one-operand operators.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpSquare
	OpCube
	OpDegrees // degrees to radians
	OpTrunc   // truncation toward zero
)

// Unary applies Op to X.
type Unary struct {
	Op UnaryOp
	X  Node
}

// IfThenElse picks Then or Else by Cond.
type IfThenElse struct {
	Cond Cond
	Then Node
	Else Node
}

// Switch turns a condition into 1 or 0.
type Switch struct {
	Cond Cond
}

func (Const) node()      {}
func (Var) node()        {}
func (Binary) node()     {}
func (Unary) node()      {}
func (IfThenElse) node() {}
func (Switch) node()     {}

func (c Const) Eval(Bindings) (float64, error) { return c.Value, nil }

func (v Var) Eval(b Bindings) (float64, error) {
	x, ok := b[v.Name]
	if !ok {
		return 0, &UndefinedVariableError{Name: v.Name}
	}
	return x, nil
}

func (n Binary) Eval(b Bindings) (float64, error) {
	l, err := n.L.Eval(b)
	if err != nil {
		return 0, err
	}
	r, err := n.R.Eval(b)
	if err != nil {
		return 0, err
	}
	switch n.Op {
	case OpAdd:
		return l + r, nil
	case OpSub:
		return l - r, nil
	case OpMul:
		return l * r, nil
	case OpDiv:
		return l / r, nil
	case OpPow:
		return math.Pow(l, r), nil
	case OpMin:
		return math.Min(l, r), nil
	case OpMax:
		return math.Max(l, r), nil
	default:
		panic(fmt.Sprintf("expr: unknown binary operator %d", n.Op))
	}
}

func (n Unary) Eval(b Bindings) (float64, error) {
	x, err := n.X.Eval(b)
	if err != nil {
		return 0, err
	}
	switch n.Op {
	case OpNeg:
		return -x, nil
	case OpSquare:
		return x * x, nil
	case OpCube:
		return x * x * x, nil
	case OpDegrees:
		return x * math.Pi / 180, nil
	case OpTrunc:
		return math.Trunc(x), nil
	default:
		panic(fmt.Sprintf("expr: unknown unary operator %d", n.Op))
	}
}

func (n IfThenElse) Eval(b Bindings) (float64, error) {
	ok, err := n.Cond.Test(b)
	if err != nil {
		return 0, err
	}
	if ok {
		return n.Then.Eval(b)
	}
	return n.Else.Eval(b)
}

func (n Switch) Eval(b Bindings) (float64, error) {
	ok, err := n.Cond.Test(b)
	if err != nil {
		return 0, err
	}
	if ok {
		return 1, nil
	}
	return 0, nil
}

func (c Const) String() string { return formatFloat(c.Value) }
func (v Var) String() string   { return v.Name }

func (n Binary) String() string {
	switch n.Op {
	case OpMin:
		return "min(" + n.L.String() + ", " + n.R.String() + ")"
	case OpMax:
		return "max(" + n.L.String() + ", " + n.R.String() + ")"
	}
	return "(" + n.L.String() + " " + binarySymbols[n.Op] + " " + n.R.String() + ")"
}

var binarySymbols = map[BinaryOp]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpPow: "^",
}

func (n Unary) String() string {
	switch n.Op {
	case OpNeg:
		return "-" + n.X.String()
	case OpSquare:
		return n.X.String() + "²"
	case OpCube:
		return n.X.String() + "³"
	case OpDegrees:
		return n.X.String() + "°"
	case OpTrunc:
		return "[" + n.X.String() + "]"
	default:
		return fmt.Sprintf("unary%d(%s)", n.Op, n.X)
	}
}

func (n IfThenElse) String() string {
	return "if " + n.Cond.String() + " then " + n.Then.String() + " else " + n.Else.String()
}

func (n Switch) String() string { return "(" + n.Cond.String() + ")" }

// EvalConst evaluates a tree that must not contain free variables.
func EvalConst(n Node) (float64, error) {
	return n.Eval(nil)
}

// Variables returns the sorted, unique names of the free variables in n.
func Variables(n Node) []string {
	seen := make(map[string]struct{})
	walkNode(n, seen)
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func walkNode(n Node, seen map[string]struct{}) {
	switch e := n.(type) {
	case Const:
	case Var:
		seen[e.Name] = struct{}{}
	case Binary:
		walkNode(e.L, seen)
		walkNode(e.R, seen)
	case Unary:
		walkNode(e.X, seen)
	case IfThenElse:
		walkCond(e.Cond, seen)
		walkNode(e.Then, seen)
		walkNode(e.Else, seen)
	case Switch:
		walkCond(e.Cond, seen)
	default:
		panic(fmt.Sprintf("expr: unknown node %T", n))
	}
}

func walkCond(c Cond, seen map[string]struct{}) {
	switch e := c.(type) {
	case Compare:
		walkNode(e.L, seen)
		walkNode(e.R, seen)
	case Logic:
		walkCond(e.L, seen)
		walkCond(e.R, seen)
	case Not:
		walkCond(e.X, seen)
	default:
		panic(fmt.Sprintf("expr: unknown condition %T", c))
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
