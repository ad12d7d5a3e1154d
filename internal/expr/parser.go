package expr

import (
	"errors"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/spacerules/internal/diag"
	"github.com/vk/spacerules/internal/lexer"
)

// ErrSyntax marks malformed input.
var ErrSyntax = errors.New("syntax error")

// Resolver supplies immediate values for names, e.g. global constants and
// loop variables.
type Resolver interface {
	Resolve(name string, rng hcl.Range) (float64, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(name string, rng hcl.Range) (float64, bool)

func (f ResolverFunc) Resolve(name string, rng hcl.Range) (float64, bool) {
	return f(name, rng)
}

// Parser reads expressions from a token stream. Operator precedence from
// tightest to loosest: unary sign, postfix power (², ³, °, ^), * and /,
// + and -, if-then-else.
type Parser struct {
	s *lexer.Stream
	r Resolver

	// Symbolic lets names the resolver does not know become Var nodes.
	// Otherwise such names fail with UndefinedVariableError.
	Symbolic bool
	// OnSymbol is called for every Var node the parser creates.
	OnSymbol func(name string, rng hcl.Range)
}

// NewParser returns a parser reading from s. A nil resolver knows no names.
func NewParser(s *lexer.Stream, r Resolver) *Parser {
	return &Parser{s: s, r: r}
}

var keywords = map[string]bool{
	"if": true, "then": true, "else": true,
	"min": true, "max": true, "true": true, "false": true,
}

// IsKeyword reports whether word is reserved inside expressions.
func IsKeyword(word string) bool {
	return keywords[word]
}

// ParseExpr parses one numeric expression. It stops at the first token that
// cannot continue the expression and leaves it unconsumed.
func (p *Parser) ParseExpr() (Node, error) {
	return p.parseAdditive()
}

// ParseCond parses one condition.
func (p *Parser) ParseCond() (Cond, error) {
	return p.parseOr()
}

func (p *Parser) parseAdditive() (Node, error) {
	l, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		var op BinaryOp
		switch p.s.Peek(0).Type {
		case lexer.Plus, lexer.PlusPlus:
			// a++b is a + (+b)
			op = OpAdd
		case lexer.Minus:
			op = OpSub
		case lexer.MinusMinus:
			// a--b is a - (-b)
			op = OpAdd
		default:
			return l, nil
		}
		p.s.Next()
		r, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		l = Binary{Op: op, L: l, R: r}
	}
}

func (p *Parser) parseTerm() (Node, error) {
	l, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for {
		var op BinaryOp
		switch p.s.Peek(0).Type {
		case lexer.Star:
			op = OpMul
		case lexer.Slash:
			op = OpDiv
		default:
			return l, nil
		}
		p.s.Next()
		r, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		l = Binary{Op: op, L: l, R: r}
	}
}

func (p *Parser) parsePower() (Node, error) {
	x, err := p.parseSigned()
	if err != nil {
		return nil, err
	}
	for {
		switch p.s.Peek(0).Type {
		case lexer.Squared:
			x = Unary{Op: OpSquare, X: x}
		case lexer.Cubed:
			x = Unary{Op: OpCube, X: x}
		case lexer.Degree:
			x = Unary{Op: OpDegrees, X: x}
		case lexer.Caret:
			p.s.Next()
			e, err := p.parseSigned()
			if err != nil {
				return nil, err
			}
			x = Binary{Op: OpPow, L: x, R: e}
			continue
		default:
			return x, nil
		}
		p.s.Next()
	}
}

func (p *Parser) parseSigned() (Node, error) {
	switch p.s.Peek(0).Type {
	case lexer.Minus:
		p.s.Next()
		x, err := p.parseSigned()
		if err != nil {
			return nil, err
		}
		return Unary{Op: OpNeg, X: x}, nil
	case lexer.Plus, lexer.PlusPlus, lexer.MinusMinus:
		p.s.Next()
		return p.parseSigned()
	}
	return p.parseAtom()
}

func (p *Parser) parseAtom() (Node, error) {
	tok := p.s.Peek(0)
	switch tok.Type {
	case lexer.Number:
		p.s.Next()
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, diag.Errorf(tok.Range, "invalid number %q: %w", tok.Text, ErrSyntax)
		}
		return Const{Value: f}, nil

	case lexer.LBrack:
		p.s.Next()
		x, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lexer.RBrack); err != nil {
			return nil, err
		}
		return Unary{Op: OpTrunc, X: x}, nil

	case lexer.LParen:
		return p.parseParen()

	case lexer.Ident:
		switch tok.Text {
		case "true":
			p.s.Next()
			return Const{Value: 1}, nil
		case "false":
			p.s.Next()
			return Const{Value: 0}, nil
		case "if":
			return p.parseIf()
		case "min", "max":
			return p.parseMinMax()
		case "then", "else":
			return nil, p.unexpected(tok, "expression")
		}
		p.s.Next()
		return p.reference(tok)
	}
	return nil, p.unexpected(tok, "expression")
}

// parseParen handles both a grouped expression and a parenthesized
// condition, which yields 1 or 0.
func (p *Parser) parseParen() (Node, error) {
	p.s.Next()
	inner := p.s.Mark()
	x, err := p.ParseExpr()
	if err == nil {
		if _, ok := p.s.Accept(lexer.RParen); ok {
			return x, nil
		}
		if !startsCondition(p.s.Peek(0).Type) {
			return nil, p.unexpected(p.s.Peek(0), "')'")
		}
	}
	p.s.Rewind(inner)
	c, cerr := p.ParseCond()
	if cerr != nil {
		if err != nil {
			return nil, err
		}
		return nil, cerr
	}
	if err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return Switch{Cond: c}, nil
}

func (p *Parser) parseIf() (Node, error) {
	p.s.Next()
	c, err := p.ParseCond()
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("then"); err != nil {
		return nil, err
	}
	then, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("else"); err != nil {
		return nil, err
	}
	els, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	return IfThenElse{Cond: c, Then: then, Else: els}, nil
}

func (p *Parser) parseMinMax() (Node, error) {
	op := OpMin
	if p.s.Next().Text == "max" {
		op = OpMax
	}
	if err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	l, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.Comma); err != nil {
		return nil, err
	}
	r, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return Binary{Op: op, L: l, R: r}, nil
}

func (p *Parser) reference(tok lexer.Token) (Node, error) {
	if p.r != nil {
		if v, ok := p.r.Resolve(tok.Text, tok.Range); ok {
			return Const{Value: v}, nil
		}
	}
	if !p.Symbolic {
		return nil, diag.Wrap(tok.Range, &UndefinedVariableError{Name: tok.Text})
	}
	if p.OnSymbol != nil {
		p.OnSymbol(tok.Text, tok.Range)
	}
	return Var{Name: tok.Text}, nil
}

func (p *Parser) parseOr() (Cond, error) {
	l, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.s.Accept(lexer.Or); !ok {
			return l, nil
		}
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l = Logic{Op: LogicOr, L: l, R: r}
	}
}

func (p *Parser) parseAnd() (Cond, error) {
	l, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.s.Accept(lexer.And); !ok {
			return l, nil
		}
		r, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		l = Logic{Op: LogicAnd, L: l, R: r}
	}
}

func (p *Parser) parseNot() (Cond, error) {
	if _, ok := p.s.Accept(lexer.Bang); ok {
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return Not{X: x}, nil
	}
	if p.s.Peek(0).Type == lexer.LParen {
		// A parenthesized condition, unless the group turns out to be the
		// left operand of a comparison such as (a + b) > c.
		mark := p.s.Mark()
		p.s.Next()
		c, err := p.ParseCond()
		if err == nil {
			if _, ok := p.s.Accept(lexer.RParen); ok && !continuesOperand(p.s.Peek(0).Type) {
				return c, nil
			}
		}
		p.s.Rewind(mark)
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Cond, error) {
	l, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	op, ok := comparisons[p.s.Peek(0).Type]
	if !ok {
		// A bare number is true when non-zero.
		return Compare{Op: CmpNe, L: l, R: Const{Value: 0}}, nil
	}
	p.s.Next()
	r, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	return Compare{Op: op, L: l, R: r}, nil
}

var comparisons = map[lexer.TokenType]CmpOp{
	lexer.Lt:    CmpLt,
	lexer.Le:    CmpLe,
	lexer.Gt:    CmpGt,
	lexer.Ge:    CmpGe,
	lexer.Eq:    CmpEq,
	lexer.NotEq: CmpNe,
}

func startsCondition(t lexer.TokenType) bool {
	_, cmp := comparisons[t]
	return cmp || t == lexer.And || t == lexer.Or
}

func continuesOperand(t lexer.TokenType) bool {
	switch t {
	case lexer.Plus, lexer.PlusPlus, lexer.Minus, lexer.MinusMinus, lexer.Star, lexer.Slash,
		lexer.Caret, lexer.Squared, lexer.Cubed, lexer.Degree:
		return true
	}
	_, cmp := comparisons[t]
	return cmp
}

func (p *Parser) expect(typ lexer.TokenType) error {
	if _, ok := p.s.Accept(typ); ok {
		return nil
	}
	return p.unexpected(p.s.Peek(0), typ.String())
}

func (p *Parser) expectWord(word string) error {
	if p.s.AcceptWord(word) {
		return nil
	}
	return p.unexpected(p.s.Peek(0), "'"+word+"'")
}

func (p *Parser) unexpected(tok lexer.Token, want string) error {
	return diag.Errorf(tok.Range, "expected %s, found %s: %w", want, tok, ErrSyntax)
}
