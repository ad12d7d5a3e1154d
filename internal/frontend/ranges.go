package frontend

import (
	"math"

	"github.com/vk/spacerules/internal/diag"
	"github.com/vk/spacerules/internal/lexer"
	"github.com/vk/spacerules/internal/valuerange"
)

const gridEpsilon = 1e-9

// parseRange reads a range literal or an expression evaluated to a single
// number. In a loop header `[a..b]` without a step counts in steps of one.
func (p *parser) parseRange(loopHeader bool) (valuerange.Range, error) {
	tok := p.s.Peek(0)
	switch tok.Type {
	case lexer.String:
		p.s.Next()
		return valuerange.Single(valuerange.String(tok.Text)), nil
	case lexer.LBrace:
		return p.parseSet()
	case lexer.Gt, lexer.Lt:
		p.s.Next()
		v, _, err := p.numeric()
		if err != nil {
			return valuerange.Range{}, err
		}
		if tok.Type == lexer.Gt {
			return valuerange.AtLeast(v), nil
		}
		return valuerange.AtMost(v), nil
	case lexer.LBrack, lexer.LParen:
		if p.bracketHolds(lexer.DotDot) {
			return p.parseInterval(loopHeader)
		}
		if tok.Type == lexer.LParen && p.bracketHolds(lexer.Comma) {
			return p.parseVector()
		}
	case lexer.Ident:
		if r, ok := p.namedRange(); ok {
			return r, nil
		}
	}
	v, _, err := p.numeric()
	if err != nil {
		return valuerange.Range{}, err
	}
	return valuerange.Single(valuerange.Number(v)), nil
}

// startsRange reports whether the next tokens form a range literal that is
// not a plain expression.
func (p *parser) startsRange() bool {
	tok := p.s.Peek(0)
	switch tok.Type {
	case lexer.LBrace:
		return true
	case lexer.LBrack:
		return p.bracketHolds(lexer.DotDot)
	case lexer.LParen:
		return p.bracketHolds(lexer.DotDot) || p.bracketHolds(lexer.Comma)
	}
	return false
}

// bracketHolds looks inside the bracket at the cursor for want at depth
// zero. Nothing is consumed.
func (p *parser) bracketHolds(want lexer.TokenType) bool {
	mark := p.s.Mark()
	defer p.s.Rewind(mark)
	p.s.Next()
	return p.s.ScanToDepthZero(want, lexer.RParen, lexer.RBrack, lexer.RBrace, lexer.Semicolon)
}

// namedRange consumes an identifier naming a constant whose value is not a
// single number, such as a set or a string. Numeric constants are left for
// the expression parser.
func (p *parser) namedRange() (valuerange.Range, bool) {
	tok := p.s.Peek(0)
	if tok.Type != lexer.Ident || !endsRange(p.s.Peek(1).Type) {
		return valuerange.Range{}, false
	}
	if p.pc.Scope.IsBound(tok.Text) || !p.pc.Scope.Has(tok.Text) {
		return valuerange.Range{}, false
	}
	r, _ := p.pc.Scope.Lookup(tok.Text)
	if v, ok := r.Value(); ok && r.Kind() == valuerange.KindSingle {
		if _, num := v.Float(); num {
			return valuerange.Range{}, false
		}
	}
	p.s.Next()
	return r, true
}

func endsRange(t lexer.TokenType) bool {
	switch t {
	case lexer.Semicolon, lexer.Comma, lexer.RParen, lexer.RBrack, lexer.RBrace, lexer.LBrack, lexer.EOF:
		return true
	}
	return false
}

func (p *parser) parseInterval(loopHeader bool) (valuerange.Range, error) {
	open := p.s.Next()
	incLower := open.Type == lexer.LBrack
	lower, _, err := p.numeric()
	if err != nil {
		return valuerange.Range{}, err
	}
	if _, err := p.expect(lexer.DotDot); err != nil {
		return valuerange.Range{}, err
	}
	upper, _, err := p.numeric()
	if err != nil {
		return valuerange.Range{}, err
	}
	step, hasStep := 0.0, false
	if p.s.AcceptWord("step") {
		if step, _, err = p.numeric(); err != nil {
			return valuerange.Range{}, err
		}
		hasStep = true
	}
	var incUpper bool
	switch p.s.Peek(0).Type {
	case lexer.RBrack:
		incUpper = true
	case lexer.RParen:
	default:
		return valuerange.Range{}, p.unexpected("']' or ')'")
	}
	p.s.Next()

	if loopHeader && !hasStep {
		step, hasStep = 1, true
	}
	if !hasStep {
		return valuerange.Interval(lower, upper, incLower, incUpper), nil
	}
	if !incLower {
		lower += step
	}
	if !incUpper && onGrid(lower, step, upper) {
		upper -= step
	}
	r, err := valuerange.Stepped(lower, step, upper)
	if err != nil {
		return valuerange.Range{}, diag.Wrap(open.Range, err)
	}
	return r, nil
}

// onGrid reports whether upper is lower plus a whole number of steps.
func onGrid(lower, step, upper float64) bool {
	if step <= 0 {
		return false
	}
	k := (upper - lower) / step
	return math.Abs(k-math.Round(k)) < gridEpsilon
}

func (p *parser) parseSet() (valuerange.Range, error) {
	open := p.s.Next()
	var values []valuerange.Value
	if _, ok := p.s.Accept(lexer.RBrace); !ok {
		for {
			if tok, ok := p.s.Accept(lexer.String); ok {
				values = append(values, valuerange.String(tok.Text))
			} else {
				v, _, err := p.numeric()
				if err != nil {
					return valuerange.Range{}, err
				}
				values = append(values, valuerange.Number(v))
			}
			if _, ok := p.s.Accept(lexer.Comma); ok {
				continue
			}
			if _, err := p.expect(lexer.RBrace); err != nil {
				return valuerange.Range{}, err
			}
			break
		}
	}
	r, err := valuerange.NewSet(values...)
	if err != nil {
		return valuerange.Range{}, diag.Wrap(open.Range, err)
	}
	return r, nil
}

func (p *parser) parseVector() (valuerange.Range, error) {
	p.s.Next()
	var components []float64
	for {
		v, _, err := p.numeric()
		if err != nil {
			return valuerange.Range{}, err
		}
		components = append(components, v)
		if _, ok := p.s.Accept(lexer.Comma); ok {
			continue
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return valuerange.Range{}, err
		}
		return valuerange.Vector(components...), nil
	}
}
