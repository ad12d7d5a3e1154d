package frontend

import (
	"fmt"

	"github.com/vk/spacerules/internal/ctxlog"
	"github.com/vk/spacerules/internal/diag"
	"github.com/vk/spacerules/internal/expr"
	"github.com/vk/spacerules/internal/lexer"
	"github.com/vk/spacerules/internal/population"
	"github.com/vk/spacerules/internal/scope"
)

// parseInit reads `init [ list ]`, adding to the root population.
func (p *parser) parseInit() error {
	kw := p.s.Next()
	p.s.Next() // '['
	before := p.pc.Init.Current().Total()
	if err := p.parseInitList(lexer.RBrack); err != nil {
		return err
	}
	if _, err := p.expect(lexer.RBrack); err != nil {
		return err
	}
	p.s.Accept(lexer.Semicolon)
	ctxlog.FromContext(p.ctx).Debug("Init block parsed.", "line", kw.Range.Start.Line, "entities", p.pc.Init.Current().Total()-before)
	return nil
}

// parseInitList reads elements separated by '+' or ',' up to end, which is
// left unconsumed.
func (p *parser) parseInitList(end lexer.TokenType) error {
	if p.s.Peek(0).Type == end {
		return nil
	}
	for {
		if err := p.parseInitElement(); err != nil {
			return err
		}
		if _, ok := p.s.Accept(lexer.Plus); ok {
			continue
		}
		if _, ok := p.s.Accept(lexer.Comma); ok {
			continue
		}
		return nil
	}
}

func (p *parser) parseInitElement() error {
	if p.s.Peek(0).Is("for") && p.s.Peek(1).Type == lexer.Ident && p.s.Peek(2).Is("in") {
		return p.parseFor()
	}
	n, err := p.parseCount()
	if err != nil {
		return err
	}
	if p.s.Peek(0).Type == lexer.LBrack {
		return p.parseGroup(n)
	}
	return p.parseEntity(n)
}

// parseCount reads the optional multiplicity in front of an element. An
// identifier naming a species starts the element itself; a leading '[' is a
// count only when a species or list follows it.
func (p *parser) parseCount() (int, error) {
	tok := p.s.Peek(0)
	switch {
	case tok.Type == lexer.Ident && p.pc.Registry.Has(tok.Text):
		return 1, nil
	case tok.Type == lexer.LBrack:
		mark := p.s.Mark()
		v, rng, err := p.numeric()
		if err == nil && p.followsCount() {
			return p.pc.Init.Multiplicity(v, rng)
		}
		p.s.Rewind(mark)
		return 1, nil
	case tok.Type == lexer.Ident && !p.pc.Scope.Has(tok.Text) && !expr.IsKeyword(tok.Text):
		_, err := p.pc.Registry.Lookup(tok.Text, tok.Range)
		return 0, err
	}
	v, rng, err := p.numeric()
	if err != nil {
		return 0, err
	}
	return p.pc.Init.Multiplicity(v, rng)
}

func (p *parser) followsCount() bool {
	tok := p.s.Peek(0)
	return tok.Type == lexer.LBrack || (tok.Type == lexer.Ident && p.pc.Registry.Has(tok.Text))
}

// parseGroup reads `[ list ]` as n composite entities.
func (p *parser) parseGroup(n int) error {
	p.s.Next()
	p.pc.Init.Push(n <= 0)
	if err := p.parseInitList(lexer.RBrack); err != nil {
		return err
	}
	if _, err := p.expect(lexer.RBrack); err != nil {
		return err
	}
	p.pc.Init.Group(p.pc.Init.Pop(), n)
	return nil
}

// parseEntity reads `Species(attr: range, ...) [init] [ list ]`.
func (p *parser) parseEntity(n int) error {
	sp, err := p.ident("species name")
	if err != nil {
		return err
	}
	def, err := p.pc.Registry.Lookup(sp.Text, sp.Range)
	if err != nil {
		return err
	}

	var attrs []population.AttrSpec
	if _, ok := p.s.Accept(lexer.LParen); ok {
		if _, ok := p.s.Accept(lexer.RParen); !ok {
			for {
				attr, err := p.ident("attribute name")
				if err != nil {
					return err
				}
				if _, err := p.expect(lexer.Colon); err != nil {
					return err
				}
				r, err := p.parseRange(false)
				if err != nil {
					return err
				}
				attrs = append(attrs, population.AttrSpec{Name: attr.Text, Range: r, Source: attr.Range})
				if _, ok := p.s.Accept(lexer.Comma); ok {
					continue
				}
				if _, err := p.expect(lexer.RParen); err != nil {
					return err
				}
				break
			}
		}
	}

	var content *population.Population
	explicit := p.s.AcceptWord("init")
	if p.s.Peek(0).Type == lexer.LBrack {
		p.s.Next()
		p.pc.Init.Push(n <= 0)
		if err := p.parseInitList(lexer.RBrack); err != nil {
			return err
		}
		if _, err := p.expect(lexer.RBrack); err != nil {
			return err
		}
		content = p.pc.Init.Pop()
	} else if explicit {
		return p.unexpected("'['")
	}
	return p.pc.Init.Instantiate(def, attrs, content, n)
}

// parseFor reads `for v in range [ list ]`. The body is captured once and
// replayed for every value of the range.
func (p *parser) parseFor() error {
	p.s.Next() // for
	v := p.s.Next()
	p.s.Next() // in
	r, err := p.parseRange(true)
	if err != nil {
		return err
	}
	if p.s.Peek(0).Type != lexer.LBrack {
		return p.unexpected("'[' opening the loop body")
	}
	open := p.s.Peek(0)
	from, to, ok := p.s.SkipBalanced(lexer.LBrack)
	if !ok {
		return diag.Errorf(open.Range, "loop over %q has no closing ']': %w", v.Text, ErrSyntax)
	}

	values, err := r.ToList()
	if err != nil {
		p.pc.Diags.Severe(v.Range, "Loop range cannot be enumerated",
			fmt.Sprintf("The loop over %q cannot enumerate %s (%v); its body is skipped.", v.Text, r, err))
		return nil
	}
	if p.pc.Scope.InLoop(v.Text) {
		return diag.Errorf(v.Range, "loop variable %q: %w", v.Text, scope.ErrLoopVariableActive)
	}
	skip, err := p.pc.Scope.EnterLoop(v.Text, values, v.Range)
	if err != nil || skip {
		return err
	}
	ctxlog.FromContext(p.ctx).Debug("Loop expanded.", "variable", v.Text, "iterations", len(values))

	body := p.s.Capture(from, to)
	for {
		sub := p.child(body)
		if err := sub.parseInitList(lexer.EOF); err != nil {
			return err
		}
		if _, err := sub.expect(lexer.EOF); err != nil {
			return err
		}
		if p.pc.Scope.IsLastIteration(v.Text) {
			return p.pc.Scope.ExitLoop(v.Text)
		}
		if _, err := p.pc.Scope.EnterLoop(v.Text, values, v.Range); err != nil {
			return err
		}
	}
}
