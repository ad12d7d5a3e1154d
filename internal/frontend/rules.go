package frontend

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/spacerules/internal/diag"
	"github.com/vk/spacerules/internal/expr"
	"github.com/vk/spacerules/internal/lexer"
	"github.com/vk/spacerules/internal/rule"
	"github.com/vk/spacerules/internal/species"
)

// parseRule reads `[name:] lhs -> [rhs] @ [marker =] rate;` and hands the
// finished rule to the context.
func (p *parser) parseRule() error {
	start := p.s.Peek(0)
	name := ""
	if start.Type == lexer.Ident && p.s.Peek(1).Type == lexer.Colon {
		name = start.Text
		p.s.Next()
		p.s.Next()
	}
	b := p.pc.Rules
	if err := b.Start(name, start.Range); err != nil {
		return err
	}
	if err := p.parseLHS(); err != nil {
		return err
	}
	if _, err := p.expect(lexer.Arrow); err != nil {
		return err
	}
	if err := b.CloseLhs(); err != nil {
		return err
	}
	if p.s.Peek(0).Type != lexer.At {
		if err := p.parseRHS(); err != nil {
			return err
		}
	}
	if _, err := p.expect(lexer.At); err != nil {
		return err
	}
	kind, rate, err := p.parseRate()
	if err != nil {
		return err
	}
	if _, err := p.expect(lexer.Semicolon); err != nil {
		return err
	}
	if err := b.SetRate(kind, rate); err != nil {
		return err
	}
	r, err := b.Build(p.ctx)
	if err != nil {
		return err
	}
	p.pc.AddRule(r)
	return nil
}

func (p *parser) parseLHS() error {
	b := p.pc.Rules
	if p.s.Peek(0).Type == lexer.Arrow {
		return nil
	}
	for {
		m, err := p.parseMatch()
		if err != nil {
			return err
		}
		if err := b.AddLhsEntity(m); err != nil {
			return err
		}
		if _, ok := p.s.Accept(lexer.LBrack); ok {
			if err := b.MarkContext(); err != nil {
				return err
			}
			if p.s.Peek(0).Type != lexer.RBrack {
				for {
					inner, err := p.parseMatch()
					if err != nil {
						return err
					}
					if err := b.AddLhsEntity(inner); err != nil {
						return err
					}
					if _, ok := p.s.Accept(lexer.Plus); !ok {
						break
					}
				}
			}
			if _, err := p.expect(lexer.RBrack); err != nil {
				return err
			}
		}
		if dot, ok := p.s.Accept(lexer.Dot); ok {
			return diag.Errorf(dot.Range, "'.' joins results and cannot appear before '->': %w", ErrSyntax)
		}
		if _, ok := p.s.Accept(lexer.Plus); !ok {
			return nil
		}
	}
}

// parseMatch reads `Species(attrMatch, ...){site: state, ...}`.
func (p *parser) parseMatch() (rule.EntityMatch, error) {
	sp, err := p.ident("species name")
	if err != nil {
		return rule.EntityMatch{}, err
	}
	m := rule.EntityMatch{Species: sp.Text, Range: sp.Range}
	def, _ := p.pc.Registry.Lookup(sp.Text, sp.Range)

	if _, ok := p.s.Accept(lexer.LParen); ok {
		if _, ok := p.s.Accept(lexer.RParen); !ok {
			for {
				a, err := p.parseAttrMatch(def)
				if err != nil {
					return rule.EntityMatch{}, err
				}
				m.Attributes = append(m.Attributes, a)
				if _, ok := p.s.Accept(lexer.Comma); ok {
					continue
				}
				if _, err := p.expect(lexer.RParen); err != nil {
					return rule.EntityMatch{}, err
				}
				break
			}
		}
	}
	if _, ok := p.s.Accept(lexer.LBrace); ok {
		for {
			s, err := p.parseSiteMatch()
			if err != nil {
				return rule.EntityMatch{}, err
			}
			m.Sites = append(m.Sites, s)
			if _, ok := p.s.Accept(lexer.Comma); ok {
				continue
			}
			if _, err := p.expect(lexer.RBrace); err != nil {
				return rule.EntityMatch{}, err
			}
			break
		}
	}
	return m, nil
}

// parseAttrMatch reads one attribute pattern. def may be nil when the
// species is unknown; the builder reports that.
func (p *parser) parseAttrMatch(def *species.Def) (rule.AttributeMatch, error) {
	sc := p.pc.Scope
	if lp, ok := p.s.Accept(lexer.LParen); ok {
		v, err := p.ident("variable name")
		if err != nil {
			return rule.AttributeMatch{}, err
		}
		if _, err := p.expect(lexer.Assign); err != nil {
			return rule.AttributeMatch{}, err
		}
		attr, err := p.ident("attribute name")
		if err != nil {
			return rule.AttributeMatch{}, err
		}
		sc.Bind(v.Text, v.Range)
		am := rule.AttributeMatch{Attribute: attr.Text, Variable: v.Text, Range: lp.Range}
		if p.s.Peek(0).Type != lexer.RParen {
			c, err := p.parseConstraint()
			if err != nil {
				return rule.AttributeMatch{}, err
			}
			am.Match = &c
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return rule.AttributeMatch{}, err
		}
		return am, nil
	}

	first, err := p.ident("attribute name")
	if err != nil {
		return rule.AttributeMatch{}, err
	}
	if p.s.Peek(0).Type == lexer.Assign && p.s.Peek(1).Type == lexer.Ident {
		second := p.s.Peek(1)
		switch after := p.s.Peek(2); {
		case after.Type == lexer.Comma || after.Type == lexer.RParen:
			p.s.Next()
			p.s.Next()
			sc.Bind(second.Text, second.Range)
			return rule.AttributeMatch{Attribute: first.Text, Variable: second.Text, Range: first.Range}, nil
		case startsConstraint(after):
			if !declares(def, second.Text) || declares(def, first.Text) {
				return rule.AttributeMatch{}, diag.Errorf(first.Range, "%s = %s: %w", first.Text, second.Text, rule.ErrConstraintOnBinding)
			}
			p.s.Next()
			p.s.Next()
			p.pc.Diags.Warn(first.Range, "Ungrouped variable assignment",
				fmt.Sprintf("%s = %s is followed by a constraint; grouping variable assignment in parenthesis is preferable: (%s = %s ...).", first.Text, second.Text, first.Text, second.Text))
			sc.Bind(first.Text, first.Range)
			c, err := p.parseConstraint()
			if err != nil {
				return rule.AttributeMatch{}, err
			}
			return rule.AttributeMatch{Attribute: second.Text, Variable: first.Text, Match: &c, Range: first.Range}, nil
		}
	}
	c, err := p.parseConstraint()
	if err != nil {
		return rule.AttributeMatch{}, err
	}
	return rule.AttributeMatch{Attribute: first.Text, Match: &c, Range: first.Range}, nil
}

func declares(def *species.Def, name string) bool {
	if def == nil {
		return false
	}
	_, ok := def.Attribute(name)
	return ok
}

func startsConstraint(tok lexer.Token) bool {
	switch tok.Type {
	case lexer.Assign, lexer.Eq, lexer.Gt, lexer.Ge, lexer.Lt, lexer.Le:
		return true
	}
	return tok.Is("in")
}

var orderedMatches = map[lexer.TokenType]rule.MatchKind{
	lexer.Gt: rule.MatchGreater,
	lexer.Ge: rule.MatchGreaterOrEqual,
	lexer.Lt: rule.MatchLess,
	lexer.Le: rule.MatchLessOrEqual,
}

func (p *parser) parseConstraint() (rule.ValueMatch, error) {
	tok := p.s.Peek(0)
	switch {
	case tok.Type == lexer.Assign || tok.Type == lexer.Eq:
		p.s.Next()
		if s, ok := p.s.Accept(lexer.String); ok {
			return rule.ValueMatch{Kind: rule.MatchEqualsString, Text: s.Text}, nil
		}
		e, err := p.symbolic()
		if err != nil {
			return rule.ValueMatch{}, err
		}
		return rule.ValueMatch{Kind: rule.MatchEquals, Expr: e}, nil
	case tok.Is("in"):
		p.s.Next()
		return p.parseIntervalMatch()
	}
	kind, ok := orderedMatches[tok.Type]
	if !ok {
		return rule.ValueMatch{}, p.unexpected("a constraint")
	}
	p.s.Next()
	e, err := p.symbolic()
	if err != nil {
		return rule.ValueMatch{}, err
	}
	return rule.ValueMatch{Kind: kind, Expr: e}, nil
}

// parseIntervalMatch reads `[lo..hi]` with either bracket kind at each end.
// Bounds may use match variables.
func (p *parser) parseIntervalMatch() (rule.ValueMatch, error) {
	m := rule.ValueMatch{Kind: rule.MatchInterval}
	switch p.s.Peek(0).Type {
	case lexer.LBrack:
		m.LowInclusive = true
	case lexer.LParen:
	default:
		return rule.ValueMatch{}, p.unexpected("'[' or '('")
	}
	p.s.Next()
	var err error
	if m.Low, err = p.symbolic(); err != nil {
		return rule.ValueMatch{}, err
	}
	if _, err := p.expect(lexer.DotDot); err != nil {
		return rule.ValueMatch{}, err
	}
	if m.High, err = p.symbolic(); err != nil {
		return rule.ValueMatch{}, err
	}
	switch p.s.Peek(0).Type {
	case lexer.RBrack:
		m.HighInclusive = true
	case lexer.RParen:
	default:
		return rule.ValueMatch{}, p.unexpected("']' or ')'")
	}
	p.s.Next()
	return m, nil
}

func (p *parser) parseSiteMatch() (rule.SiteMatch, error) {
	site, err := p.ident("binding site name")
	if err != nil {
		return rule.SiteMatch{}, err
	}
	if _, err := p.expect(lexer.Colon); err != nil {
		return rule.SiteMatch{}, err
	}
	sm := rule.SiteMatch{Site: site.Text, Range: site.Range}
	switch tok := p.s.Peek(0); {
	case tok.Is("free"):
		p.s.Next()
		sm.Kind = rule.SiteFree
	case tok.Is("occ") || tok.Is("occupied"):
		p.s.Next()
		sm.Kind = rule.SiteOccupied
	default:
		nested, err := p.parseMatch()
		if err != nil {
			return rule.SiteMatch{}, err
		}
		sm.Kind = rule.SiteEntity
		sm.Entity = &nested
	}
	return sm, nil
}

func (p *parser) parseRHS() error {
	b := p.pc.Rules
	first, err := p.parseResult(false)
	if err != nil {
		return err
	}
	if err := b.AddRhsEntity(first); err != nil {
		return err
	}
	if _, ok := p.s.Accept(lexer.LBrack); ok {
		if err := b.MarkRhsContext(); err != nil {
			return err
		}
		if p.s.Peek(0).Type != lexer.RBrack {
			attached := false
			for {
				r, err := p.parseResult(attached)
				if err != nil {
					return err
				}
				if err := b.AddRhsEntity(r); err != nil {
					return err
				}
				if _, ok := p.s.Accept(lexer.Plus); ok {
					attached = false
					continue
				}
				if _, ok := p.s.Accept(lexer.Dot); ok {
					attached = true
					continue
				}
				break
			}
		}
		if _, err := p.expect(lexer.RBrack); err != nil {
			return err
		}
	}
	for {
		var attached bool
		if _, ok := p.s.Accept(lexer.Plus); ok {
			attached = false
		} else if _, ok := p.s.Accept(lexer.Dot); ok {
			attached = true
		} else {
			return nil
		}
		r, err := p.parseResult(attached)
		if err != nil {
			return err
		}
		if err := b.AddRhsEntity(r); err != nil {
			return err
		}
	}
}

// parseResult reads `Species(modifier, ...){site: action, ...}`.
func (p *parser) parseResult(attached bool) (rule.EntityResult, error) {
	sp, err := p.ident("species name")
	if err != nil {
		return rule.EntityResult{}, err
	}
	r := rule.EntityResult{Species: sp.Text, Attached: attached, Range: sp.Range}
	if _, ok := p.s.Accept(lexer.LParen); ok {
		if _, ok := p.s.Accept(lexer.RParen); !ok {
			for {
				a, err := p.parseModifier()
				if err != nil {
					return rule.EntityResult{}, err
				}
				r.Attributes = append(r.Attributes, a)
				if _, ok := p.s.Accept(lexer.Comma); ok {
					continue
				}
				if _, err := p.expect(lexer.RParen); err != nil {
					return rule.EntityResult{}, err
				}
				break
			}
		}
	}
	if _, ok := p.s.Accept(lexer.LBrace); ok {
		for {
			a, err := p.parseBindAction()
			if err != nil {
				return rule.EntityResult{}, err
			}
			r.Sites = append(r.Sites, a)
			if _, ok := p.s.Accept(lexer.Comma); ok {
				continue
			}
			if _, err := p.expect(lexer.RBrace); err != nil {
				return rule.EntityResult{}, err
			}
			break
		}
	}
	return r, nil
}

func (p *parser) parseModifier() (rule.AttributeResult, error) {
	attr, err := p.ident("attribute name")
	if err != nil {
		return rule.AttributeResult{}, err
	}
	a := rule.AttributeResult{Attribute: attr.Text, Range: attr.Range}
	if _, ok := p.s.Accept(lexer.PlusPlus); ok {
		a.Modifier = rule.ValueModifier{Kind: rule.ModIncrement}
		return a, nil
	}
	if _, ok := p.s.Accept(lexer.MinusMinus); ok {
		a.Modifier = rule.ValueModifier{Kind: rule.ModDecrement}
		return a, nil
	}
	if _, ok := p.s.Accept(lexer.Define); !ok {
		a.Modifier = rule.ValueModifier{Kind: rule.ModKeep}
		return a, nil
	}
	m, err := p.parseAssignment()
	if err != nil {
		return rule.AttributeResult{}, err
	}
	a.Modifier = m
	return a, nil
}

// parseAssignment reads the value after ':='.
func (p *parser) parseAssignment() (rule.ValueModifier, error) {
	tok := p.s.Peek(0)
	switch {
	case tok.Type == lexer.String:
		p.s.Next()
		return rule.ValueModifier{Kind: rule.ModSetString, Text: tok.Text}, nil
	case tok.Is("random") && p.s.Peek(1).Type == lexer.LParen:
		p.s.Next()
		p.s.Next()
		n, err := p.symbolic()
		if err != nil {
			return rule.ValueModifier{}, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return rule.ValueModifier{}, err
		}
		return rule.ValueModifier{Kind: rule.ModRandomVector, Expr: n}, nil
	case p.startsRange():
		r, err := p.parseRange(false)
		if err != nil {
			return rule.ValueModifier{}, err
		}
		return rule.ValueModifier{Kind: rule.ModSetRange, Range: r}, nil
	}
	if r, ok := p.namedRange(); ok {
		return rule.ValueModifier{Kind: rule.ModSetRange, Range: r}, nil
	}
	e, err := p.symbolic()
	if err != nil {
		return rule.ValueModifier{}, err
	}
	return rule.ValueModifier{Kind: rule.ModSetExpr, Expr: e}, nil
}

var bindKinds = map[string]rule.BindKind{
	"bind":    rule.Bind,
	"release": rule.Release,
	"replace": rule.Replace,
}

func (p *parser) parseBindAction() (rule.BindAction, error) {
	site, err := p.ident("binding site name")
	if err != nil {
		return rule.BindAction{}, err
	}
	if _, err := p.expect(lexer.Colon); err != nil {
		return rule.BindAction{}, err
	}
	word := p.s.Peek(0)
	kind, ok := bindKinds[word.Text]
	if word.Type != lexer.Ident || !ok {
		return rule.BindAction{}, p.unexpected("'bind', 'release' or 'replace'")
	}
	p.s.Next()
	return rule.BindAction{Site: site.Text, Kind: kind, Range: site.Range}, nil
}

// parseRate reads the part after '@'. An unknown marker is reported and the
// rate keeps the default interpretation.
func (p *parser) parseRate() (rule.RateKind, expr.Node, error) {
	kind := rule.RateDefault
	if tok := p.s.Peek(0); tok.Type == lexer.Ident && p.s.Peek(1).Type == lexer.Assign {
		p.s.Next()
		p.s.Next()
		if k, ok := rule.ParseRateMarker(tok.Text); ok {
			kind = k
		} else {
			p.unknownMarker(tok.Text, tok.Range)
		}
	}
	rate, err := p.symbolic()
	if err != nil {
		return 0, nil, err
	}
	return kind, rate, nil
}

func (p *parser) unknownMarker(word string, rng hcl.Range) {
	p.pc.Diags.Severe(rng, "Unknown rate marker",
		fmt.Sprintf("%q is not a rate marker; use rate, k, prob, p or probability. The expression is read as a default rate.", word))
}
