package frontend

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/spacerules/internal/ctxlog"
	"github.com/vk/spacerules/internal/diag"
	"github.com/vk/spacerules/internal/expr"
	"github.com/vk/spacerules/internal/lexer"
	"github.com/vk/spacerules/internal/model"
)

// ErrSyntax marks malformed source text.
var ErrSyntax = expr.ErrSyntax

// Parse builds a model from src. The returned diagnostics hold every warning
// and severe message, also when err is not nil. A nil model comes with a
// non-nil error.
func Parse(ctx context.Context, src []byte, filename string, opts Options) (*model.Model, hcl.Diagnostics, error) {
	ctx = ctxlog.With(ctx, "file", filename)
	logger := ctxlog.FromContext(ctx)
	pc := NewParseContext(opts)

	toks, err := lexer.Lex(src, filename)
	if err != nil {
		return nil, pc.Diags.Diagnostics(), err
	}
	p := &parser{ctx: ctx, pc: pc, s: lexer.NewStream(toks), opts: opts}
	if err := p.parseModel(); err != nil {
		pc.Unwind()
		logger.Debug("Model parse failed.", "error", err)
		return nil, pc.Diags.Diagnostics(), err
	}

	for _, name := range pc.Scope.UnusedOverrides() {
		pc.Diags.Warn(hcl.Range{Filename: filename}, "Unused override",
			fmt.Sprintf("Override %q does not match any constant defined in the model.", name))
	}
	source := model.NewSource(filename)
	name := opts.Name
	if name == "" {
		name = source.DisplayName()
	}
	m := pc.Assemble(name, source)
	logger.Debug("Model assembled.", "model", name, "species", len(m.Species()), "rules", len(m.Rules()), "diagnostics", pc.Diags.Len())
	return m, pc.Diags.Diagnostics(), nil
}

// parser reads statements from one token stream. Loop bodies are replayed by
// child parsers sharing the same ParseContext.
type parser struct {
	ctx  context.Context
	pc   *ParseContext
	s    *lexer.Stream
	opts Options
}

// sealSpecies closes the declaration section at the first rule or init
// block.
func (p *parser) sealSpecies() {
	if p.pc.Registry.Sealed() {
		return
	}
	p.pc.Registry.Seal()
	ctxlog.FromContext(p.ctx).Debug("Species declarations closed.", "species", len(p.pc.Registry.All()))
}

func (p *parser) child(body []lexer.Token) *parser {
	return &parser{ctx: p.ctx, pc: p.pc, s: lexer.NewStream(body), opts: p.opts}
}

func (p *parser) parseModel() error {
	for {
		tok := p.s.Peek(0)
		switch {
		case tok.Type == lexer.EOF:
			return nil
		case tok.Type == lexer.Semicolon:
			p.s.Next()
		case tok.Is("species") && p.s.Peek(1).Type == lexer.Ident:
			if err := p.parseSpecies(); err != nil {
				return err
			}
		case tok.Is("init") && p.s.Peek(1).Type == lexer.LBrack:
			p.sealSpecies()
			if err := p.parseInit(); err != nil {
				return err
			}
		case tok.Type == lexer.Ident && p.s.Peek(1).Type == lexer.Assign:
			if err := p.parseConstant(); err != nil {
				return err
			}
		default:
			p.sealSpecies()
			mark := p.s.Mark()
			err := p.parseRule()
			if err == nil {
				continue
			}
			if !p.opts.SkipInvalidRules {
				return err
			}
			p.pc.Unwind()
			p.reportSkipped(tok.Range, err)
			p.s.Rewind(mark)
			p.skipStatement()
		}
	}
}

// reportSkipped turns a rule's hard error into a severe diagnostic.
func (p *parser) reportSkipped(start hcl.Range, err error) {
	var positioned *diag.Error
	if errors.As(err, &positioned) {
		d := positioned.Diagnostic()
		d.Summary = "Rule skipped"
		p.pc.Diags.Append(hcl.Diagnostics{d})
	} else {
		p.pc.Diags.Severe(start, "Rule skipped", err.Error())
	}
	ctxlog.FromContext(p.ctx).Debug("Invalid rule skipped.", "line", start.Start.Line, "error", err)
}

// skipStatement advances past the next ';' outside any brackets.
func (p *parser) skipStatement() {
	depth := 0
	for {
		switch p.s.Next().Type {
		case lexer.EOF:
			return
		case lexer.LParen, lexer.LBrack, lexer.LBrace:
			depth++
		case lexer.RParen, lexer.RBrack, lexer.RBrace:
			if depth > 0 {
				depth--
			}
		case lexer.Semicolon:
			if depth == 0 {
				return
			}
		}
	}
}

func (p *parser) parseConstant() error {
	name := p.s.Next()
	p.s.Next() // '='
	r, err := p.parseRange(false)
	if err != nil {
		return err
	}
	if _, err := p.expect(lexer.Semicolon); err != nil {
		return err
	}
	stored := p.pc.Scope.Define(name.Text, r, name.Range)
	ctxlog.FromContext(p.ctx).Debug("Constant defined.", "name", name.Text, "value", stored.String())
	return nil
}

func (p *parser) expect(typ lexer.TokenType) (lexer.Token, error) {
	if tok, ok := p.s.Accept(typ); ok {
		return tok, nil
	}
	return lexer.Token{}, p.unexpected(typ.String())
}

func (p *parser) ident(what string) (lexer.Token, error) {
	if tok, ok := p.s.Accept(lexer.Ident); ok {
		return tok, nil
	}
	return lexer.Token{}, p.unexpected(what)
}

func (p *parser) unexpected(want string) error {
	tok := p.s.Peek(0)
	return diag.Errorf(tok.Range, "expected %s, found %s: %w", want, tok, ErrSyntax)
}

// numeric parses an expression and evaluates it immediately. Names must
// resolve to constants or loop values.
func (p *parser) numeric() (float64, hcl.Range, error) {
	start := p.s.Peek(0).Range
	n, err := expr.NewParser(p.s, p.pc.Scope).ParseExpr()
	if err != nil {
		return 0, start, err
	}
	v, err := expr.EvalConst(n)
	if err != nil {
		return 0, start, diag.Wrap(start, err)
	}
	return v, start, nil
}

// symbolic parses an expression evaluated later against a rule's match
// variables. Names not bound in the current rule are reported once.
func (p *parser) symbolic() (expr.Node, error) {
	ep := expr.NewParser(p.s, p.pc.Scope)
	ep.Symbolic = true
	ep.OnSymbol = func(name string, rng hcl.Range) {
		p.pc.Scope.CheckReference(name, rng)
	}
	return ep.ParseExpr()
}
