package frontend

import (
	"math/rand"

	"github.com/vk/spacerules/internal/diag"
	"github.com/vk/spacerules/internal/model"
	"github.com/vk/spacerules/internal/population"
	"github.com/vk/spacerules/internal/rule"
	"github.com/vk/spacerules/internal/scope"
	"github.com/vk/spacerules/internal/species"
	"github.com/vk/spacerules/internal/valuerange"
)

// Options configure one parse.
type Options struct {
	// Name names the model; the file name without extension is used when empty.
	Name string
	// Overrides replace the values of constants with the same name.
	Overrides map[string]valuerange.Value
	// Seed drives sampling of init attribute ranges.
	Seed int64
	// SkipInvalidRules reports a failing rule and continues with the next
	// statement instead of failing the parse.
	SkipInvalidRules bool
}

// ParseContext is the state shared by every builder during one parse. It is
// owned by a single parse and never shared.
type ParseContext struct {
	Diags    *diag.Collector
	Scope    *scope.Scope
	Registry *species.Registry
	Rules    *rule.Builder
	Init     *population.Builder
	Flags    *model.Flags

	built []*rule.Rule
}

// NewParseContext wires a fresh scope, registry and builders together.
func NewParseContext(opts Options) *ParseContext {
	diags := diag.NewCollector()
	flags := &model.Flags{}
	sc := scope.New(diags, opts.Overrides, flags)
	reg := species.NewRegistry(diags)
	return &ParseContext{
		Diags:    diags,
		Scope:    sc,
		Registry: reg,
		Rules:    rule.NewBuilder(sc, reg),
		Init:     population.NewBuilder(reg, diags, rand.New(rand.NewSource(opts.Seed))),
		Flags:    flags,
	}
}

// Unwind restores a consistent state after a hard error: open loops are
// closed, the rule in progress is dropped and nested init levels are
// discarded. Rules and entities finished earlier are kept.
func (pc *ParseContext) Unwind() {
	pc.Scope.Unwind()
	pc.Rules.Abort()
	pc.Init.Unwind()
}

// AddRule records a finished rule.
func (pc *ParseContext) AddRule(r *rule.Rule) {
	pc.built = append(pc.built, r)
}

// Assemble produces the model from everything collected so far.
func (pc *ParseContext) Assemble(name string, src *model.Source) *model.Model {
	return model.Assemble(name, model.Input{
		Source:     src,
		Constants:  pc.Scope.Defined(),
		Used:       pc.Scope.Used(),
		Species:    pc.Registry.All(),
		Rules:      pc.built,
		Population: pc.Init.Current(),
		Flags:      *pc.Flags,
	})
}
