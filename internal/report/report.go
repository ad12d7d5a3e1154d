// Package report renders parsed models as a YAML document for review and
// for tools that consume the model without linking against it.
package report

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/spacerules/internal/config"
	"github.com/vk/spacerules/internal/model"
	"github.com/vk/spacerules/internal/valuerange"
	"gopkg.in/yaml.v3"
)

// Report is the document written for one run.
type Report struct {
	Models []ModelReport `yaml:"models"`
}

// ModelReport summarizes one model. Failed is set when the model could not
// be built; only its diagnostics are reported then.
type ModelReport struct {
	Name        string       `yaml:"name"`
	File        string       `yaml:"file"`
	Failed      bool         `yaml:"failed,omitempty"`
	Error       string       `yaml:"error,omitempty"`
	Constants   []Constant   `yaml:"constants,omitempty"`
	Species     []string     `yaml:"species,omitempty"`
	Rules       []string     `yaml:"rules,omitempty"`
	Population  []Count      `yaml:"population,omitempty"`
	Flags       *Flags       `yaml:"flags,omitempty"`
	Diagnostics []Diagnostic `yaml:"diagnostics,omitempty"`
}

// Constant is one global constant and whether any statement read it.
type Constant struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
	Type  string `yaml:"type"`
	Used  bool   `yaml:"used"`
}

// Count is one initial population entry.
type Count struct {
	Entity string `yaml:"entity"`
	Count  int    `yaml:"count"`
}

// Flags are the global settings.
type Flags struct {
	InstantTransfer bool   `yaml:"instant_transfer"`
	Periodic        string `yaml:"periodic,omitempty"`
}

// Diagnostic is a warning or severe message with its location.
type Diagnostic struct {
	Severity string `yaml:"severity"`
	Summary  string `yaml:"summary"`
	Detail   string `yaml:"detail,omitempty"`
	Location string `yaml:"location,omitempty"`
}

// New returns an empty report.
func New() *Report {
	return &Report{Models: []ModelReport{}}
}

// Add appends a successfully built model.
func (r *Report) Add(m *model.Model, diags hcl.Diagnostics) {
	r.Models = append(r.Models, Describe(m, diags))
}

// AddFailure appends a model that could not be built.
func (r *Report) AddFailure(file string, diags hcl.Diagnostics, err error) {
	src := model.NewSource(file)
	r.Models = append(r.Models, ModelReport{
		Name:        src.DisplayName(),
		File:        file,
		Failed:      true,
		Error:       err.Error(),
		Diagnostics: describeDiagnostics(diags),
	})
}

// Describe builds the report entry for m.
func Describe(m *model.Model, diags hcl.Diagnostics) ModelReport {
	used := make(map[string]bool)
	for _, name := range m.UsedConstants() {
		used[name] = true
	}
	constants := m.Constants()
	mr := ModelReport{
		Name:        m.Name(),
		File:        m.Source().FilePath,
		Diagnostics: describeDiagnostics(diags),
	}
	for _, name := range m.DefinedConstants() {
		r := constants[name]
		mr.Constants = append(mr.Constants, Constant{
			Name:  name,
			Value: r.String(),
			Type:  typeName(r),
			Used:  used[name],
		})
	}
	for _, def := range m.Species() {
		mr.Species = append(mr.Species, def.String())
	}
	for _, rl := range m.Rules() {
		mr.Rules = append(mr.Rules, rl.String())
	}
	for _, e := range m.Population() {
		mr.Population = append(mr.Population, Count{Entity: e.Entity.Key(), Count: e.Count})
	}
	flags := m.Flags()
	mr.Flags = &Flags{InstantTransfer: flags.InstantTransfer}
	if flags.Periodic != nil {
		mr.Flags.Periodic = flags.Periodic.String()
	}
	return mr
}

// typeName names a single value by its HCL type and any other range by its
// kind.
func typeName(r valuerange.Range) string {
	v, ok := r.Value()
	if !ok {
		return r.Kind().String()
	}
	val, err := config.ToCty(v)
	if err != nil {
		return r.Kind().String()
	}
	return val.Type().FriendlyName()
}

func describeDiagnostics(diags hcl.Diagnostics) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		rd := Diagnostic{Severity: "warning", Summary: d.Summary, Detail: d.Detail}
		if d.Severity == hcl.DiagError {
			rd.Severity = "severe"
		}
		if d.Subject != nil {
			rd.Location = fmt.Sprintf("%s:%d,%d", d.Subject.Filename, d.Subject.Start.Line, d.Subject.Start.Column)
		}
		out = append(out, rd)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity == "severe" && out[j].Severity != "severe"
	})
	return out
}

// Write encodes the report as YAML with two-space indentation.
func (r *Report) Write(w io.Writer) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("report: encoder close: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("report: write: %w", err)
	}
	return nil
}
