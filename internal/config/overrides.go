package config

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/spacerules/internal/ctxlog"
	"github.com/vk/spacerules/internal/valuerange"
)

// ErrInvalidAssignment is returned for a command-line override that is not
// of the form name=value.
var ErrInvalidAssignment = errors.New("override must have the form name=value")

// Overrides replace the values of model constants by name.
type Overrides map[string]valuerange.Value

// Merge copies other into o; values in other win.
func (o Overrides) Merge(other Overrides) {
	for k, v := range other {
		o[k] = v
	}
}

// Names returns the override names in sorted order.
func (o Overrides) Names() []string {
	names := make([]string, 0, len(o))
	for k := range o {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LoadFile reads an HCL file of top-level attributes. Blocks are not
// allowed, and expressions cannot reference variables or functions.
func LoadFile(ctx context.Context, path string) (Overrides, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading parameter file.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse parameter file %s: %w", path, diags)
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to read parameters from %s: %w", path, diags)
	}

	out := make(Overrides, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parameter %q in %s: %w", name, path, diags)
		}
		v, err := FromCty(val)
		if err != nil {
			return nil, fmt.Errorf("parameter %q in %s: %w", name, path, err)
		}
		out[name] = v
	}
	logger.Debug("Parameter file loaded.", "path", path, "count", len(out))
	return out, nil
}

// ParseAssignment splits `name=value` and evaluates value as an HCL
// expression. A value that is not a valid expression, such as a bare word,
// is taken as a string.
func ParseAssignment(s string) (string, valuerange.Value, error) {
	name, raw, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || !hclsyntax.ValidIdentifier(name) {
		return "", valuerange.Value{}, fmt.Errorf("%q: %w", s, ErrInvalidAssignment)
	}
	raw = strings.TrimSpace(raw)

	expr, diags := hclsyntax.ParseExpression([]byte(raw), name, hcl.Pos{Line: 1, Column: 1, Byte: 0})
	if !diags.HasErrors() {
		if val, diags := expr.Value(nil); !diags.HasErrors() {
			if v, err := FromCty(val); err == nil {
				return name, v, nil
			}
		}
	}
	return name, valuerange.String(raw), nil
}
