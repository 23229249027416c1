// Package scenario parses the YAML scenario files consumed by the
// inspection CLI: alias tables, renamings and query names, from which a
// resolver and a substitution are built.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/modsubst/internal/config"
	"github.com/funvibe/modsubst/internal/names"
	"github.com/funvibe/modsubst/internal/subst"
)

// Scenario is the top-level document.
type Scenario struct {
	// Library names the library the resolver belongs to (used when
	// saving snapshots).
	Library string `yaml:"library"`

	// Aliases populate the delta resolver.
	Aliases Aliases `yaml:"aliases"`

	// Inlines attach inline levels to kernel names.
	Inlines []Inline `yaml:"inlines,omitempty"`

	// Renamings build the substitution, in application order.
	Renamings []Pair `yaml:"renamings,omitempty"`

	// Queries are the names to resolve and print.
	Queries Queries `yaml:"queries"`
}

// Aliases holds the resolver tables.
type Aliases struct {
	Modules []Pair `yaml:"modules,omitempty"`
	Names   []Pair `yaml:"names,omitempty"`
}

// Pair is one src -> dst row.
type Pair struct {
	Src string `yaml:"src"`
	Dst string `yaml:"dst"`
}

// Inline is one inline annotation. A missing level means the default.
type Inline struct {
	Name  string `yaml:"name"`
	Level *int   `yaml:"level,omitempty"`
}

// Queries lists the names to resolve.
type Queries struct {
	Modules   []string `yaml:"modules,omitempty"`
	Constants []string `yaml:"constants,omitempty"`
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return Parse(data)
}

// Parse parses a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &sc, nil
}

// BuildResolver builds the delta resolver described by the scenario.
func (sc *Scenario) BuildResolver() (subst.DeltaResolver, error) {
	d := subst.EmptyDelta()
	for _, p := range sc.Aliases.Modules {
		src, err := names.ParseModulePath(p.Src)
		if err != nil {
			return d, err
		}
		dst, err := names.ParseModulePath(p.Dst)
		if err != nil {
			return d, err
		}
		d = d.AddModuleAlias(src, dst)
	}
	for _, p := range sc.Aliases.Names {
		src, err := names.ParseKernelName(p.Src)
		if err != nil {
			return d, err
		}
		dst, err := names.ParseKernelName(p.Dst)
		if err != nil {
			return d, err
		}
		d = d.AddNameAlias(src, dst)
	}
	for _, in := range sc.Inlines {
		kn, err := names.ParseKernelName(in.Name)
		if err != nil {
			return d, err
		}
		level := config.DefaultInlineLevel
		if in.Level != nil {
			level = *in.Level
		}
		d = d.AddInline(kn, level, nil)
	}
	return d, nil
}

// BuildSubstitution builds the substitution described by the scenario,
// every renaming carrying the scenario's resolver.
func (sc *Scenario) BuildSubstitution(d subst.DeltaResolver) (subst.Substitution, error) {
	s := subst.Empty()
	for _, p := range sc.Renamings {
		src, err := names.ParseModulePath(p.Src)
		if err != nil {
			return s, err
		}
		dst, err := names.ParseModulePath(p.Dst)
		if err != nil {
			return s, err
		}
		s = s.ExtendModulePath(src, dst, d)
	}
	return s, nil
}
