package scenario

import (
	"testing"

	"github.com/funvibe/modsubst/internal/config"
	"github.com/funvibe/modsubst/internal/names"
)

const sampleScenario = `
library: Lib
aliases:
  modules:
    - {src: Lib.M, dst: Lib.N}
  names:
    - {src: Lib.N.c, dst: Lib.N.origC}
inlines:
  - {name: Lib.N.small, level: 10}
  - {name: Lib.N.tiny}
renamings:
  - {src: Lib.M, dst: Lib.N}
queries:
  modules: [Lib.M.x]
  constants: [Lib.M.c]
`

func TestParseScenario(t *testing.T) {
	sc, err := Parse([]byte(sampleScenario))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Library != "Lib" {
		t.Errorf("library = %s", sc.Library)
	}
	if len(sc.Aliases.Modules) != 1 || len(sc.Aliases.Names) != 1 {
		t.Errorf("alias counts = %d,%d", len(sc.Aliases.Modules), len(sc.Aliases.Names))
	}
	if len(sc.Inlines) != 2 || len(sc.Renamings) != 1 {
		t.Errorf("inline/renaming counts = %d,%d", len(sc.Inlines), len(sc.Renamings))
	}
	if len(sc.Queries.Modules) != 1 || len(sc.Queries.Constants) != 1 {
		t.Errorf("query counts = %d,%d", len(sc.Queries.Modules), len(sc.Queries.Constants))
	}
}

func TestBuildResolverAndSubstitution(t *testing.T) {
	sc, err := Parse([]byte(sampleScenario))
	if err != nil {
		t.Fatal(err)
	}
	d, err := sc.BuildResolver()
	if err != nil {
		t.Fatal(err)
	}
	s, err := sc.BuildSubstitution(d)
	if err != nil {
		t.Fatal(err)
	}

	mp, _ := names.ParseModulePath("Lib.M.x")
	if got := d.ResolveModule(s.ModulePath(mp)); got.String() != "Lib.N.x" {
		t.Errorf("resolve(Lib.M.x) = %s, want Lib.N.x", got)
	}

	kn, _ := names.ParseKernelName("Lib.M.c")
	con, _ := s.Constant(names.Constant{Name: kn})
	if con.Name.String() != "Lib.N.origC" {
		t.Errorf("resolve(Lib.M.c) = %s, want Lib.N.origC", con)
	}

	inl := d.ListInlinable()
	if len(inl) != 2 {
		t.Fatalf("inline entries = %d, want 2", len(inl))
	}
	levels := map[string]int{}
	for _, e := range inl {
		levels[e.Name.String()] = e.Level
	}
	if levels["Lib.N.small"] != 10 {
		t.Errorf("small level = %d", levels["Lib.N.small"])
	}
	if levels["Lib.N.tiny"] != config.DefaultInlineLevel {
		t.Errorf("missing level must default to %d, got %d",
			config.DefaultInlineLevel, levels["Lib.N.tiny"])
	}
}

func TestBuildResolverBadNames(t *testing.T) {
	sc := &Scenario{
		Aliases: Aliases{Modules: []Pair{{Src: "", Dst: "Lib.N"}}},
	}
	if _, err := sc.BuildResolver(); err == nil {
		t.Fatalf("empty module path must be rejected")
	}
}
