package names

import (
	"testing"
)

func TestParseModulePath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "Lib", want: "Lib"},
		{in: "Lib.M", want: "Lib.M"},
		{in: "Lib.M.N", want: "Lib.M.N"},
		{in: "", wantErr: true},
		{in: "Lib..M", wantErr: true},
	}
	for _, tt := range tests {
		mp, err := ParseModulePath(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseModulePath(%q): expected error, got %v", tt.in, mp)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseModulePath(%q): %v", tt.in, err)
			continue
		}
		if mp.String() != tt.want {
			t.Errorf("ParseModulePath(%q) = %s, want %s", tt.in, mp, tt.want)
		}
	}
}

func TestParseModulePathShape(t *testing.T) {
	mp, err := ParseModulePath("Lib.M.N")
	if err != nil {
		t.Fatal(err)
	}
	dot, ok := mp.(*DotPath)
	if !ok || dot.Label != "N" {
		t.Fatalf("expected outer DotPath with label N, got %#v", mp)
	}
	inner, ok := dot.Parent.(*DotPath)
	if !ok || inner.Label != "M" {
		t.Fatalf("expected inner DotPath with label M, got %#v", dot.Parent)
	}
	top, ok := inner.Parent.(*TopPath)
	if !ok || top.Dir != "Lib" {
		t.Fatalf("expected TopPath Lib, got %#v", inner.Parent)
	}
}

func TestSameModulePath(t *testing.T) {
	a, _ := ParseModulePath("Lib.M.N")
	b, _ := ParseModulePath("Lib.M.N")
	c, _ := ParseModulePath("Lib.M.O")

	if a == b {
		t.Fatalf("distinct parses should not be pointer-equal")
	}
	if !SameModulePath(a, a) {
		t.Errorf("a should equal itself")
	}
	if !SameModulePath(a, b) {
		t.Errorf("structurally equal paths should compare equal")
	}
	if SameModulePath(a, c) {
		t.Errorf("%s and %s should differ", a, c)
	}

	p := NewBoundPath(FreshBoundID(NewLabel("P")))
	if SameModulePath(a, p) {
		t.Errorf("top and bound paths should differ")
	}
	if !SameModulePath(p, p) {
		t.Errorf("bound path should equal itself")
	}
}

func TestFreshBoundIDUnique(t *testing.T) {
	name := NewLabel("P")
	seen := make(map[uint64]bool)
	for i := 0; i < 100; i++ {
		id := FreshBoundID(name)
		if seen[id.Tag] {
			t.Fatalf("tag %d handed out twice", id.Tag)
		}
		seen[id.Tag] = true
	}
}

func TestContainsBound(t *testing.T) {
	top, _ := ParseModulePath("Lib.M")
	if ContainsBound(top) {
		t.Errorf("%s has no bound node", top)
	}
	bound := NewBoundPath(FreshBoundID(NewLabel("P")))
	if !ContainsBound(bound) {
		t.Errorf("bound path should report true")
	}
	nested := NewDotPath(NewDotPath(bound, NewLabel("A")), NewLabel("B"))
	if !ContainsBound(nested) {
		t.Errorf("%s roots at a bound path", nested)
	}
}

func TestParseKernelName(t *testing.T) {
	kn, err := ParseKernelName("Lib.M.c")
	if err != nil {
		t.Fatal(err)
	}
	if kn.Label != "c" {
		t.Errorf("label = %s, want c", kn.Label)
	}
	if kn.Module.String() != "Lib.M" {
		t.Errorf("module = %s, want Lib.M", kn.Module)
	}
	if kn.String() != "Lib.M.c" {
		t.Errorf("round trip = %s", kn)
	}

	for _, bad := range []string{"", "c", ".c", "c."} {
		if _, err := ParseKernelName(bad); err == nil {
			t.Errorf("ParseKernelName(%q): expected error", bad)
		}
	}
}

func TestSameKernelName(t *testing.T) {
	a, _ := ParseKernelName("Lib.M.c")
	b, _ := ParseKernelName("Lib.M.c")
	c, _ := ParseKernelName("Lib.M.d")

	if !SameKernelName(a, a) || !SameKernelName(a, b) {
		t.Errorf("equal names should compare equal")
	}
	if SameKernelName(a, c) {
		t.Errorf("%s and %s should differ", a, c)
	}
	if a.Hash() != b.Hash() {
		t.Errorf("equal names should hash equally")
	}
}

func TestLabelInterning(t *testing.T) {
	a := NewLabel("shared")
	b := NewLabel("shared")
	if a != b {
		t.Errorf("interned labels should be equal")
	}
}
