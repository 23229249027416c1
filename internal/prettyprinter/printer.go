// Package prettyprinter renders resolvers, substitutions and terms for
// debugging and the inspection CLI. Output format is presentational only
// and not parsed back.
package prettyprinter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/funvibe/modsubst/internal/subst"
	"github.com/funvibe/modsubst/internal/term"
)

// Resolver renders a delta resolver as an indented table.
func Resolver(d subst.DeltaResolver) string {
	var buf bytes.Buffer
	mods := d.ModuleAliases()
	kns := d.NameAliases()
	if len(mods) == 0 && len(kns) == 0 {
		return "(empty resolver)\n"
	}
	for _, a := range mods {
		fmt.Fprintf(&buf, "module  %s -> %s\n", a[0], a[1])
	}
	for _, a := range kns {
		if a.Dst != nil {
			fmt.Fprintf(&buf, "name    %s -> %s", a.Src, a.Dst)
		} else {
			fmt.Fprintf(&buf, "name    %s", a.Src)
		}
		if a.Inline != nil {
			fmt.Fprintf(&buf, "  [inline level=%d", a.Inline.Level)
			if a.Inline.Body != nil {
				buf.WriteString(" with body")
			}
			buf.WriteByte(']')
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

// Substitution renders the steps of a substitution in application order.
func Substitution(s subst.Substitution) string {
	rens := s.Renamings()
	if len(rens) == 0 {
		return "(identity)\n"
	}
	var buf bytes.Buffer
	for i, r := range rens {
		if r.BoundSrc != nil {
			fmt.Fprintf(&buf, "%2d: %s -> %s\n", i, r.BoundSrc, r.Dst)
		} else {
			fmt.Fprintf(&buf, "%2d: %s -> %s\n", i, r.PathSrc, r.Dst)
		}
	}
	return buf.String()
}

// Term renders a term in a compact prefix form.
func Term(t term.Term) string {
	var buf bytes.Buffer
	writeTerm(&buf, t)
	return buf.String()
}

func writeTerm(buf *bytes.Buffer, t term.Term) {
	switch n := t.(type) {
	case *term.Rel:
		fmt.Fprintf(buf, "#%d", n.Index)
	case *term.Var:
		buf.WriteString(string(n.Name))
	case *term.Sort:
		switch n.Kind {
		case term.SProp:
			buf.WriteString("Prop")
		case term.SSet:
			buf.WriteString("Set")
		default:
			buf.WriteString("Type")
		}
	case *term.Const:
		buf.WriteString(n.Ref.String())
	case *term.IndT:
		buf.WriteString(n.Ref.String())
	case *term.ConstructT:
		buf.WriteString(n.Ref.String())
	case *term.App:
		buf.WriteByte('(')
		writeTerm(buf, n.Fun)
		for _, a := range n.Args {
			buf.WriteByte(' ')
			writeTerm(buf, a)
		}
		buf.WriteByte(')')
	case *term.Lambda:
		fmt.Fprintf(buf, "(fun %s : ", n.Name)
		writeTerm(buf, n.Type)
		buf.WriteString(" => ")
		writeTerm(buf, n.Body)
		buf.WriteByte(')')
	case *term.Prod:
		fmt.Fprintf(buf, "(forall %s : ", n.Name)
		writeTerm(buf, n.Type)
		buf.WriteString(", ")
		writeTerm(buf, n.Body)
		buf.WriteByte(')')
	case *term.LetIn:
		fmt.Fprintf(buf, "(let %s := ", n.Name)
		writeTerm(buf, n.Value)
		buf.WriteString(" in ")
		writeTerm(buf, n.Body)
		buf.WriteByte(')')
	case *term.Case:
		buf.WriteString("(match ")
		writeTerm(buf, n.Scrut)
		buf.WriteString(" with")
		parts := make([]string, 0, len(n.Branches))
		for _, b := range n.Branches {
			parts = append(parts, Term(b))
		}
		if len(parts) > 0 {
			buf.WriteByte(' ')
			buf.WriteString(strings.Join(parts, " | "))
		}
		buf.WriteByte(')')
	default:
		buf.WriteString("?")
	}
}
