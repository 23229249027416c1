package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/funvibe/modsubst/internal/names"
	"github.com/funvibe/modsubst/internal/prettyprinter"
	"github.com/funvibe/modsubst/internal/scenario"
	"github.com/funvibe/modsubst/internal/store"
	"github.com/funvibe/modsubst/internal/subst"
)

const usage = `modsubst - inspect module-path substitutions and resolvers

Usage:
  modsubst resolve <scenario.yaml>         resolve the scenario's queries
  modsubst dump <scenario.yaml>            print resolver and substitution tables
  modsubst save <scenario.yaml> <dir>      save the resolver as a snapshot
  modsubst snapshots <dir>                 list stored snapshots

Flags:
  -v    verbose logging
`

var (
	colorHeader = "\033[1;36m"
	colorName   = "\033[33m"
	colorReset  = "\033[0m"
)

func main() {
	args := os.Args[1:]
	verbose := false
	filtered := args[:0]
	for _, a := range args {
		if a == "-v" || a == "--verbose" {
			verbose = true
			continue
		}
		filtered = append(filtered, a)
	}
	args = filtered

	if len(args) < 1 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		colorHeader, colorName, colorReset = "", "", ""
	}

	log := zap.NewNop()
	if verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			log = l
		}
	}
	defer log.Sync()

	var err error
	switch args[0] {
	case "resolve":
		err = runResolve(args[1:])
	case "dump":
		err = runDump(args[1:])
	case "save":
		err = runSave(args[1:], log)
	case "snapshots":
		err = runSnapshots(args[1:], log)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "modsubst: %v\n", err)
		os.Exit(1)
	}
}

func loadScenario(args []string) (*scenario.Scenario, subst.DeltaResolver, subst.Substitution, error) {
	var d subst.DeltaResolver
	var s subst.Substitution
	if len(args) != 1 {
		return nil, d, s, fmt.Errorf("expected exactly one scenario file")
	}
	sc, err := scenario.Load(args[0])
	if err != nil {
		return nil, d, s, err
	}
	d, err = sc.BuildResolver()
	if err != nil {
		return nil, d, s, err
	}
	s, err = sc.BuildSubstitution(d)
	if err != nil {
		return nil, d, s, err
	}
	return sc, d, s, nil
}

func runResolve(args []string) error {
	sc, d, s, err := loadScenario(args)
	if err != nil {
		return err
	}

	if len(sc.Queries.Modules) > 0 {
		fmt.Printf("%smodules%s\n", colorHeader, colorReset)
		for _, q := range sc.Queries.Modules {
			mp, err := names.ParseModulePath(q)
			if err != nil {
				return err
			}
			out := d.ResolveModule(s.ModulePath(mp))
			fmt.Printf("  %s%s%s -> %s\n", colorName, q, colorReset, out)
		}
	}
	if len(sc.Queries.Constants) > 0 {
		fmt.Printf("%sconstants%s\n", colorHeader, colorReset)
		for _, q := range sc.Queries.Constants {
			kn, err := names.ParseKernelName(q)
			if err != nil {
				return err
			}
			con, body := s.Constant(names.Constant{Name: kn})
			con = d.ResolveConst(con)
			fmt.Printf("  %s%s%s -> %s", colorName, q, colorReset, con)
			if body != nil {
				fmt.Printf("  (inlines to %s)", prettyprinter.Term(body))
			}
			fmt.Println()
		}
	}
	return nil
}

func runDump(args []string) error {
	_, d, s, err := loadScenario(args)
	if err != nil {
		return err
	}
	fmt.Printf("%sresolver%s\n%s", colorHeader, colorReset, prettyprinter.Resolver(d))
	fmt.Printf("%ssubstitution%s\n%s", colorHeader, colorReset, prettyprinter.Substitution(s))
	return nil
}

func runSave(args []string, log *zap.Logger) error {
	if len(args) != 2 {
		return fmt.Errorf("expected scenario file and store directory")
	}
	sc, d, _, err := loadScenario(args[:1])
	if err != nil {
		return err
	}
	st, err := store.Open(args[1], log)
	if err != nil {
		return err
	}
	defer st.Close()

	library := sc.Library
	if library == "" {
		library = "unnamed"
	}
	id, err := st.SaveSnapshot(library, d)
	if err != nil {
		return err
	}
	fmt.Printf("saved snapshot %s (library %s)\n", id, library)
	return nil
}

func runSnapshots(args []string, log *zap.Logger) error {
	if len(args) != 1 {
		return fmt.Errorf("expected store directory")
	}
	st, err := store.Open(args[0], log)
	if err != nil {
		return err
	}
	defer st.Close()

	infos, err := st.ListSnapshots()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("no snapshots")
		return nil
	}
	for _, info := range infos {
		fmt.Printf("%s%s%s  %s  %s  (%d modules, %d names)\n",
			colorName, info.ID, colorReset,
			info.Library,
			info.CreatedAt.Format("2006-01-02 15:04:05"),
			info.Modules, info.Names)
	}
	return nil
}
