package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vrtl-hdl/vrtlc/pkg/ast"
	"github.com/vrtl-hdl/vrtlc/pkg/config"
	"github.com/vrtl-hdl/vrtlc/pkg/diag"
	"github.com/vrtl-hdl/vrtlc/pkg/hdl"
	"github.com/vrtl-hdl/vrtlc/pkg/stats"
	"github.com/vrtl-hdl/vrtlc/pkg/trace"
	"github.com/vrtl-hdl/vrtlc/pkg/unroll"
)

var version = "0.1.0"

// Debug flags for dumping intermediate state
var (
	dAST    bool
	dUnroll bool
	dStats  bool
)

var (
	vcdPath    string
	configPath string
	verbose    bool
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	// Normalize CompCert-style single-dash flags to double-dash for pflag compatibility
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// debugFlagNames lists every long flag that should also accept single-dash
// style, the CompCert convention ralph-cc's own CLI follows. "verbose"
// isn't here: it already has a "-v" shorthand pflag recognizes natively.
var debugFlagNames = []string{"dast", "dunroll", "stats"}

// normalizeFlags converts single-dash flags like -dast to --dast.
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		result[i] = arg
		for _, flagName := range debugFlagNames {
			if arg == "-"+flagName {
				result[i] = "--" + flagName
				break
			}
		}
	}
	return result
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vrtlc [file]",
		Short: "vrtlc elaborates and unrolls loops in a small HDL subset",
		Long: `vrtlc parses a Verilog-subset HDL file, mandatorily unrolls every
generate-for loop at elaboration time, then best-effort unrolls the
procedural while loops it can during optimization.`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return compile(args[0], out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVar(&dAST, "dast", false, "dump the parsed tree before unrolling")
	rootCmd.Flags().BoolVar(&dUnroll, "dunroll", false, "dump the tree after unrolling")
	rootCmd.Flags().BoolVar(&dStats, "stats", false, "print the unroll pass's counters")
	rootCmd.Flags().StringVar(&vcdPath, "vcd", "", "write a VCD subset of the unrolled trace to this file")
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a vrtlc.yaml config file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "set the log level to debug")

	return rootCmd
}

// compile runs the whole pipeline over filename: parse, mandatory
// generate-for elaboration, best-effort while-loop optimization,
// then whichever debug dumps were requested.
func compile(filename string, out, errOut io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(errOut, "vrtlc: loading config: %v\n", err)
		return err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	logger := cfg.NewLogger()
	logger.Debug("starting compile", "file", filename)

	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "vrtlc: error reading %s: %v\n", filename, err)
		return err
	}

	tree, module, genNames, err := parseFile(filename, string(content), errOut)
	if err != nil {
		return err
	}

	if dAST {
		hdl.NewPrinter(out, tree).PrintModule(module)
	}

	sink := stats.New()
	if err := elaborate(tree, cfg, sink, module, genNames, errOut); err != nil {
		return err
	}

	_, _, body := tree.BlockInfo(module)
	if err := unroll.UnrollAll(tree, cfg, sink, body); err != nil {
		fmt.Fprintf(errOut, "vrtlc: %v\n", err)
		return err
	}

	if dUnroll {
		hdl.NewPrinter(out, tree).PrintModule(module)
	}
	if dStats {
		printStats(out, sink)
	}
	if vcdPath != "" {
		if err := writeVCD(tree, module, vcdPath); err != nil {
			fmt.Fprintf(errOut, "vrtlc: %v\n", err)
			return err
		}
	}
	return nil
}

// parseFile lexes and parses content, returning the resulting tree and
// module-block handle. A non-empty parser error list is reported in full
// and returned as a single error, the way parseFile in ralph-cc's own CLI
// accumulates errors instead of stopping at the first one.
func parseFile(filename, content string, errOut io.Writer) (*ast.Tree, ast.Handle, map[ast.Handle]string, error) {
	tree := ast.New()
	l := hdl.NewLexer(filename, content)
	p := hdl.NewParser(tree, l, filename)
	module := p.ParseModule()

	if errs := p.Errors(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(errOut, e)
		}
		return nil, ast.Nil, nil, fmt.Errorf("vrtlc: parsing %s failed with %d error(s)", filename, len(errs))
	}
	return tree, module, p.GenerateNames(), nil
}

// elaborate runs the mandatory generate-for pass over every generate-for
// loop in module, in source order. A user-visible shape failure is
// reported at its loop's location but does not stop later loops from
// being attempted; a fatal error aborts immediately.
func elaborate(tree *ast.Tree, cfg *config.Config, sink *stats.Sink, module ast.Handle, genNames map[ast.Handle]string, errOut io.Writer) error {
	_, _, body := tree.BlockInfo(module)
	loops := collectGenFors(tree, body)

	var reporter diag.Reporter
	for _, loop := range loops {
		err := unroll.UnrollGenerate(tree, cfg, sink, loop, genNames[loop])
		if err == nil {
			continue
		}
		if _, fatal := err.(*diag.FatalError); fatal {
			fmt.Fprintf(errOut, "vrtlc: %v\n", err)
			return err
		}
		reporter.Report(err)
	}

	if reporter.HasErrors() {
		for _, err := range reporter.Errors() {
			fmt.Fprintf(errOut, "vrtlc: %v\n", err)
		}
		return fmt.Errorf("vrtlc: elaboration failed with %d error(s)", len(reporter.Errors()))
	}
	return nil
}

// collectGenFors walks the module body in pre-order collecting every
// generate-for loop handle. Generate-for loops are only legal directly
// inside a module body in the grammar pkg/hdl parses, but the walk still
// descends into begin blocks so a future grammar extension doesn't
// silently go unvisited here.
func collectGenFors(tree *ast.Tree, head ast.Handle) []ast.Handle {
	var loops []ast.Handle
	var walk func(ast.Handle)
	walk = func(n ast.Handle) {
		for ; n != ast.Nil; n = tree.Next(n) {
			switch tree.Kind(n) {
			case ast.KindGenFor:
				loops = append(loops, n)
			case ast.KindBlock:
				_, _, b := tree.BlockInfo(n)
				walk(b)
			}
		}
	}
	walk(head)
	return loops
}

func printStats(out io.Writer, sink *stats.Sink) {
	for label, count := range sink.Snapshot() {
		fmt.Fprintf(out, "%s: %d\n", label, count)
	}
}

func writeVCD(tree *ast.Tree, module ast.Handle, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	name, _, body := tree.BlockInfo(module)
	w := trace.NewWriter(f)
	return w.WriteModule(tree, name, body)
}
