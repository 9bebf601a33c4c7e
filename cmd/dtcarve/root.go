package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/joshuapare/dtkit/fdt"
	"github.com/joshuapare/dtkit/internal/dtc"
	"github.com/joshuapare/dtkit/xform"
	"github.com/joshuapare/dtkit/xform/domains"
)

var (
	// Global flags
	verbosity  int
	target     string
	dumpTree   bool
	inputs     []string
	output     string
	force      bool
	configPath string
)

// usageError marks command-line mistakes so main can exit with status 2
// instead of the general failure status 1.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

var rootCmd = &cobra.Command{
	Use:   "dtcarve [flags] <system dts|dtb> [output]",
	Short: "Carve a system device tree into domain-specific views",
	Long: `dtcarve takes a system device tree plus transform fragments and
produces a modified tree: domain modules partition resources, modify
transforms delete or rename nodes and properties, and nodes marked
inaccessible are pruned. Sources are compiled with cpp and dtc; the
result is written as a dtb, decompiled back to dts, or dumped to stdout.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args: func(_ *cobra.Command, args []string) error {
		if len(args) < 1 || len(args) > 2 {
			return usageError{fmt.Errorf("expected <system tree> and optional output, got %d arguments", len(args))}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), args)
	},
}

func init() {
	f := rootCmd.Flags()
	f.CountVarP(&verbosity, "verbose", "v", "Increase diagnostic verbosity (repeatable)")
	f.StringVarP(&target, "target", "t", "", "Starting domain path applied before any transform input")
	f.BoolVarP(&dumpTree, "dump", "d", false, "Write the transformed tree as source to stdout")
	f.StringArrayVarP(&inputs, "input", "i", nil, "Transform fragment file (dts or dtb), repeatable")
	f.StringVarP(&output, "output", "o", "", "Output file; a .dts suffix decompiles the result")
	f.BoolVarP(&force, "force", "f", false, "Overwrite an existing output file")
	f.StringVar(&configPath, "config", "", "Toolchain configuration file (TOML)")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
}

func newLogger(verbosity int) *log.Logger {
	level := log.WarnLevel
	switch {
	case verbosity == 1:
		level = log.InfoLevel
	case verbosity >= 2:
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{Level: level})
}

func run(ctx context.Context, args []string) error {
	logger := newLogger(verbosity)

	cfg, err := dtc.LoadConfig(configPath)
	if err != nil {
		return err
	}
	comp := dtc.New(cfg, logger)

	workdir, err := os.MkdirTemp("", "dtcarve-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(workdir)

	tree, err := loadTree(ctx, comp, args[0], workdir)
	if err != nil {
		return err
	}
	frags := make([]*fdt.Tree, 0, len(inputs))
	for _, in := range inputs {
		frag, err := loadTree(ctx, comp, in, workdir)
		if err != nil {
			return err
		}
		frags = append(frags, frag)
	}

	registry := xform.NewRegistry()
	if err := domains.Register(registry); err != nil {
		return err
	}
	engine := xform.NewEngine(tree, registry, xform.Options{Target: target, Logger: logger})
	if err := engine.Apply(frags); err != nil {
		return err
	}
	if err := engine.PruneInaccessible(); err != nil {
		return err
	}

	if dumpTree {
		return writeTree(os.Stdout, tree)
	}

	out := output
	if out == "" && len(args) == 2 {
		out = args[1]
	}
	if out == "" {
		logger.Warn("no output file given, discarding result")
		return nil
	}
	if !force {
		if _, err := os.Stat(out); err == nil {
			return fmt.Errorf("output %s exists, pass --force to overwrite", out)
		}
	}

	blob, err := tree.Encode()
	if err != nil {
		return err
	}
	if strings.HasSuffix(out, ".dts") {
		tmp := filepath.Join(workdir, "result.dtb")
		if err := os.WriteFile(tmp, blob, 0o644); err != nil {
			return err
		}
		return comp.Decompile(ctx, tmp, out)
	}
	logger.Info("writing transformed tree", "output", out)
	return os.WriteFile(out, blob, 0o644)
}

// loadTree reads a tree from path, compiling device tree source files first.
// Compiled blobs land in a fresh subdirectory of workdir so fragments with
// the same base name never collide.
func loadTree(ctx context.Context, comp *dtc.Compiler, path, workdir string) (*fdt.Tree, error) {
	p := path
	if ext := filepath.Ext(path); ext == ".dts" || ext == ".dtsi" {
		outdir, err := os.MkdirTemp(workdir, "build-")
		if err != nil {
			return nil, err
		}
		p, err = comp.Compile(ctx, path, outdir, []string{filepath.Dir(path)})
		if err != nil {
			return nil, err
		}
	}
	blob, err := fdt.Load(p)
	if err != nil {
		return nil, err
	}
	defer blob.Close()
	return fdt.Decode(blob.Bytes())
}
