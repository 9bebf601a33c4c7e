package dtc

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// CompileError carries the failing tool's diagnostics so the caller can
// surface them verbatim.
type CompileError struct {
	Tool   string
	Output string
	Err    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("dtc: %s failed: %v", e.Tool, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Compiler shells out to the configured toolchain.
type Compiler struct {
	cfg Config
	log *log.Logger
}

// New creates a compiler. A nil logger discards diagnostics.
func New(cfg Config, logger *log.Logger) *Compiler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Compiler{cfg: cfg, log: logger}
}

// Compile preprocesses source with cpp and compiles the result to a dtb in
// outdir, returning the dtb path. When dtc rejects the preprocessed source
// it is retried once with checks forced off (-f); if that also fails the
// second run's diagnostics are returned. The intermediate preprocessed file
// is always removed.
func (c *Compiler) Compile(ctx context.Context, source, outdir string, includes []string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	pp := filepath.Join(outdir, base+".pp")
	out := filepath.Join(outdir, base+".dtb")

	c.log.Info("preprocessing device tree source", "source", source)
	if output, err := c.run(ctx, c.cfg.CPP, cppArgs(c.cfg, source, pp, includes)); err != nil {
		return "", &CompileError{Tool: "cpp", Output: output, Err: err}
	}
	defer os.Remove(pp)

	c.log.Info("compiling device tree", "source", pp, "output", out)
	output, err := c.run(ctx, c.cfg.DTC, dtcArgs(c.cfg, pp, out, includes, false))
	if err == nil {
		return out, nil
	}

	c.log.Warn("dtc failed, retrying with checks disabled", "source", pp)
	output, err = c.run(ctx, c.cfg.DTC, dtcArgs(c.cfg, pp, out, includes, true))
	if err != nil {
		return "", &CompileError{Tool: "dtc", Output: output, Err: err}
	}
	return out, nil
}

// Decompile turns a dtb back into device tree source at out.
func (c *Compiler) Decompile(ctx context.Context, blob, out string) error {
	c.log.Info("decompiling device tree blob", "blob", blob, "output", out)
	args := []string{"-I", "dtb", "-O", "dts", "-o", out, blob}
	if output, err := c.run(ctx, c.cfg.DTC, args); err != nil {
		return &CompileError{Tool: "dtc", Output: output, Err: err}
	}
	return nil
}

func (c *Compiler) run(ctx context.Context, tool string, args []string) (string, error) {
	c.log.Debug("exec", "tool", tool, "args", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, tool, args...)
	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		c.log.Debug("tool output", "tool", tool, "output", string(out))
	}
	return string(out), err
}

// cppArgs builds the preprocessor invocation. The source is treated as
// assembler-with-cpp so dts syntax survives the pass untouched.
func cppArgs(cfg Config, source, pp string, includes []string) []string {
	args := []string{"-nostdinc"}
	for _, dir := range includes {
		args = append(args, "-I", dir)
	}
	args = append(args, "-undef", "-x", "assembler-with-cpp")
	args = append(args, cfg.CPPFlags...)
	args = append(args, "-o", pp, source)
	return args
}

// dtcArgs builds the compiler invocation. force disables source checks.
func dtcArgs(cfg Config, pp, out string, includes []string, force bool) []string {
	args := []string{"-O", "dtb", "-o", out, "-b", "0", "-@"}
	if force {
		args = append(args, "-f")
	}
	for _, dir := range includes {
		args = append(args, "-i", dir)
	}
	args = append(args, cfg.DTCFlags...)
	args = append(args, "-I", "dts", pp)
	return args
}
