// Package task implements the task executor of spec §4.7: materialize
// inputs into a task-scoped directory, render and run a task's command as a
// Bash script, and collect its outputs. Grounded on the subprocess-spawn
// and work-dir shape of other_examples' wilke-GoWe LocalExecutor
// (internal/executor/local.go: os.MkdirAll the task dir, exec.CommandContext
// with captured stdout/stderr buffers, *exec.ExitError for the exit code),
// adapted to WDL's declaration-evaluation/command-rendering/output-coercion
// pipeline and to this module's own `log`-based ambient logging instead of
// that example's slog.
package task

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/bindings"
	"github.com/lemonberrylabs/wdl-engine/pkg/eval"
	"github.com/lemonberrylabs/wdl-engine/pkg/pathmap"
	"github.com/lemonberrylabs/wdl-engine/pkg/stdlib"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

// MaterializeMode governs how File inputs are placed into the task dir.
type MaterializeMode int

const (
	MaterializeSymlink MaterializeMode = iota
	MaterializeCopy
)

// Config carries the executor-wide settings §4.7 leaves to configuration:
// the materialization mode, the subprocess timeout, and any extra
// environment variables to inherit alongside the host environment.
type Config struct {
	Materialize MaterializeMode
	Timeout     time.Duration
	ExtraEnv    []string
	PathMapper  pathmap.Mapper
	Logger      *log.Logger
}

func (c Config) mapper() pathmap.Mapper {
	if c.PathMapper != nil {
		return c.PathMapper
	}
	return pathmap.Identity{}
}

func (c Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

// Result is the TaskResult of §4.7: outputs, exit status, captured streams,
// duration, and the work dir the task ran in.
type Result struct {
	Outputs  bindings.Bindings[types.Value]
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	WorkDir  string
}

// Execute runs task against inputs (a binding chain holding one entry per
// declared input name), following the ten ordered steps of §4.7. dirName
// names the task's work directory under workDir; pass "" to use the plain
// `<work_dir>/<task_name>/` layout of §6, or a disambiguated name (see
// workflow.execCall) when the same task is invoked more than once in a
// single run, e.g. from inside a scatter.
func Execute(ctx context.Context, t *ast.Task, inputs bindings.Bindings[types.Value], reg *stdlib.Registry, cfg Config, workDir, dirName string) (*Result, error) {
	start := time.Now()
	logger := cfg.logger()
	if dirName == "" {
		dirName = t.Name
	}

	// Step 1: input validation.
	if t.Inputs != nil {
		for _, decl := range t.Inputs {
			if decl.Required() {
				if _, ok := inputs.Resolve(decl.Name); !ok {
					return nil, types.NewMissingInputError(decl.Name)
				}
			}
		}
	}

	// Step 2: directory setup.
	taskDir := filepath.Join(workDir, dirName)
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		return nil, types.NewFilesystemError(err)
	}
	logger.Printf("task %s: work dir %s", t.Name, taskDir)

	mapper := cfg.mapper()
	ioCtx := &stdlib.IOContext{
		WorkDir:      taskDir,
		Devirtualize: mapper.Devirtualize,
		Virtualize:   mapper.Virtualize,
		NextNanos:    func() int64 { return time.Now().UnixNano() },
	}
	evaluator := eval.New(reg, ioCtx)

	env := bindings.Empty[types.Value]()
	if t.Inputs != nil {
		for _, decl := range t.Inputs {
			v, ok := inputs.Resolve(decl.Name)
			if !ok {
				if decl.Default != nil {
					dv, err := evaluator.Eval(decl.Default, env)
					if err != nil {
						return nil, err
					}
					v = dv
				} else {
					v = types.Null
				}
			}
			env = env.Bind(decl.Name, v, nil)
		}
	}

	// Step 3: input materialization — symlink or copy each File-typed
	// input into the task dir under its input name.
	if t.Inputs != nil {
		for _, decl := range t.Inputs {
			if decl.Type.Kind != types.KindFile {
				continue
			}
			v, ok := env.Resolve(decl.Name)
			if !ok || v.IsNull() {
				continue
			}
			real, err := mapper.Devirtualize(v.AsString())
			if err != nil {
				return nil, types.NewFilesystemError(err)
			}
			dest := filepath.Join(taskDir, decl.Name)
			if err := materialize(real, dest, cfg.Materialize); err != nil {
				return nil, types.NewFilesystemError(err)
			}
		}
	}

	// Step 4: postinput declaration evaluation, with synthetic
	// placeholder-formatting bindings.
	env = env.Bind("sep", types.NewString(" "), nil)
	env = env.Bind("true", types.NewBoolean(true), nil)
	env = env.Bind("false", types.NewBoolean(false), nil)
	for _, decl := range t.Postinputs {
		v, err := evaluator.Eval(decl.Default, env)
		if err != nil {
			return nil, types.NewCommandEvalError(err.Error())
		}
		env = env.Bind(decl.Name, v, nil)
	}

	// Step 5: command rendering.
	cmdVal, err := evaluator.Eval(t.CommandExpr, env)
	if err != nil {
		return nil, types.NewCommandEvalError(err.Error())
	}
	if cmdVal.Kind() != types.VString {
		return nil, types.NewCommandEvalError("rendered command is not a String")
	}

	// Step 6: script write.
	scriptPath := filepath.Join(taskDir, "command.sh")
	script := "set -euo pipefail\ncd " + shellQuote(taskDir) + "\n" + cmdVal.AsString() + "\n"
	if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
		return nil, types.NewFilesystemError(err)
	}

	// Step 7/8: subprocess spawn with timeout.
	runCtx := ctx
	var cancel context.CancelFunc
	if cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(runCtx, "bash", scriptPath)
	cmd.Dir = taskDir
	cmd.Env = append(os.Environ(), cfg.ExtraEnv...)
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	runErr := cmd.Run()
	duration := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		return nil, types.NewTaskTimeout(t.Name)
	}

	exitCode := 0
	switch e := runErr.(type) {
	case nil:
		exitCode = 0
	case *exec.ExitError:
		exitCode = e.ExitCode()
	default:
		return nil, types.NewSpawnError(e)
	}
	if exitCode != 0 {
		return nil, types.NewNonZeroExit(exitCode, stderrBuf.String())
	}
	logger.Printf("task %s: exit 0 in %s", t.Name, duration)

	// Step 9: output collection, with stdout/stderr handles bound.
	stdoutFile, err := writeStream(taskDir, "stdout", stdoutBuf.String(), mapper)
	if err != nil {
		return nil, err
	}
	stderrFile, err := writeStream(taskDir, "stderr", stderrBuf.String(), mapper)
	if err != nil {
		return nil, err
	}
	outEnv := env.Bind("stdout", stdoutFile, nil).Bind("stderr", stderrFile, nil)

	outputs := bindings.Empty[types.Value]()
	for _, decl := range t.Outputs {
		if decl.Default == nil {
			return nil, types.NewValidationError(fmt.Sprintf("output '%s' has no expression", decl.Name), nil)
		}
		v, err := evaluator.Eval(decl.Default, outEnv)
		if err != nil {
			return nil, types.NewOutputEvalError(err.Error())
		}
		cv, err := eval.Coerce(v, decl.Type)
		if err != nil {
			return nil, types.NewOutputTypeMismatch(decl.Name, decl.Type.String(), v.Type().String())
		}
		outEnv = outEnv.Bind(decl.Name, cv, nil)
		outputs = outputs.Bind(decl.Name, cv, nil)
	}

	// Step 10.
	return &Result{
		Outputs:  outputs,
		ExitCode: exitCode,
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Duration: duration,
		WorkDir:  taskDir,
	}, nil
}

func materialize(src, dest string, mode MaterializeMode) error {
	if mode == MaterializeSymlink {
		if err := os.Symlink(src, dest); err == nil {
			return nil
		}
		// Fall through to a copy if symlinking isn't available (e.g.
		// cross-filesystem or unsupported on the host).
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

func writeStream(taskDir, name, content string, mapper pathmap.Mapper) (types.Value, error) {
	real := filepath.Join(taskDir, name)
	if err := os.WriteFile(real, []byte(content), 0o644); err != nil {
		return types.Null, types.NewFilesystemError(err)
	}
	virtual, err := mapper.Virtualize(real)
	if err != nil {
		return types.Null, types.NewFilesystemError(err)
	}
	return types.NewFile(virtual), nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
