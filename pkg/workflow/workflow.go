// Package workflow implements the workflow executor of spec §4.8: a
// strictly sequential walk of a workflow body dispatching declarations,
// calls, scatters, and conditionals against an immutable binding chain,
// plus the document-level dispatch rule (run the workflow if present,
// else the sole task, else fail).
package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/bindings"
	"github.com/lemonberrylabs/wdl-engine/pkg/eval"
	"github.com/lemonberrylabs/wdl-engine/pkg/pathmap"
	"github.com/lemonberrylabs/wdl-engine/pkg/stdlib"
	"github.com/lemonberrylabs/wdl-engine/pkg/task"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

// Config carries the settings §4.8 needs beyond what a single task
// invocation requires — the per-call task.Config, an optional shared path
// mapper, and the run identifier (§6 `options.run_id`) a caller may
// supply; Execute generates one via uuid when RunID is empty.
type Config struct {
	Task       task.Config
	PathMapper pathmap.Mapper
	RunID      string
}

func (c Config) mapper() pathmap.Mapper {
	if c.PathMapper != nil {
		return c.PathMapper
	}
	return pathmap.Identity{}
}

func (c Config) runID() string {
	if c.RunID != "" {
		return c.RunID
	}
	return uuid.NewString()
}

// Result is the WorkflowResult of §4.8: outputs, duration, and the
// TaskResults of every call made along the way. TaskResults is keyed by
// call name and holds one entry per invocation — length 1 outside a
// scatter, length N for a call made N times inside a scatter of N
// elements.
type Result struct {
	RunID       string
	Outputs     bindings.Bindings[types.Value]
	Duration    time.Duration
	TaskResults map[string][]*task.Result
}

// Execute dispatches per §4.8's "document-level dispatch" rule: run
// doc.Workflow if present, else the sole task if the document has
// exactly one, else fail with a validation error.
func Execute(ctx context.Context, doc *ast.Document, reg *stdlib.Registry, cfg Config, inputs bindings.Bindings[types.Value], workDir string) (*Result, error) {
	cfg.RunID = cfg.runID()
	if doc.Workflow != nil {
		return executeWorkflow(ctx, doc, doc.Workflow, reg, cfg, inputs, workDir)
	}
	if len(doc.Tasks) == 1 {
		var only *ast.Task
		for _, t := range doc.Tasks {
			only = t
		}
		return executeSoleTask(ctx, only, reg, cfg, inputs, workDir)
	}
	return nil, types.NewValidationError("document has no workflow and does not have exactly one task", nil)
}

func executeSoleTask(ctx context.Context, t *ast.Task, reg *stdlib.Registry, cfg Config, inputs bindings.Bindings[types.Value], workDir string) (*Result, error) {
	start := time.Now()
	taskInputs := bindings.Empty[types.Value]()
	if t.Inputs != nil {
		for _, decl := range t.Inputs {
			v, ok := resolvePrefixed(inputs, t.Name, decl.Name)
			if ok {
				taskInputs = taskInputs.Bind(decl.Name, v, nil)
			}
		}
	}
	res, err := task.Execute(ctx, t, taskInputs, reg, cfg.Task, workDir, "")
	if err != nil {
		return nil, err
	}
	return &Result{
		RunID:       cfg.RunID,
		Outputs:     res.Outputs,
		Duration:    time.Since(start),
		TaskResults: map[string][]*task.Result{t.Name: {res}},
	}, nil
}

// resolvePrefixed implements the "<namespace>.<name> else <name>" input
// lookup rule shared by workflow inputs (§4.8) and task-only dispatch
// (§6).
func resolvePrefixed(inputs bindings.Bindings[types.Value], namespace, name string) (types.Value, bool) {
	if v, ok := inputs.Resolve(namespace + "." + name); ok {
		return v, true
	}
	return inputs.Resolve(name)
}

func executeWorkflow(ctx context.Context, doc *ast.Document, wf *ast.Workflow, reg *stdlib.Registry, cfg Config, inputs bindings.Bindings[types.Value], workDir string) (*Result, error) {
	start := time.Now()
	mapper := cfg.mapper()
	ioCtx := &stdlib.IOContext{
		WorkDir:      workDir,
		Devirtualize: mapper.Devirtualize,
		Virtualize:   mapper.Virtualize,
		NextNanos:    func() int64 { return time.Now().UnixNano() },
	}
	ev := eval.New(reg, ioCtx)

	env := bindings.Empty[types.Value]()
	for _, decl := range wf.Inputs {
		v, ok := resolvePrefixed(inputs, wf.Name, decl.Name)
		if !ok {
			if decl.Default != nil {
				dv, err := ev.Eval(decl.Default, env)
				if err != nil {
					return nil, err
				}
				v = dv
			} else if decl.Type.Optional {
				v = types.Null
			} else {
				return nil, types.NewMissingInputError(decl.Name)
			}
		}
		env = env.Bind(decl.Name, v, nil)
	}

	r := &run{doc: doc, ev: ev, cfg: cfg, workDir: workDir, results: map[string][]*task.Result{}, calls: map[string]int{}}
	env, err := r.execBody(ctx, wf.Body, env)
	if err != nil {
		return nil, err
	}

	outputs := bindings.Empty[types.Value]()
	outEnv := env
	for _, decl := range wf.Outputs {
		if decl.Default == nil {
			return nil, types.NewValidationError("output '"+decl.Name+"' has no expression", nil)
		}
		v, err := ev.Eval(decl.Default, outEnv)
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

	return &Result{RunID: cfg.RunID, Outputs: outputs, Duration: time.Since(start), TaskResults: r.results}, nil
}

// run bundles the state a single Execute invocation threads through every
// body-walking step: the document (for call-target lookup), the evaluator,
// the task config, the work dir, accumulated task results, and a per-call
// invocation counter. The counter is what lets execCall tell a call's first
// invocation (which keeps the §6-pinned "<work_dir>/<task_name>/" layout)
// apart from a repeat invocation inside a Scatter (which needs its own,
// disambiguated directory — see execCall).
type run struct {
	doc     *ast.Document
	ev      *eval.Evaluator
	cfg     Config
	workDir string
	results map[string][]*task.Result
	calls   map[string]int
}

func (r *run) execBody(ctx context.Context, body []ast.WorkflowElement, env bindings.Bindings[types.Value]) (bindings.Bindings[types.Value], error) {
	var err error
	for _, el := range body {
		switch e := el.(type) {
		case *ast.DeclarationElement:
			var v types.Value
			v, err = r.ev.Eval(e.Decl.Default, env)
			if err == nil {
				env = env.Bind(e.Decl.Name, v, nil)
			}
		case *ast.Call:
			env, err = r.execCall(ctx, e, env)
		case *ast.Scatter:
			env, err = r.execScatter(ctx, e, env)
		case *ast.Conditional:
			env, err = r.execConditional(ctx, e, env)
		}
		if err != nil {
			return env, err
		}
	}
	return env, nil
}

// execCall dispatches one task invocation. The first time a given call name
// runs, it keeps the plain "<task_name>" work-dir layout §6 pins for the
// ordinary case; a call name seen again (only possible from inside a
// Scatter, since a document's call graph is otherwise invoked at most once)
// gets a uuid-suffixed directory so repeat iterations don't overwrite each
// other's command.sh/stdout/stderr.
func (r *run) execCall(ctx context.Context, call *ast.Call, env bindings.Bindings[types.Value]) (bindings.Bindings[types.Value], error) {
	callee := call.Callee
	if callee == nil {
		callee = r.doc.Tasks[call.TaskRef]
	}
	if callee == nil {
		return env, types.NewNameResolutionError(call.TaskRef, &call.Position)
	}

	callInputs := bindings.Empty[types.Value]()
	for name, expr := range call.Inputs {
		v, err := r.ev.Eval(expr, env)
		if err != nil {
			return env, err
		}
		callInputs = callInputs.Bind(name, v, nil)
	}

	name := call.Name()
	dirName := ""
	if n := r.calls[name]; n > 0 {
		dirName = name + "-" + uuid.NewString()
	}
	r.calls[name]++

	res, err := task.Execute(ctx, callee, callInputs, r.ev.Registry, r.cfg.Task, r.workDir, dirName)
	if err != nil {
		return env, err
	}
	r.results[name] = append(r.results[name], res)
	env = bindings.Merge(res.Outputs.WrapNamespace(name), env)
	return env, nil
}

// execScatter implements §4.8's Scatter aggregation: every name the body
// would declare (including nested scatter/conditional aggregates and
// call-output namespaces, found via declaredNames) becomes an Array in
// iteration order, built from each iteration's independent env.
func (r *run) execScatter(ctx context.Context, sc *ast.Scatter, env bindings.Bindings[types.Value]) (bindings.Bindings[types.Value], error) {
	arrV, err := r.ev.Eval(sc.Expr, env)
	if err != nil {
		return env, err
	}
	if arrV.Kind() != types.VArray {
		return env, types.NewStaticTypeMismatch("Array", arrV.Type().String(), &sc.Position)
	}
	items := arrV.AsArray()

	iterEnvs := make([]bindings.Bindings[types.Value], 0, len(items))
	for _, item := range items {
		iterEnv := env.Bind(sc.Variable, item, nil)
		iterEnv, err = r.execBody(ctx, sc.Body, iterEnv)
		if err != nil {
			return env, err
		}
		iterEnvs = append(iterEnvs, iterEnv)
	}

	out := env
	for _, name := range declaredNames(r.doc, sc.Body) {
		vals := make([]types.Value, len(iterEnvs))
		for i, e := range iterEnvs {
			v, ok := e.Resolve(name)
			if !ok {
				v = types.Null
			}
			vals[i] = v
		}
		itemType := types.Any(false)
		if len(vals) > 0 {
			itemType = vals[0].Type()
		}
		out = out.Bind(name, types.NewArrayValue(vals, itemType), nil)
	}
	return out, nil
}

// execConditional implements §4.8's Conditional optionalization: every
// name the body would declare is transferred back (if the predicate held)
// or bound to Null (otherwise), at the value level — the type-level
// optional lift itself is the static checker's concern (pkg/typecheck),
// not this runtime walk's.
func (r *run) execConditional(ctx context.Context, c *ast.Conditional, env bindings.Bindings[types.Value]) (bindings.Bindings[types.Value], error) {
	predV, err := r.ev.Eval(c.Expr, env)
	if err != nil {
		return env, err
	}
	if !predV.IsNull() && predV.Kind() != types.VBoolean {
		return env, types.NewStaticTypeMismatch("Boolean", predV.Type().String(), &c.Position)
	}

	names := declaredNames(r.doc, c.Body)
	if predV.IsNull() || !predV.AsBool() {
		out := env
		for _, name := range names {
			out = out.Bind(name, types.Null, nil)
		}
		return out, nil
	}

	childEnv, err := r.execBody(ctx, c.Body, env)
	if err != nil {
		return env, err
	}
	out := env
	for _, name := range names {
		v, ok := childEnv.Resolve(name)
		if !ok {
			v = types.Null
		}
		out = out.Bind(name, v, nil)
	}
	return out, nil
}

// declaredNames statically enumerates every name a body would bind: plain
// declaration names, "<call>.<output>" for each call's outputs, and
// whatever a nested scatter/conditional would itself bind (recursively) —
// used both for Scatter's aggregation name set and Conditional's
// optionalization name set (§4.8 names both as "recurse through nested
// scatters/conditionals").
func declaredNames(doc *ast.Document, body []ast.WorkflowElement) []string {
	var names []string
	for _, el := range body {
		switch e := el.(type) {
		case *ast.DeclarationElement:
			names = append(names, e.Decl.Name)
		case *ast.Call:
			callee := e.Callee
			if callee == nil {
				callee = doc.Tasks[e.TaskRef]
			}
			if callee != nil {
				for _, out := range callee.Outputs {
					names = append(names, e.Name()+"."+out.Name)
				}
			}
		case *ast.Scatter:
			names = append(names, declaredNames(doc, e.Body)...)
		case *ast.Conditional:
			names = append(names, declaredNames(doc, e.Body)...)
		}
	}
	return names
}
