package typecheck

import (
	"fmt"

	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/bindings"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

// CheckDocument statically type-checks every declaration and expression in
// doc (§1: "statically type-checks every declaration and expression" before
// execution ever starts), accumulating independent failures per task/
// workflow via types.MultiError rather than stopping at the first one. It
// must run after doc.ResolveStructs, since member types are looked up
// through the already-resolved struct registry.
func (c *Checker) CheckDocument(doc *ast.Document) error {
	me := &types.MultiError{}
	for _, t := range doc.Tasks {
		if err := c.CheckTask(t); err != nil {
			me.Add(fmt.Errorf("task %s: %w", t.Name, err))
		}
	}
	if doc.Workflow != nil {
		if err := c.CheckWorkflow(doc.Workflow, doc); err != nil {
			me.Add(fmt.Errorf("workflow %s: %w", doc.Workflow.Name, err))
		}
	}
	return me.AsError()
}

// CheckTask type-checks one task's input/postinput declarations, command
// template, runtime attributes, and output declarations in source order
// (§4.5, §4.7 step 4-5/9), binding each declaration's declared type (not
// its inferred default-expression type) into the environment used by
// everything after it.
func (c *Checker) CheckTask(t *ast.Task) error {
	me := &types.MultiError{}
	env := bindings.Empty[types.Type]()

	checkDecl := func(decl *ast.Declaration) {
		if decl.Default != nil {
			dt, err := c.Infer(decl.Default, env)
			if err != nil {
				me.Add(err)
			} else if !dt.CoercesTo(decl.Type, true) {
				me.Add(types.NewStaticTypeMismatch(decl.Type.String(), dt.String(), &decl.Position))
			}
		}
		env = env.Bind(decl.Name, decl.Type, nil)
	}

	if t.Inputs != nil {
		for _, decl := range t.Inputs {
			checkDecl(decl)
		}
	}
	for _, decl := range t.Postinputs {
		checkDecl(decl)
	}

	if _, err := c.Infer(t.CommandExpr, env); err != nil {
		me.Add(err)
	}

	for _, expr := range t.Runtime {
		if _, err := c.Infer(expr, env); err != nil {
			me.Add(err)
		}
	}

	outEnv := env
	for _, decl := range t.Outputs {
		if decl.Default == nil {
			me.Add(types.NewValidationError(fmt.Sprintf("output '%s' has no expression", decl.Name), &decl.Position))
			continue
		}
		ot, err := c.Infer(decl.Default, outEnv)
		if err != nil {
			me.Add(err)
			continue
		}
		if !ot.CoercesTo(decl.Type, true) {
			me.Add(types.NewStaticTypeMismatch(decl.Type.String(), ot.String(), &decl.Position))
		}
		outEnv = outEnv.Bind(decl.Name, decl.Type, nil)
	}

	return me.AsError()
}

// CheckWorkflow type-checks a workflow's inputs, body (declarations, calls,
// scatters, conditionals, recursively), and outputs, per §4.5/§4.8. doc
// supplies the task registry a Call's TaskRef resolves against when its
// Callee pointer was not set by a linking pass.
func (c *Checker) CheckWorkflow(wf *ast.Workflow, doc *ast.Document) error {
	me := &types.MultiError{}
	env := bindings.Empty[types.Type]()

	for _, decl := range wf.Inputs {
		if decl.Default != nil {
			dt, err := c.Infer(decl.Default, env)
			if err != nil {
				me.Add(err)
			} else if !dt.CoercesTo(decl.Type, true) {
				me.Add(types.NewStaticTypeMismatch(decl.Type.String(), dt.String(), &decl.Position))
			}
		}
		env = env.Bind(decl.Name, decl.Type, nil)
	}

	env, err := c.checkBody(wf.Body, doc, env)
	if err != nil {
		me.Add(err)
	}

	outEnv := env
	for _, decl := range wf.Outputs {
		if decl.Default == nil {
			me.Add(types.NewValidationError(fmt.Sprintf("output '%s' has no expression", decl.Name), &decl.Position))
			continue
		}
		ot, ierr := c.Infer(decl.Default, outEnv)
		if ierr != nil {
			me.Add(ierr)
			continue
		}
		if !ot.CoercesTo(decl.Type, true) {
			me.Add(types.NewStaticTypeMismatch(decl.Type.String(), ot.String(), &decl.Position))
		}
		outEnv = outEnv.Bind(decl.Name, decl.Type, nil)
	}

	return me.AsError()
}

// checkBody walks one body (workflow top level or a scatter/conditional's
// nested body), returning the type environment extended with every name the
// body binds — mirroring pkg/workflow's runtime execBody, but over types
// rather than values, and accumulating every independent error instead of
// stopping at the first (§4.5, §7).
func (c *Checker) checkBody(body []ast.WorkflowElement, doc *ast.Document, env bindings.Bindings[types.Type]) (bindings.Bindings[types.Type], error) {
	me := &types.MultiError{}
	for _, el := range body {
		switch e := el.(type) {
		case *ast.DeclarationElement:
			dt, err := c.Infer(e.Decl.Default, env)
			if err != nil {
				me.Add(err)
				continue
			}
			if !dt.CoercesTo(e.Decl.Type, true) {
				me.Add(types.NewStaticTypeMismatch(e.Decl.Type.String(), dt.String(), &e.Decl.Position))
				continue
			}
			env = env.Bind(e.Decl.Name, e.Decl.Type, nil)

		case *ast.Call:
			callee := e.Callee
			if callee == nil {
				callee = doc.Tasks[e.TaskRef]
			}
			if callee == nil {
				me.Add(types.NewNameResolutionError(e.TaskRef, &e.Position))
				continue
			}
			for name, expr := range e.Inputs {
				at, err := c.Infer(expr, env)
				if err != nil {
					me.Add(err)
					continue
				}
				decl := inputDecl(callee, name)
				if decl == nil {
					me.Add(types.NewNameResolutionError(callee.Name+"."+name, &e.Position))
					continue
				}
				if !at.CoercesTo(decl.Type, true) {
					me.Add(types.NewStaticTypeMismatch(decl.Type.String(), at.String(), &e.Position))
				}
			}
			for _, out := range callee.Outputs {
				env = env.Bind(e.Name()+"."+out.Name, out.Type, nil)
			}

		case *ast.Scatter:
			arrT, err := c.Infer(e.Expr, env)
			if err != nil {
				me.Add(err)
				continue
			}
			if arrT.Kind != types.KindArray {
				me.Add(types.NewStaticTypeMismatch("Array", arrT.String(), &e.Position))
				continue
			}
			bodyEnv := env.Bind(e.Variable, *arrT.Item, nil)
			bodyEnv, err = c.checkBody(e.Body, doc, bodyEnv)
			if err != nil {
				me.Add(err)
			}
			for _, name := range scatterNames(doc, e.Body) {
				t, ok := bodyEnv.Resolve(name)
				if !ok {
					t = types.Any(false)
				}
				env = env.Bind(name, types.NewArray(t, false, false), nil)
			}

		case *ast.Conditional:
			predT, err := c.Infer(e.Expr, env)
			if err != nil {
				me.Add(err)
				continue
			}
			if predT.Kind != types.KindBoolean {
				me.Add(types.NewStaticTypeMismatch("Boolean", predT.String(), &e.Position))
				continue
			}
			bodyEnv, berr := c.checkBody(e.Body, doc, env)
			if berr != nil {
				me.Add(berr)
			}
			for _, name := range scatterNames(doc, e.Body) {
				t, ok := bodyEnv.Resolve(name)
				if !ok {
					t = types.Any(false)
				}
				env = env.Bind(name, t.WithOptional(true), nil)
			}
		}
	}
	return env, me.AsError()
}

func inputDecl(t *ast.Task, name string) *ast.Declaration {
	for _, d := range t.Inputs {
		if d.Name == name {
			return d
		}
	}
	for _, d := range t.Postinputs {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// scatterNames mirrors pkg/workflow's declaredNames: every plain
// declaration name and "<call>.<output>" qualified name a body binds,
// recursing through nested scatters/conditionals.
func scatterNames(doc *ast.Document, body []ast.WorkflowElement) []string {
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
			names = append(names, scatterNames(doc, e.Body)...)
		case *ast.Conditional:
			names = append(names, scatterNames(doc, e.Body)...)
		}
	}
	return names
}
