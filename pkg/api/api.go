// Package api implements the HTTP API of spec §6: a single document-
// execution endpoint plus the run-history lookups §12 supplements it with.
// Grounded on the base module's pkg/api/api.go Fiber server shape (a
// *fiber.App built once in New, a thin per-route handler translating a
// JSON request into a core call and a JSON response back out), retargeted
// from GCW's multi-resource Workflows/Executions/Callbacks surface onto
// this spec's single "run a document" operation.
package api

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/google/uuid"

	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/astbuild"
	"github.com/lemonberrylabs/wdl-engine/pkg/config"
	"github.com/lemonberrylabs/wdl-engine/pkg/document"
	"github.com/lemonberrylabs/wdl-engine/pkg/stdlib"
	"github.com/lemonberrylabs/wdl-engine/pkg/store"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
	"github.com/lemonberrylabs/wdl-engine/pkg/typecheck"
	"github.com/lemonberrylabs/wdl-engine/pkg/workflow"
)

// Server is the HTTP API server.
type Server struct {
	app   *fiber.App
	store *store.Store
	cfg   config.Config
}

// New builds a Server bound to an existing run-history store and service
// config, registering the routes §6 and §12 name.
func New(s *store.Store, cfg config.Config) *Server {
	srv := &Server{store: s, cfg: cfg}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          cfg.TaskTimeout + 30*time.Second,
	})
	app.Use(logger.New())

	app.Post("/api/v1/tasks", srv.runDocument)
	app.Post("/api/v1/describe", srv.describeDocument)
	app.Get("/api/v1/runs/:run_id", srv.getRun)
	app.Get("/api/v1/runs", srv.listRuns)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on addr.
func (s *Server) Listen(addr string) error { return s.app.Listen(addr) }

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown() error { return s.app.Shutdown() }

// App returns the underlying Fiber app, useful for tests.
func (s *Server) App() *fiber.App { return s.app }

// runOptions is the request's optional "options" object (§6): a caller-
// supplied run_id, an explicit base_dir overriding the configured work-dir
// root, and a task name narrowing dispatch to one task of a multi-task
// document instead of the default workflow-or-sole-task rule.
type runOptions struct {
	RunID   string `json:"run_id"`
	BaseDir string `json:"base_dir"`
	Task    string `json:"task"`
}

// runRequest is POST /api/v1/tasks' body per §6: a document (named "wdl" to
// match the spec's external interface naming, though per §1's explicit
// non-goal on WDL source-text parsing its content is the pkg/astbuild
// JSON/YAML document-fixture format, not WDL grammar text), a flat inputs
// object, and optional run options.
type runRequest struct {
	WDL     string                 `json:"wdl"`
	Inputs  map[string]interface{} `json:"inputs"`
	Options runOptions             `json:"options"`
}

type runResponse struct {
	Status     string                 `json:"status"`
	RunID      string                 `json:"run_id"`
	Outputs    map[string]interface{} `json:"outputs,omitempty"`
	Stdout     string                 `json:"stdout,omitempty"`
	Stderr     string                 `json:"stderr,omitempty"`
	DurationMs int64                  `json:"duration_ms"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) runDocument(c *fiber.Ctx) error {
	var req runRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(errorResponse{Status: "error", Message: fmt.Sprintf("invalid request body: %v", err)})
	}
	if req.WDL == "" {
		return c.Status(400).JSON(errorResponse{Status: "error", Message: "wdl is required"})
	}

	doc, err := astbuild.Build([]byte(req.WDL))
	if err != nil {
		return c.Status(400).JSON(errorResponse{Status: "error", Message: err.Error()})
	}
	if err := doc.ResolveStructs(); err != nil {
		return c.Status(400).JSON(errorResponse{Status: "error", Message: err.Error()})
	}

	reg := stdlib.NewRegistry()
	if err := typecheck.New(reg).CheckDocument(doc); err != nil {
		return c.Status(400).JSON(errorResponse{Status: "error", Message: err.Error()})
	}

	if req.Options.Task != "" {
		t, ok := doc.Tasks[req.Options.Task]
		if !ok {
			return c.Status(400).JSON(errorResponse{Status: "error", Message: fmt.Sprintf("no such task '%s'", req.Options.Task)})
		}
		doc = &ast.Document{
			Version:        doc.Version,
			StructTypedefs: doc.StructTypedefs,
			Tasks:          map[string]*ast.Task{t.Name: t},
		}
	}

	target, err := document.Resolve(doc)
	if err != nil {
		return c.Status(400).JSON(errorResponse{Status: "error", Message: err.Error()})
	}
	inputs, err := document.DecodeInputs(req.Inputs, target)
	if err != nil {
		return c.Status(400).JSON(errorResponse{Status: "error", Message: err.Error()})
	}

	runID := req.Options.RunID
	if runID == "" {
		// workflow.Execute would mint one lazily, but the store record
		// needs it up front so CreateRun below can report it immediately.
		runID = uuid.NewString()
	}
	taskCfg := s.cfg.TaskConfig()
	if s.cfg.Debug {
		taskCfg.Logger = log.New(os.Stderr, "wdl-api: ", log.LstdFlags)
	}
	wfCfg := workflow.Config{Task: taskCfg, RunID: runID}

	workDir := req.Options.BaseDir
	if workDir == "" {
		workDir = filepath.Join(s.cfg.WorkDirRoot, runID)
	}

	s.store.CreateRun(runID)

	result, err := workflow.Execute(context.Background(), doc, reg, wfCfg, inputs, workDir)
	if err != nil {
		_ = s.store.FailRun(runID, err)
		status := 400
		if we, ok := err.(*types.WorkflowError); ok {
			switch we.Kind {
			case types.KindSpawnError, types.KindFilesystemError:
				status = 500
			}
		} else {
			status = 500
		}
		return c.Status(status).JSON(errorResponse{Status: "error", Message: err.Error()})
	}

	outputs := document.EncodeOutputs(result.Outputs, target.Namespace)
	_ = s.store.CompleteRun(runID, outputs, result.TaskResults)

	resp := runResponse{
		Status:     "ok",
		RunID:      runID,
		Outputs:    outputs,
		DurationMs: result.Duration.Milliseconds(),
	}
	for _, rs := range result.TaskResults {
		if len(rs) == 1 {
			resp.Stdout = rs[0].Stdout
			resp.Stderr = rs[0].Stderr
		}
	}
	return c.Status(200).JSON(resp)
}

// describeRequest/describeResponse implement §12's meta/parameter_meta
// pass-through: a caller can ask what a document declares without running
// it.
type describeRequest struct {
	WDL string `json:"wdl"`
}

type declInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type taskInfo struct {
	Name          string                 `json:"name"`
	Inputs        []declInfo             `json:"inputs"`
	Outputs       []declInfo             `json:"outputs"`
	Meta          map[string]interface{} `json:"meta,omitempty"`
	ParameterMeta map[string]interface{} `json:"parameter_meta,omitempty"`
}

type workflowInfo struct {
	Name          string                 `json:"name"`
	Inputs        []declInfo             `json:"inputs"`
	Outputs       []declInfo             `json:"outputs"`
	Meta          map[string]interface{} `json:"meta,omitempty"`
	ParameterMeta map[string]interface{} `json:"parameter_meta,omitempty"`
}

func (s *Server) describeDocument(c *fiber.Ctx) error {
	var req describeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(errorResponse{Status: "error", Message: fmt.Sprintf("invalid request body: %v", err)})
	}
	doc, err := astbuild.Build([]byte(req.WDL))
	if err != nil {
		return c.Status(400).JSON(errorResponse{Status: "error", Message: err.Error()})
	}
	if err := doc.ResolveStructs(); err != nil {
		return c.Status(400).JSON(errorResponse{Status: "error", Message: err.Error()})
	}

	tasks := make([]taskInfo, 0, len(doc.Tasks))
	for _, t := range doc.Tasks {
		tasks = append(tasks, taskInfo{
			Name:          t.Name,
			Inputs:        declList(t.Inputs),
			Outputs:       declList(t.Outputs),
			Meta:          t.Meta,
			ParameterMeta: t.ParameterMeta,
		})
	}
	resp := fiber.Map{"tasks": tasks}
	if doc.Workflow != nil {
		resp["workflow"] = workflowInfo{
			Name:          doc.Workflow.Name,
			Inputs:        declList(doc.Workflow.Inputs),
			Outputs:       declList(doc.Workflow.Outputs),
			Meta:          doc.Workflow.Meta,
			ParameterMeta: doc.Workflow.ParameterMeta,
		}
	}
	return c.Status(200).JSON(resp)
}

func declList(decls []*ast.Declaration) []declInfo {
	out := make([]declInfo, 0, len(decls))
	for _, d := range decls {
		out = append(out, declInfo{Name: d.Name, Type: d.Type.String()})
	}
	return out
}

func (s *Server) getRun(c *fiber.Ctx) error {
	run, err := s.store.GetRun(c.Params("run_id"))
	if err != nil {
		return c.Status(404).JSON(errorResponse{Status: "error", Message: err.Error()})
	}
	return c.Status(200).JSON(run)
}

func (s *Server) listRuns(c *fiber.Ctx) error {
	return c.Status(200).JSON(fiber.Map{"runs": s.store.ListRuns()})
}
