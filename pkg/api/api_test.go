package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/lemonberrylabs/wdl-engine/pkg/config"
	"github.com/lemonberrylabs/wdl-engine/pkg/store"
)

const greetFixture = `
tasks:
  greet:
    inputs:
      - {name: name, type: String}
    command:
      op: string
      parts:
        - {literal: "echo hello "}
        - {placeholder: {op: ident, name: name}}
    outputs:
      - name: greeting
        type: String
        expr: {op: apply, fn: read_string, args: [{op: ident, name: stdout}]}
`

func setupTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	cfg := config.Default()
	cfg.WorkDirRoot = t.TempDir()
	s := store.New()
	return New(s, cfg), s
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	var decoded map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decoding response %q: %v", raw, err)
		}
	}
	return resp.StatusCode, decoded
}

func TestRunDocumentRejectsMissingWDL(t *testing.T) {
	srv, _ := setupTestServer(t)
	code, body := doJSON(t, srv, "POST", "/api/v1/tasks", map[string]interface{}{"inputs": map[string]interface{}{}})
	if code != 400 {
		t.Fatalf("expected 400, got %d", code)
	}
	if body["status"] != "error" {
		t.Fatalf("expected an error envelope, got %v", body)
	}
}

func TestRunDocumentRejectsUnknownTaskOption(t *testing.T) {
	srv, _ := setupTestServer(t)
	code, body := doJSON(t, srv, "POST", "/api/v1/tasks", map[string]interface{}{
		"wdl":     greetFixture,
		"inputs":  map[string]interface{}{"name": "world"},
		"options": map[string]interface{}{"task": "nope"},
	})
	if code != 400 {
		t.Fatalf("expected 400, got %d: %v", code, body)
	}
}

func TestRunDocumentExecutesSoleTaskAndRecordsRun(t *testing.T) {
	srv, st := setupTestServer(t)
	code, body := doJSON(t, srv, "POST", "/api/v1/tasks", map[string]interface{}{
		"wdl":    greetFixture,
		"inputs": map[string]interface{}{"name": "world"},
	})
	if code != 200 {
		t.Fatalf("expected 200, got %d: %v", code, body)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected ok status, got %v", body)
	}
	runID, _ := body["run_id"].(string)
	if runID == "" {
		t.Fatal("expected a run_id in the response")
	}

	run, err := st.GetRun(runID)
	if err != nil {
		t.Fatalf("expected the run to be recorded: %v", err)
	}
	if run.State != store.RunSucceeded {
		t.Fatalf("expected the run to be recorded as succeeded, got %s", run.State)
	}
}

func TestDescribeDocumentListsTaskInputsAndOutputs(t *testing.T) {
	srv, _ := setupTestServer(t)
	code, body := doJSON(t, srv, "POST", "/api/v1/describe", map[string]interface{}{"wdl": greetFixture})
	if code != 200 {
		t.Fatalf("expected 200, got %d: %v", code, body)
	}
	tasks, ok := body["tasks"].([]interface{})
	if !ok || len(tasks) != 1 {
		t.Fatalf("expected exactly one described task, got %v", body["tasks"])
	}
	greet := tasks[0].(map[string]interface{})
	if greet["name"] != "greet" {
		t.Fatalf("expected task name 'greet', got %v", greet["name"])
	}
}

func TestGetRunNotFound(t *testing.T) {
	srv, _ := setupTestServer(t)
	code, body := doJSON(t, srv, "GET", "/api/v1/runs/does-not-exist", nil)
	if code != 404 {
		t.Fatalf("expected 404, got %d: %v", code, body)
	}
}

func TestListRunsEmpty(t *testing.T) {
	srv, _ := setupTestServer(t)
	code, body := doJSON(t, srv, "GET", "/api/v1/runs", nil)
	if code != 200 {
		t.Fatalf("expected 200, got %d: %v", code, body)
	}
	runs, ok := body["runs"].([]interface{})
	if !ok || len(runs) != 0 {
		t.Fatalf("expected an empty runs list, got %v", body["runs"])
	}
}
