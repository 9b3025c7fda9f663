// Package document implements the input/output JSON envelope of spec §6:
// decoding a flat JSON object of "<namespace>.<name>" or "<name>" keys into
// a typed bindings.Bindings[types.Value], and encoding one back out with
// the same namespacing rule (`_`-prefixed keys emitted unprefixed). The
// per-kind JSON<->Value conversion itself is pkg/types.FromJSON/(Value).ToJSON
// (§4.2); this package only resolves which declaration a key names and
// which namespace an output belongs under.
package document

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/bindings"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

// Target names the single entrypoint (workflow or sole task) a document
// dispatches to, mirroring pkg/workflow.Execute's own dispatch rule (run
// the workflow if present, else the sole task, else fail) so the API and
// CLI front-ends can decode inputs and encode outputs without re-deriving
// that rule themselves.
type Target struct {
	Namespace string
	Inputs    []*ast.Declaration
	Outputs   []*ast.Declaration
}

// Resolve picks the document's dispatch target per §4.8: the workflow if
// present, else the sole task.
func Resolve(doc *ast.Document) (Target, error) {
	if doc.Workflow != nil {
		return Target{Namespace: doc.Workflow.Name, Inputs: doc.Workflow.Inputs, Outputs: doc.Workflow.Outputs}, nil
	}
	if len(doc.Tasks) == 1 {
		for _, t := range doc.Tasks {
			return Target{Namespace: t.Name, Inputs: t.Inputs, Outputs: t.Outputs}, nil
		}
	}
	return Target{}, types.NewValidationError("document has no workflow and does not have exactly one task", nil)
}

// DecodeInputs converts a flat JSON object into a bindings chain per §6:
// each key is either "<namespace>.<name>" or "<name>", matched against decl
// by stripping the namespace prefix if present. The original key (with or
// without its prefix) is kept as the binding's name, since
// pkg/workflow.Execute's own input lookup tries both forms itself. An
// unrecognized key is a validation error.
func DecodeInputs(raw map[string]interface{}, target Target) (bindings.Bindings[types.Value], error) {
	byName := make(map[string]*ast.Declaration, len(target.Inputs))
	for _, d := range target.Inputs {
		byName[d.Name] = d
	}

	out := bindings.Empty[types.Value]()
	for _, key := range sortedKeys(raw) {
		name := strings.TrimPrefix(key, target.Namespace+".")
		decl, ok := byName[name]
		if !ok {
			return out, types.NewValidationError(fmt.Sprintf("unknown input '%s'", key), nil)
		}
		v, err := types.FromJSON(raw[key], decl.Type)
		if err != nil {
			return out, err
		}
		out = out.Bind(key, v, nil)
	}
	return out, nil
}

// EncodeOutputs converts an outputs chain into the flat JSON object §6
// pins: every name gets "<namespace>." prepended, except a name already
// starting with "_", which is emitted unprefixed.
func EncodeOutputs(outputs bindings.Bindings[types.Value], namespace string) map[string]interface{} {
	out := make(map[string]interface{})
	for _, e := range outputs.Iter() {
		key := e.Name
		if !strings.HasPrefix(key, "_") {
			key = namespace + "." + key
		}
		out[key] = e.Value.ToJSON()
	}
	return out
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
