package stdlib

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/bindings"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

// jsonUnmarshalAny decodes JSON preserving integer-vs-float distinctions via
// json.Number, since the WDL JSON domain (§4.2) tells Int and Float apart.
func jsonUnmarshalAny(b []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func jsonMarshal(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func (r *Registry) registerIO() {
	r.register("stdout", streamHandleFn("stdout"))
	r.register("stderr", streamHandleFn("stderr"))
	r.register("read_string", readScalarFn("read_string", types.KindString))
	r.register("read_int", readScalarFn("read_int", types.KindInt))
	r.register("read_float", readScalarFn("read_float", types.KindFloat))
	r.register("read_boolean", readScalarFn("read_boolean", types.KindBoolean))
	r.register("read_lines", readLinesFn())
	r.register("read_tsv", readTSVFn())
	r.register("read_map", readMapFn())
	r.register("read_json", readJSONFn())
	r.register("read_object", readObjectFn())
	r.register("read_objects", readObjectsFn())
	r.register("write_lines", writeLinesFn())
	r.register("write_tsv", writeTSVFn())
	r.register("write_map", writeMapFn())
	r.register("write_json", writeJSONFn())
	r.register("glob", globFn())
	r.register("size", sizeFn())
}

// streamHandleFn implements stdout()/stderr(), which resolve the
// synthetic binding the task executor installs alongside output
// declarations (§4.7 step 9) rather than taking any argument.
func streamHandleFn(name string) Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity(name, len(args), 0, 0); err != nil {
				return types.Type{}, err
			}
			return types.File(false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, ok := env.Resolve(name)
			if !ok {
				return types.Null, types.NewRuntimeError(name + "() is only available in a task's output block")
			}
			return v, nil
		},
	}
}

func readFileArg(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (string, error) {
	v, err := eval(args[0], env)
	if err != nil {
		return "", err
	}
	real, err := io.devirtualize(v.AsString())
	if err != nil {
		return "", types.NewFilesystemError(err)
	}
	return real, nil
}

func readFileBytes(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) ([]byte, error) {
	real, err := readFileArg(args, env, eval, io)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(real)
	if err != nil {
		return nil, types.NewFilesystemError(err)
	}
	return b, nil
}

// trimTrailingNewlines implements Open Question 3 (§13): read_string
// trims any number of trailing \r and \n.
func trimTrailingNewlines(s string) string {
	return strings.TrimRight(s, "\r\n")
}

func readScalarFn(name string, kind types.Kind) Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity(name, len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			if err := mustFileArg(args[0], env, infer); err != nil {
				return types.Type{}, err
			}
			return prim(kind), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			b, err := readFileBytes(args, env, eval, io)
			if err != nil {
				return types.Null, err
			}
			s := trimTrailingNewlines(string(b))
			switch kind {
			case types.KindString:
				return types.NewString(s), nil
			case types.KindInt:
				n, perr := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
				if perr != nil {
					return types.Null, types.NewRuntimeError(name + ": not an integer: " + s)
				}
				return types.NewInt(n), nil
			case types.KindFloat:
				f, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
				if perr != nil {
					return types.Null, types.NewRuntimeError(name + ": not a float: " + s)
				}
				return types.NewFloat(f), nil
			case types.KindBoolean:
				t := strings.ToLower(strings.TrimSpace(s))
				if t == "true" {
					return types.NewBoolean(true), nil
				}
				if t == "false" {
					return types.NewBoolean(false), nil
				}
				return types.Null, types.NewRuntimeError(name + ": not a boolean: " + s)
			}
			return types.Null, types.NewRuntimeError("unreachable")
		},
	}
}

func prim(k types.Kind) types.Type {
	switch k {
	case types.KindInt:
		return types.Int(false)
	case types.KindFloat:
		return types.Float(false)
	case types.KindBoolean:
		return types.Boolean(false)
	default:
		return types.String(false)
	}
}

func mustFileArg(e ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) error {
	t, err := infer(e, env)
	if err != nil {
		return err
	}
	if t.Kind != types.KindFile && t.Kind != types.KindString && t.Kind != types.KindDirectory {
		return errWrongArgType("read function", t)
	}
	return nil
}

func readLinesFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("read_lines", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			if err := mustFileArg(args[0], env, infer); err != nil {
				return types.Type{}, err
			}
			return types.NewArray(types.String(false), false, false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			b, err := readFileBytes(args, env, eval, io)
			if err != nil {
				return types.Null, err
			}
			content := trimTrailingNewlines(string(b))
			if content == "" {
				return types.NewArrayValue(nil, types.String(false)), nil
			}
			rawLines := strings.Split(content, "\n")
			lines := make([]types.Value, len(rawLines))
			for i, l := range rawLines {
				lines[i] = types.NewString(strings.TrimSuffix(l, "\r"))
			}
			return types.NewArrayValue(lines, types.String(false)), nil
		},
	}
}

func splitTSV(content string) [][]string {
	content = trimTrailingNewlines(content)
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	rows := make([][]string, len(lines))
	for i, l := range lines {
		rows[i] = strings.Split(strings.TrimSuffix(l, "\r"), "\t")
	}
	return rows
}

func readTSVFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("read_tsv", len(args), 1, 3); err != nil {
				return types.Type{}, err
			}
			if err := mustFileArg(args[0], env, infer); err != nil {
				return types.Type{}, err
			}
			if len(args) == 1 {
				return types.NewArray(types.NewArray(types.String(false), false, false), false, false), nil
			}
			if err := mustInfer(args[1], env, infer, types.KindBoolean); err != nil {
				return types.Type{}, err
			}
			return types.NewArray(types.NewMap(types.String(false), types.String(false), false), false, false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			b, err := readFileBytes(args, env, eval, io)
			if err != nil {
				return types.Null, err
			}
			rows := splitTSV(string(b))

			if len(args) == 1 {
				out := make([]types.Value, len(rows))
				rowType := types.NewArray(types.String(false), false, false)
				for i, row := range rows {
					cells := make([]types.Value, len(row))
					for j, c := range row {
						cells[j] = types.NewString(c)
					}
					out[i] = types.NewArrayValue(cells, types.String(false))
				}
				return types.NewArrayValue(out, rowType), nil
			}

			hasHeaderV, err := eval(args[1], env)
			if err != nil {
				return types.Null, err
			}
			var fieldNames []string
			if len(args) == 3 {
				namesV, err := eval(args[2], env)
				if err != nil {
					return types.Null, err
				}
				for _, n := range namesV.AsArray() {
					fieldNames = append(fieldNames, n.AsString())
				}
			} else if hasHeaderV.AsBool() && len(rows) > 0 {
				fieldNames = rows[0]
				rows = rows[1:]
			}

			out := make([]types.Value, 0, len(rows))
			objType := types.NewMap(types.String(false), types.String(false), false)
			for _, row := range rows {
				m := types.NewOrderedMap()
				for j, c := range row {
					key := fmt.Sprintf("col%d", j)
					if j < len(fieldNames) {
						key = fieldNames[j]
					}
					m.Set(key, types.NewString(c))
				}
				out = append(out, types.NewMapValue(m, types.String(false), types.String(false)))
			}
			return types.NewArrayValue(out, objType), nil
		},
	}
}

func readMapFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("read_map", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			if err := mustFileArg(args[0], env, infer); err != nil {
				return types.Type{}, err
			}
			return types.NewMap(types.String(false), types.String(false), false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			b, err := readFileBytes(args, env, eval, io)
			if err != nil {
				return types.Null, err
			}
			m := types.NewOrderedMap()
			for _, row := range splitTSV(string(b)) {
				if len(row) < 2 {
					continue
				}
				m.Set(row[0], types.NewString(row[1]))
			}
			return types.NewMapValue(m, types.String(false), types.String(false)), nil
		},
	}
}

func readJSONFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("read_json", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			if err := mustFileArg(args[0], env, infer); err != nil {
				return types.Type{}, err
			}
			return types.Any(false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			b, err := readFileBytes(args, env, eval, io)
			if err != nil {
				return types.Null, err
			}
			return decodeJSONAny(b)
		},
	}
}

// nonEmptyLines splits content on newlines and drops blank (or
// whitespace-only) lines, matching read_object's stricter notion of "line"
// as distinct from splitTSV's.
func nonEmptyLines(content string) []string {
	var out []string
	for _, l := range strings.Split(content, "\n") {
		l = strings.TrimSuffix(l, "\r")
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func readObjectFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("read_object", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			if err := mustFileArg(args[0], env, infer); err != nil {
				return types.Type{}, err
			}
			return types.NewMap(types.String(false), types.String(false), false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			b, err := readFileBytes(args, env, eval, io)
			if err != nil {
				return types.Null, err
			}
			lines := nonEmptyLines(string(b))
			if len(lines) != 2 {
				return types.Null, types.NewRuntimeError("read_object(): file must have exactly one object")
			}
			header := strings.Split(lines[0], "\t")
			seen := make(map[string]bool, len(header))
			for _, h := range header {
				if h == "" || seen[h] {
					return types.Null, types.NewRuntimeError("read_object(): file has empty or duplicate column names")
				}
				seen[h] = true
			}
			row := strings.Split(lines[1], "\t")
			if len(row) != len(header) {
				return types.Null, types.NewRuntimeError("read_object(): file's tab-separated lines are ragged")
			}
			m := types.NewOrderedMap()
			for j, c := range row {
				m.Set(header[j], types.NewString(c))
			}
			return types.NewMapValue(m, types.String(false), types.String(false)), nil
		},
	}
}

func readObjectsFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("read_objects", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			if err := mustFileArg(args[0], env, infer); err != nil {
				return types.Type{}, err
			}
			return types.NewArray(types.NewMap(types.String(false), types.String(false), false), false, false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			b, err := readFileBytes(args, env, eval, io)
			if err != nil {
				return types.Null, err
			}
			rows := splitTSV(string(b))
			if len(rows) == 0 {
				return types.NewArrayValue(nil, types.NewMap(types.String(false), types.String(false), false)), nil
			}
			header := rows[0]
			out := make([]types.Value, 0, len(rows)-1)
			for _, row := range rows[1:] {
				m := types.NewOrderedMap()
				for j, c := range row {
					key := fmt.Sprintf("col%d", j)
					if j < len(header) {
						key = header[j]
					}
					m.Set(key, types.NewString(c))
				}
				out = append(out, types.NewMapValue(m, types.String(false), types.String(false)))
			}
			return types.NewArrayValue(out, types.NewMap(types.String(false), types.String(false), false)), nil
		},
	}
}

func decodeJSONAny(b []byte) (types.Value, error) {
	raw, err := jsonUnmarshalAny(b)
	if err != nil {
		return types.Null, types.NewRuntimeError("invalid JSON: " + err.Error())
	}
	v, err := types.FromJSON(raw, types.Any(false))
	if err != nil {
		return types.Null, err
	}
	return v, nil
}

// writeOutputFile writes content to a fresh file under the I/O context's
// work dir, named per §6's write_<fn>_<nanos>.txt layout, and returns its
// virtualized path as a File value.
func writeOutputFile(io *IOContext, fn string, content []byte) (types.Value, error) {
	name := fmt.Sprintf("write_%s_%d.txt", fn, io.nanos())
	real := filepath.Join(io.workDir(), name)
	if err := os.WriteFile(real, content, 0o644); err != nil {
		return types.Null, types.NewFilesystemError(err)
	}
	virtual, err := io.virtualize(real)
	if err != nil {
		return types.Null, types.NewFilesystemError(err)
	}
	return types.NewFile(virtual), nil
}

func writeLinesFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("write_lines", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			t, err := infer(args[0], env)
			if err != nil {
				return types.Type{}, err
			}
			if t.Kind != types.KindArray {
				return types.Type{}, errWrongArgType("write_lines", t)
			}
			return types.File(false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			src := v.AsArray()
			// Open Question 2 (§13): empty array -> empty file; non-empty
			// -> newline-joined with a trailing newline.
			var content string
			if len(src) > 0 {
				lines := make([]string, len(src))
				for i, item := range src {
					lines[i] = item.AsString()
				}
				content = strings.Join(lines, "\n") + "\n"
			}
			return writeOutputFile(io, "lines", []byte(content))
		},
	}
}

func writeTSVFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("write_tsv", len(args), 1, 3); err != nil {
				return types.Type{}, err
			}
			t, err := infer(args[0], env)
			if err != nil {
				return types.Type{}, err
			}
			if t.Kind != types.KindArray {
				return types.Type{}, errWrongArgType("write_tsv", t)
			}
			if len(args) >= 2 {
				if err := mustInfer(args[1], env, infer, types.KindBoolean); err != nil {
					return types.Type{}, err
				}
			}
			if len(args) == 3 {
				if err := mustInfer(args[2], env, infer, types.KindArray); err != nil {
					return types.Type{}, err
				}
			}
			return types.File(false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			src := v.AsArray()

			writeHeaders := false
			if len(args) >= 2 {
				hv, err := eval(args[1], env)
				if err != nil {
					return types.Null, err
				}
				writeHeaders = hv.AsBool()
			}
			var headerNames []string
			if len(args) == 3 {
				nv, err := eval(args[2], env)
				if err != nil {
					return types.Null, err
				}
				for _, n := range nv.AsArray() {
					headerNames = append(headerNames, n.AsString())
				}
			}

			var lines []string
			for _, row := range src {
				switch row.Kind() {
				case types.VArray:
					cells := make([]string, len(row.AsArray()))
					for i, c := range row.AsArray() {
						cells[i] = c.Stringify()
					}
					lines = append(lines, strings.Join(cells, "\t"))
				case types.VStruct, types.VMap:
					m := row.AsMap()
					if len(headerNames) == 0 {
						headerNames = append(headerNames, m.Keys()...)
					}
					cells := make([]string, 0, m.Len())
					for _, k := range m.Keys() {
						val, _ := m.Get(k)
						cells = append(cells, val.Stringify())
					}
					lines = append(lines, strings.Join(cells, "\t"))
				default:
					return types.Null, errWrongArgType("write_tsv", row.Type())
				}
			}

			if writeHeaders && len(headerNames) == 0 {
				return types.Null, types.NewRuntimeError("write_tsv(): Array[Array[String]] with headers requires custom header names")
			}
			if writeHeaders {
				lines = append([]string{strings.Join(headerNames, "\t")}, lines...)
			}

			var content string
			if len(lines) > 0 {
				content = strings.Join(lines, "\n") + "\n"
			}
			return writeOutputFile(io, "tsv", []byte(content))
		},
	}
}

func writeMapFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("write_map", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			t, err := infer(args[0], env)
			if err != nil {
				return types.Type{}, err
			}
			if t.Kind != types.KindMap {
				return types.Type{}, errWrongArgType("write_map", t)
			}
			return types.File(false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			m := v.AsMap()
			var lines []string
			for _, k := range m.Keys() {
				val, _ := m.Get(k)
				lines = append(lines, k+"\t"+val.Stringify())
			}
			var content string
			if len(lines) > 0 {
				content = strings.Join(lines, "\n") + "\n"
			}
			return writeOutputFile(io, "map", []byte(content))
		},
	}
}

func writeJSONFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("write_json", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			if _, err := infer(args[0], env); err != nil {
				return types.Type{}, err
			}
			return types.File(false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			b, err := jsonMarshal(v.ToJSON())
			if err != nil {
				return types.Null, types.NewRuntimeError("write_json: " + err.Error())
			}
			return writeOutputFile(io, "json", b)
		},
	}
}

func globFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("glob", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			if err := mustInfer(args[0], env, infer, types.KindString); err != nil {
				return types.Type{}, err
			}
			return types.NewArray(types.File(false), false, false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			pattern := filepath.Join(io.workDir(), v.AsString())
			matches, err := filepath.Glob(pattern)
			if err != nil {
				return types.Null, types.NewFilesystemError(err)
			}
			out := make([]types.Value, len(matches))
			for i, m := range matches {
				virtual, verr := io.virtualize(m)
				if verr != nil {
					return types.Null, types.NewFilesystemError(verr)
				}
				out[i] = types.NewFile(virtual)
			}
			return types.NewArrayValue(out, types.File(false)), nil
		},
	}
}

var sizeUnits = map[string]float64{
	"B": 1, "K": 1e3, "KB": 1e3, "M": 1e6, "MB": 1e6, "G": 1e9, "GB": 1e9, "T": 1e12, "TB": 1e12,
	"KiB": 1024, "MiB": 1024 * 1024, "GiB": 1024 * 1024 * 1024, "TiB": 1024 * 1024 * 1024 * 1024,
}

func sizeFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("size", len(args), 1, 2); err != nil {
				return types.Type{}, err
			}
			if _, err := infer(args[0], env); err != nil {
				return types.Type{}, err
			}
			if len(args) == 2 {
				if err := mustInfer(args[1], env, infer, types.KindString); err != nil {
					return types.Type{}, err
				}
			}
			return types.Float(false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			unit := "B"
			if len(args) == 2 {
				u, err := eval(args[1], env)
				if err != nil {
					return types.Null, err
				}
				unit = u.AsString()
			}
			divisor, ok := sizeUnits[unit]
			if !ok {
				return types.Null, types.NewRuntimeError("size: unknown unit " + unit)
			}
			total, err := sizeOf(v, io)
			if err != nil {
				return types.Null, err
			}
			return types.NewFloat(total / divisor), nil
		},
	}
}

func sizeOf(v types.Value, io *IOContext) (float64, error) {
	if v.IsNull() {
		return 0, nil
	}
	switch v.Kind() {
	case types.VFile:
		real, err := io.devirtualize(v.AsString())
		if err != nil {
			return 0, types.NewFilesystemError(err)
		}
		info, err := os.Stat(real)
		if err != nil {
			return 0, types.NewFilesystemError(err)
		}
		return float64(info.Size()), nil
	case types.VDirectory:
		real, err := io.devirtualize(v.AsString())
		if err != nil {
			return 0, types.NewFilesystemError(err)
		}
		var total int64
		err = filepath.Walk(real, func(_ string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() {
				total += info.Size()
			}
			return nil
		})
		if err != nil {
			return 0, types.NewFilesystemError(err)
		}
		return float64(total), nil
	case types.VArray:
		var total float64
		for _, item := range v.AsArray() {
			s, err := sizeOf(item, io)
			if err != nil {
				return 0, err
			}
			total += s
		}
		return total, nil
	default:
		return 0, nil
	}
}
