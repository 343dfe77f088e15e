// Package jsondoc is the CLI-facing wiring point for the external WDL
// parser contract. Rather than hand-roll a WDL grammar, it decodes a
// document that has already been parsed into the wdl.Node shapes, serialized as JSON with
// expression slots given as CEL source strings (engine/wdl/celwdl). A
// production deployment swaps Load for a call into a real WDL parser
// that returns the same engine/wdl.Document; everything downstream only
// ever sees that interface.
package jsondoc

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/wdlrun/wdlrun/engine/core"
	"github.com/wdlrun/wdlrun/engine/value"
	"github.com/wdlrun/wdlrun/engine/wdl"
	"github.com/wdlrun/wdlrun/engine/wdl/celwdl"
)

type declJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Optional bool   `json:"optional"`
	Expr     string `json:"expr"`
	Deps     []string `json:"deps"`
}

type callInputJSON struct {
	Name string `json:"name"`
	Expr string `json:"expr"`
}

type nodeJSON struct {
	Kind      string          `json:"kind"`
	ID        string          `json:"id"`
	Deps      []string        `json:"deps"`
	Decl      *declJSON       `json:"decl,omitempty"`
	LocalName string          `json:"local_name,omitempty"`
	Callee    string          `json:"callee,omitempty"`
	IsTask    bool            `json:"is_task,omitempty"`
	Inputs    []callInputJSON `json:"inputs,omitempty"`
	Variable  string          `json:"variable,omitempty"`
	Expr      string          `json:"expr,omitempty"`
	Body      []nodeJSON      `json:"body,omitempty"`
}

type taskJSON struct {
	Name       string            `json:"name"`
	Inputs     []declJSON        `json:"inputs"`
	Postinputs []declJSON        `json:"postinputs"`
	Runtime    map[string]string `json:"runtime"`
	Command    string            `json:"command"`
	Outputs    []declJSON        `json:"outputs"`
}

type workflowJSON struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Inputs     []declJSON `json:"inputs"`
	Postinputs []declJSON `json:"postinputs"`
	Body       []nodeJSON `json:"body"`
	Outputs    []declJSON `json:"outputs"`
}

type documentJSON struct {
	Workflow workflowJSON        `json:"workflow"`
	Tasks    map[string]taskJSON `json:"tasks"`
}

// Document adapts a decoded documentJSON to wdl.Document.
type Document struct {
	workflow *wdl.Workflow
	tasks    map[string]*wdl.Task
}

func (d *Document) Workflow() *wdl.Workflow { return d.workflow }

func (d *Document) Task(name string) (*wdl.Task, bool) {
	t, ok := d.tasks[name]
	return t, ok
}

var _ wdl.Document = (*Document)(nil)

// Load reads and decodes a document from path. path is the "wdl_uri"
// the CLI takes; only the local-file form is implemented here, consistent
// with the parser itself being an external collaborator.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("reading document %s: %w", path, err), core.ErrIO, nil)
	}
	var doc documentJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, core.NewError(fmt.Errorf("parsing document %s: %w", path, err), core.ErrEvaluation, nil)
	}
	tasks := make(map[string]*wdl.Task, len(doc.Tasks))
	for name, tj := range doc.Tasks {
		t, err := convertTask(tj)
		if err != nil {
			return nil, err
		}
		tasks[name] = t
	}
	wf, err := convertWorkflow(doc.Workflow)
	if err != nil {
		return nil, err
	}
	return &Document{workflow: wf, tasks: tasks}, nil
}

func typeOf(kind string, optional bool) wdl.Type {
	return wdl.Type{Kind: value.Kind(kind), Optional: optional}
}

func convertExpr(source string) wdl.Expr {
	if source == "" {
		return nil
	}
	return celwdl.New(source)
}

func convertDecl(d declJSON) *wdl.Decl {
	return &wdl.Decl{
		NodeID:   d.ID,
		Name:     d.Name,
		Type:     typeOf(d.Type, d.Optional),
		Expr:     convertExpr(d.Expr),
		NodeDeps: depSet(d.Deps),
	}
}

func convertDecls(ds []declJSON) []*wdl.Decl {
	out := make([]*wdl.Decl, len(ds))
	for i, d := range ds {
		out[i] = convertDecl(d)
	}
	return out
}

func depSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func convertNode(n nodeJSON) (wdl.Node, error) {
	switch n.Kind {
	case string(wdl.KindDecl):
		if n.Decl == nil {
			return nil, core.NewError(fmt.Errorf("decl node %s missing decl body", n.ID), core.ErrEvaluation, nil)
		}
		return convertDecl(*n.Decl), nil
	case string(wdl.KindCall):
		inputs := make([]wdl.CallInput, len(n.Inputs))
		for i, in := range n.Inputs {
			inputs[i] = wdl.CallInput{Name: in.Name, Expr: convertExpr(in.Expr)}
		}
		calleeKind := wdl.KindWorkflow
		if n.IsTask {
			calleeKind = wdl.KindTask
		}
		return &wdl.Call{
			NodeID:     n.ID,
			LocalName:  n.LocalName,
			Callee:     n.Callee,
			CalleeKind: calleeKind,
			Inputs:     inputs,
			NodeDeps:   depSet(n.Deps),
		}, nil
	case string(wdl.KindScatter):
		body, err := convertBody(n.Body)
		if err != nil {
			return nil, err
		}
		return &wdl.Scatter{
			NodeID:   n.ID,
			Variable: n.Variable,
			Expr:     convertExpr(n.Expr),
			Body:     body,
			NodeDeps: depSet(n.Deps),
		}, nil
	case string(wdl.KindConditional):
		body, err := convertBody(n.Body)
		if err != nil {
			return nil, err
		}
		return &wdl.Conditional{
			NodeID:   n.ID,
			Expr:     convertExpr(n.Expr),
			Body:     body,
			NodeDeps: depSet(n.Deps),
		}, nil
	default:
		return nil, core.NewError(fmt.Errorf("unknown node kind %q for id %s", n.Kind, n.ID), core.ErrUnimplementedNode, nil)
	}
}

func convertBody(nodes []nodeJSON) ([]wdl.Node, error) {
	out := make([]wdl.Node, len(nodes))
	for i, n := range nodes {
		node, err := convertNode(n)
		if err != nil {
			return nil, err
		}
		out[i] = node
	}
	return out, nil
}

func convertWorkflow(wj workflowJSON) (*wdl.Workflow, error) {
	body, err := convertBody(wj.Body)
	if err != nil {
		return nil, err
	}
	return &wdl.Workflow{
		NodeID:     wj.ID,
		Name:       wj.Name,
		Inputs:     convertDecls(wj.Inputs),
		Postinputs: convertDecls(wj.Postinputs),
		Body:       body,
		Outputs:    convertDecls(wj.Outputs),
	}, nil
}

func convertTask(tj taskJSON) (*wdl.Task, error) {
	runtime := make(map[string]wdl.Expr, len(tj.Runtime))
	for k, v := range tj.Runtime {
		runtime[k] = convertExpr(v)
	}
	return &wdl.Task{
		Name:       tj.Name,
		Inputs:     convertDecls(tj.Inputs),
		Postinputs: convertDecls(tj.Postinputs),
		Runtime:    runtime,
		Command:    convertExpr(tj.Command),
		Outputs:    convertDecls(tj.Outputs),
	}, nil
}
