package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdlrun/wdlrun/engine/bindings"
	"github.com/wdlrun/wdlrun/engine/filestore"
	"github.com/wdlrun/wdlrun/engine/jobengine/fake"
	"github.com/wdlrun/wdlrun/engine/value"
	"github.com/wdlrun/wdlrun/engine/wdl"
	"github.com/wdlrun/wdlrun/engine/wdl/celwdl"
)

// noTasksDocument is a wdl.Document with a single workflow and no tasks,
// sufficient for scenarios that never call out to a Task Job.
type noTasksDocument struct{ wf *wdl.Workflow }

func (d *noTasksDocument) Workflow() *wdl.Workflow         { return d.wf }
func (d *noTasksDocument) Task(string) (*wdl.Task, bool) { return nil, false }

func newTestRuntime(t *testing.T, wf *wdl.Workflow) *Runtime {
	t.Helper()
	eng, err := fake.New()
	require.NoError(t, err)
	store, err := filestore.NewLocalStore(eng.Fs(), "/rt-store", "/rt-tmp", 16)
	require.NoError(t, err)
	return &Runtime{
		Engine:      eng,
		Document:    &noTasksDocument{wf: wf},
		Fs:          eng.Fs(),
		Virtualizer: filestore.NewVirtualizer(store, nil),
	}
}

func decl(id, name, source string) *wdl.Decl {
	return &wdl.Decl{
		NodeID:   id,
		Name:     name,
		Type:     wdl.Type{Kind: value.KindInt},
		Expr:     celwdl.New(source),
		NodeDeps: map[string]struct{}{},
	}
}

func TestWorkflowJobRun_Scenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("S1: trivial declaration", func(t *testing.T) {
		wf := &wdl.Workflow{
			NodeID: "w", Name: "w",
			Body: []wdl.Node{decl("w.x", "x", "1 + 2")},
		}
		rt := newTestRuntime(t, wf)
		out, err := WorkflowJobRun(rt, wf)(ctx, nil, rt.Engine.FileStore(nil))
		require.NoError(t, err)
		x, ok := out.Lookup("x")
		require.True(t, ok)
		assert.Equal(t, int64(3), x.Int)
	})

	t.Run("S2: input override", func(t *testing.T) {
		xDecl := &wdl.Decl{NodeID: "w.x", Name: "x", Type: wdl.Type{Kind: value.KindInt}, Expr: celwdl.New("10"), NodeDeps: map[string]struct{}{}}
		yDecl := decl("w.y", "y", "x * 2")
		yDecl.NodeDeps = map[string]struct{}{}
		wf := &wdl.Workflow{
			NodeID: "w", Name: "w",
			Inputs: []*wdl.Decl{xDecl},
			Body:   []wdl.Node{yDecl},
		}
		rt := newTestRuntime(t, wf)
		seed := bindings.New().Bind("x", value.NewInt(5))
		out, err := WorkflowJobRun(rt, wf)(ctx, []bindings.Bindings{seed}, rt.Engine.FileStore(nil))
		require.NoError(t, err)
		x, _ := out.Lookup("x")
		y, _ := out.Lookup("y")
		assert.Equal(t, int64(5), x.Int)
		assert.Equal(t, int64(10), y.Int)
	})

	t.Run("S5: dependency ordering", func(t *testing.T) {
		a := decl("w.a", "a", "1")
		b := decl("w.b", "b", "a + 1")
		b.NodeDeps = map[string]struct{}{"w.a": {}}
		c := decl("w.c", "c", "b + a")
		c.NodeDeps = map[string]struct{}{"w.a": {}, "w.b": {}}
		wf := &wdl.Workflow{NodeID: "w", Name: "w", Body: []wdl.Node{c, a, b}}
		rt := newTestRuntime(t, wf)
		out, err := WorkflowJobRun(rt, wf)(ctx, nil, rt.Engine.FileStore(nil))
		require.NoError(t, err)
		av, _ := out.Lookup("a")
		bv, _ := out.Lookup("b")
		cv, _ := out.Lookup("c")
		assert.Equal(t, int64(1), av.Int)
		assert.Equal(t, int64(2), bv.Int)
		assert.Equal(t, int64(3), cv.Int)
	})

	t.Run("S4: scatter over array arrays body bindings across iterations", func(t *testing.T) {
		s := &wdl.Scatter{
			NodeID:   "w.s",
			Variable: "i",
			Expr:     celwdl.New("[1, 2, 3]"),
			Body:     []wdl.Node{decl("w.s.square", "square", "i * i")},
			NodeDeps: map[string]struct{}{},
		}
		wf := &wdl.Workflow{NodeID: "w", Name: "w", Body: []wdl.Node{s}}
		rt := newTestRuntime(t, wf)
		out, err := WorkflowJobRun(rt, wf)(ctx, nil, rt.Engine.FileStore(nil))
		require.NoError(t, err)
		squares, ok := out.Lookup("square")
		require.True(t, ok)
		require.Equal(t, value.KindArray, squares.Kind)
		require.Len(t, squares.Array, 3)
		assert.Equal(t, int64(1), squares.Array[0].Int)
		assert.Equal(t, int64(4), squares.Array[1].Int)
		assert.Equal(t, int64(9), squares.Array[2].Int)
	})
}
