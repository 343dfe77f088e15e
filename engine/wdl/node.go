// Package wdl specifies the contract consumed from an external WDL parser
// and expression evaluator: documents, nodes, expressions, and the type
// metadata needed to evaluate declarations with defaults. Concrete node
// types here cover the AST shapes a workflow body is built from (Decl,
// Call, Scatter, Conditional, Workflow); engine/wdl/celwdl supplies a
// reference Expr evaluator used by tests.
package wdl

// Kind tags the variant of a WDL workflow node.
type Kind string

const (
	KindDecl        Kind = "Decl"
	KindCall        Kind = "Call"
	KindScatter     Kind = "Scatter"
	KindConditional Kind = "Conditional"
	KindWorkflow    Kind = "Workflow"
)

// Node is any element of a WDL workflow body. Every node carries a stable
// id and the set of other node ids (within the same body) it statically
// depends on — the Subgraph Builder intersects this set with the body's
// own node ids to compute in-graph edges.
type Node interface {
	ID() string
	Kind() Kind
	Dependencies() map[string]struct{}
}

func depSet(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

// Decl is a declaration node: `Type name = expr` (expr may be absent for
// task inputs with no default, in which case Expr is nil).
type Decl struct {
	NodeID  string
	Name    string
	Type    Type
	Expr    Expr
	NodeDeps map[string]struct{}
}

func (d *Decl) ID() string                     { return d.NodeID }
func (d *Decl) Kind() Kind                     { return KindDecl }
func (d *Decl) Dependencies() map[string]struct{} { return d.NodeDeps }

// CallInput is one named input expression passed at a call site.
type CallInput struct {
	Name string
	Expr Expr
}

// Call is a call node: a reference to a task or (sub)workflow callee,
// named inputs, and the local name the call result is bound under.
type Call struct {
	NodeID    string
	LocalName string
	Callee    string
	CalleeKind Kind // KindWorkflow or KindTask
	Inputs    []CallInput
	NodeDeps  map[string]struct{}
}

func (c *Call) ID() string                     { return c.NodeID }
func (c *Call) Kind() Kind                      { return KindCall }
func (c *Call) Dependencies() map[string]struct{} { return c.NodeDeps }

// KindTask marks a Call's CalleeKind when the callee is a task rather
// than a (sub)workflow; tasks have no Node representation of their own
// since they are leaves consumed only by Task Job.
const KindTask Kind = "Task"

// Scatter is a scatter section: `scatter (var in expr) { body }`.
type Scatter struct {
	NodeID   string
	Variable string
	Expr     Expr
	Body     []Node
	NodeDeps map[string]struct{}
}

func (s *Scatter) ID() string                     { return s.NodeID }
func (s *Scatter) Kind() Kind                      { return KindScatter }
func (s *Scatter) Dependencies() map[string]struct{} { return s.NodeDeps }

// Conditional is an `if (expr) { body }` section.
type Conditional struct {
	NodeID   string
	Expr     Expr
	Body     []Node
	NodeDeps map[string]struct{}
}

func (c *Conditional) ID() string                     { return c.NodeID }
func (c *Conditional) Kind() Kind                      { return KindConditional }
func (c *Conditional) Dependencies() map[string]struct{} { return c.NodeDeps }

// Workflow is the top-level or a sub-workflow node: input decls,
// postinput (private) decls, body, and an output section.
type Workflow struct {
	NodeID     string
	Name       string
	Inputs     []*Decl
	Postinputs []*Decl
	Body       []Node
	Outputs    []*Decl
	NodeDeps   map[string]struct{}
}

func (w *Workflow) ID() string                     { return w.NodeID }
func (w *Workflow) Kind() Kind                      { return KindWorkflow }
func (w *Workflow) Dependencies() map[string]struct{} { return w.NodeDeps }

// Task is a task definition: input/postinput decls, a runtime section, a
// command expression, and output decls. It is never itself a workflow
// body Node — it is reached only as a Call's callee.
type Task struct {
	Name       string
	Inputs     []*Decl
	Postinputs []*Decl
	Runtime    map[string]Expr
	Command    Expr
	Outputs    []*Decl
}

// Document is a fully parsed WDL file.
type Document interface {
	Workflow() *Workflow
	Task(name string) (*Task, bool)
}
