package sapling

// Node kinds built on the public Node primitives. Hosts with their own node
// behaviors implement Evaluator (and Updater for terminal nodes) the same way.

// --- Input ---

// Input is a push-driven node holding a value set from outside the graph.
type Input struct {
	node    *Node
	current Value
}

// NewInput creates an input node holding initial.
func NewInput(g *Graph, name string, initial Value) *Input {
	in := &Input{current: initial}
	in.node = g.NewNode(name, in)
	return in
}

// Node returns the graph node backing the input.
func (in *Input) Node() *Node {
	return in.node
}

// Evaluate returns the most recently set value.
func (in *Input) Evaluate(*Node, *Scope) (Value, error) {
	return in.current, nil
}

// Get returns the most recently set value.
func (in *Input) Get() Value {
	return in.current
}

// Set stores v, records it in the global scope and marks the node dirty.
func (in *Input) Set(v Value) {
	in.current = v
	in.node.RecordValue(v, in.node.graph.global)
}

// --- Derived nodes ---

// NewFunc creates a node whose value is computed by fn from the given
// dependencies. The new node is added as a child of each dependency so that
// update passes starting at a dependency reach it.
func NewFunc(g *Graph, name string, fn func(s *Scope) (Value, error), deps ...*Node) *Node {
	n := g.NewNode(name, EvaluatorFunc(func(_ *Node, s *Scope) (Value, error) {
		return fn(s)
	}))
	for _, d := range deps {
		d.AddChild(n)
	}
	return n
}

// NewOperator creates a numeric node applying op to the coerced values of
// deps, in order. Dependencies that cannot be coerced fail the evaluation.
func NewOperator(g *Graph, name string, op func(args []float64) float64, deps ...*Node) *Node {
	return NewFunc(g, name, func(s *Scope) (Value, error) {
		args := make([]float64, len(deps))
		for i, d := range deps {
			f, err := d.Float64(s)
			if err != nil {
				return Value{}, err
			}
			args[i] = f
		}
		return Number(op(args)), nil
	}, deps...)
}

// --- Sink ---

// Sink is a terminal node forwarding its dependency's value to a callback
// during update passes.
type Sink struct {
	dep *Node
	fn  func(Value)
}

// NewSink creates a sink node reading dep and adds it as a child of dep.
func NewSink(g *Graph, name string, dep *Node, fn func(Value)) *Node {
	snk := &Sink{dep: dep, fn: fn}
	n := g.NewNode(name, snk)
	dep.AddChild(n)
	return n
}

// Evaluate returns the dependency's value.
func (snk *Sink) Evaluate(_ *Node, s *Scope) (Value, error) {
	return snk.dep.Value(s)
}

// Update passes v to the callback.
func (snk *Sink) Update(_ *Node, v Value) {
	if snk.fn != nil {
		snk.fn(v)
	}
}
