package sapling

import "fmt"

// NodeID identifies a node within its Graph. IDs are handed out by the graph
// in increasing order and never reused.
type NodeID uint32

// Evaluator computes a node's value. Implementations read other nodes through
// Node.Value or Node.Float64 using the scope they were given, typically from
// dependencies they hold themselves rather than from the children list.
//
// Evaluate is called at most once per node, scope and tick. A returned error
// is not cached: the next pull calls Evaluate again.
type Evaluator interface {
	Evaluate(n *Node, s *Scope) (Value, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(n *Node, s *Scope) (Value, error)

// Evaluate calls f(n, s).
func (f EvaluatorFunc) Evaluate(n *Node, s *Scope) (Value, error) {
	return f(n, s)
}

// Node is a unit of lazy, memoized computation owned by a Graph. Its value is
// produced by an Evaluator and cached per Scope until the graph's tick moves
// past the tick it was computed at.
//
// The children list is structural bookkeeping: it records which nodes consume
// this one so that update passes can reach Updater nodes downstream. It plays
// no part in evaluation order.
type Node struct {
	ID   NodeID
	Name string

	graph    *Graph
	eval     Evaluator
	children []*Node // nil until the first AddChild

	disposed bool
}

// Graph returns the graph that owns n.
func (n *Node) Graph() *Graph {
	return n.graph
}

// Evaluator returns the evaluator supplied when n was created.
func (n *Node) Evaluator() Evaluator {
	return n.eval
}

func (n *Node) String() string {
	return fmt.Sprintf("node %q (ID %d)", n.Name, n.ID)
}

// --- Memoization ---

// Value returns n's value in scope s. If s has not seen n since the graph's
// current tick began, the evaluator runs and its result is stored in s.
// Otherwise the stored value is returned without evaluating. A disposed node
// evaluates to None and stores nothing. Panics if s is bound to another graph.
func (n *Node) Value(s *Scope) (Value, error) {
	g := n.graph
	if g.debug {
		debugCheckDisposed(n, "Value")
	}
	if n.disposed {
		return Value{}, nil
	}
	s.bind(g)
	tick := g.tick
	if s.LastTick(n.ID) < tick {
		v, err := n.evaluate(s)
		if err != nil {
			return Value{}, err
		}
		s.store(n.ID, v, tick)
		return v, nil
	}
	v, _ := s.Memoized(n.ID)
	return v, nil
}

// Float64 returns n's value in scope s coerced to a number. See
// Value.Float64 for the coercion rules; a domain payload yields an error
// wrapping ErrNotNumeric.
func (n *Node) Float64(s *Scope) (float64, error) {
	v, err := n.Value(s)
	if err != nil {
		return 0, err
	}
	f, err := v.Float64()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", n, err)
	}
	return f, nil
}

func (n *Node) evaluate(s *Scope) (Value, error) {
	if n.eval == nil {
		return Value{}, nil
	}
	g := n.graph
	if !g.debug {
		return n.eval.Evaluate(n, s)
	}
	if !s.enter(n.ID) {
		panic(fmt.Sprintf("sapling debug: cycle detected while evaluating %s", n))
	}
	defer s.leave(n.ID)
	g.stats.evaluations++
	return n.eval.Evaluate(n, s)
}

// ForceInvalidate discards n's memoized state in scope s so the next pull
// evaluates again, regardless of the current tick. Only invalidation in the
// graph's global scope marks n dirty; other scopes derive their changes from
// the global one. A disposed node is left untouched. Panics if s is bound to
// another graph.
func (n *Node) ForceInvalidate(s *Scope) {
	if n.disposed {
		return
	}
	s.bind(n.graph)
	s.setTick(n.ID, NeverEvaluated)
	n.markUpdated(s)
}

// RecordValue stores v as n's value for the current tick in scope s without
// calling the evaluator. Push-driven node kinds use it to publish values
// they receive from outside the graph. The global-scope-only dirty rule of
// ForceInvalidate applies, and so do its disposed and foreign-scope rules.
func (n *Node) RecordValue(v Value, s *Scope) {
	if n.disposed {
		return
	}
	s.bind(n.graph)
	s.store(n.ID, v, n.graph.tick)
	n.markUpdated(s)
}

func (n *Node) markUpdated(s *Scope) {
	if s != n.graph.global {
		return
	}
	n.graph.MarkDirty(n)
}

// --- Tree manipulation ---

// AddChild appends child to n's children and reschedules child: its global
// scope staleness is reset and it is marked dirty, so the next pull computes
// a fresh value for its new consumer.
// Panics if child is nil or belongs to a different graph.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("sapling: cannot add nil child")
	}
	if child.graph != n.graph {
		panic("sapling: child belongs to a different graph")
	}
	if n.graph.debug {
		debugCheckDisposed(n, "AddChild (parent)")
		debugCheckDisposed(child, "AddChild (child)")
	}
	n.children = append(n.children, child)
	child.ForceInvalidate(n.graph.global)
	if n.graph.debug {
		debugCheckChildCount(n)
	}
}

// RemoveChild removes the first occurrence of child from n's children.
// Removing a node that is not a child is a no-op. No re-evaluation is
// scheduled.
func (n *Node) RemoveChild(child *Node) {
	if n.graph.debug {
		debugCheckDisposed(n, "RemoveChild")
	}
	n.removeChildByPtr(child)
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// --- Disposal ---

// Dispose removes n from its graph: the node is dropped from the registry,
// the dirty set and the global scope, and its children list is released.
// Other nodes that still list n as a child keep doing so until the builder
// disconnects them; update passes skip disposed nodes.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.disposed = true
	n.graph.drop(n)
	n.children = nil
	n.eval = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// removeChildByPtr removes child from n.children.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return true
		}
	}
	return false
}
