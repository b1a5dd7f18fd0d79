package sapling

// Tick is an evaluation generation. A Graph advances its tick once per update
// pass; a node memoized at the current tick is up to date.
type Tick int64

// NeverEvaluated is the tick reported for nodes a scope has not evaluated.
// It is lower than any tick a Graph hands out.
const NeverEvaluated Tick = -1

// Scope is an isolated memoization context over a node graph. Each Graph owns
// one global scope; additional scopes track staleness independently.
//
// A scope serves a single graph. Scopes from Graph.NewScope start bound to
// it; a scope from NewScope binds to the graph of the first node it
// evaluates or stores. Using a bound scope with another graph's nodes panics,
// since node IDs are only unique within one graph.
//
// A Scope is not safe for concurrent use. The global scope belongs to the
// goroutine driving Graph.Frame; other scopes must be owned by one goroutine
// at a time.
type Scope struct {
	graph  *Graph
	ticks  map[NodeID]Tick
	values map[NodeID]Value

	evaluating map[NodeID]struct{} // debug-mode cycle detection
}

// NewScope creates an empty, unbound scope in which every node is
// unevaluated.
func NewScope() *Scope {
	return &Scope{
		ticks:  make(map[NodeID]Tick),
		values: make(map[NodeID]Value),
	}
}

// LastTick returns the tick at which id was last evaluated or recorded in
// this scope, or NeverEvaluated.
func (s *Scope) LastTick(id NodeID) Tick {
	t, ok := s.ticks[id]
	if !ok {
		return NeverEvaluated
	}
	return t
}

// Memoized returns the value stored for id. The second result is false if
// nothing has been stored yet.
func (s *Scope) Memoized(id NodeID) (Value, bool) {
	v, ok := s.values[id]
	return v, ok
}

// Len returns the number of nodes with a stored tick in this scope.
func (s *Scope) Len() int {
	return len(s.ticks)
}

// Forget drops everything stored for id.
func (s *Scope) Forget(id NodeID) {
	delete(s.ticks, id)
	delete(s.values, id)
}

// Graph returns the graph the scope is bound to, or nil if it has not been
// used yet.
func (s *Scope) Graph() *Graph {
	return s.graph
}

// bind ties s to g on first use. Panics if s already serves another graph.
func (s *Scope) bind(g *Graph) {
	if s.graph == g {
		return
	}
	if s.graph != nil {
		panic("sapling: scope belongs to a different graph")
	}
	s.graph = g
}

// enter marks id as evaluating in s. It reports false if id is already being
// evaluated in this scope.
func (s *Scope) enter(id NodeID) bool {
	if _, ok := s.evaluating[id]; ok {
		return false
	}
	if s.evaluating == nil {
		s.evaluating = make(map[NodeID]struct{})
	}
	s.evaluating[id] = struct{}{}
	return true
}

func (s *Scope) leave(id NodeID) {
	delete(s.evaluating, id)
}

func (s *Scope) store(id NodeID, v Value, t Tick) {
	s.values[id] = v
	s.ticks[id] = t
}

func (s *Scope) setTick(id NodeID, t Tick) {
	s.ticks[id] = t
}
