package sapling

import (
	"errors"
	"fmt"
	"time"
)

// ErrNodeNotFound is returned by id-based graph operations for unknown or
// disposed node IDs.
var ErrNodeNotFound = errors.New("sapling: node not found")

// Updater is implemented by evaluators of terminal nodes, the ones that push
// values out of the graph (to a renderer, an ECS world, a callback). Update
// passes pull every Updater reachable from a dirty node and hand it the
// result.
type Updater interface {
	Evaluator
	Update(n *Node, v Value)
}

// Graph owns a set of nodes, the global evaluation scope, the tick counter
// and the dirty set. It is the host side of the memoization contract: nodes
// read the current tick from it and report global-scope changes to it.
//
// A Graph is single-threaded. All mutation and all pulls in the global scope
// must happen on the goroutine that calls Frame.
type Graph struct {
	tick   Tick
	global *Scope

	nodes  map[NodeID]*Node
	names  map[string]NodeID
	nextID NodeID

	// Dirty tracking
	dirty       []*Node
	dirtySet    map[NodeID]struct{}
	passDirty   []*Node // reused buffer swapped with dirty during a pass
	wantUpdates bool
	scheduler   FrameScheduler

	// Frame callbacks
	frameTime      float64
	frameCallbacks []func(dt float64)
	frameSpare     []func(dt float64)

	// Update pass scratch
	visited  map[NodeID]struct{}
	updaters []*Node

	testRunner *TestRunner

	debug bool
	stats debugStats
}

// NewGraph creates an empty graph at tick 1 with a no-op frame scheduler.
func NewGraph() *Graph {
	g := &Graph{
		tick:      1,
		global:    NewScope(),
		nodes:     make(map[NodeID]*Node),
		names:     make(map[string]NodeID),
		dirtySet:  make(map[NodeID]struct{}),
		visited:   make(map[NodeID]struct{}),
		scheduler: noopScheduler{},
	}
	g.global.graph = g
	return g
}

// CurrentTick returns the graph's current generation.
func (g *Graph) CurrentTick() Tick {
	return g.tick
}

// AdvanceTick starts a new generation. Every node becomes stale in every
// scope. Update passes advance the tick themselves; hosts that drive
// evaluation directly call AdvanceTick once per frame before pulling values.
func (g *Graph) AdvanceTick() {
	g.tick++
}

// Global returns the graph's global scope.
func (g *Graph) Global() *Scope {
	return g.global
}

// NewScope creates an empty scope bound to g, for evaluations isolated from
// the global scope.
func (g *Graph) NewScope() *Scope {
	s := NewScope()
	s.graph = g
	return s
}

// FrameTime returns the accumulated time in seconds passed to Frame.
func (g *Graph) FrameTime() float64 {
	return g.frameTime
}

// SetScheduler sets the frame scheduler notified when an update pass becomes
// pending. A nil scheduler restores the no-op default.
func (g *Graph) SetScheduler(s FrameScheduler) {
	if s == nil {
		s = noopScheduler{}
	}
	g.scheduler = s
}

// SetDebugMode enables or disables debug mode. When enabled, disposed-node
// access panics, re-entrant evaluation (a cycle) panics, large child lists
// print a warning, and per-pass stats are logged to stderr.
func (g *Graph) SetDebugMode(enabled bool) {
	g.debug = enabled
}

// --- Registry ---

// NewNode creates a node evaluated by eval and registers it with the graph.
// A nil evaluator produces the absent value. Non-empty names are indexed for
// Lookup; a later node with the same name shadows an earlier one.
func (g *Graph) NewNode(name string, eval Evaluator) *Node {
	g.nextID++
	n := &Node{ID: g.nextID, Name: name, graph: g, eval: eval}
	g.nodes[n.ID] = n
	if name != "" {
		g.names[name] = n.ID
	}
	return n
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id NodeID) *Node {
	return g.nodes[id]
}

// Lookup returns the node registered under name, or nil.
func (g *Graph) Lookup(name string) *Node {
	id, ok := g.names[name]
	if !ok {
		return nil
	}
	return g.nodes[id]
}

// NodeCount returns the number of live nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// Connect adds the node childID to the children of parentID.
func (g *Graph) Connect(parentID, childID NodeID) error {
	parent, child := g.nodes[parentID], g.nodes[childID]
	if parent == nil || child == nil {
		return fmt.Errorf("connect %d -> %d: %w", parentID, childID, ErrNodeNotFound)
	}
	parent.AddChild(child)
	return nil
}

// Disconnect removes the node childID from the children of parentID.
func (g *Graph) Disconnect(parentID, childID NodeID) error {
	parent, child := g.nodes[parentID], g.nodes[childID]
	if parent == nil || child == nil {
		return fmt.Errorf("disconnect %d -> %d: %w", parentID, childID, ErrNodeNotFound)
	}
	parent.RemoveChild(child)
	return nil
}

func (g *Graph) drop(n *Node) {
	delete(g.nodes, n.ID)
	if id, ok := g.names[n.Name]; ok && id == n.ID {
		delete(g.names, n.Name)
	}
	if _, ok := g.dirtySet[n.ID]; ok {
		delete(g.dirtySet, n.ID)
		for i, d := range g.dirty {
			if d == n {
				copy(g.dirty[i:], g.dirty[i+1:])
				g.dirty[len(g.dirty)-1] = nil
				g.dirty = g.dirty[:len(g.dirty)-1]
				break
			}
		}
	}
	g.global.Forget(n.ID)
}

// --- Dirty tracking ---

// MarkDirty flags n for the next update pass and, if no pass is pending yet,
// asks the frame scheduler for one. Marking the same node again before the
// pass runs has no further effect.
func (g *Graph) MarkDirty(n *Node) {
	if n.graph != g {
		panic("sapling: node belongs to a different graph")
	}
	if n.disposed {
		return
	}
	if _, ok := g.dirtySet[n.ID]; !ok {
		g.dirtySet[n.ID] = struct{}{}
		g.dirty = append(g.dirty, n)
	}
	g.postRunUpdates()
}

// IsDirty reports whether n is waiting for the next update pass.
func (g *Graph) IsDirty(n *Node) bool {
	_, ok := g.dirtySet[n.ID]
	return ok
}

// DirtyCount returns the number of nodes waiting for the next update pass.
func (g *Graph) DirtyCount() int {
	return len(g.dirty)
}

// UpdatePending reports whether an update pass has been requested and not yet run.
func (g *Graph) UpdatePending() bool {
	return g.wantUpdates
}

func (g *Graph) postRunUpdates() {
	if g.wantUpdates {
		return
	}
	g.wantUpdates = true
	g.scheduler.RequestFrame()
}

// --- Frames ---

// PostOnFrame queues fn to run once at the start of the next Frame call.
// Callbacks that want to run every frame post themselves again.
func (g *Graph) PostOnFrame(fn func(dt float64)) {
	g.frameCallbacks = append(g.frameCallbacks, fn)
}

// Frame is the per-frame entry point for the host loop. It advances
// FrameTime by dt seconds, steps the attached TestRunner, runs the queued
// frame callbacks and then the pending update pass, if any.
func (g *Graph) Frame(dt float64) error {
	g.frameTime += dt
	if g.testRunner != nil {
		if err := g.testRunner.step(g); err != nil {
			return err
		}
	}
	if len(g.frameCallbacks) > 0 {
		callbacks := g.frameCallbacks
		g.frameCallbacks = g.frameSpare[:0]
		for i, cb := range callbacks {
			cb(dt)
			callbacks[i] = nil
		}
		g.frameSpare = callbacks[:0]
	}
	if !g.wantUpdates {
		return nil
	}
	return g.RunUpdates()
}

// RunUpdates performs a batched update pass. It advances the tick, takes the
// current dirty set, collects every Updater node reachable through children
// from a dirty node, and pulls each once in the global scope. Evaluation
// errors are joined and returned; they do not stop the pass. Nodes marked
// dirty during the pass request another pass.
func (g *Graph) RunUpdates() error {
	var t0 time.Time
	if g.debug {
		t0 = time.Now()
		g.stats = debugStats{}
	}

	g.AdvanceTick()
	g.wantUpdates = false
	dirty := g.dirty
	g.dirty = g.passDirty[:0]
	clear(g.dirtySet)

	g.updaters = g.updaters[:0]
	for _, n := range dirty {
		g.collectUpdaters(n)
	}
	clear(g.visited)

	var errs []error
	for _, n := range g.updaters {
		if n.disposed {
			continue
		}
		u, ok := n.eval.(Updater)
		if !ok {
			continue
		}
		v, err := n.Value(g.global)
		if err != nil {
			errs = append(errs, fmt.Errorf("update %s: %w", n, err))
			continue
		}
		u.Update(n, v)
	}

	if g.debug {
		g.stats.dirtyCount = len(dirty)
		g.stats.updaterCount = len(g.updaters)
		g.stats.passTime = time.Since(t0)
		g.debugLog(g.stats)
	}

	for i := range dirty {
		dirty[i] = nil
	}
	g.passDirty = dirty[:0]
	for i := range g.updaters {
		g.updaters[i] = nil
	}
	return errors.Join(errs...)
}

// collectUpdaters walks the children of n depth-first, appending each
// Updater node once.
func (g *Graph) collectUpdaters(n *Node) {
	if n.disposed {
		return
	}
	if _, seen := g.visited[n.ID]; seen {
		return
	}
	g.visited[n.ID] = struct{}{}
	if _, ok := n.eval.(Updater); ok {
		g.updaters = append(g.updaters, n)
	}
	for _, child := range n.children {
		g.collectUpdaters(child)
	}
}
