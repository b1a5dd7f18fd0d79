package sapling

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// countingEval counts Evaluate calls and delegates to fn.
type countingEval struct {
	calls int
	fn    func(s *Scope) (Value, error)
}

func (c *countingEval) Evaluate(_ *Node, s *Scope) (Value, error) {
	c.calls++
	if c.fn == nil {
		return None(), nil
	}
	return c.fn(s)
}

func constEval(v Value) *countingEval {
	return &countingEval{fn: func(*Scope) (Value, error) { return v, nil }}
}

// countingScheduler returns a scheduler that counts frame requests.
func countingScheduler(count *int) FrameScheduler {
	return FrameSchedulerFunc(func() { *count++ })
}

// --- Identity ---

func TestNewNodeIDsUnique(t *testing.T) {
	g := NewGraph()
	a := g.NewNode("a", nil)
	b := g.NewNode("b", nil)
	c := g.NewNode("c", nil)
	if a.ID == b.ID || b.ID == c.ID || a.ID == c.ID {
		t.Errorf("IDs should be unique: %d, %d, %d", a.ID, b.ID, c.ID)
	}
	if a.Graph() != g {
		t.Error("Graph() should return the owning graph")
	}
}

func TestNodeIDsNotReusedAfterDispose(t *testing.T) {
	g := NewGraph()
	a := g.NewNode("a", nil)
	id := a.ID
	a.Dispose()
	b := g.NewNode("b", nil)
	if b.ID == id {
		t.Errorf("ID %d reused after dispose", id)
	}
}

// --- Memoization ---

func TestValueEvaluatesAtMostOncePerTick(t *testing.T) {
	g := NewGraph()
	ev := constEval(Number(4))
	n := g.NewNode("n", ev)

	for i := 0; i < 5; i++ {
		v, err := n.Value(g.Global())
		if err != nil {
			t.Fatalf("Value: %v", err)
		}
		if !v.Equal(Number(4)) {
			t.Errorf("Value = %v, want 4", v)
		}
	}
	if ev.calls != 1 {
		t.Errorf("evaluate calls = %d, want 1", ev.calls)
	}
}

func TestValueRecomputesAfterAdvanceTick(t *testing.T) {
	g := NewGraph()
	ev := constEval(Number(1))
	n := g.NewNode("n", ev)

	n.Value(g.Global())
	g.AdvanceTick()
	n.Value(g.Global())
	n.Value(g.Global())

	if ev.calls != 2 {
		t.Errorf("evaluate calls = %d, want 2", ev.calls)
	}
	if got := g.Global().LastTick(n.ID); got != g.CurrentTick() {
		t.Errorf("LastTick = %d, want %d", got, g.CurrentTick())
	}
}

func TestDiamondEvaluatesSharedNodeOnce(t *testing.T) {
	g := NewGraph()
	rootEval := constEval(Number(2))
	root := g.NewNode("root", rootEval)

	left := NewOperator(g, "left", func(a []float64) float64 { return a[0] + 1 }, root)
	right := NewOperator(g, "right", func(a []float64) float64 { return a[0] * 10 }, root)
	sum := NewOperator(g, "sum", func(a []float64) float64 { return a[0] + a[1] }, left, right)

	got, err := sum.Float64(g.Global())
	if err != nil {
		t.Fatalf("Float64: %v", err)
	}
	if got != 23 {
		t.Errorf("sum = %v, want 23", got)
	}
	if rootEval.calls != 1 {
		t.Errorf("root evaluate calls = %d, want 1", rootEval.calls)
	}
}

func TestEvaluateErrorNotCached(t *testing.T) {
	g := NewGraph()
	fail := true
	ev := &countingEval{fn: func(*Scope) (Value, error) {
		if fail {
			return Value{}, errors.New("boom")
		}
		return Number(5), nil
	}}
	n := g.NewNode("flaky", ev)

	if _, err := n.Value(g.Global()); err == nil {
		t.Fatal("expected error on first pull")
	}
	if got := g.Global().LastTick(n.ID); got != NeverEvaluated {
		t.Errorf("LastTick after failure = %d, want NeverEvaluated", got)
	}
	if _, ok := g.Global().Memoized(n.ID); ok {
		t.Error("failed evaluation should not be memoized")
	}

	fail = false
	v, err := n.Value(g.Global())
	if err != nil {
		t.Fatalf("second pull: %v", err)
	}
	if !v.Equal(Number(5)) {
		t.Errorf("Value = %v, want 5", v)
	}
	if ev.calls != 2 {
		t.Errorf("evaluate calls = %d, want 2 (retry in same tick)", ev.calls)
	}
}

func TestNilEvaluatorIsNone(t *testing.T) {
	g := NewGraph()
	n := g.NewNode("empty", nil)
	v, err := n.Value(g.Global())
	if err != nil || !v.IsNone() {
		t.Errorf("Value = (%v, %v), want (none, nil)", v, err)
	}
}

// --- Numeric coercion ---

func TestNodeFloat64Table(t *testing.T) {
	g := NewGraph()
	tests := []struct {
		v    Value
		want float64
	}{
		{None(), 0},
		{Bool(true), 1},
		{Bool(false), 0},
		{Number(3.5), 3.5},
	}
	for _, tt := range tests {
		n := g.NewNode(tt.v.String(), constEval(tt.v))
		got, err := n.Float64(g.Global())
		if err != nil {
			t.Fatalf("Float64(%v): %v", tt.v, err)
		}
		if got != tt.want {
			t.Errorf("Float64(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestNodeFloat64NonNumeric(t *testing.T) {
	g := NewGraph()
	n := g.NewNode("label", constEval(Other("text")))
	_, err := n.Float64(g.Global())
	if !errors.Is(err, ErrNotNumeric) {
		t.Fatalf("err = %v, want ErrNotNumeric", err)
	}
	if !strings.Contains(err.Error(), `"label"`) {
		t.Errorf("error should name the node, got: %v", err)
	}
}

// --- Scopes ---

func TestScopeIsolation(t *testing.T) {
	g := NewGraph()
	ev := constEval(Number(1))
	n := g.NewNode("n", ev)
	a, b := NewScope(), NewScope()

	n.Value(a)
	if got := a.LastTick(n.ID); got != g.CurrentTick() {
		t.Errorf("scope A LastTick = %d, want %d", got, g.CurrentTick())
	}
	if got := b.LastTick(n.ID); got != NeverEvaluated {
		t.Errorf("scope B LastTick = %d, want NeverEvaluated", got)
	}
	if _, ok := b.Memoized(n.ID); ok {
		t.Error("scope B should have no memoized value")
	}

	n.Value(b)
	if ev.calls != 2 {
		t.Errorf("evaluate calls = %d, want 2 (once per scope)", ev.calls)
	}
}

func TestInvalidateOtherScopeKeepsMemo(t *testing.T) {
	g := NewGraph()
	ev := constEval(Number(1))
	n := g.NewNode("n", ev)
	other := NewScope()

	n.Value(g.Global())
	n.ForceInvalidate(other)
	n.Value(g.Global())

	if ev.calls != 1 {
		t.Errorf("evaluate calls = %d, want 1", ev.calls)
	}
}

// --- Invalidation and dirty tracking ---

func TestForceInvalidateNonGlobalDoesNotMarkDirty(t *testing.T) {
	g := NewGraph()
	var requests int
	g.SetScheduler(countingScheduler(&requests))
	ev := constEval(Number(1))
	n := g.NewNode("n", ev)
	s := NewScope()

	n.Value(s)
	n.ForceInvalidate(s)

	if g.DirtyCount() != 0 {
		t.Errorf("DirtyCount = %d, want 0", g.DirtyCount())
	}
	if requests != 0 {
		t.Errorf("frame requests = %d, want 0", requests)
	}
	// Still forces the next pull in that scope.
	n.Value(s)
	if ev.calls != 2 {
		t.Errorf("evaluate calls = %d, want 2", ev.calls)
	}
}

func TestForceInvalidateGlobalMarksDirtyOnce(t *testing.T) {
	g := NewGraph()
	var requests int
	g.SetScheduler(countingScheduler(&requests))
	n := g.NewNode("n", constEval(Number(1)))

	n.ForceInvalidate(g.Global())
	n.ForceInvalidate(g.Global())

	if g.DirtyCount() != 1 {
		t.Errorf("DirtyCount = %d, want 1", g.DirtyCount())
	}
	if !g.IsDirty(n) {
		t.Error("node should be dirty")
	}
	if requests != 1 {
		t.Errorf("frame requests = %d, want 1", requests)
	}
	if !g.UpdatePending() {
		t.Error("update should be pending")
	}
}

func TestForceInvalidateRecomputesSameTick(t *testing.T) {
	g := NewGraph()
	ev := constEval(Number(1))
	n := g.NewNode("n", ev)

	n.Value(g.Global())
	n.ForceInvalidate(g.Global())
	n.Value(g.Global())

	if ev.calls != 2 {
		t.Errorf("evaluate calls = %d, want 2", ev.calls)
	}
}

func TestRecordValueBypassesEvaluate(t *testing.T) {
	g := NewGraph()
	ev := constEval(Number(1))
	n := g.NewNode("pushed", ev)

	n.RecordValue(Number(99), g.Global())
	v, err := n.Value(g.Global())
	if err != nil {
		t.Fatal(err)
	}
	if !v.Equal(Number(99)) {
		t.Errorf("Value = %v, want 99", v)
	}
	if ev.calls != 0 {
		t.Errorf("evaluate calls = %d, want 0", ev.calls)
	}
	if !g.IsDirty(n) {
		t.Error("RecordValue in the global scope should mark dirty")
	}
}

func TestRecordValueNonGlobalNotDirty(t *testing.T) {
	g := NewGraph()
	n := g.NewNode("pushed", constEval(Number(1)))
	s := NewScope()

	n.RecordValue(Bool(true), s)

	if g.IsDirty(n) {
		t.Error("RecordValue in a non-global scope should not mark dirty")
	}
	if v, _ := s.Memoized(n.ID); !v.Equal(Bool(true)) {
		t.Errorf("Memoized = %v, want true", v)
	}
}

// --- Children ---

func TestAddChildReschedulesChild(t *testing.T) {
	g := NewGraph()
	parent := g.NewNode("parent", constEval(Number(1)))
	childEval := constEval(Number(2))
	child := g.NewNode("child", childEval)

	child.Value(g.Global())
	parent.AddChild(child)
	child.Value(g.Global())

	if childEval.calls != 2 {
		t.Errorf("child evaluate calls = %d, want 2", childEval.calls)
	}
	if !g.IsDirty(child) {
		t.Error("child should be dirty after AddChild")
	}
	if g.IsDirty(parent) {
		t.Error("parent should not be dirty after AddChild")
	}
	if parent.NumChildren() != 1 || parent.ChildAt(0) != child {
		t.Error("child should be the parent's only child")
	}
}

func TestChildrenLazilyAllocated(t *testing.T) {
	g := NewGraph()
	n := g.NewNode("n", nil)
	if n.Children() != nil {
		t.Error("children should be nil before the first AddChild")
	}
}

func TestRemoveChild(t *testing.T) {
	g := NewGraph()
	parent := g.NewNode("parent", nil)
	a := g.NewNode("a", nil)
	b := g.NewNode("b", nil)
	c := g.NewNode("c", nil)
	parent.AddChild(a)
	parent.AddChild(b)
	parent.AddChild(c)

	parent.RemoveChild(b)

	if parent.NumChildren() != 2 {
		t.Fatalf("NumChildren = %d, want 2", parent.NumChildren())
	}
	if parent.ChildAt(0) != a || parent.ChildAt(1) != c {
		t.Error("remaining children should keep their order")
	}
}

func TestRemoveChildUnknownIsNoOp(t *testing.T) {
	g := NewGraph()
	parent := g.NewNode("parent", nil)
	stranger := g.NewNode("stranger", nil)

	parent.RemoveChild(stranger) // no children allocated yet
	parent.AddChild(g.NewNode("kid", nil))
	parent.RemoveChild(stranger)

	if parent.NumChildren() != 1 {
		t.Errorf("NumChildren = %d, want 1", parent.NumChildren())
	}
}

func TestAddChildNilPanics(t *testing.T) {
	g := NewGraph()
	n := g.NewNode("n", nil)
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for nil child, got none")
		}
	}()
	n.AddChild(nil)
}

func TestAddChildForeignGraphPanics(t *testing.T) {
	g1, g2 := NewGraph(), NewGraph()
	parent := g1.NewNode("parent", nil)
	child := g2.NewNode("child", nil)
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for child from another graph, got none")
		}
	}()
	parent.AddChild(child)
}

func TestScopeFromOtherGraphPanics(t *testing.T) {
	g1, g2 := NewGraph(), NewGraph()
	a := g1.NewNode("a", constEval(Number(1)))
	b := g2.NewNode("b", constEval(Number(2)))
	if a.ID != b.ID {
		t.Fatalf("IDs = %d, %d; want equal IDs across graphs", a.ID, b.ID)
	}

	s := NewScope()
	if f, _ := a.Float64(s); f != 1 {
		t.Fatalf("a = %v, want 1", f)
	}
	if s.Graph() != g1 {
		t.Error("scope should bind to the graph of its first node")
	}

	ops := map[string]func(){
		"Value":           func() { b.Value(s) },
		"Value global":    func() { b.Value(g1.Global()) },
		"ForceInvalidate": func() { b.ForceInvalidate(g1.Global()) },
		"RecordValue":     func() { b.RecordValue(Number(3), g1.NewScope()) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			defer func() {
				r := recover()
				if r == nil {
					t.Fatal("expected panic for scope from another graph, got none")
				}
				if msg := fmt.Sprint(r); !strings.HasPrefix(msg, "sapling:") {
					t.Errorf("panic = %q, want sapling: prefix", msg)
				}
			}()
			op()
		})
	}

	if v, _ := g1.Global().Memoized(a.ID); !v.IsNone() {
		t.Errorf("g1 global memo = %v, want untouched", v)
	}
	if f, _ := a.Float64(s); f != 1 {
		t.Errorf("a = %v after foreign use, want 1", f)
	}
}

// --- Disposal ---

func TestDispose(t *testing.T) {
	g := NewGraph()
	n := g.NewNode("gone", constEval(Number(1)))
	n.Value(g.Global())
	n.ForceInvalidate(g.Global())

	n.Dispose()

	if !n.IsDisposed() {
		t.Error("IsDisposed should be true")
	}
	if g.Node(n.ID) != nil || g.Lookup("gone") != nil {
		t.Error("disposed node should be removed from the registry")
	}
	if g.DirtyCount() != 0 {
		t.Errorf("DirtyCount = %d, want 0", g.DirtyCount())
	}
	if g.Global().Len() != 0 {
		t.Errorf("global scope Len = %d, want 0", g.Global().Len())
	}

	n.Dispose() // second call is a no-op
}

func TestDisposedNodeLeavesScopesUntouched(t *testing.T) {
	g := NewGraph()
	n := g.NewNode("gone", constEval(Number(1)))
	n.Dispose()

	n.RecordValue(Number(5), g.Global())
	n.ForceInvalidate(g.Global())
	n.Value(g.Global())

	if g.Global().Len() != 0 {
		t.Errorf("global scope Len = %d, want 0", g.Global().Len())
	}
	if g.DirtyCount() != 0 || g.UpdatePending() {
		t.Error("disposed node should not schedule an update pass")
	}
}

// --- End to end ---

func TestChainEndToEnd(t *testing.T) {
	g := NewGraph()
	external := 1.0

	aEval := &countingEval{fn: func(*Scope) (Value, error) { return Number(external), nil }}
	a := g.NewNode("A", aEval)

	bEval := &countingEval{}
	b := g.NewNode("B", bEval)
	bEval.fn = func(s *Scope) (Value, error) {
		f, err := a.Float64(s)
		return Number(f * 2), err
	}

	cEval := &countingEval{}
	c := g.NewNode("C", cEval)
	cEval.fn = func(s *Scope) (Value, error) {
		f, err := b.Float64(s)
		return Number(f + 1), err
	}

	if g.CurrentTick() != 1 {
		t.Fatalf("CurrentTick = %d, want 1", g.CurrentTick())
	}

	got, err := c.Float64(g.Global())
	if err != nil {
		t.Fatal(err)
	}
	if got != 3 {
		t.Errorf("C = %v, want 3", got)
	}
	assertCalls(t, "tick 1", aEval, bEval, cEval, 1)

	c.Float64(g.Global())
	assertCalls(t, "tick 1 repeat", aEval, bEval, cEval, 1)

	g.AdvanceTick()
	external = 10
	got, _ = c.Float64(g.Global())
	if got != 21 {
		t.Errorf("C = %v, want 21", got)
	}
	assertCalls(t, "tick 2", aEval, bEval, cEval, 2)
}

func assertCalls(t *testing.T, label string, a, b, c *countingEval, want int) {
	t.Helper()
	if a.calls != want || b.calls != want || c.calls != want {
		t.Errorf("%s: calls A=%d B=%d C=%d, want %d each", label, a.calls, b.calls, c.calls, want)
	}
}
