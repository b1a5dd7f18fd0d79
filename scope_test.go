package sapling

import "testing"

func TestNewScopeDefaults(t *testing.T) {
	s := NewScope()
	if got := s.LastTick(7); got != NeverEvaluated {
		t.Errorf("LastTick = %d, want NeverEvaluated", got)
	}
	if _, ok := s.Memoized(7); ok {
		t.Error("Memoized should report absent for unseen node")
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestNeverEvaluatedBelowFirstTick(t *testing.T) {
	g := NewGraph()
	if NeverEvaluated >= g.CurrentTick() {
		t.Fatalf("NeverEvaluated (%d) must be below the first tick (%d)", NeverEvaluated, g.CurrentTick())
	}
}

func TestScopeStoreAndForget(t *testing.T) {
	s := NewScope()
	s.store(3, Number(9), 5)

	if got := s.LastTick(3); got != 5 {
		t.Errorf("LastTick = %d, want 5", got)
	}
	v, ok := s.Memoized(3)
	if !ok || !v.Equal(Number(9)) {
		t.Errorf("Memoized = (%v, %v), want (9, true)", v, ok)
	}

	s.Forget(3)
	if got := s.LastTick(3); got != NeverEvaluated {
		t.Errorf("LastTick after Forget = %d, want NeverEvaluated", got)
	}
	if _, ok := s.Memoized(3); ok {
		t.Error("Memoized should be absent after Forget")
	}
}

func TestScopeSetTickKeepsValue(t *testing.T) {
	s := NewScope()
	s.store(1, Bool(true), 2)
	s.setTick(1, NeverEvaluated)

	if got := s.LastTick(1); got != NeverEvaluated {
		t.Errorf("LastTick = %d, want NeverEvaluated", got)
	}
	if v, ok := s.Memoized(1); !ok || !v.Equal(Bool(true)) {
		t.Errorf("Memoized = (%v, %v), want stale (true, true)", v, ok)
	}
}

func TestGraphNewScopeIsBound(t *testing.T) {
	g := NewGraph()
	if s := g.NewScope(); s.Graph() != g || s.Len() != 0 {
		t.Errorf("NewScope: graph = %p, Len = %d; want %p, 0", s.Graph(), s.Len(), g)
	}
	if g.Global().Graph() != g {
		t.Error("global scope should be bound to its graph")
	}
	if NewScope().Graph() != nil {
		t.Error("NewScope should start unbound")
	}
}
