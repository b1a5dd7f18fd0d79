package sapling

import (
	"encoding/json"
	"fmt"
	"math"
)

// testStep represents a single action in a test script.
type testStep struct {
	Action  string  `json:"action"`
	Node    string  `json:"node,omitempty"`
	Value   any     `json:"value,omitempty"`
	Epsilon float64 `json:"epsilon,omitempty"`
	Frames  int     `json:"frames,omitempty"`
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

// TestRunner sequences input changes and value checks across frames for
// automated testing of a graph. Attach to a Graph via SetTestRunner.
//
// Supported actions:
//
//	{"action": "set", "node": "x", "value": 3}        // Input.Set (number, bool or null)
//	{"action": "invalidate", "node": "x"}             // ForceInvalidate in the global scope
//	{"action": "wait", "frames": 2}                   // idle frames
//	{"action": "expect", "node": "y", "value": 6}     // numeric check, optional "epsilon"
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	done      bool
}

// LoadTestScript parses a JSON test script and returns a TestRunner ready
// to be attached to a Graph via SetTestRunner.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i, st := range script.Steps {
		switch st.Action {
		case "set", "invalidate", "expect":
			if st.Node == "" {
				return nil, fmt.Errorf("parse test script: step %d (%s): missing node", i, st.Action)
			}
		case "wait":
		default:
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// SetTestRunner attaches a TestRunner to the graph. The runner's step method
// is called at the start of every Frame, before frame callbacks run.
func (g *Graph) SetTestRunner(runner *TestRunner) {
	g.testRunner = runner
}

// Done reports whether all steps in the test script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// step advances the test runner by one frame. Called from Graph.Frame.
func (r *TestRunner) step(g *Graph) error {
	if r.done {
		return nil
	}
	// Count down wait frames.
	if r.waitCount > 0 {
		r.waitCount--
		if r.waitCount == 0 && r.cursor >= len(r.steps) {
			r.done = true
		}
		return nil
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return nil
	}

	st := r.steps[r.cursor]
	r.cursor++

	var err error
	switch st.Action {
	case "set":
		err = r.set(g, st)
	case "invalidate":
		n := g.Lookup(st.Node)
		if n == nil {
			err = fmt.Errorf("test script step %d: %q: %w", r.cursor-1, st.Node, ErrNodeNotFound)
			break
		}
		n.ForceInvalidate(g.global)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "expect":
		err = r.expect(g, st)
	}

	// Check if we've reached the end after executing.
	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
	return err
}

func (r *TestRunner) set(g *Graph, st testStep) error {
	n := g.Lookup(st.Node)
	if n == nil {
		return fmt.Errorf("test script step %d: %q: %w", r.cursor-1, st.Node, ErrNodeNotFound)
	}
	in, ok := n.eval.(*Input)
	if !ok {
		return fmt.Errorf("test script step %d: %s is not an input", r.cursor-1, n)
	}
	switch v := st.Value.(type) {
	case nil:
		in.Set(None())
	case float64:
		in.Set(Number(v))
	case bool:
		in.Set(Bool(v))
	default:
		return fmt.Errorf("test script step %d: unsupported value %v (%T)", r.cursor-1, v, v)
	}
	return nil
}

func (r *TestRunner) expect(g *Graph, st testStep) error {
	n := g.Lookup(st.Node)
	if n == nil {
		return fmt.Errorf("test script step %d: %q: %w", r.cursor-1, st.Node, ErrNodeNotFound)
	}
	want, ok := st.Value.(float64)
	if !ok {
		return fmt.Errorf("test script step %d: expect needs a numeric value, got %T", r.cursor-1, st.Value)
	}
	got, err := n.Float64(g.global)
	if err != nil {
		return fmt.Errorf("test script step %d: %w", r.cursor-1, err)
	}
	if math.Abs(got-want) > st.Epsilon {
		return fmt.Errorf("test script step %d: %s = %v, want %v", r.cursor-1, n, got, want)
	}
	return nil
}
