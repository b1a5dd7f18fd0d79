package sapling

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Tween is a push-driven node that interpolates between two numbers over a
// duration using a gween easing function. Once started it advances on every
// Frame, records the interpolated value in the global scope and marks itself
// dirty. It stops by itself when the duration has elapsed or its node is
// disposed.
type Tween struct {
	node    *Node
	tween   *gween.Tween
	from    float64
	current float64
	running bool
	posted  bool
	done    bool
	onFrame func(dt float64)
}

// NewTween creates a stopped tween node animating from -> to over duration
// seconds with the easing function fn. Its value is from until it starts.
func NewTween(g *Graph, name string, from, to float64, duration float32, fn ease.TweenFunc) *Tween {
	t := &Tween{
		tween:   gween.New(float32(from), float32(to), duration, fn),
		from:    from,
		current: from,
	}
	t.node = g.NewNode(name, t)
	t.onFrame = t.frame
	return t
}

// Node returns the graph node backing the tween.
func (t *Tween) Node() *Node {
	return t.node
}

// Evaluate returns the latest interpolated value.
func (t *Tween) Evaluate(*Node, *Scope) (Value, error) {
	return Number(t.current), nil
}

// Start resumes the tween on the next frame. No-op once Done.
func (t *Tween) Start() {
	if t.done {
		return
	}
	t.running = true
	if !t.posted {
		t.posted = true
		t.node.graph.PostOnFrame(t.onFrame)
	}
}

// Stop pauses the tween, keeping its progress.
func (t *Tween) Stop() {
	t.running = false
}

// Reset rewinds the tween to its start value and records it. A running tween
// keeps running from the beginning.
func (t *Tween) Reset() {
	t.tween.Reset()
	t.done = false
	t.current = t.from
	t.node.RecordValue(Number(t.current), t.node.graph.global)
}

// Done reports whether the tween reached the end of its duration.
func (t *Tween) Done() bool {
	return t.done
}

func (t *Tween) frame(dt float64) {
	t.posted = false
	if !t.running || t.done {
		return
	}
	if t.node.disposed {
		t.running = false
		t.done = true
		return
	}
	val, finished := t.tween.Update(float32(dt))
	t.current = float64(val)
	t.node.RecordValue(Number(t.current), t.node.graph.global)
	if finished {
		t.done = true
		t.running = false
		return
	}
	t.posted = true
	t.node.graph.PostOnFrame(t.onFrame)
}
