package sapling

// Clock is a push-driven node that evaluates to the graph's frame time. While
// running it invalidates itself every frame, so everything downstream
// recomputes once per frame.
type Clock struct {
	node    *Node
	running bool
	posted  bool
	onFrame func(dt float64) // cached method value; avoids an allocation per frame
}

// NewClock creates a stopped clock node.
func NewClock(g *Graph, name string) *Clock {
	c := &Clock{}
	c.node = g.NewNode(name, c)
	c.onFrame = c.frame
	return c
}

// Node returns the graph node backing the clock.
func (c *Clock) Node() *Node {
	return c.node
}

// Evaluate returns the graph's current frame time in seconds.
func (c *Clock) Evaluate(n *Node, _ *Scope) (Value, error) {
	return Number(n.graph.FrameTime()), nil
}

// Start begins ticking on the next frame. Starting a running clock is a no-op.
func (c *Clock) Start() {
	c.running = true
	if !c.posted {
		c.posted = true
		c.node.graph.PostOnFrame(c.onFrame)
	}
}

// Stop stops ticking after the current frame.
func (c *Clock) Stop() {
	c.running = false
}

// Running reports whether the clock is ticking.
func (c *Clock) Running() bool {
	return c.running
}

func (c *Clock) frame(float64) {
	c.posted = false
	if !c.running || c.node.disposed {
		return
	}
	c.node.ForceInvalidate(c.node.graph.global)
	c.posted = true
	c.node.graph.PostOnFrame(c.onFrame)
}
