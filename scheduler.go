package sapling

// FrameScheduler is notified when a graph needs an update pass. The scheduler
// is expected to call Graph.Frame (or Graph.RunUpdates) before the next time
// anything outside the graph observes its values. RequestFrame is called at
// most once between passes.
type FrameScheduler interface {
	RequestFrame()
}

// FrameSchedulerFunc adapts a function to the FrameScheduler interface.
type FrameSchedulerFunc func()

// RequestFrame calls f.
func (f FrameSchedulerFunc) RequestFrame() {
	f()
}

// noopScheduler is used when the host calls Frame unconditionally every
// tick, as the ebiten loop does.
type noopScheduler struct{}

func (noopScheduler) RequestFrame() {}
