package sapling

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// fpsRefresh is how often, in seconds, the overlay text is rebuilt.
const fpsRefresh = 0.5

// fpsOverlay prints FPS, TPS and graph counters in the top-left corner.
// The text is rebuilt every ~0.5 seconds of frame time.
type fpsOverlay struct {
	graph   *Graph
	elapsed float64
	last    float64
	text    string
}

func newFPSOverlay(g *Graph) *fpsOverlay {
	o := &fpsOverlay{graph: g, last: g.FrameTime()}
	o.refresh()
	return o
}

// draw rebuilds the text when due, then prints it to screen.
func (o *fpsOverlay) draw(screen *ebiten.Image) {
	now := o.graph.FrameTime()
	o.elapsed += now - o.last
	o.last = now
	if o.elapsed >= fpsRefresh {
		o.elapsed = 0
		o.refresh()
	}
	if screen != nil {
		ebitenutil.DebugPrint(screen, o.text)
	}
}

func (o *fpsOverlay) refresh() {
	o.text = fmt.Sprintf("FPS: %.1f\nTPS: %.1f\ntick: %d\nnodes: %d",
		ebiten.ActualFPS(), ebiten.ActualTPS(), o.graph.CurrentTick(), o.graph.NodeCount())
}
