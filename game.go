package sapling

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// RunConfig configures the window and loop used by Run.
type RunConfig struct {
	Title  string
	Width  int
	Height int
	// TPS overrides ebiten's ticks per second when positive.
	TPS int
	// Draw renders the current node values. Called once per ebiten Draw.
	Draw func(screen *ebiten.Image)
	// OnError receives update pass errors. When nil, the first error stops
	// the game loop and is returned by Run.
	OnError func(err error)
	// ShowFPS prints FPS, TPS and graph counters over the drawn frame.
	ShowFPS bool
}

// Game adapts a Graph to ebiten.Game. Each Update drives one graph frame of
// 1/TPS seconds.
//
// Use Run for the common case, or embed Game in your own ebiten.Game.
type Game struct {
	graph   *Graph
	width   int
	height  int
	draw    func(screen *ebiten.Image)
	onError func(err error)
	fps     *fpsOverlay
}

// NewGame creates a Game driving g with the given config.
func NewGame(g *Graph, cfg RunConfig) *Game {
	gm := &Game{
		graph:   g,
		width:   cfg.Width,
		height:  cfg.Height,
		draw:    cfg.Draw,
		onError: cfg.OnError,
	}
	if cfg.ShowFPS {
		gm.fps = newFPSOverlay(g)
	}
	return gm
}

// Graph returns the graph driven by the game.
func (gm *Game) Graph() *Graph {
	return gm.graph
}

// Update runs one graph frame.
func (gm *Game) Update() error {
	dt := 1.0 / float64(ebiten.TPS())
	if err := gm.graph.Frame(dt); err != nil {
		if gm.onError == nil {
			return err
		}
		gm.onError(err)
	}
	return nil
}

// Draw calls the configured draw hook, then the FPS overlay if enabled.
func (gm *Game) Draw(screen *ebiten.Image) {
	if gm.draw != nil {
		gm.draw(screen)
	}
	if gm.fps != nil {
		gm.fps.draw(screen)
	}
}

// Layout returns the configured size, or the outside size when unset.
func (gm *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if gm.width <= 0 || gm.height <= 0 {
		return outsideWidth, outsideHeight
	}
	return gm.width, gm.height
}

// Run opens a window and drives g from ebiten's game loop until the window
// closes or an update pass fails.
func Run(g *Graph, cfg RunConfig) error {
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		ebiten.SetWindowSize(cfg.Width, cfg.Height)
	}
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}
	return ebiten.RunGame(NewGame(g, cfg))
}
