package sapling

import (
	"fmt"
	"os"
	"time"
)

// debugStats holds per-pass timing and evaluation counts.
// Only populated when Graph.debug is true.
type debugStats struct {
	passTime     time.Duration
	dirtyCount   int
	updaterCount int
	evaluations  int
}

// debugLog prints update pass stats to stderr.
func (g *Graph) debugLog(stats debugStats) {
	if !g.debug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr,
		"[sapling] tick %d | pass: %v | dirty: %d | updaters: %d | evaluations: %d\n",
		g.tick, stats.passTime, stats.dirtyCount, stats.updaterCount, stats.evaluations)
}

// debugCheckDisposed panics with a descriptive message when a disposed node is
// evaluated or edited. Callers only reach it in debug mode.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("sapling debug: %s on disposed node %q (ID %d)", op, n.Name, n.ID))
	}
}

// debugCheckChildCount warns on stderr if a node has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		_, _ = fmt.Fprintf(os.Stderr, "[sapling] warning: node %q has %d children (threshold %d)\n",
			n.Name, len(n.children), debugMaxChildCount)
	}
}
