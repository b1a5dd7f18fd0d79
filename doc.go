// Package sapling is a lazy, memoized evaluation engine for animation node
// graphs driven by a frame loop such as [Ebitengine].
//
// Nodes are pulled, not pushed: asking a node for its value evaluates it at
// most once per tick and caches the result, so diamond-shaped graphs stay
// linear and untouched subgraphs cost nothing. Pushing a new input marks it
// dirty and schedules an update pass; the pass advances the tick and pulls
// every terminal node reachable from what changed.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	g := sapling.NewGraph()
//	fade := sapling.NewTween(g, "fade", 0, 1, 2, ease.OutCubic)
//	sapling.NewSink(g, "alpha", fade.Node(), func(v sapling.Value) {
//		alpha, _ = v.Float64()
//	})
//	fade.Start()
//	sapling.Run(g, sapling.RunConfig{
//		Title: "Fade", Width: 640, Height: 480, Draw: draw,
//	})
//
// For full control, call [Graph.Frame] yourself once per frame, or embed
// [Game] in your own [ebiten.Game].
//
// # Nodes, scopes and ticks
//
// Every node belongs to a [Graph] and computes its value with an [Evaluator].
// Values are cached per [Scope]: the graph's global scope drives rendering,
// and extra scopes evaluate the same nodes in isolation. A cached value is
// fresh while its tick equals [Graph.CurrentTick].
//
// Push-driven node kinds ([Input], [Clock], [Tween]) publish values with
// [Node.RecordValue] or [Node.ForceInvalidate]. Changes in the global scope
// mark the node dirty; changes in other scopes never do.
//
// Terminal nodes implement [Updater]. Update passes reach them through the
// children lists, which record who consumes a node; evaluation itself reads
// whatever dependencies each evaluator holds.
//
// # Threading
//
// A Graph and its scopes are not safe for concurrent use. Drive the global
// scope from the goroutine that calls Frame.
//
// ECS integration (via [Donburi] adapter) lives in sapling/ecs.
//
// [Ebitengine]: https://ebitengine.org
// [Donburi]: https://github.com/yohamta/donburi
package sapling
