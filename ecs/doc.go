// Package ecs provides ECS adapters for sapling node graphs.
//
// [BindComponent] creates a terminal node that copies a node's numeric value
// into a float64 component of a [Donburi] entity on every update pass, and
// publishes a [ValueEvent] for ECS systems that prefer events over polling.
// [WatchComponent] goes the other way, feeding a component into an input
// node once per frame.
//
// Usage:
//
//	var Opacity = donburi.NewComponentType[float64]()
//
//	entity := world.Create(Opacity)
//	ecs.BindComponent(graph, "opacity", fade.Node(), world, entity, Opacity)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
