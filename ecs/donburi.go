package ecs

import (
	"github.com/phanxgames/sapling"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// ValueEvent is published each time a bound component receives a new value.
type ValueEvent struct {
	Entity donburi.Entity
	NodeID sapling.NodeID
	Name   string
	Value  float64
}

// ValueEventType is the Donburi event type for bound component updates.
// Subscribe to this in your ECS systems and drain it with ProcessEvents.
var ValueEventType = events.NewEventType[ValueEvent]()

type componentSink struct {
	dep       *sapling.Node
	world     donburi.World
	entity    donburi.Entity
	component *donburi.ComponentType[float64]
}

// BindComponent creates a terminal node reading dep and adds it as a child of
// dep. Every update pass that reaches it writes dep's numeric value into
// component on entity and publishes a ValueEvent. Entities that were removed
// or lack the component are skipped. Values that cannot be coerced to a
// number are reported as update pass errors and never written.
func BindComponent(g *sapling.Graph, name string, dep *sapling.Node, world donburi.World, entity donburi.Entity, component *donburi.ComponentType[float64]) *sapling.Node {
	snk := &componentSink{
		dep:       dep,
		world:     world,
		entity:    entity,
		component: component,
	}
	n := g.NewNode(name, snk)
	dep.AddChild(n)
	return n
}

func (s *componentSink) Evaluate(_ *sapling.Node, scope *sapling.Scope) (sapling.Value, error) {
	f, err := s.dep.Float64(scope)
	if err != nil {
		return sapling.Value{}, err
	}
	return sapling.Number(f), nil
}

func (s *componentSink) Update(n *sapling.Node, v sapling.Value) {
	if !s.world.Valid(s.entity) {
		return
	}
	entry := s.world.Entry(s.entity)
	if !entry.HasComponent(s.component) {
		return
	}
	f, err := v.Float64()
	if err != nil {
		return
	}
	s.component.SetValue(entry, f)
	ValueEventType.Publish(s.world, ValueEvent{
		Entity: s.entity,
		NodeID: n.ID,
		Name:   n.Name,
		Value:  f,
	})
}

// WatchComponent reads component on entity at the start of every frame and
// sets in when the value differs from the input's current one. It stops when
// the returned function is called, the entity is removed, or the input's node
// is disposed.
func WatchComponent(in *sapling.Input, world donburi.World, entity donburi.Entity, component *donburi.ComponentType[float64]) (stop func()) {
	g := in.Node().Graph()
	stopped := false
	var onFrame func(dt float64)
	onFrame = func(float64) {
		if stopped || in.Node().IsDisposed() || !world.Valid(entity) {
			return
		}
		entry := world.Entry(entity)
		if entry.HasComponent(component) {
			v := sapling.Number(*component.Get(entry))
			if !v.Equal(in.Get()) {
				in.Set(v)
			}
		}
		g.PostOnFrame(onFrame)
	}
	g.PostOnFrame(onFrame)
	return func() { stopped = true }
}
