package scene

import (
	"sync"
	"time"

	"region-maptile/internal/mathutil"
)

// Snapshot is a point-in-time copy of a scene's entities. It shares no
// memory with the live scene.
type Snapshot struct {
	TakenAt  time.Time
	Entities []Entity
}

// Snapshot returns s itself, so a static snapshot can be used wherever a
// snapshot source is expected.
func (s *Snapshot) Snapshot() *Snapshot {
	return s
}

// Scene is the live, concurrently mutated entity set.
type Scene struct {
	mu       sync.RWMutex
	entities map[string]Entity
	order    []string // insertion order, for deterministic snapshots
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{entities: make(map[string]Entity)}
}

// Add inserts or replaces an entity.
func (s *Scene) Add(e Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := e.EntityID()
	if _, exists := s.entities[id]; !exists {
		s.order = append(s.order, id)
	}
	s.entities[id] = e
}

// Remove deletes an entity. Unknown ids are ignored.
func (s *Scene) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entities[id]; !exists {
		return
	}
	delete(s.entities, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// MoveGroup sets the position of an object group. It returns false if id
// is not a group in the scene.
func (s *Scene) MoveGroup(id string, pos mathutil.Vec3) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.entities[id].(*ObjectGroup)
	if !ok {
		return false
	}
	g.Position = pos
	return true
}

// Len returns the number of entities.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// Snapshot deep-copies every entity under the read lock.
func (s *Scene) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		TakenAt:  time.Now(),
		Entities: make([]Entity, 0, len(s.order)),
	}
	for _, id := range s.order {
		snap.Entities = append(snap.Entities, cloneEntity(s.entities[id]))
	}
	return snap
}

func cloneEntity(e Entity) Entity {
	switch v := e.(type) {
	case *ObjectGroup:
		return v.clone()
	case *Avatar:
		c := *v
		return &c
	default:
		// Unknown entity kinds are opaque to the snapshot; they are never
		// rendered, so sharing them is harmless.
		return e
	}
}
