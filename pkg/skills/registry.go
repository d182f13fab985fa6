package skills

import (
	"log/slog"
	"sync"
)

// Registry is the process-wide directory mapping a skill id to one
// registered instance. It is constructed once at startup and passed by
// reference to every component that dispatches; reads are concurrent and
// lock-free apart from the RWMutex read path.
type Registry struct {
	mu     sync.RWMutex
	skills map[string]Skill
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{skills: make(map[string]Skill)}
}

// Register binds the skill's id to the instance. Re-registering an existing
// id silently replaces the prior binding, last write wins; the replacement
// is logged so an accidental double registration is visible.
func (r *Registry) Register(skill Skill) {
	desc := skill.Descriptor()
	r.mu.Lock()
	_, replaced := r.skills[desc.SkillID]
	r.skills[desc.SkillID] = skill
	r.mu.Unlock()
	if replaced {
		slog.Warn("skill registration replaced existing binding",
			slog.String("skill_id", desc.SkillID),
			slog.String("version", desc.Version),
		)
	}
}

// Get returns the skill registered under id. Lookup never blocks on skill
// construction and never builds a skill lazily.
func (r *Registry) Get(id string) (Skill, bool) {
	r.mu.RLock()
	skill, ok := r.skills[id]
	r.mu.RUnlock()
	return skill, ok
}

// List returns a snapshot of registered descriptors. Insertion order is not
// preserved.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.skills))
	for _, skill := range r.skills {
		out = append(out, skill.Descriptor())
	}
	return out
}
