package table

import (
	"sort"
	"sync"

	apperrors "github.com/hanulsoft/jantable/internal/platform/errors"
)

// Registry owns every live table and serializes mutations per table.
//
// Each entry carries its own mutex, so at most one mutation runs at a time
// against a given table id while distinct tables proceed in parallel. The
// registry mutex only guards the id map; it is never held across a table
// mutation. Both ingress channels (request/response API and the persistent
// socket) funnel through Mutate, so races such as a disconnect against a
// concurrent join are resolved purely by lock order.
type Registry struct {
	mu     sync.Mutex
	tables map[string]*entry
}

type entry struct {
	mu      sync.Mutex
	session *Session
	deleted bool
}

// NewRegistry creates an empty table registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]*entry)}
}

// Create registers a new table with subject as host and sole member.
func (r *Registry) Create(id, subject string) (View, error) {
	if err := ValidateID(id); err != nil {
		return View{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tables[id]; exists {
		return View{}, apperrors.New(apperrors.CodeTableExists, "table "+id+" already exists")
	}
	session := NewSession(id, subject)
	r.tables[id] = &entry{session: session}
	return session.View(), nil
}

// lookup fetches an entry without holding the registry lock afterwards.
func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tables[id]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "table "+id+" not found")
	}
	return e, nil
}

// Mutate runs fn against the table under its lock and returns the updated
// view. When fn fails the session is left untouched and the error is
// returned as-is. A table whose last seat is released is deleted before the
// lock is dropped.
func (r *Registry) Mutate(id string, fn func(*Session) error) (View, error) {
	e, err := r.lookup(id)
	if err != nil {
		return View{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return View{}, apperrors.New(apperrors.CodeNotFound, "table "+id+" not found")
	}
	if err := fn(e.session); err != nil {
		return View{}, err
	}
	view := e.session.View()
	if e.session.Empty() {
		r.drop(id, e)
	}
	return view, nil
}

// drop removes an emptied entry. The caller holds the entry lock; the get
// path never waits on an entry lock while holding the registry lock, so
// taking the registry lock here cannot deadlock.
func (r *Registry) drop(id string, e *entry) {
	e.deleted = true
	r.mu.Lock()
	delete(r.tables, id)
	r.mu.Unlock()
}

// View returns a consistent snapshot of one table.
func (r *Registry) View(id string) (View, error) {
	e, err := r.lookup(id)
	if err != nil {
		return View{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return View{}, apperrors.New(apperrors.CodeNotFound, "table "+id+" not found")
	}
	return e.session.View(), nil
}

// List snapshots every live table, ordered by id.
func (r *Registry) List() []View {
	r.mu.Lock()
	ids := make([]string, 0, len(r.tables))
	for id := range r.tables {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	sort.Strings(ids)

	views := make([]View, 0, len(ids))
	for _, id := range ids {
		view, err := r.View(id)
		if err != nil {
			continue
		}
		views = append(views, view)
	}
	return views
}

// Delete removes a table regardless of occupancy. Idempotent.
func (r *Registry) Delete(id string) {
	e, err := r.lookup(id)
	if err != nil {
		return
	}
	e.mu.Lock()
	if !e.deleted {
		r.drop(id, e)
	}
	e.mu.Unlock()
}

// Evict releases subject's seat at every table where it holds one, applying
// the same host hand-off and empty-table deletion rules as an explicit
// leave. It returns the updated view of each affected table; deleted tables
// report an empty seat list.
func (r *Registry) Evict(subject string) []View {
	var affected []View
	for _, id := range r.ids() {
		view, err := r.Mutate(id, func(s *Session) error {
			if s.SeatIndex(subject) < 0 {
				return errNotMember
			}
			s.Evict(subject)
			return nil
		})
		if err != nil {
			continue
		}
		affected = append(affected, view)
	}
	return affected
}

// errNotMember short-circuits Evict sweeps; it never escapes the registry.
var errNotMember = apperrors.New(apperrors.CodeNotFound, "subject holds no seat")

func (r *Registry) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.tables))
	for id := range r.tables {
		ids = append(ids, id)
	}
	return ids
}
