package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hayatos/hayatos/internal/obs"
)

// tempIDPrefix marks client-generated IDs awaiting server reconciliation.
const tempIDPrefix = "temp-"

// IsTempID reports whether an entity ID is a client-side placeholder.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}

// Store is the exclusive in-memory owner of one entity collection. Reads
// are cheap copies; mutations apply locally first and reconcile with the
// server, reverting on failure so a failed mutation always leaves the
// store equivalent to its pre-mutation state.
//
// Mutations on one store are serialized. Every local change bumps a
// version counter; a server reconciliation that arrives for a superseded
// version is discarded instead of applied.
type Store[T any] struct {
	client *Client
	path   string
	idOf   func(T) string
	withID func(T, string) T

	mutateMu sync.Mutex // serializes mutations end to end

	mu       sync.RWMutex // guards entities and version
	entities []T
	version  uint64
}

// NewStore creates a store for the collection at path (e.g. "/api/notes").
// idOf extracts an entity's ID; withID returns a copy with the ID replaced,
// used for temp ID assignment on create.
func NewStore[T any](c *Client, path string, idOf func(T) string, withID func(T, string) T) *Store[T] {
	return &Store[T]{
		client: c,
		path:   path,
		idOf:   idOf,
		withID: withID,
	}
}

// Entities returns a copy of the current collection.
func (s *Store[T]) Entities() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.entities))
	copy(out, s.entities)
	return out
}

// View returns the entities passing the filter. Derived views are computed
// fresh on every call, never cached.
func (s *Store[T]) View(keep func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.entities))
	for _, e := range s.entities {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Load fetches the full collection and replaces the list. On failure the
// current list is left untouched and the error is returned; there is no
// retry.
func (s *Store[T]) Load(ctx context.Context) error {
	var fetched []T
	if err := s.client.do(ctx, http.MethodGet, s.path, nil, &fetched); err != nil {
		obs.Pkg("client").Warn("load_failed", "path", s.path, "error", err)
		return err
	}
	s.mu.Lock()
	s.entities = fetched
	s.version++
	s.mu.Unlock()
	return nil
}

// Create adds the entity optimistically under a temp ID and posts it. On
// success the temp entity is replaced by the server's version, matched by
// the temp ID. On failure the temp entity is removed and the error
// returned.
func (s *Store[T]) Create(ctx context.Context, entity T) error {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	tempID := tempIDPrefix + uuid.NewString()
	local := s.withID(entity, tempID)

	s.mu.Lock()
	s.entities = append(s.entities, local)
	s.version++
	ver := s.version
	s.mu.Unlock()

	var created T
	if err := s.client.do(ctx, http.MethodPost, s.path, entity, &created); err != nil {
		s.removeByID(tempID)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != ver {
		// A load replaced the snapshot mid-flight; the server state will
		// surface on the next load.
		obs.Pkg("client").Debug("reconcile_superseded", "path", s.path, "temp_id", tempID)
		return nil
	}
	for i, e := range s.entities {
		if s.idOf(e) == tempID {
			s.entities[i] = created
			s.version++
			return nil
		}
	}
	return nil
}

// Update replaces the entity with the given ID optimistically and issues a
// PUT. On failure the pre-mutation snapshot is restored.
func (s *Store[T]) Update(ctx context.Context, id string, updated T) error {
	return s.Apply(ctx, http.MethodPut, s.path+"/"+id, updated, func(entities []T) []T {
		out := make([]T, len(entities))
		copy(out, entities)
		for i, e := range out {
			if s.idOf(e) == id {
				out[i] = updated
			}
		}
		return out
	})
}

// Delete removes the entity optimistically and issues a DELETE. On failure
// the pre-mutation snapshot is restored.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	return s.Apply(ctx, http.MethodDelete, s.path+"/"+id, nil, func(entities []T) []T {
		out := make([]T, 0, len(entities))
		for _, e := range entities {
			if s.idOf(e) != id {
				out = append(out, e)
			}
		}
		return out
	})
}

// Apply runs a custom optimistic mutation: mutate transforms the list
// locally, then the request is issued. Every failed mutation restores the
// pre-mutation snapshot and returns the error.
func (s *Store[T]) Apply(ctx context.Context, method, path string, body any, mutate func([]T) []T) error {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	s.mu.Lock()
	snapshot := make([]T, len(s.entities))
	copy(snapshot, s.entities)
	s.entities = mutate(s.entities)
	s.version++
	ver := s.version
	s.mu.Unlock()

	if err := s.client.do(ctx, method, path, body, nil); err != nil {
		s.mu.Lock()
		if s.version == ver {
			s.entities = snapshot
			s.version++
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// Refresh re-fetches one entity by ID and swaps it into the list. Useful
// after sub-actions whose response the caller discarded.
func (s *Store[T]) Refresh(ctx context.Context, id string) error {
	var fetched T
	if err := s.client.do(ctx, http.MethodGet, s.path+"/"+id, nil, &fetched); err != nil {
		return fmt.Errorf("refresh %s: %w", id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entities {
		if s.idOf(e) == id {
			s.entities[i] = fetched
			s.version++
			break
		}
	}
	return nil
}

func (s *Store[T]) removeByID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.entities[:0]
	for _, e := range s.entities {
		if s.idOf(e) != id {
			out = append(out, e)
		}
	}
	s.entities = out
	s.version++
}
