// Package usecases contains application business rules.
// Clean Architecture: Usecases orchestrate entities and depend on port interfaces.
// They contain NO framework code - just the client-side state and its transitions.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/0xcro3dile/netbot-go/internal/domain/entities"
	"github.com/0xcro3dile/netbot-go/internal/domain/ports"
)

// ErrBusy is returned when an add is attempted while another is in progress.
var ErrBusy = errors.New("another document is being added")

// KnowledgeBaseStore mirrors the server's document list.
// Writes are pessimistic: the list only changes by refetching after a confirmed write.
type KnowledgeBaseStore struct {
	gateway ports.Gateway

	mu        sync.Mutex
	documents []entities.Document
	loading   bool
	listeners []func()

	// refreshSeq numbers fetches as they start; applied is the newest one stored.
	refreshSeq uint64
	applied    uint64
}

// NewKnowledgeBaseStore creates an empty store backed by gateway.
func NewKnowledgeBaseStore(gateway ports.Gateway) *KnowledgeBaseStore {
	return &KnowledgeBaseStore{gateway: gateway}
}

// OnChange registers fn to run after documents or loading change.
func (s *KnowledgeBaseStore) OnChange(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *KnowledgeBaseStore) notify() {
	s.mu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Documents returns a copy of the last successful fetch.
func (s *KnowledgeBaseStore) Documents() []entities.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.Document(nil), s.documents...)
}

// Loading reports whether an add is in progress.
func (s *KnowledgeBaseStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Find looks a document up by ID.
func (s *KnowledgeBaseStore) Find(id string) (entities.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.documents {
		if d.ID == id {
			return d, true
		}
	}
	return entities.Document{}, false
}

// Refresh replaces the document list with the server's.
// On failure the previous list is kept and the error is logged and returned.
// A fetch that completes after a newer one has been stored is discarded.
func (s *KnowledgeBaseStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.refreshSeq++
	seq := s.refreshSeq
	s.mu.Unlock()

	docs, err := s.gateway.FetchDocuments(ctx)
	if err == nil {
		err = checkUniqueIDs(docs)
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to refresh documents")
		return err
	}

	s.mu.Lock()
	if seq < s.applied {
		s.mu.Unlock()
		log.Debug().Uint64("fetch", seq).Uint64("applied", s.applied).Msg("discarding stale document list")
		return nil
	}
	s.documents = docs
	s.applied = seq
	s.mu.Unlock()
	s.notify()
	return nil
}

// Upload sends a file to the knowledge base and refreshes the list.
func (s *KnowledgeBaseStore) Upload(ctx context.Context, file entities.File, title string) (*entities.Document, error) {
	return s.add(ctx, func() (*entities.Document, error) {
		return s.gateway.UploadFile(ctx, file, title)
	})
}

// AddFromURL ingests a web page and refreshes the list.
func (s *KnowledgeBaseStore) AddFromURL(ctx context.Context, url, title string) (*entities.Document, error) {
	return s.add(ctx, func() (*entities.Document, error) {
		return s.gateway.AddURL(ctx, url, title)
	})
}

// add runs one write with loading set, then refreshes on success.
// A failed refresh does not fail the write: the document exists server-side.
func (s *KnowledgeBaseStore) add(ctx context.Context, write func() (*entities.Document, error)) (*entities.Document, error) {
	if !s.setLoading(true) {
		return nil, ErrBusy
	}
	defer s.setLoading(false)

	doc, err := write()
	if err != nil {
		return nil, err
	}

	if err := s.Refresh(ctx); err != nil {
		log.Warn().Str("document_id", doc.ID).Msg("document added but list is stale")
	}
	return doc, nil
}

// setLoading flips the loading flag. Turning it on fails if it is already on.
func (s *KnowledgeBaseStore) setLoading(on bool) bool {
	s.mu.Lock()
	if on && s.loading {
		s.mu.Unlock()
		return false
	}
	s.loading = on
	s.mu.Unlock()
	s.notify()
	return true
}

// Remove deletes a document by ID and refreshes the list.
// It does not ask for confirmation and does not touch loading.
func (s *KnowledgeBaseStore) Remove(ctx context.Context, id string) error {
	if err := s.gateway.DeleteDocument(ctx, id); err != nil {
		return err
	}
	if err := s.Refresh(ctx); err != nil {
		log.Warn().Str("document_id", id).Msg("document removed but list is stale")
	}
	return nil
}

func checkUniqueIDs(docs []entities.Document) error {
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("duplicate document id %q in listing", d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	return nil
}
