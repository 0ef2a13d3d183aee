package memory

import (
	"context"
	"sync"

	"github.com/jobq-io/jobq/service/dao"
	"github.com/jobq-io/jobq/service/dao/snapshot"
)

// Service implements an in-memory, thread-safe snapshot store, primarily
// for tests and ephemeral engines.
type Service struct {
	documents map[string]*snapshot.Document
	mux       sync.RWMutex
}

var _ dao.Service[string, snapshot.Document] = (*Service)(nil)

func (s *Service) Save(_ context.Context, document *snapshot.Document) error {
	if document == nil {
		return dao.ErrNilEntity
	}
	if document.Name == "" {
		document.Name = snapshot.DefaultName
	}

	s.mux.Lock()
	defer s.mux.Unlock()
	s.documents[document.Name] = document
	return nil
}

func (s *Service) Load(_ context.Context, name string) (*snapshot.Document, error) {
	if name == "" {
		name = snapshot.DefaultName
	}

	s.mux.RLock()
	document, ok := s.documents[name]
	s.mux.RUnlock()

	if !ok {
		return nil, dao.ErrNotFound
	}
	return document, nil
}

func (s *Service) Delete(_ context.Context, name string) error {
	if name == "" {
		return dao.ErrInvalidID
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	if _, ok := s.documents[name]; !ok {
		return dao.ErrNotFound
	}
	delete(s.documents, name)
	return nil
}

func (s *Service) List(_ context.Context, _ ...*dao.Parameter) ([]*snapshot.Document, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	out := make([]*snapshot.Document, 0, len(s.documents))
	for _, document := range s.documents {
		out = append(out, document)
	}
	return out, nil
}

func New() *Service {
	return &Service{documents: map[string]*snapshot.Document{}}
}
