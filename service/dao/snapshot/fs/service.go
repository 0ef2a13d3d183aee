package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"

	"github.com/jobq-io/jobq/model/types"
	"github.com/jobq-io/jobq/service/dao"
	"github.com/jobq-io/jobq/service/dao/snapshot"
)

// Service implements a filesystem-backed snapshot store. The base path is an
// afs URL, so snapshots can live on file, mem or cloud schemes alike.
type Service struct {
	basePath string
	fs       afs.Service
	mu       sync.RWMutex
}

// Ensure Service implements dao.Service
var _ dao.Service[string, snapshot.Document] = (*Service)(nil)

// Save persists a snapshot document as JSON.
func (s *Service) Save(ctx context.Context, document *snapshot.Document) error {
	if document == nil {
		return dao.ErrNilEntity
	}
	if document.Name == "" {
		document.Name = snapshot.DefaultName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	filePath := s.snapshotPath(document.Name)
	if err = s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return types.NewPersistenceError(filePath, err)
	}
	return nil
}

// Load retrieves a snapshot by name. A missing file yields dao.ErrNotFound
// so that callers can treat it as an empty snapshot. A version mismatch is
// logged and the document returned best-effort.
func (s *Service) Load(ctx context.Context, name string) (*snapshot.Document, error) {
	if name == "" {
		name = snapshot.DefaultName
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	filePath := s.snapshotPath(name)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check snapshot %s: %w", filePath, err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}

	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, types.NewPersistenceError(filePath, err)
	}

	var document snapshot.Document
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, types.NewPersistenceError(filePath, err)
	}
	if document.Version != snapshot.CurrentVersion {
		log.Printf("snapshot %s has version %d (current %d), loading best-effort", name, document.Version, snapshot.CurrentVersion)
	}
	if document.Name == "" {
		document.Name = name
	}
	return &document, nil
}

// Delete removes a snapshot file.
func (s *Service) Delete(ctx context.Context, name string) error {
	if name == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.snapshotPath(name)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to check snapshot %s: %w", filePath, err)
	}
	if !exists {
		return dao.ErrNotFound
	}
	return s.fs.Delete(ctx, filePath)
}

// List returns every snapshot document under the base path.
func (s *Service) List(ctx context.Context, _ ...*dao.Parameter) ([]*snapshot.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var documents []*snapshot.Document
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			log.Printf("error reading snapshot %s: %v", object.URL(), err)
			continue
		}
		var document snapshot.Document
		if err := json.Unmarshal(data, &document); err != nil {
			log.Printf("error unmarshaling snapshot %s: %v", object.URL(), err)
			continue
		}
		documents = append(documents, &document)
	}
	return documents, nil
}

// snapshotPath returns the file path for a named snapshot.
func (s *Service) snapshotPath(name string) string {
	return path.Join(s.basePath, fmt.Sprintf("%s.json", name))
}

// New creates a filesystem snapshot store rooted at basePath.
func New(basePath string) (*Service, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	fsService := afs.New()

	ctx := context.Background()
	exists, _ := fsService.Exists(ctx, basePath)
	if !exists {
		if err := fsService.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	basePath = url.Normalize(basePath, file.Scheme)

	return &Service{
		basePath: basePath,
		fs:       fsService,
	}, nil
}
