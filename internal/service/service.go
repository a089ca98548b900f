package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"nodegraph/internal/codec"
	"nodegraph/internal/graph"
	"nodegraph/internal/repository"
)

// DocumentService owns the current graph store and moves it to and from
// files and the repository. Loads build a fresh store and swap it in only
// when the whole document was read.
type DocumentService struct {
	mu    sync.RWMutex
	store *graph.Store

	repo      repository.Repository
	eventBus  *graph.EventBus
	logger    *slog.Logger
	format    string
	codecOpts codec.Options
	storeOpts []graph.Option
}

// Option configures a DocumentService.
type Option func(*DocumentService)

// WithRepository enables the repository operations.
func WithRepository(repo repository.Repository) Option {
	return func(s *DocumentService) { s.repo = repo }
}

// WithEventBus publishes store and document events to bus.
func WithEventBus(bus *graph.EventBus) Option {
	return func(s *DocumentService) { s.eventBus = bus }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *DocumentService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFormat sets the format used for paths without a known extension.
func WithFormat(format string, opts codec.Options) Option {
	return func(s *DocumentService) {
		s.format = format
		s.codecOpts = opts
	}
}

// WithStoreOptions sets the options every new store is created with.
func WithStoreOptions(opts ...graph.Option) Option {
	return func(s *DocumentService) { s.storeOpts = append(s.storeOpts, opts...) }
}

// NewDocumentService creates a service holding an empty store.
func NewDocumentService(opts ...Option) *DocumentService {
	s := &DocumentService{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		format: codec.FormatXML,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.store = s.newStore()
	return s
}

func (s *DocumentService) storeOptions() []graph.Option {
	opts := append([]graph.Option{graph.WithLogger(s.logger)}, s.storeOpts...)
	if s.eventBus != nil {
		opts = append(opts, graph.WithListener(s.eventBus))
	}
	return opts
}

func (s *DocumentService) newStore() *graph.Store {
	return graph.New(s.storeOptions()...)
}

// Store returns the current store. Stores are not safe for concurrent use;
// callers sharing the service across goroutines must coordinate edits.
func (s *DocumentService) Store() *graph.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Reset replaces the current store with an empty one.
func (s *DocumentService) Reset() {
	s.swap(s.newStore())
}

// swap installs a new store. The old store's sessions are cancelled under
// the write lock so no snapshot of it is being taken at the same time.
func (s *DocumentService) swap(store *graph.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.store
	s.store = store
	if old != nil {
		old.CancelSessions()
	}
}

// snapshot serializes the current store while holding the read lock.
func (s *DocumentService) snapshot() *codec.Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.SerializeStore()
}

func (s *DocumentService) publish(t graph.EventType, document string) {
	if s.eventBus != nil {
		s.eventBus.Publish(graph.Event{Type: t, Document: document})
	}
}

// Serialize writes the current store to path. The format follows the file
// extension and falls back to the configured format. The file is replaced
// atomically.
func (s *DocumentService) Serialize(path string) error {
	c, err := codec.ForPath(path, s.format, s.codecOpts)
	if err != nil {
		return err
	}
	doc := s.snapshot()

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := c.Export(doc, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to export %s document: %w", c.Format(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	s.logger.Info("document saved", "path", path, "format", c.Format())
	s.publish(graph.EventDocumentSaved, path)
	return nil
}

// Deserialize replaces the current store with the document at path. It
// reports false without error when the file does not exist. On error the
// current store is left untouched.
func (s *DocumentService) Deserialize(path string) (bool, error) {
	root, err := s.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.load(root); err != nil {
		return false, fmt.Errorf("load %s: %w", path, err)
	}

	s.logger.Info("document loaded", "path", path)
	s.publish(graph.EventDocumentLoaded, path)
	return true, nil
}

// ReadFile parses the document at path without loading it.
func (s *DocumentService) ReadFile(path string) (*codec.Element, error) {
	c, err := codec.ForPath(path, s.format, s.codecOpts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	root, err := c.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return root, nil
}

func (s *DocumentService) load(root *codec.Element) error {
	store, err := graph.Load(root, s.storeOptions()...)
	if err != nil {
		return err
	}
	s.swap(store)
	return nil
}

// ErrNoRepository is returned by repository operations when the service was
// created without one.
var ErrNoRepository = errors.New("no document repository configured")

// SaveToRepository stores the current store under name.
func (s *DocumentService) SaveToRepository(ctx context.Context, name string) error {
	if s.repo == nil {
		return ErrNoRepository
	}
	if err := s.repo.SaveDocument(ctx, name, s.snapshot()); err != nil {
		return err
	}
	s.logger.Info("document stored", "name", name)
	s.publish(graph.EventDocumentSaved, name)
	return nil
}

// LoadFromRepository replaces the current store with a stored document. It
// reports false without error when no document has that name.
func (s *DocumentService) LoadFromRepository(ctx context.Context, name string) (bool, error) {
	if s.repo == nil {
		return false, ErrNoRepository
	}
	root, err := s.repo.LoadDocument(ctx, name)
	if err != nil {
		return false, err
	}
	if root == nil {
		return false, nil
	}
	if err := s.load(root); err != nil {
		return false, fmt.Errorf("load document %q: %w", name, err)
	}
	s.logger.Info("document restored", "name", name)
	s.publish(graph.EventDocumentLoaded, name)
	return true, nil
}

// ListDocuments lists the stored documents.
func (s *DocumentService) ListDocuments(ctx context.Context) ([]repository.DocumentInfo, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}
	return s.repo.ListDocuments(ctx)
}

// DeleteDocument removes a stored document.
func (s *DocumentService) DeleteDocument(ctx context.Context, name string) error {
	if s.repo == nil {
		return ErrNoRepository
	}
	if err := s.repo.DeleteDocument(ctx, name); err != nil {
		return err
	}
	s.publish(graph.EventDocumentDeleted, name)
	return nil
}

// Reload re-reads the document at path after an external change. Unlike
// Deserialize, a missing file is an error.
func (s *DocumentService) Reload(path string) error {
	root, err := s.ReadFile(path)
	if err != nil {
		return err
	}
	if err := s.load(root); err != nil {
		return fmt.Errorf("reload %s: %w", path, err)
	}
	s.logger.Info("document reloaded", "path", path)
	s.publish(graph.EventDocumentReloaded, path)
	return nil
}
