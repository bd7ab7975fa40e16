package factory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/warp/attendance-engine/attendance"
)

// =============================================================================
// SOURCES - Where the policy document lives
// =============================================================================

// Source loads and stores the policy set. found=false means nothing is
// stored yet, which is not an error.
type Source interface {
	Load(ctx context.Context) (set attendance.PolicySet, found bool, err error)
	Save(ctx context.Context, set attendance.PolicySet) error
}

// DocumentStore persists raw policy documents by ID.
type DocumentStore interface {
	SavePolicyDocument(ctx context.Context, id, configJSON string) error
	LoadPolicyDocument(ctx context.Context, id string) (configJSON string, found bool, err error)
}

// PolicyDocumentID is the row the group working hours are stored under.
const PolicyDocumentID = "group_working_hours"

// DocumentSource keeps the policy set in a DocumentStore.
type DocumentSource struct {
	Store   DocumentStore
	ID      string
	factory *PolicyFactory
}

func NewDocumentSource(store DocumentStore) *DocumentSource {
	return &DocumentSource{Store: store, ID: PolicyDocumentID, factory: NewPolicyFactory()}
}

func (s *DocumentSource) Load(ctx context.Context) (attendance.PolicySet, bool, error) {
	raw, found, err := s.Store.LoadPolicyDocument(ctx, s.ID)
	if err != nil || !found {
		return attendance.PolicySet{}, found, err
	}
	set, err := s.factory.ParsePolicySet(raw)
	if err != nil {
		return attendance.PolicySet{}, true, fmt.Errorf("stored policy %s: %w", s.ID, err)
	}
	return set, true, nil
}

func (s *DocumentSource) Save(ctx context.Context, set attendance.PolicySet) error {
	raw, err := s.factory.Marshal(set)
	if err != nil {
		return err
	}
	return s.Store.SavePolicyDocument(ctx, s.ID, raw)
}

// FileSource keeps the policy set in a JSON file.
type FileSource struct {
	Path    string
	factory *PolicyFactory
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path, factory: NewPolicyFactory()}
}

func (s *FileSource) Load(_ context.Context) (attendance.PolicySet, bool, error) {
	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return attendance.PolicySet{}, false, nil
	}
	if err != nil {
		return attendance.PolicySet{}, false, err
	}
	set, err := s.factory.ParsePolicySet(string(raw))
	if err != nil {
		return attendance.PolicySet{}, true, fmt.Errorf("policy file %s: %w", s.Path, err)
	}
	return set, true, nil
}

// Save writes through a temp file so readers never see a partial document.
func (s *FileSource) Save(_ context.Context, set attendance.PolicySet) error {
	raw, err := s.factory.Marshal(set)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".policy-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}

// =============================================================================
// REGISTRY - Cached, runtime-updatable policy set
// =============================================================================

// Registry caches the current policy set. It implements
// attendance.PolicyProvider. An empty source yields the built-in defaults.
type Registry struct {
	source Source
	logger *slog.Logger

	mu      sync.RWMutex
	current *attendance.PolicySet
}

func NewRegistry(source Source, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{source: source, logger: logger}
}

// FileBacked reports whether the set is kept in an operator-managed file
// rather than the database.
func (r *Registry) FileBacked() bool {
	_, ok := r.source.(*FileSource)
	return ok
}

// Policies returns the cached set, loading it on first use.
func (r *Registry) Policies(ctx context.Context) (attendance.PolicySet, error) {
	r.mu.RLock()
	if r.current != nil {
		set := *r.current
		r.mu.RUnlock()
		return set, nil
	}
	r.mu.RUnlock()
	return r.Refresh(ctx)
}

// Refresh reloads from the source. A source holding an invalid document
// keeps the previous set and returns the error.
func (r *Registry) Refresh(ctx context.Context) (attendance.PolicySet, error) {
	set, found, err := r.source.Load(ctx)
	if err != nil {
		return attendance.PolicySet{}, err
	}
	if !found {
		set = attendance.DefaultPolicySet()
	}

	r.mu.Lock()
	r.current = &set
	r.mu.Unlock()
	return set, nil
}

// Invalidate drops the cache; the next Policies call reloads.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	r.current = nil
	r.mu.Unlock()
}

// Update validates, persists and swaps in set. Nothing changes on error.
func (r *Registry) Update(ctx context.Context, set attendance.PolicySet) error {
	if err := set.Validate(); err != nil {
		return err
	}
	if err := r.source.Save(ctx, set); err != nil {
		return fmt.Errorf("save policy: %w", err)
	}

	r.mu.Lock()
	r.current = &set
	r.mu.Unlock()

	r.logger.Info("policy updated",
		"group_a_grace", set.A.GraceUntil.String(), "group_b_grace", set.B.GraceUntil.String())
	return nil
}

// Seed stores set when the source is empty, so the running config is
// always inspectable.
func (r *Registry) Seed(ctx context.Context, set attendance.PolicySet) error {
	_, found, err := r.source.Load(ctx)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	return r.Update(ctx, set)
}
