package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/conduitplatform/conduit-cli/internal/core/deployment"
	"github.com/conduitplatform/conduit-cli/internal/core/validation"
)

// PlanFileName is the name of the plan file inside the config directory.
const PlanFileName = "demo.json"

// =============================================================================
// FileStore
// =============================================================================

// FileStore implements PlanStore as a JSON file in the config directory.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore keeping its plan in configDir.
func NewFileStore(configDir string) *FileStore {
	return &FileStore{path: filepath.Join(configDir, PlanFileName)}
}

// Path returns the plan file location.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes the plan, replacing any previous one. The file is written to
// a temporary name and renamed so readers never see a partial plan.
func (s *FileStore) Save(_ context.Context, plan deployment.Plan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return NewStoreError("SavePlan", "plan", s.path, err.Error(), ErrInvalidData)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return NewStoreError("SavePlan", "plan", s.path, err.Error(), ErrWriteFailed)
	}

	tmp, err := os.CreateTemp(dir, PlanFileName+".*.tmp")
	if err != nil {
		return NewStoreError("SavePlan", "plan", s.path, err.Error(), ErrWriteFailed)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return NewStoreError("SavePlan", "plan", s.path, err.Error(), ErrWriteFailed)
	}
	if err := tmp.Close(); err != nil {
		return NewStoreError("SavePlan", "plan", s.path, err.Error(), ErrWriteFailed)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return NewStoreError("SavePlan", "plan", s.path, err.Error(), ErrWriteFailed)
	}
	return nil
}

// Load reads the plan. It returns ErrNotFound when no plan has been saved
// and ErrInvalidData when the file does not describe a usable plan.
func (s *FileStore) Load(_ context.Context) (deployment.Plan, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return deployment.Plan{}, NewStoreError("LoadPlan", "plan", s.path, "no plan saved", ErrNotFound)
		}
		return deployment.Plan{}, NewStoreError("LoadPlan", "plan", s.path, err.Error(), err)
	}

	var plan deployment.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return deployment.Plan{}, NewStoreError("LoadPlan", "plan", s.path, err.Error(), ErrInvalidData)
	}
	if len(plan.Packages) == 0 {
		return deployment.Plan{}, NewStoreError("LoadPlan", "plan", s.path, "plan has no packages", ErrInvalidData)
	}

	// Plans written without an order get the bring-up order of their packages.
	plan.Order = plan.BringUpOrder()
	if errs := validation.ValidateOrder(plan); len(errs) > 0 {
		return deployment.Plan{}, NewStoreError("LoadPlan", "plan", s.path, errors.Join(errs...).Error(), ErrInvalidData)
	}
	return plan, nil
}

// Exists reports whether a plan has been saved.
func (s *FileStore) Exists(_ context.Context) (bool, error) {
	_, err := os.Stat(s.path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, NewStoreError("PlanExists", "plan", s.path, err.Error(), err)
	}
}

// Delete removes the plan. Deleting a missing plan is not an error.
func (s *FileStore) Delete(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return NewStoreError("DeletePlan", "plan", s.path, err.Error(), ErrWriteFailed)
	}
	return nil
}

var _ PlanStore = (*FileStore)(nil)
