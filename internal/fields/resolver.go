package fields

import (
	"fmt"

	"github.com/relenghq/releng/internal/tracker/application"
	"github.com/relenghq/releng/internal/tracker/domain"
)

// Resolver translates display names into store field handles. It holds no
// cache: the store may be reconfigured between calls and is authoritative
// every time.
type Resolver struct {
	store application.FieldStore
}

// NewResolver creates a resolver backed by the given field store.
func NewResolver(store application.FieldStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the handle for the field with the given display name, or
// *domain.FieldNotFoundError when the store has no such field.
func (r *Resolver) Resolve(name string) (domain.FieldHandle, error) {
	handle, err := r.store.FieldByDisplayName(name)
	if err != nil {
		return domain.FieldHandle{}, err
	}
	return *handle, nil
}

// ResolveSafe is Resolve for call sites where absence is an expected,
// handled condition. It reports absence instead of failing; the error
// return is for store faults only.
func (r *Resolver) ResolveSafe(name string) (domain.FieldHandle, bool, error) {
	handle, err := r.store.FieldByDisplayName(name)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.FieldHandle{}, false, nil
		}
		return domain.FieldHandle{}, false, err
	}
	return *handle, true, nil
}

// Exists reports whether a field with the given display name exists.
func (r *Resolver) Exists(name string) (bool, error) {
	_, ok, err := r.ResolveSafe(name)
	return ok, err
}

// Config returns the field's configuration for the project, failing with
// the store's not-found error when no scheme covers it.
func (r *Resolver) Config(field domain.FieldHandle, projectKey string) (domain.FieldConfig, error) {
	cfg, err := r.store.FieldConfigFor(field, projectKey)
	if err != nil {
		return domain.FieldConfig{}, err
	}
	return *cfg, nil
}

// ConfigSafe is Config with absence reported instead of failed.
func (r *Resolver) ConfigSafe(field domain.FieldHandle, projectKey string) (domain.FieldConfig, bool, error) {
	cfg, err := r.store.FieldConfigFor(field, projectKey)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.FieldConfig{}, false, nil
		}
		return domain.FieldConfig{}, false, fmt.Errorf("loading config for field %q: %w", field.Name, err)
	}
	return *cfg, true, nil
}
