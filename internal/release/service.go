// Package release manages the lifecycle of project versions: create,
// rename/reschedule, and delete-with-replacement including the migration of
// version-picker custom-field references.
package release

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/relenghq/releng/internal/fields"
	"github.com/relenghq/releng/internal/log"
	"github.com/relenghq/releng/internal/tracker/application"
	"github.com/relenghq/releng/internal/tracker/domain"
)

// DefaultDescription is used for versions auto-created from build labels.
const DefaultDescription = "Auto-created by release tooling"

// Service orchestrates version lifecycle operations against the external
// store. All operations are synchronous and rely on the store to serialize
// conflicting writes; a mid-operation validation rejection is a normal
// fatal outcome, never retried here.
type Service struct {
	projects application.ProjectReader
	types    application.TypeReader
	versions application.VersionStore
	resolver *fields.Resolver
	tracer   trace.Tracer
}

// NewService wires a lifecycle service over the given store ports.
func NewService(projects application.ProjectReader, types application.TypeReader, versions application.VersionStore, resolver *fields.Resolver) *Service {
	return &Service{
		projects: projects,
		types:    types,
		versions: versions,
		resolver: resolver,
		tracer:   otel.Tracer("releng/release"),
	}
}

// Project resolves a project by key, failing with ProjectNotFoundError when
// absent.
func (s *Service) Project(key string) (*domain.Project, error) {
	return s.projects.ProjectByKey(key)
}

// ReleaseRequestType resolves the "Release Request" issue type the release
// flow depends on.
func (s *Service) ReleaseRequestType() (*domain.IssueType, error) {
	return s.types.IssueTypeByName(string(domain.TypeReleaseRequest))
}

// IncludeLinkType resolves the "Include" issue-link type.
func (s *Service) IncludeLinkType() (*domain.IssueLinkType, error) {
	return s.types.IssueLinkTypeByName(domain.IncludeLinkTypeName)
}

// VersionExists reports whether a version with the given name exists in the
// project.
func (s *Service) VersionExists(user domain.User, project domain.Project, name string) (bool, error) {
	result, err := s.versions.VersionByProjectAndName(user, project, name)
	if err != nil {
		return false, fmt.Errorf("looking up version %q: %w", name, err)
	}
	return result.Valid(), nil
}

// Version resolves a version by name, failing with VersionNotFoundError
// when the store lookup is not valid. Lookup warnings are logged, never
// blocking.
func (s *Service) Version(user domain.User, project domain.Project, name string) (*domain.Version, error) {
	result, err := s.versions.VersionByProjectAndName(user, project, name)
	if err != nil {
		return nil, fmt.Errorf("looking up version %q: %w", name, err)
	}
	if result.HasWarnings() {
		log.Warn(log.CatVersion, "version lookup warnings",
			"version", name, "project", project.Key, "user", user.Name,
			"warnings", result.Warnings)
	}
	if !result.Valid() {
		if result.HasErrors() {
			log.Error(log.CatVersion, "version lookup failed",
				"version", name, "project", project.Key, "errors", result.JoinedErrors())
		}
		return nil, &domain.VersionNotFoundError{Name: name, ProjectKey: project.Key}
	}
	return result.Version, nil
}

// CreateForBuild creates a version named after a release build, with the
// default description.
func (s *Service) CreateForBuild(ctx context.Context, user domain.User, project domain.Project, buildVersion string, buildDate *time.Time) (*domain.Version, error) {
	return s.Create(ctx, user, project, buildVersion, DefaultDescription, buildDate)
}

// Create builds a version draft, has the store validate it, and commits.
// Validation failures aggregate into a single ValidationError; nothing is
// partially created.
func (s *Service) Create(ctx context.Context, user domain.User, project domain.Project, name, description string, releaseDate *time.Time) (*domain.Version, error) {
	_, span := s.tracer.Start(ctx, "release.create_version",
		trace.WithAttributes(attribute.String("project", project.Key), attribute.String("version", name)))
	defer span.End()
	start := time.Now()
	defer log.Elapsed(log.CatVersion, "CreateVersion", start, "project", project.Key, "version", name)

	draft := domain.VersionDraft{
		ProjectID:   project.ID,
		Name:        name,
		Description: description,
		ReleaseDate: releaseDate,
	}
	version, err := s.validateAndCommit(user, "create version", name, draft,
		s.versions.ValidateCreate, s.versions.Create)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return version, nil
}

// Update renames a version. All other fields carry forward unchanged.
func (s *Service) Update(ctx context.Context, user domain.User, project domain.Project, currentName, newName string) (*domain.Version, error) {
	return s.update(ctx, user, project, currentName, newName, func(*domain.VersionDraft) {})
}

// UpdateWithReleaseDate renames and reschedules a version in one draft. The
// description carries forward unchanged.
func (s *Service) UpdateWithReleaseDate(ctx context.Context, user domain.User, project domain.Project, currentName, newName string, newReleaseDate time.Time) (*domain.Version, error) {
	return s.update(ctx, user, project, currentName, newName, func(d *domain.VersionDraft) {
		d.ReleaseDate = &newReleaseDate
	})
}

func (s *Service) update(ctx context.Context, user domain.User, project domain.Project, currentName, newName string, modify func(*domain.VersionDraft)) (*domain.Version, error) {
	_, span := s.tracer.Start(ctx, "release.update_version",
		trace.WithAttributes(attribute.String("project", project.Key), attribute.String("version", currentName)))
	defer span.End()
	start := time.Now()
	defer log.Elapsed(log.CatVersion, "UpdateVersion", start, "project", project.Key, "version", currentName)

	existing, err := s.Version(user, project, currentName)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// The draft starts from the full existing version so a rename or a
	// reschedule never drops the fields it does not touch.
	draft := domain.VersionDraft{
		BaseID:      existing.ID,
		ProjectID:   existing.ProjectID,
		Name:        newName,
		Description: existing.Description,
		ReleaseDate: existing.ReleaseDate,
	}
	modify(&draft)

	version, err := s.validateAndCommit(user, "update version", currentName, draft,
		s.versions.ValidateUpdate, s.versions.Update)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return version, nil
}

// DeleteAndSwap deletes a version after redirecting every reference to the
// replacement: affected-version and fix-version links on issues, and the
// values of the version-picker migration fields that currently resolve in
// the store. Absent fields are skipped with a warning, not fatal, since the
// store configuration may not carry them.
// The plan is submitted atomically: if any part is invalid the version is
// not deleted.
func (s *Service) DeleteAndSwap(ctx context.Context, user domain.User, project domain.Project, deletingName, movingToName string) error {
	_, span := s.tracer.Start(ctx, "release.delete_and_swap",
		trace.WithAttributes(
			attribute.String("project", project.Key),
			attribute.String("deleting", deletingName),
			attribute.String("moving_to", movingToName)))
	defer span.End()
	start := time.Now()
	defer log.Elapsed(log.CatVersion, "DeleteAndSwap", start,
		"project", project.Key, "deleting", deletingName, "moving_to", movingToName)

	if deletingName == movingToName {
		err := domain.NewValidationError("delete version", deletingName,
			[]string{"replacement version must differ from the deleted version"})
		span.RecordError(err)
		return err
	}

	deleting, err := s.Version(user, project, deletingName)
	if err != nil {
		span.RecordError(err)
		return err
	}
	movingTo, err := s.Version(user, project, movingToName)
	if err != nil {
		span.RecordError(err)
		return err
	}

	builder := domain.NewSwapPlan(*deleting).
		MoveAffectedIssuesTo(*movingTo).
		MoveFixIssuesTo(*movingTo)

	for _, field := range fields.SwapMigrationFields() {
		handle, ok, err := s.resolver.ResolveSafe(field.Name())
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("resolving migration field %q: %w", field.Name(), err)
		}
		if !ok {
			log.Warn(log.CatVersion, "migration field absent from store, skipping",
				"field", field.Name(), "project", project.Key)
			continue
		}
		builder.MoveCustomFieldValuesTo(handle.ID, *movingTo)
	}

	result, err := s.versions.DeleteAndSwap(user, builder.Build())
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("deleting version %q: %w", deletingName, err)
	}
	if result.HasWarnings() {
		log.Warn(log.CatVersion, "delete-and-swap warnings",
			"deleting", deletingName, "user", user.Name, "warnings", result.Warnings)
	}
	if !result.Valid() {
		log.Error(log.CatVersion, "delete-and-swap rejected",
			"deleting", deletingName, "errors", result.JoinedErrors())
		err := domain.NewValidationError("delete version", deletingName, result.Errors)
		span.RecordError(err)
		return err
	}
	return nil
}

// validateAndCommit runs the shared validate-then-apply pipeline. Store
// faults surface wrapped; validation rejections aggregate into one
// ValidationError.
func (s *Service) validateAndCommit(
	user domain.User,
	op, subject string,
	draft domain.VersionDraft,
	validate func(domain.User, domain.VersionDraft) (domain.ValidationResult, error),
	commit func(domain.User, domain.ValidationResult) (*domain.Version, error),
) (*domain.Version, error) {
	result, err := validate(user, draft)
	if err != nil {
		return nil, fmt.Errorf("validating %s %q: %w", op, subject, err)
	}
	if result.HasWarnings() {
		log.Warn(log.CatVersion, op+" warnings",
			"version", subject, "user", user.Name, "warnings", result.Warnings)
	}
	if !result.Valid() {
		return nil, domain.NewValidationError(op, subject, result.Errors)
	}
	version, err := commit(user, result)
	if err != nil {
		return nil, domain.NewValidationError(op, subject, []string{err.Error()})
	}
	return version, nil
}
