package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/relenghq/releng/internal/infrastructure/sqlite"
	"github.com/relenghq/releng/internal/log"
	"github.com/relenghq/releng/internal/tracker/domain"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a YAML tracker snapshot into the store",
	Long: `Import projects, issue types, link types, custom fields, versions
and issues from a YAML snapshot file into the tracker store. Names are
resolved to store identities as the snapshot loads, so issues may reference
versions and fields defined earlier in the same file.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

// snapshot is the YAML import format.
type snapshot struct {
	Projects       []string        `yaml:"projects"`
	IssueTypes     []string        `yaml:"issue_types"`
	IssueLinkTypes []string        `yaml:"issue_link_types"`
	Fields         []fieldSeed     `yaml:"fields"`
	Versions       []versionSeed   `yaml:"versions"`
	Issues         []issueSeedYAML `yaml:"issues"`
}

type fieldSeed struct {
	Name    string       `yaml:"name"`
	Configs []configSeed `yaml:"configs"`
}

type configSeed struct {
	Scheme   string   `yaml:"scheme"`
	Projects []string `yaml:"projects"`
}

type versionSeed struct {
	Project     string `yaml:"project"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	ReleaseDate string `yaml:"release_date"`
}

type issueSeedYAML struct {
	Key              string              `yaml:"key"`
	Project          string              `yaml:"project"`
	Type             string              `yaml:"type"`
	Resolution       string              `yaml:"resolution"`
	Reporter         string              `yaml:"reporter"`
	Parent           string              `yaml:"parent"`
	Updated          string              `yaml:"updated"`
	FixVersions      []string            `yaml:"fix_versions"`
	AffectedVersions []string            `yaml:"affected_versions"`
	FieldValues      map[string]string   `yaml:"field_values"`
	FieldVersions    map[string][]string `yaml:"field_versions"`
}

func runImport(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parsing snapshot: %w", err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	loader := &snapshotLoader{store: a.store}
	if err := loader.load(snap); err != nil {
		return err
	}
	fmt.Printf("imported %d project(s), %d version(s), %d issue(s)\n",
		len(snap.Projects), len(snap.Versions), len(snap.Issues))
	return nil
}

// snapshotLoader tracks name-to-identity mappings while a snapshot loads.
type snapshotLoader struct {
	store *sqlite.Store

	projects map[string]domain.Project
	types    map[string]domain.IssueType
	fields   map[string]domain.FieldHandle
	versions map[string]domain.Version // "project/name"
}

func (l *snapshotLoader) load(snap snapshot) error {
	l.projects = make(map[string]domain.Project)
	l.types = make(map[string]domain.IssueType)
	l.fields = make(map[string]domain.FieldHandle)
	l.versions = make(map[string]domain.Version)

	for _, key := range snap.Projects {
		p, err := l.store.CreateProject(key)
		if err != nil {
			return fmt.Errorf("project %q: %w", key, err)
		}
		l.projects[key] = p
	}
	for _, name := range snap.IssueTypes {
		t, err := l.store.CreateIssueType(name)
		if err != nil {
			return fmt.Errorf("issue type %q: %w", name, err)
		}
		l.types[name] = t
	}
	for _, name := range snap.IssueLinkTypes {
		if _, err := l.store.CreateIssueLinkType(name); err != nil {
			return fmt.Errorf("issue link type %q: %w", name, err)
		}
	}
	for _, seed := range snap.Fields {
		field, err := l.store.CreateField(seed.Name)
		if err != nil {
			return fmt.Errorf("field %q: %w", seed.Name, err)
		}
		l.fields[seed.Name] = field
		for _, cs := range seed.Configs {
			if _, err := l.store.CreateFieldConfig(field, cs.Scheme, cs.Projects...); err != nil {
				return fmt.Errorf("field config for %q: %w", seed.Name, err)
			}
		}
	}
	for _, seed := range snap.Versions {
		if err := l.loadVersion(seed); err != nil {
			return err
		}
	}
	for _, seed := range snap.Issues {
		if err := l.loadIssue(seed); err != nil {
			return err
		}
	}
	log.Info(log.CatCLI, "snapshot imported",
		"projects", len(snap.Projects), "versions", len(snap.Versions), "issues", len(snap.Issues))
	return nil
}

func (l *snapshotLoader) project(key string) (domain.Project, error) {
	p, ok := l.projects[key]
	if !ok {
		return domain.Project{}, fmt.Errorf("snapshot references undefined project %q", key)
	}
	return p, nil
}

func (l *snapshotLoader) loadVersion(seed versionSeed) error {
	project, err := l.project(seed.Project)
	if err != nil {
		return err
	}
	draft := domain.VersionDraft{
		ProjectID:   project.ID,
		Name:        seed.Name,
		Description: seed.Description,
	}
	if seed.ReleaseDate != "" {
		t, err := time.Parse("2006-01-02", seed.ReleaseDate)
		if err != nil {
			return fmt.Errorf("version %q: invalid release date %q: %w", seed.Name, seed.ReleaseDate, err)
		}
		draft.ReleaseDate = &t
	}
	validated, err := l.store.ValidateCreate(actingUser(), draft)
	if err != nil {
		return fmt.Errorf("version %q: %w", seed.Name, err)
	}
	if !validated.Valid() {
		return fmt.Errorf("version %q: %s", seed.Name, validated.JoinedErrors())
	}
	v, err := l.store.Create(actingUser(), validated)
	if err != nil {
		return fmt.Errorf("version %q: %w", seed.Name, err)
	}
	l.versions[seed.Project+"/"+seed.Name] = *v
	return nil
}

func (l *snapshotLoader) versionIDs(project string, names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		v, ok := l.versions[project+"/"+name]
		if !ok {
			return nil, fmt.Errorf("snapshot references undefined version %q in project %q", name, project)
		}
		ids = append(ids, v.ID)
	}
	return ids, nil
}

func (l *snapshotLoader) loadIssue(seed issueSeedYAML) error {
	project, err := l.project(seed.Project)
	if err != nil {
		return fmt.Errorf("issue %q: %w", seed.Key, err)
	}
	issueType, ok := l.types[seed.Type]
	if !ok {
		return fmt.Errorf("issue %q references undefined issue type %q", seed.Key, seed.Type)
	}

	var updated time.Time
	if seed.Updated != "" {
		updated, err = time.Parse("2006-01-02", seed.Updated)
		if err != nil {
			return fmt.Errorf("issue %q: invalid updated date %q: %w", seed.Key, seed.Updated, err)
		}
	}

	issue, err := l.store.CreateIssue(sqlite.IssueSeed{
		Key:        seed.Key,
		ProjectID:  project.ID,
		TypeID:     issueType.ID,
		Resolution: seed.Resolution,
		Reporter:   seed.Reporter,
		ParentKey:  seed.Parent,
		UpdatedAt:  updated,
	})
	if err != nil {
		return fmt.Errorf("issue %q: %w", seed.Key, err)
	}

	if len(seed.FixVersions) > 0 {
		ids, err := l.versionIDs(seed.Project, seed.FixVersions)
		if err != nil {
			return fmt.Errorf("issue %q: %w", seed.Key, err)
		}
		if err := l.store.SetFixVersions(issue, ids...); err != nil {
			return fmt.Errorf("issue %q: %w", seed.Key, err)
		}
	}
	if len(seed.AffectedVersions) > 0 {
		ids, err := l.versionIDs(seed.Project, seed.AffectedVersions)
		if err != nil {
			return fmt.Errorf("issue %q: %w", seed.Key, err)
		}
		if err := l.store.SetAffectedVersions(issue, ids...); err != nil {
			return fmt.Errorf("issue %q: %w", seed.Key, err)
		}
	}
	for fieldName, value := range seed.FieldValues {
		field, ok := l.fields[fieldName]
		if !ok {
			return fmt.Errorf("issue %q references undefined field %q", seed.Key, fieldName)
		}
		if err := l.store.SetFieldValue(issue, field, value); err != nil {
			return fmt.Errorf("issue %q: %w", seed.Key, err)
		}
	}
	for fieldName, names := range seed.FieldVersions {
		field, ok := l.fields[fieldName]
		if !ok {
			return fmt.Errorf("issue %q references undefined field %q", seed.Key, fieldName)
		}
		ids, err := l.versionIDs(seed.Project, names)
		if err != nil {
			return fmt.Errorf("issue %q: %w", seed.Key, err)
		}
		if err := l.store.SetFieldVersions(issue, field, ids...); err != nil {
			return fmt.Errorf("issue %q: %w", seed.Key, err)
		}
	}
	return nil
}
