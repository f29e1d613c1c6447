package cmd

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/relenghq/releng/internal/tracker/domain"
)

type issueRow struct {
	Key        string `yaml:"key"`
	Type       string `yaml:"type,omitempty"`
	Resolution string `yaml:"resolution,omitempty"`
	Reporter   string `yaml:"reporter,omitempty"`
}

func printIssues(issues []domain.Issue) error {
	if outputFormat == "yaml" {
		rows := make([]issueRow, 0, len(issues))
		for _, issue := range issues {
			rows = append(rows, issueRow{
				Key:        issue.Key,
				Type:       issue.TypeName,
				Resolution: issue.Resolution,
				Reporter:   issue.Reporter,
			})
		}
		out, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("rendering issues: %w", err)
		}
		fmt.Print(string(out))
		return nil
	}

	if len(issues) == 0 {
		fmt.Println("no issues found")
		return nil
	}
	for _, issue := range issues {
		fmt.Printf("%-12s  %-16s  %s\n", issue.Key, issue.TypeName, issue.Resolution)
	}
	fmt.Printf("%d issue(s)\n", len(issues))
	return nil
}

type versionRow struct {
	Name        string `yaml:"name"`
	Project     int64  `yaml:"project_id"`
	Description string `yaml:"description,omitempty"`
	ReleaseDate string `yaml:"release_date,omitempty"`
}

func printVersion(v *domain.Version) error {
	row := versionRow{Name: v.Name, Project: v.ProjectID, Description: v.Description}
	if v.ReleaseDate != nil {
		row.ReleaseDate = v.ReleaseDate.Format("2006-01-02")
	}
	if outputFormat == "yaml" {
		out, err := yaml.Marshal(row)
		if err != nil {
			return fmt.Errorf("rendering version: %w", err)
		}
		fmt.Print(string(out))
		return nil
	}
	fmt.Printf("version %q", row.Name)
	if row.ReleaseDate != "" {
		fmt.Printf(" (release date %s)", row.ReleaseDate)
	}
	fmt.Println()
	return nil
}
