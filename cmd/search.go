package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/relenghq/releng/internal/tracker/domain"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search issues",
}

var (
	searchExact        bool
	searchUpdatedAfter string
)

var searchReleasedCmd = &cobra.Command{
	Use:   "released <project> <version> [version...]",
	Short: "List released (Done) issues with any of the given fix versions",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSearchReleased,
}

var searchCustomFieldCmd = &cobra.Command{
	Use:   "custom-field <field> <value>",
	Short: "List issues whose custom field matches a value",
	Long: `List issues whose custom field matches the value: substring match by
default, exact equality with --exact. The field is named by its English
display name.`,
	Args: cobra.ExactArgs(2),
	RunE: runSearchCustomField,
}

var searchApprovedCmd = &cobra.Command{
	Use:   "approved <project> <version> [version...]",
	Short: "List issues approved for release with any of the given versions",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSearchApproved,
}

func init() {
	searchCustomFieldCmd.Flags().BoolVar(&searchExact, "exact", false, "require exact value equality")
	searchApprovedCmd.Flags().StringVar(&searchUpdatedAfter, "updated-after", "", "only issues updated after this date (YYYY-MM-DD)")

	searchCmd.AddCommand(searchReleasedCmd, searchCustomFieldCmd, searchApprovedCmd)
	rootCmd.AddCommand(searchCmd)
}

func resolveVersions(a *app, project domain.Project, names []string) ([]domain.Version, error) {
	versions := make([]domain.Version, 0, len(names))
	for _, name := range names {
		v, err := a.releases.Version(actingUser(), project, name)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	return versions, nil
}

func runSearchReleased(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	project, err := a.releases.Project(args[0])
	if err != nil {
		return err
	}
	versions, err := resolveVersions(a, *project, args[1:])
	if err != nil {
		return err
	}

	issues, err := a.searcher.FindReleasedIssuesIn(cmd.Context(), actingUser(), *project, versions)
	if err != nil {
		return err
	}
	return printIssues(issues)
}

func runSearchCustomField(cmd *cobra.Command, args []string) error {
	fieldName, value := args[0], args[1]

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	handle, err := a.resolver.Resolve(fieldName)
	if err != nil {
		return err
	}

	issues, err := a.searcher.FindIssuesByCustomFieldValue(cmd.Context(), actingUser(), handle, value, searchExact)
	if err != nil {
		return err
	}
	return printIssues(issues)
}

func runSearchApproved(cmd *cobra.Command, args []string) error {
	var after *time.Time
	if searchUpdatedAfter != "" {
		t, err := time.Parse("2006-01-02", searchUpdatedAfter)
		if err != nil {
			return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", searchUpdatedAfter, err)
		}
		after = &t
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	project, err := a.releases.Project(args[0])
	if err != nil {
		return err
	}
	versions, err := resolveVersions(a, *project, args[1:])
	if err != nil {
		return err
	}

	issues, err := a.searcher.FindIssuesWithApprovedVersions(cmd.Context(), actingUser(), *project, versions, after)
	if err != nil {
		return err
	}
	return printIssues(issues)
}
