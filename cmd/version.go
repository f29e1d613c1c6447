package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/relenghq/releng/internal/tracker/domain"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Manage release versions",
}

var (
	versionDescription string
	versionReleaseDate string
	versionFromBuild   bool
	versionMoveTo      string
)

var versionCreateCmd = &cobra.Command{
	Use:   "create <project> <name>",
	Short: "Create a release version",
	Long: `Create a release version in a project. With --from-build the name
argument is a CRD build identifier (e.g. 24.03.12.01-7) and the version is
named after its CRD prefix.`,
	Args: cobra.ExactArgs(2),
	RunE: runVersionCreate,
}

var versionRenameCmd = &cobra.Command{
	Use:   "rename <project> <current> <new>",
	Short: "Rename a version, optionally rescheduling it",
	Args:  cobra.ExactArgs(3),
	RunE:  runVersionRename,
}

var versionDeleteCmd = &cobra.Command{
	Use:   "delete <project> <name>",
	Short: "Delete a version, moving its issue and custom-field references to a replacement",
	Args:  cobra.ExactArgs(2),
	RunE:  runVersionDelete,
}

func init() {
	versionCreateCmd.Flags().StringVar(&versionDescription, "description", "", "version description")
	versionCreateCmd.Flags().StringVar(&versionReleaseDate, "release-date", "", "release date (YYYY-MM-DD)")
	versionCreateCmd.Flags().BoolVar(&versionFromBuild, "from-build", false, "derive the version name from a CRD build identifier")

	versionRenameCmd.Flags().StringVar(&versionReleaseDate, "release-date", "", "new release date (YYYY-MM-DD)")

	versionDeleteCmd.Flags().StringVar(&versionMoveTo, "move-to", "", "replacement version name (required)")
	_ = versionDeleteCmd.MarkFlagRequired("move-to")

	versionCmd.AddCommand(versionCreateCmd, versionRenameCmd, versionDeleteCmd)
	rootCmd.AddCommand(versionCmd)
}

func parseReleaseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid release date %q (want YYYY-MM-DD): %w", value, err)
	}
	return &t, nil
}

func runVersionCreate(cmd *cobra.Command, args []string) error {
	projectKey, name := args[0], args[1]

	date, err := parseReleaseDate(versionReleaseDate)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	project, err := a.releases.Project(projectKey)
	if err != nil {
		return err
	}

	var created *domain.Version
	if versionFromBuild {
		created, err = a.releases.CreateForBuild(cmd.Context(), actingUser(), *project, name, date)
	} else {
		created, err = a.releases.Create(cmd.Context(), actingUser(), *project, name, versionDescription, date)
	}
	if err != nil {
		return err
	}
	return printVersion(created)
}

func runVersionRename(cmd *cobra.Command, args []string) error {
	projectKey, currentName, newName := args[0], args[1], args[2]

	date, err := parseReleaseDate(versionReleaseDate)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	project, err := a.releases.Project(projectKey)
	if err != nil {
		return err
	}

	var updated *domain.Version
	if date != nil {
		updated, err = a.releases.UpdateWithReleaseDate(cmd.Context(), actingUser(), *project, currentName, newName, *date)
	} else {
		updated, err = a.releases.Update(cmd.Context(), actingUser(), *project, currentName, newName)
	}
	if err != nil {
		return err
	}
	return printVersion(updated)
}

func runVersionDelete(cmd *cobra.Command, args []string) error {
	projectKey, name := args[0], args[1]

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	project, err := a.releases.Project(projectKey)
	if err != nil {
		return err
	}

	if err := a.releases.DeleteAndSwap(cmd.Context(), actingUser(), *project, name, versionMoveTo); err != nil {
		return err
	}
	fmt.Printf("deleted version %q, references moved to %q\n", name, versionMoveTo)
	return nil
}
