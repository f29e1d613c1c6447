package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var attachCmd = &cobra.Command{
	Use:   "attach <issue-key> <file>",
	Short: "Attach a text file to an issue",
	Long: `Attach a plain-text file to an issue. The attachment is authored by
the issue's reporter, matching how release notes land on the issue that
owns them.`,
	Args: cobra.ExactArgs(2),
	RunE: runAttach,
}

func init() {
	rootCmd.AddCommand(attachCmd)
}

func runAttach(_ *cobra.Command, args []string) error {
	issueKey, path := args[0], args[1]

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	filename := filepath.Base(path)
	if err := a.attacher.CreateForIssueKey(issueKey, filename, content); err != nil {
		return err
	}
	fmt.Printf("attached %s to %s\n", filename, issueKey)
	return nil
}
