package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/relenghq/releng/internal/fields"
)

var (
	fieldsLang    string
	fieldsLegacy  bool
	fieldsResolve bool
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the custom-field catalog",
	Long: `List the canonical custom-field catalog. With --lang ru the Russian
display names are shown; with --resolve each field is checked against the
tracker store and marked present or absent.`,
	Args: cobra.NoArgs,
	RunE: runFields,
}

func init() {
	fieldsCmd.Flags().StringVar(&fieldsLang, "lang", "", "display-name language: en or ru (default from config)")
	fieldsCmd.Flags().BoolVar(&fieldsLegacy, "legacy", false, "list only the pre-sprint-era fields")
	fieldsCmd.Flags().BoolVar(&fieldsResolve, "resolve", false, "check each field against the store")
	rootCmd.AddCommand(fieldsCmd)
}

type fieldRow struct {
	Name    string `yaml:"name"`
	Display string `yaml:"display"`
	Present *bool  `yaml:"present,omitempty"`
}

func runFields(_ *cobra.Command, _ []string) error {
	langName := fieldsLang
	if langName == "" {
		langName = cfg.Language
	}
	var lang fields.Language
	switch langName {
	case "en":
		lang = fields.LangEN
	case "ru":
		lang = fields.LangRU
	default:
		return fmt.Errorf("language %q is not supported (want en or ru)", langName)
	}

	catalog := fields.All()
	if fieldsLegacy {
		catalog = fields.Legacy()
	}

	var a *app
	if fieldsResolve {
		var err error
		a, err = openApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()
	}

	rows := make([]fieldRow, 0, len(catalog))
	for _, field := range catalog {
		row := fieldRow{Name: field.Name(), Display: field.LocalizedName(lang)}
		if fieldsResolve {
			present, err := a.resolver.Exists(field.Name())
			if err != nil {
				return err
			}
			row.Present = &present
		}
		rows = append(rows, row)
	}

	if outputFormat == "yaml" {
		out, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("rendering fields: %w", err)
		}
		fmt.Print(string(out))
		return nil
	}
	for _, row := range rows {
		if row.Present != nil {
			mark := "absent"
			if *row.Present {
				mark = "present"
			}
			fmt.Printf("%-40s  %-46s  %s\n", row.Name, row.Display, mark)
		} else {
			fmt.Printf("%-40s  %s\n", row.Name, row.Display)
		}
	}
	return nil
}
