// datacheck runs the dataset quality rules against a CSV file and prints
// the resulting report. Exit status 1 means error-level issues were found.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fincollect/go-collector-kit/dataset"
	"github.com/fincollect/go-collector-kit/dataval"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "datacheck",
		Short:        "Data quality checks for collected financial datasets",
		SilenceUsage: true,
	}
	root.AddCommand(newValidateCmd())
	root.AddCommand(newRulesCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	var dataType string
	var disabled []string

	cmd := &cobra.Command{
		Use:   "validate <file.csv>",
		Short: "Validate a CSV file against the built-in rule set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			frame, err := dataset.ReadCSV(f)
			if err != nil {
				return err
			}

			v := dataval.New()
			for _, name := range disabled {
				if !v.DisableRule(name) {
					return fmt.Errorf("unknown rule %q", name)
				}
			}

			report := v.Validate(frame, dataType)
			printReport(cmd, report)

			if !report.IsValid() {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataType, "type", "general", "data type tag for the report")
	cmd.Flags().StringSliceVar(&disabled, "disable", nil, "rules to skip, by name")
	return cmd
}

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the registered validation rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, info := range dataval.New().RuleList() {
				state := "enabled"
				if !info.Enabled {
					state = "disabled"
				}
				cmd.Printf("%-20s %-8s %-9s %s\n", info.Name, info.Level, state, info.Description)
			}
			return nil
		},
	}
}

func printReport(cmd *cobra.Command, report *dataval.Report) {
	cmd.Printf("report %s (%s): %d rows, %d columns\n",
		report.ID, report.DataType, report.TotalRows, report.TotalColumns)
	cmd.Printf("passed: %d rules, failed: %d rules\n",
		len(report.PassedRules), len(report.FailedRules))

	for _, is := range report.Issues {
		cmd.Printf("  [%s] %s: %s\n", is.Level, is.Rule, is.Message)
	}

	if report.IsValid() {
		cmd.Println("result: VALID")
	} else {
		cmd.Println("result: INVALID")
	}
}
