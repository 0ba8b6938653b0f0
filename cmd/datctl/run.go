package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pigdbc/dat-conditional-updater/internal/audit"
	"github.com/pigdbc/dat-conditional-updater/internal/updater"
)

var (
	runConfig     string
	runOutDir     string
	runLogDir     string
	runDryRun     bool
	runRetainDays int
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().StringVarP(&runConfig, "config", "c", "config.ini", "Rule configuration (.ini, .yaml or .yml)")
	cmd.Flags().StringVar(&runOutDir, "out-dir", "out", "Directory for the updated file")
	cmd.Flags().StringVar(&runLogDir, "log-dir", "log", "Directory for audit logs")
	cmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Evaluate and print the audit without writing files")
	cmd.Flags().IntVar(&runRetainDays, "retain-days", 0, "Delete audit logs of this input older than N days (0 keeps all)")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <input.dat>",
		Short: "Apply the configured rules to a record file",
		Long: `The run command reads every record of the input file, applies all rules
whose conditions match and writes the result to the output directory under the
input's file name. An audit log named <input>_<timestamp>.log is written to the
log directory. Nothing is written when the run fails.

Example:
  datctl run in/data.dat
  datctl run in/data.dat --config rules.yaml --out-dir out --log-dir log
  datctl run in/data.dat --dry-run --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), args)
		},
	}
	return cmd
}

type runReport struct {
	RunID        string        `json:"run_id"`
	Config       string        `json:"config"`
	Input        string        `json:"input"`
	Output       string        `json:"output,omitempty"`
	AuditLog     string        `json:"audit_log,omitempty"`
	DryRun       bool          `json:"dry_run"`
	Summary      audit.Summary `json:"summary"`
	ConfigErrors []string      `json:"config_errors,omitempty"`
	Pruned       []string      `json:"pruned,omitempty"`
}

func runRun(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	input := args[0]

	printVerbose("Loading rules: %s\n", runConfig)

	res, err := updater.RunFiles(ctx, updater.Options{
		ConfigPath: runConfig,
		InputPath:  input,
		OutDir:     runOutDir,
		LogDir:     runLogDir,
		DryRun:     runDryRun,
		RetainDays: runRetainDays,
	})
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if jsonOut {
		report := runReport{
			RunID:    res.RunID,
			Config:   runConfig,
			Input:    input,
			Output:   res.OutputPath,
			AuditLog: res.AuditPath,
			DryRun:   runDryRun,
			Summary:  res.Summary,
			Pruned:   res.Pruned,
		}
		for _, ce := range res.ConfigErrors {
			report.ConfigErrors = append(report.ConfigErrors, ce.Error())
		}
		return printJSON(report)
	}

	printInfo("%s", res.Report)
	printInfo("\n")
	for _, ce := range res.ConfigErrors {
		printInfo("%s %v\n", styled(warningStyle, "!"), ce)
	}
	if runDryRun {
		printInfo("%s\n", styled(mutedStyle, "Dry run: no files written"))
		return nil
	}
	printInfo("%s Output: %s\n", styled(successStyle, "✓"), res.OutputPath)
	printInfo("%s Log: %s\n", styled(successStyle, "✓"), res.AuditPath)
	for _, p := range res.Pruned {
		printVerbose("%s\n", styled(mutedStyle, "Pruned "+p))
	}
	return nil
}
