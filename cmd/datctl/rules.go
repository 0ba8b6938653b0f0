package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pigdbc/dat-conditional-updater/internal/updater"
)

var rulesConfig string

func init() {
	cmd := newRulesCmd()
	cmd.Flags().StringVarP(&rulesConfig, "config", "c", "config.ini", "Rule configuration (.ini, .yaml or .yml)")
	rootCmd.AddCommand(cmd)
}

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the rules a configuration defines",
		Long: `The rules command loads a configuration and prints the record layout, every
loaded rule in declaration order, and every rule excluded by a config error.

Example:
  datctl rules --config config.ini
  datctl rules --config rules.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules()
		},
	}
	return cmd
}

type ruleJSON struct {
	Name        string   `json:"name"`
	Conditions  []string `json:"conditions"`
	Updates     []string `json:"updates"`
	Description string   `json:"description"`
}

func runRules() error {
	cfg, rs, cerrs, err := updater.LoadRules(rulesConfig)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	if jsonOut {
		out := map[string]interface{}{
			"config": cfg.Path,
			"settings": map[string]interface{}{
				"record_size":   cfg.Settings.RecordSize,
				"header_marker": string(cfg.Settings.HeaderMarker),
				"data_marker":   string(cfg.Settings.DataMarker),
			},
		}
		loaded := make([]ruleJSON, 0, rs.Len())
		for _, r := range rs.Rules() {
			rj := ruleJSON{Name: r.Name, Description: r.Describe()}
			for _, c := range r.Conditions {
				rj.Conditions = append(rj.Conditions, c.String())
			}
			for _, u := range r.Updates {
				rj.Updates = append(rj.Updates, u.String())
			}
			loaded = append(loaded, rj)
		}
		out["rules"] = loaded
		errs := make([]string, 0, len(cerrs))
		for _, ce := range cerrs {
			errs = append(errs, ce.Error())
		}
		out["config_errors"] = errs
		return printJSON(out)
	}

	printInfo("%s\n", styled(titleStyle, "Rules: "+cfg.Path))
	printInfo("  RecordSize: %d bytes\n", cfg.Settings.RecordSize)
	printInfo("  Header marker: '%c'  Data marker: '%c'\n", cfg.Settings.HeaderMarker, cfg.Settings.DataMarker)
	printInfo("\n")
	if rs.Len() == 0 {
		printInfo("  %s\n", styled(mutedStyle, "(no rules)"))
	}
	for _, r := range rs.Rules() {
		printInfo("  %s: %s\n", r.Name, r.Describe())
	}
	for _, ce := range cerrs {
		printInfo("  %s %v\n", styled(warningStyle, "excluded:"), ce)
	}
	return nil
}
