package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/signalbox/internal/session"
)

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the canned disruption scenarios",
		Run: func(cmd *cobra.Command, args []string) {
			for i, s := range session.Scenarios {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, s)
			}
		},
	}
}

func newScenarioCmd() *cobra.Command {
	var (
		configPath string
		envPath    string
		offline    bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scenario <number|description>",
		Short: "Analyze a disruption scenario",
		Long: `Asks the model for 2-3 mitigation strategies for a disruption scenario.
The argument is either the number of a canned scenario (see "sb scenarios")
or a free-text description. Successful runs are archived when a database
is configured.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd, configPath, envPath, offline, timeout, args)
		},
	}

	addConfigFlag(cmd, &configPath, &envPath)
	cmd.Flags().BoolVar(&offline, "offline", false, "never call the model")
	cmd.Flags().DurationVar(&timeout, "timeout", session.DefaultRequestTimeout, "maximum time to wait for the model")
	return cmd
}

// resolveScenario maps a canned scenario number to its text; anything else
// is taken as a free-text scenario.
func resolveScenario(args []string) string {
	text := strings.TrimSpace(strings.Join(args, " "))
	if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(session.Scenarios) {
		return session.Scenarios[n-1]
	}
	return text
}

func runScenario(cmd *cobra.Command, configPath, envPath string, offline bool, timeout time.Duration, args []string) error {
	out := cmd.OutOrStdout()
	scenario := resolveScenario(args)
	if scenario == "" {
		return fmt.Errorf("scenario is required")
	}

	cfg, err := loadConfig(cmd, configPath, envPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	advisor, err := newAdvisor(ctx, cfg, offline, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	archive, err := openArchive(cfg)
	if err != nil {
		return err
	}

	opts := session.Options{
		Seed:           seedState(cfg, time.Now()),
		Advisor:        advisor,
		RequestTimeout: timeout,
	}
	if archive != nil {
		opts.Archive = archive
	}
	sess, err := session.New(opts)
	if err != nil {
		return err
	}

	analysis, err := sess.AnalyzeScenario(ctx, scenario)
	if err != nil {
		return errors.New(session.MsgAnalysisFailed)
	}
	printAnalysis(out, scenario, analysis)
	return nil
}
