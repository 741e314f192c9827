package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}
	cmd.AddCommand(newConfigCheckCmd())
	return cmd
}

func newConfigCheckCmd() *cobra.Command {
	var (
		configPath string
		envPath    string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the config file and print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigCheck(cmd, configPath, envPath)
		},
	}

	addConfigFlag(cmd, &configPath, &envPath)
	return cmd
}

func runConfigCheck(cmd *cobra.Command, configPath, envPath string) error {
	out := cmd.OutOrStdout()
	cfg, err := loadConfig(cmd, configPath, envPath)
	if err != nil {
		return err
	}

	keyState := "set"
	if cfg.APIKey() == "" {
		keyState = "missing (offline)"
	}
	archive := "disabled"
	if cfg.Database.Enabled() {
		archive = cfg.Database.Driver
	}
	var targets []string
	if cfg.Notify.Slack != nil {
		targets = append(targets, "slack")
	}
	if cfg.Notify.Discord != nil {
		targets = append(targets, "discord")
	}
	if cfg.Notify.NATS != nil {
		targets = append(targets, "nats")
	}

	notifyTargets := "none"
	if len(targets) > 0 {
		notifyTargets = strings.Join(targets, ", ")
	}
	st := seedState(cfg, time.Now())

	fmt.Fprintf(out, "Config OK\n")
	fmt.Fprintf(out, "  model:      %s\n", cfg.Model)
	fmt.Fprintf(out, "  api key:    %s (%s)\n", keyState, cfg.APIKeyEnv)
	fmt.Fprintf(out, "  tick:       %dms\n", cfg.TickMS)
	fmt.Fprintf(out, "  dashboard:  :%d\n", cfg.Dashboard.Port)
	fmt.Fprintf(out, "  archive:    %s\n", archive)
	fmt.Fprintf(out, "  notify:     %s\n", notifyTargets)
	if cfg.Notify.DigestCron != "" {
		fmt.Fprintf(out, "  digest:     %s\n", cfg.Notify.DigestCron)
	}
	fmt.Fprintf(out, "  network:    %d tracks, %d trains, %d alerts, %d weather incidents\n",
		len(st.Tracks), len(st.Trains), len(st.Alerts), len(st.Weather))
	return nil
}
