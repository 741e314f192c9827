package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/signalbox/internal/dashboard"
	"github.com/zulandar/signalbox/internal/notify"
	"github.com/zulandar/signalbox/internal/session"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		envPath    string
		port       int
		offline    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation and the web dashboard",
		Long: `Starts the train simulation, the controller workflows and the web dashboard.
Audit entries are archived when a database is configured, and workflow events
are posted to any configured Slack, Discord or NATS targets.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, envPath, port, offline)
		},
	}

	addConfigFlag(cmd, &configPath, &envPath)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides dashboard.port)")
	cmd.Flags().BoolVar(&offline, "offline", false, "never call the model; always use the fallback")
	return cmd
}

func runServe(cmd *cobra.Command, configPath, envPath string, port int, offline bool) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(cmd, configPath, envPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Dashboard.Port = port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	advisor, err := newAdvisor(ctx, cfg, offline, out)
	if err != nil {
		return err
	}

	archive, err := openArchive(cfg)
	if err != nil {
		return err
	}
	if archive != nil {
		fmt.Fprintf(out, "Archiving audit trail to %s database\n", cfg.Database.Driver)
	}

	notifier, closeNotifier, err := buildNotifier(cfg)
	defer closeNotifier()
	if err != nil {
		return err
	}

	opts := session.Options{
		Seed:       seedState(cfg, time.Now()),
		Advisor:    advisor,
		Notifier:   notifier,
		TickPeriod: time.Duration(cfg.TickMS) * time.Millisecond,
	}
	if archive != nil {
		opts.Sink = archive
		opts.Archive = archive
	}
	sess, err := session.New(opts)
	if err != nil {
		return err
	}
	sess.Start(ctx)
	defer sess.Close()

	if notifier != nil && cfg.Notify.DigestCron != "" {
		go notify.RunDigest(ctx, cfg.Notify.DigestCron, sess.Summary, notifier)
		fmt.Fprintf(out, "Shift digest scheduled (%s)\n", cfg.Notify.DigestCron)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return dashboard.Start(ctx, dashboard.StartOpts{
		Session: sess,
		Archive: archive,
		Port:    cfg.Dashboard.Port,
		Out:     out,
	})
}
