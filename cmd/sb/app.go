package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/signalbox/internal/audit"
	"github.com/zulandar/signalbox/internal/config"
	"github.com/zulandar/signalbox/internal/copilot"
	"github.com/zulandar/signalbox/internal/db"
	"github.com/zulandar/signalbox/internal/models"
	"github.com/zulandar/signalbox/internal/notify"
	"github.com/zulandar/signalbox/internal/notify/discord"
	"github.com/zulandar/signalbox/internal/notify/natsbus"
	"github.com/zulandar/signalbox/internal/notify/slack"
	"github.com/zulandar/signalbox/internal/session"
)

const defaultConfigPath = "signalbox.yaml"

// addConfigFlag registers the shared --config and --env flags.
func addConfigFlag(cmd *cobra.Command, configPath, envPath *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", defaultConfigPath, "path to Signalbox config file")
	cmd.Flags().StringVar(envPath, "env", ".env", "path to a .env file with API keys")
}

// loadConfig loads the .env file and then the config. A missing config at
// the default path falls back to built-in defaults; an explicit path must
// exist.
func loadConfig(cmd *cobra.Command, configPath, envPath string) (*config.Config, error) {
	if err := config.LoadDotEnv(envPath); err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newAdvisor returns the Gemini client, or the offline advisor when
// offline is set or no API key is available.
func newAdvisor(ctx context.Context, cfg *config.Config, offline bool, out io.Writer) (session.Advisor, error) {
	if offline {
		fmt.Fprintln(out, "Offline mode: every AI request will use the fallback.")
		return copilot.Static{}, nil
	}
	key := cfg.APIKey()
	if key == "" {
		fmt.Fprintf(out, "Warning: %s is not set; running offline.\n", cfg.APIKeyEnv)
		return copilot.Static{}, nil
	}
	client, err := copilot.New(ctx, copilot.Opts{APIKey: key, Model: cfg.Model})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// openArchive connects and migrates the audit archive. It returns nil when
// no database is configured.
func openArchive(cfg *config.Config) (*audit.Archive, error) {
	if !cfg.Database.Enabled() {
		return nil, nil
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return nil, err
	}
	return audit.NewArchive(gormDB), nil
}

// requireArchive is openArchive for commands that cannot run without one.
func requireArchive(cfg *config.Config) (*audit.Archive, error) {
	if !cfg.Database.Enabled() {
		return nil, errors.New("no database configured (set database.driver)")
	}
	return openArchive(cfg)
}

// buildNotifier fans out to every configured target. The returned func
// releases connections. A nil notifier means none is configured.
func buildNotifier(cfg *config.Config) (notify.Notifier, func(), error) {
	var fan notify.Fanout
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if s := cfg.Notify.Slack; s != nil {
		n, err := slack.New(slack.Opts{BotToken: s.BotToken, ChannelID: s.Channel})
		if err != nil {
			return nil, closeAll, err
		}
		fan = append(fan, n)
	}
	if d := cfg.Notify.Discord; d != nil {
		n, err := discord.New(discord.Opts{BotToken: d.BotToken, ChannelID: d.ChannelID})
		if err != nil {
			return nil, closeAll, err
		}
		fan = append(fan, n)
	}
	if nc := cfg.Notify.NATS; nc != nil {
		p, err := natsbus.Connect(nc.URL, nc.Subject)
		if err != nil {
			return nil, closeAll, err
		}
		fan = append(fan, p)
		closers = append(closers, p.Close)
	}

	if len(fan) == 0 {
		return nil, closeAll, nil
	}
	return fan, closeAll, nil
}

// seedState builds the starting state from the config, using the built-in
// network for any section the config leaves empty.
func seedState(cfg *config.Config, now time.Time) session.State {
	st := session.DefaultState(now)
	s := cfg.Seed
	if len(s.Tracks) > 0 {
		st.Tracks = s.Tracks
	}
	if len(s.Trains) > 0 {
		st.Trains = s.Trains
	}
	if len(s.Alerts) > 0 {
		st.Alerts = make([]models.Alert, len(s.Alerts))
		for i, a := range s.Alerts {
			if a.Timestamp == 0 {
				a.Timestamp = now.UnixMilli()
			}
			st.Alerts[i] = a
		}
	}
	if len(s.Weather) > 0 {
		st.Weather = s.Weather
	}
	if len(s.Audit) > 0 {
		st.AuditLog = s.Audit
	}
	return st.Clone()
}
