// ABOUTME: Root command and shared setup for every subcommand.
// ABOUTME: Wires config, logging, the local database and the synced area.

package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harper/tagfilter/internal/charm"
	"github.com/harper/tagfilter/internal/config"
	"github.com/harper/tagfilter/internal/db"
	"github.com/harper/tagfilter/internal/logging"
	"github.com/harper/tagfilter/internal/notify"
	"github.com/harper/tagfilter/internal/popup"
	"github.com/harper/tagfilter/internal/server"
	"github.com/harper/tagfilter/internal/storage"
	"github.com/spf13/cobra"
)

var (
	cfg         *config.Config
	dbConn      *sql.DB
	charmClient *charm.Client
	hub         *notify.Hub
	store       *storage.Adapter

	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "tagfilter",
	Short: "Keyword filters for your project list",
	Long: `tagfilter keeps a list of keyword filters and applies the active one
to a project listing page, hiding every project whose title does not
contain the keyword.

Filters sync across devices through Charm and are mirrored locally.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func Execute() error {
	rootCmd.Version = fmt.Sprintf("%s (%s, %s)", version, commit, date)
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	if err := logging.SetLevel(level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = db.DefaultPath()
	}
	dbConn, err = db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	var synced storage.Area = storage.Disabled(charm.SyncArea)
	if cfg.Charm.Enabled {
		charmClient, err = charm.NewClient(cfg.Charm)
		if err != nil {
			logging.Default().Warn("charm unavailable, using local storage only", "err", err)
		} else {
			if err := charmClient.SyncIfStale(); err != nil {
				logging.Default().Warn("refresh stale sync data", "err", err)
			}
			synced = charm.NewArea(charmClient)
		}
	}

	hub = notify.NewHub()
	store = storage.NewAdapter(storage.Observe(synced, hub), storage.Observe(db.NewArea(dbConn), hub))
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if dbConn != nil {
		return dbConn.Close()
	}
	return nil
}

// newController returns a controller loaded with the persisted state that
// messages the page host at page.addr.
func newController(ctx context.Context, opts ...popup.Option) *popup.Controller {
	client := server.NewClient(cfg.Page.Addr)
	opts = append([]popup.Option{popup.WithTargetHost(cfg.Page.TargetHost)}, opts...)
	ctl := popup.NewController(store, client, client, opts...)
	ctl.Load(ctx)
	return ctl
}
