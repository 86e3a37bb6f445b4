// ABOUTME: Serve command hosting a project page with live filtering.
// ABOUTME: Runs the content agent behind the HTTP page host.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harper/tagfilter/internal/content"
	"github.com/harper/tagfilter/internal/db"
	"github.com/harper/tagfilter/internal/logging"
	"github.com/harper/tagfilter/internal/notify"
	"github.com/harper/tagfilter/internal/page"
	"github.com/harper/tagfilter/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve <file.html>",
	Short: "Host a project page and apply filters live",
	Long: `Serve a saved project page on page.addr. Filter commands run while the
host is up are applied to the page immediately.

The page starts unfiltered, like a freshly loaded tab.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Page.Addr
		}
		log := logging.For("serve")

		f, err := os.Open(args[0]) //nolint:gosec // User-specified file path is expected CLI behavior
		if err != nil {
			return fmt.Errorf("failed to open page: %w", err)
		}
		doc, err := page.Parse(f)
		_ = f.Close()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		agent := content.NewAgent(store, doc)
		cancel := hub.Subscribe(agent.HandleChanges)
		defer cancel()
		agent.Start(ctx)

		// Filter commands run in other processes; their writes reach the
		// page through the shared local database.
		watcher := db.NewWatcher(dbConn, hub, db.DefaultWatchInterval)
		if err := watcher.Prime(ctx); err != nil {
			log.Warn("prime local store watcher", "err", err)
		}
		go watcher.Run(ctx)

		bus := notify.NewBus()
		target := bus.Open(cfg.Page.SourceURL)
		srv := &http.Server{
			Addr: addr,
			Handler: server.RegisterRoutes(server.Deps{
				Agent:  agent,
				Store:  store,
				Hub:    hub,
				Bus:    bus,
				Target: target,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe()
		}()
		fmt.Printf("Serving %s on http://%s\n", args[0], addr)

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		log.Info("shutting down")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default: page.addr from config)")
	rootCmd.AddCommand(serveCmd)
}
