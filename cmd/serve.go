package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/parksync/internal/audit"
	"github.com/ziadkadry99/parksync/internal/connection"
	"github.com/ziadkadry99/parksync/internal/knowledge"
	"github.com/ziadkadry99/parksync/internal/mapper"
	"github.com/ziadkadry99/parksync/internal/scheduler"
	"github.com/ziadkadry99/parksync/internal/server"
	"github.com/ziadkadry99/parksync/internal/syncer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the agent-facing HTTP API: connection management, endpoint
discovery, field mappings, sync operations, and the knowledge ledger.
Scheduled syncs run in the background on their configured intervals.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildStack(true)
		if err != nil {
			return err
		}
		defer s.Close()

		srv := server.New(server.Config{
			Port:     s.cfg.Server.Port,
			DataDir:  s.cfg.DataDir,
			AllowAll: s.cfg.Server.AllowAll,
		}, s.db, s.store)

		r := srv.Router()
		reg := connection.NewRegistry(s.connections)
		connection.RegisterRoutes(r, reg, s.cfg.AgentID)
		mapper.RegisterRoutes(r, s.mappings, reg, s.cfg.AgentID)
		syncer.RegisterRoutes(r, s.orch, s.records, s.runs, s.tracker, s.connections, s.cfg.AgentID)
		knowledge.RegisterRoutes(r, s.ledger)
		audit.RegisterRoutes(r, audit.NewStore(s.db))

		sched := scheduler.New(s.orch, s.ledger, s.cfg.AgentID)
		if err := sched.Configure(s.cfg); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case <-sig:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return persistVectorStore(s.cfg, s.store)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
