package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/parksync/internal/audit"
	"github.com/ziadkadry99/parksync/internal/config"
	"github.com/ziadkadry99/parksync/internal/connection"
	"github.com/ziadkadry99/parksync/internal/syncer"
)

var connectDeleteData bool

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Save and verify the configured site connection",
	Long: `Registers the site URL from the config as this agent's connection,
probes its REST API, and stores the endpoint settings so syncs can run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildStack(false)
		if err != nil {
			return err
		}
		defer s.Close()
		ctx := context.Background()

		reg := connection.NewRegistry(s.connections)
		conn, err := reg.SaveURL(ctx, s.cfg.AgentID, s.cfg.SiteURL)
		if err != nil {
			return err
		}

		result, err := reg.TestSaved(ctx, s.cfg.AgentID)
		if err != nil {
			return err
		}
		if !result.Success {
			fmt.Printf("Saved %s, but the connection test failed: %s\n", conn.SiteURL, result.Message)
		} else {
			fmt.Printf("Connected to %s\n", conn.SiteURL)
		}

		for _, kind := range []config.SyncKind{config.KindCommunity, config.KindHome} {
			ep := s.cfg.Endpoint(kind)
			if ep.Endpoint == "" {
				continue
			}
			err := s.endpoints.Upsert(ctx, &syncer.EndpointConfig{
				ConnectionID: conn.ID,
				Kind:         kind,
				RestBase:     ep.Endpoint,
				SyncInterval: ep.SyncInterval,
			})
			if err != nil {
				return fmt.Errorf("saving %s endpoint: %w", kind, err)
			}
		}

		_ = audit.NewStore(s.db).Log(ctx, audit.Entry{
			Action:  audit.ActionConnectionSaved,
			Scope:   audit.ScopeConnection,
			ScopeID: conn.ID,
			Detail:  conn.SiteURL,
		})
		return nil
	},
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Remove the saved site connection",
	Long: `Removes this agent's site connection. Synced records are kept unless
--delete-data is passed explicitly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildStack(false)
		if err != nil {
			return err
		}
		defer s.Close()
		ctx := context.Background()

		reg := connection.NewRegistry(s.connections)
		conn, err := reg.Get(ctx, s.cfg.AgentID)
		if err != nil {
			return err
		}

		if err := reg.Disconnect(ctx, s.cfg.AgentID, connectDeleteData); err != nil {
			return err
		}
		if connectDeleteData {
			fmt.Println("Disconnected; synced records deleted.")
		} else {
			fmt.Println("Disconnected; synced records kept.")
		}

		_ = audit.NewStore(s.db).Log(ctx, audit.Entry{
			Action:  audit.ActionConnectionDeleted,
			Scope:   audit.ScopeConnection,
			ScopeID: conn.ID,
		})
		return nil
	},
}

func init() {
	disconnectCmd.Flags().BoolVar(&connectDeleteData, "delete-data", false, "also delete all synced records")
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(disconnectCmd)
}
