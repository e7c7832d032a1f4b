package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/parksync/internal/audit"
	"github.com/ziadkadry99/parksync/internal/config"
	"github.com/ziadkadry99/parksync/internal/mapper"
	"github.com/ziadkadry99/parksync/internal/progress"
	"github.com/ziadkadry99/parksync/internal/syncer"
)

var syncUseAI bool

var syncCmd = &cobra.Command{
	Use:   "sync [community|home]",
	Short: "Import remote entities into canonical records",
	Long: `Walks the configured endpoint page by page, applies the confirmed
field mapping (or model extraction with --ai), and upserts each record
by its remote id. Unchanged records are detected by content fingerprint
and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := config.SyncKind(args[0])
		if kind != config.KindCommunity && kind != config.KindHome {
			return fmt.Errorf("unknown kind %q, want community or home", args[0])
		}

		s, err := buildStack(false)
		if err != nil {
			return err
		}
		defer s.Close()
		ctx := context.Background()

		if syncUseAI {
			s.orch.SetAIParserFactory(func(kind config.SyncKind) syncer.RecordParser {
				return newAIParser(s.cfg, kind)
			})
		}

		reporter := progress.NewReporter(fmt.Sprintf("Syncing %s", kind))
		started := false
		result, err := s.orch.Run(ctx, s.cfg.AgentID, kind, syncer.Options{
			UseAI: syncUseAI,
			Progress: func(processed, total int) {
				if !started && total > 0 {
					reporter.Start(total)
					started = true
				}
				reporter.Update(processed, "")
			},
		})
		if started {
			reporter.Finish()
		}

		auditStore := audit.NewStore(s.db)
		if err != nil {
			_ = auditStore.Log(ctx, audit.Entry{
				Action: audit.ActionSyncFailed,
				Scope:  audit.ScopeSync,
				Detail: err.Error(),
			})
			return err
		}

		fmt.Printf("Imported %d, updated %d, unchanged %d, failed %d (of %d remote)\n",
			result.Imported, result.Updated, result.Unchanged, result.Failed, result.TotalRemote)
		_ = auditStore.Log(ctx, audit.Entry{
			Action: audit.ActionSyncCompleted,
			Scope:  audit.ScopeSync,
			Detail: fmt.Sprintf("%s: %d imported, %d updated", kind, result.Imported, result.Updated),
		})
		return nil
	},
}

// newAIParser builds the model-extraction parser from config.
func newAIParser(cfg *config.Config, kind config.SyncKind) syncer.RecordParser {
	return &syncer.AIParser{
		Client:  newOpenAIClient(),
		Model:   cfg.ExtractModel,
		Targets: mapper.TargetFields(string(kind)),
	}
}

func init() {
	syncCmd.Flags().BoolVar(&syncUseAI, "ai", false, "extract fields with the configured model instead of the field mapping")
	rootCmd.AddCommand(syncCmd)
}
