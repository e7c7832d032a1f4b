package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/parksync/internal/audit"
	"github.com/ziadkadry99/parksync/internal/knowledge"
	"github.com/ziadkadry99/parksync/internal/progress"
)

var retrainCmd = &cobra.Command{
	Use:   "retrain",
	Short: "Re-embed every knowledge source",
	Long: `Reprocesses all documents, crawled pages, and synced records through
the embedding pipeline. Use after changing the embedding model or to
pick up edits made outside parksync.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildStack(true)
		if err != nil {
			return err
		}
		defer s.Close()
		ctx := context.Background()

		reporter := progress.NewReporter("Retraining")
		started := false
		result, err := s.ledger.Retrain(ctx, func(done, total int, src *knowledge.Source, srcErr error) {
			if !started {
				reporter.Start(total)
				started = true
			}
			msg := src.Name
			if srcErr != nil {
				msg = fmt.Sprintf("%s (failed)", src.Name)
			}
			reporter.Update(done, msg)
		})
		if started {
			reporter.Finish()
		}
		if err != nil {
			return err
		}

		if err := persistVectorStore(s.cfg, s.store); err != nil {
			return err
		}
		fmt.Printf("Retrained %d source(s), %d failed\n", result.Success, result.Failed)
		_ = audit.NewStore(s.db).Log(ctx, audit.Entry{
			Action: audit.ActionRetrainCompleted,
			Scope:  audit.ScopeKnowledge,
			Detail: fmt.Sprintf("%d ok, %d failed", result.Success, result.Failed),
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(retrainCmd)
}
