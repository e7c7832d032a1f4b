package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/parksync/internal/audit"
	"github.com/ziadkadry99/parksync/internal/ingest"
	"github.com/ziadkadry99/parksync/internal/knowledge"
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage the knowledge ledger",
}

var knowledgeAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Add a document to the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildStack(true)
		if err != nil {
			return err
		}
		defer s.Close()
		ctx := context.Background()

		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		src, err := s.ledger.Add(ctx, &knowledge.Source{
			SourceType: knowledge.SourceDocument,
			Name:       filepath.Base(path),
			Location:   path,
		})
		if err != nil {
			return err
		}
		if err := persistVectorStore(s.cfg, s.store); err != nil {
			return err
		}

		fmt.Printf("Added %s (%d chunks)\n", src.Name, src.ChunkCount)
		_ = audit.NewStore(s.db).Log(ctx, audit.Entry{
			Action:  audit.ActionKnowledgeAdded,
			Scope:   audit.ScopeKnowledge,
			ScopeID: src.ID,
			Detail:  src.Name,
		})
		return nil
	},
}

var knowledgeCrawlCmd = &cobra.Command{
	Use:   "crawl [url]",
	Short: "Crawl a site into the knowledge base",
	Long: `Walks the site from the given start page (or the configured site URL),
applies the crawl include/exclude filters, and ingests each kept page
as a child of one crawl root.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildStack(true)
		if err != nil {
			return err
		}
		defer s.Close()
		ctx := context.Background()

		startURL := s.cfg.SiteURL
		if len(args) == 1 {
			startURL = args[0]
		}
		if startURL == "" {
			return fmt.Errorf("no URL given and no site configured")
		}

		crawler := ingest.NewCrawler(s.cfg.Crawl)
		root, err := crawler.Crawl(ctx, s.ledger, startURL, "manual")
		if err != nil {
			return err
		}
		if err := persistVectorStore(s.cfg, s.store); err != nil {
			return err
		}

		children, err := s.ledger.Store().ListChildren(ctx, root.ID)
		if err != nil {
			return err
		}
		ready := 0
		for _, c := range children {
			if c.Status == knowledge.StatusReady {
				ready++
			}
		}
		fmt.Printf("Crawled %s: %d page(s), %d ingested\n", startURL, len(children), ready)
		_ = audit.NewStore(s.db).Log(ctx, audit.Entry{
			Action:  audit.ActionKnowledgeAdded,
			Scope:   audit.ScopeKnowledge,
			ScopeID: root.ID,
			Detail:  fmt.Sprintf("crawl %s: %d pages", startURL, len(children)),
		})
		return nil
	},
}

var knowledgeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List knowledge sources and their status",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildStack(false)
		if err != nil {
			return err
		}
		defer s.Close()

		store := knowledge.NewStore(s.db)
		roots, err := store.ListRoots(context.Background())
		if err != nil {
			return err
		}
		if len(roots) == 0 {
			fmt.Println("The knowledge ledger is empty.")
			return nil
		}

		now := time.Now()
		for _, root := range roots {
			flag := ""
			if root.IsOutdated(now) {
				flag = " [outdated]"
			}
			fmt.Printf("%-40s %-10s %-12s %d chunks%s\n", root.Name, root.SourceType, root.Status, root.ChunkCount, flag)
			children, err := store.ListChildren(context.Background(), root.ID)
			if err != nil {
				return err
			}
			for _, c := range children {
				fmt.Printf("  %-38s %-10s %-12s %d chunks\n", c.Name, c.SourceType, c.Status, c.ChunkCount)
			}
		}
		return nil
	},
}

func init() {
	knowledgeCmd.AddCommand(knowledgeAddCmd)
	knowledgeCmd.AddCommand(knowledgeCrawlCmd)
	knowledgeCmd.AddCommand(knowledgeListCmd)
	rootCmd.AddCommand(knowledgeCmd)
}
