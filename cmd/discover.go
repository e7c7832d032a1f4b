package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/parksync/internal/discovery"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Probe the site's REST API and classify its content types",
	Long: `Queries the connected site's type index and groups the exposed
endpoints into community-like, home-like, and other, so you can pick
the right endpoints for syncing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		result := discovery.Discover(context.Background(), cfg.SiteURL)
		if result.Warning != "" {
			fmt.Printf("Warning: %s\n\n", result.Warning)
		}

		printGroup := func(label string, endpoints []discovery.Endpoint) {
			fmt.Printf("%s:\n", label)
			if len(endpoints) == 0 {
				fmt.Println("  (none)")
				return
			}
			for _, ep := range endpoints {
				fmt.Printf("  %-24s rest_base=%s\n", ep.DisplayName, ep.RestBase)
			}
		}
		printGroup("Community endpoints", result.CommunityEndpoints)
		fmt.Println()
		printGroup("Home endpoints", result.HomeEndpoints)
		if verbose && len(result.Other) > 0 {
			fmt.Println()
			printGroup("Other endpoints", result.Other)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}
