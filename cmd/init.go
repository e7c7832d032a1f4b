package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/parksync/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize parksync configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to connect your site and generates a .parksync.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
