package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "zonedash",
	Short: "Terminal dashboard for your Zone01 profile",
	Long:  "zonedash signs in to the Zone01 platform and shows your XP, level, rank, skills, audits and projects in the terminal.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (overrides ZONEDASH_CONFIG)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides ZONEDASH_DB and the config file)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
