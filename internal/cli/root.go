package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tenderwatch",
	Short: "TenderWatch - Ethiopian software/ICT tender alerts",
	Long: `TenderWatch checks public Ethiopian tender listing pages for new
software and ICT notices and emails a digest of anything it has not
seen before.

Each run fetches every configured source, keeps notices whose title
matches a keyword, drops the ones already recorded in the state file,
and sends one digest. On quiet days a single heartbeat email confirms
the watcher is still running.

It is meant to be run on a schedule (cron, CI) with one run per invocation.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tenderwatch %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(loadDotEnv)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config/config.yaml or $HOME/.tenderwatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(versionCmd)
}

// loadDotEnv copies .env.local and .env into the environment without
// overriding variables that are already set. Missing files are fine.
func loadDotEnv() {
	for _, name := range []string{".env.local", ".env"} {
		_ = godotenv.Load(name)
	}
}
