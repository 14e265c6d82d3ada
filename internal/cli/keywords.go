package cli

import (
	"fmt"

	"github.com/ppiankov/tenderwatch/internal/keywords"
	"github.com/spf13/cobra"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Print the effective keyword list",
	Long: `Print the keywords notices are matched against and where they came from.
When the keyword file is missing the built-in list is used.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}
		if keywordsPath != "" {
			cfg.Keywords.Path = keywordsPath
		}

		set := keywords.Load(cfg.Keywords.Path)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %d keywords (%s, %s)\n", set.Len(), set.Origin(), cfg.Keywords.Path)
		for _, w := range set.Words() {
			fmt.Fprintln(out, w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keywordsCmd)
	keywordsCmd.Flags().StringVar(&keywordsPath, "keywords", "", "keyword file path (overrides keywords.path)")
}
