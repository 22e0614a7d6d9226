package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/gitcord/internal/usecase"
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Link or unlink GitHub repositories to a Discord channel",
}

var repoAddCmd = &cobra.Command{
	Use:   "add <url>...",
	Short: "Link one or more repositories to a channel",
	Long: `Links each repository URL to the channel given by --channel. URLs may be
passed as separate arguments or separated by commas.

Example:
  gitcord repo add --channel 1234567890 https://github.com/acme/widget,https://github.com/acme/gadget`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channelID, _ := cmd.Flags().GetString("channel")
		_, db, err := loadStore()
		if err != nil {
			return err
		}
		defer db.Close()

		commands := usecase.NewCommands(usecase.NewRegistry(db), nil, db)
		outcomes, err := commands.LinkRepositories(cmd.Context(), strings.Join(args, " "), channelID)
		for _, o := range outcomes {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", o.URL, o.Outcome)
		}
		return err
	},
}

var repoRemoveCmd = &cobra.Command{
	Use:   "remove <url>",
	Short: "Unlink a repository from a channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channelID, _ := cmd.Flags().GetString("channel")
		_, db, err := loadStore()
		if err != nil {
			return err
		}
		defer db.Close()

		commands := usecase.NewCommands(usecase.NewRegistry(db), nil, db)
		outcome, err := commands.UnlinkRepository(cmd.Context(), args[0], channelID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", args[0], outcome)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(repoCmd)
	repoCmd.AddCommand(repoAddCmd, repoRemoveCmd)
	repoCmd.PersistentFlags().String("channel", "", "Discord channel ID (required)")
	repoCmd.MarkPersistentFlagRequired("channel")
}
