package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/gitcord/internal/usecase"
)

var linkCmd = &cobra.Command{
	Use:   "link <github-user> <discord-id>",
	Short: "Link a GitHub account to a Discord user",
	Long: `Links a GitHub account to a Discord user after checking that the GitHub
profile lists https://discord.com/users/<discord-id> among its social accounts.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := loadStore()
		if err != nil {
			return err
		}
		defer db.Close()

		resolver, _, err := newResolver(cfg, db, logger)
		if err != nil {
			return err
		}
		commands := usecase.NewCommands(usecase.NewRegistry(db), resolver, db)
		outcome, err := commands.LinkIdentity(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", args[0], args[1], outcome)
		if outcome == usecase.OutcomeUnverified {
			fmt.Fprintf(cmd.ErrOrStderr(), "add %s%s to the social accounts of github.com/%s and retry\n",
				usecase.ProfileURLPrefix, args[1], args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(linkCmd)
}
