package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/gitcord/internal/usecase"
)

var maintainerCmd = &cobra.Command{
	Use:   "maintainer",
	Short: "Manage the maintainers of a linked repository",
}

var maintainerAddCmd = &cobra.Command{
	Use:   "add <discord-id> <url>",
	Short: "Register a Discord user as maintainer of a repository",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMaintainerCommand(cmd, args, (*usecase.Commands).AddMaintainer)
	},
}

var maintainerRemoveCmd = &cobra.Command{
	Use:   "remove <discord-id> <url>",
	Short: "Remove a maintainer from a repository",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMaintainerCommand(cmd, args, (*usecase.Commands).RemoveMaintainer)
	},
}

type maintainerOp func(c *usecase.Commands, ctx context.Context, chatID, url string) (usecase.Outcome, error)

func runMaintainerCommand(cmd *cobra.Command, args []string, op maintainerOp) error {
	_, db, err := loadStore()
	if err != nil {
		return err
	}
	defer db.Close()

	commands := usecase.NewCommands(usecase.NewRegistry(db), nil, db)
	outcome, err := op(commands, cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", args[0], args[1], outcome)
	return nil
}

func init() {
	rootCmd.AddCommand(maintainerCmd)
	maintainerCmd.AddCommand(maintainerAddCmd, maintainerRemoveCmd)
}
