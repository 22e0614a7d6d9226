package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/gitcord/internal/server"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll linked repositories and publish notifications until interrupted",
	Long: `Starts the sync loop, which polls every linked repository once per
sync.interval, and the status server on server.addr. Both stop on SIGINT or
SIGTERM; the repository being synced is finished first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := loadStore()
		if err != nil {
			return err
		}
		defer db.Close()

		scheduler, err := newScheduler(cfg, db, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return scheduler.Run(ctx)
		})
		if cfg.Server.Addr != "" {
			srv := server.New(cfg.Server.Addr, db, db, scheduler, logger)
			g.Go(func() error {
				return srv.Run(ctx)
			})
		} else {
			logger.Info("status server disabled")
		}

		if err := g.Wait(); err != nil {
			logger.Error("gitcord stopped", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
