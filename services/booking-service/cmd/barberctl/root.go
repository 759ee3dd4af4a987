package main

import (
	"context"
	"log/slog"

	"github.com/md-rashed-zaman/barberbook/libs/config"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/libs/runtime"
	"github.com/spf13/cobra"
)

func newRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "barberctl",
		Short:         "Operate the barbershop booking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newSlotsCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newSweepCmd())
	cmd.AddCommand(newGenKeyCmd())
	return cmd
}

// env is what every database-backed command needs.
type env struct {
	pool   *db.Pool
	logger *slog.Logger
}

func openEnv(ctx context.Context) (*env, error) {
	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	pool, err := db.Open(ctx, dbURL, db.Options{MaxConns: 2})
	if err != nil {
		return nil, err
	}
	return &env{pool: pool, logger: runtime.NewLogger("barberctl")}, nil
}

func (e *env) Close() {
	e.pool.Close()
}
