package main

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/config"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/calsync"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/gcal"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/tokencrypt"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/migrations"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			return db.Migrate(cmd.Context(), e.pool, migrations.FS, e.logger)
		},
	}
}

func newSlotsCmd() *cobra.Command {
	var shopID, date string
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the free slots of a shop on a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			shops := storage.NewShopRepository(e.pool)
			shop, err := shops.Get(ctx, shopID)
			if err != nil {
				return fmt.Errorf("load shop: %w", err)
			}
			loc := shop.Location()
			day, next, err := availability.DayBounds(date, loc)
			if err != nil {
				return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
			}
			windows, err := shops.ListOpeningWindows(ctx, shop.ID)
			if err != nil {
				return err
			}
			booked, err := storage.NewBookingRepository(e.pool).ListBookedIntervals(ctx, shop.ID, day, next)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range availability.ForShop(day, shop, windows, booked) {
				fmt.Fprintf(out, "%s-%s\n", s.Start.In(loc).Format("15:04"), s.End.In(loc).Format("15:04"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&shopID, "shop", "", "shop id")
	cmd.Flags().StringVar(&date, "date", time.Now().Format("2006-01-02"), "date (YYYY-MM-DD) in the shop's timezone")
	_ = cmd.MarkFlagRequired("shop")
	return cmd
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-calendar <appointment-id>",
		Short: "Copy one appointment into its shop's Google Calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()
			syncer, _, err := newSyncer(e)
			if err != nil {
				return err
			}
			status, err := syncer.Sync(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func newSweepCmd() *cobra.Command {
	var lookback time.Duration
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Retry calendar sync for recent unsynced appointments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()
			syncer, bookings, err := newSyncer(e)
			if err != nil {
				return err
			}
			sweeper := calsync.NewSweeper(syncer, bookings, e.logger, calsync.SweeperConfig{Lookback: lookback, BatchSize: 100})
			n, err := sweeper.SweepOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d appointments\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&lookback, "lookback", 72*time.Hour, "how far back to look for unsynced appointments")
	return cmd
}

func newGenKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-key",
		Short: "Print a new TOKEN_ENCRYPTION_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := tokencrypt.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

func newSyncer(e *env) (*calsync.Syncer, *storage.BookingRepository, error) {
	creds := gcal.Credentials{
		ClientID:     config.String("GOOGLE_CLIENT_ID", ""),
		ClientSecret: config.String("GOOGLE_CLIENT_SECRET", ""),
		RedirectURL:  config.String("GOOGLE_REDIRECT_URI", ""),
	}
	if !creds.Configured() {
		return nil, nil, gcal.ErrNotConfigured
	}
	cipher, err := tokencrypt.FromBase64Key(config.String("TOKEN_ENCRYPTION_KEY", ""))
	if err != nil {
		return nil, nil, err
	}
	bookings := storage.NewBookingRepository(e.pool)
	client := gcal.NewClient(creds, config.String("GOOGLE_CALENDAR_ID", gcal.DefaultCalendarID), nil)
	syncer := calsync.NewSyncer(bookings, storage.NewShopRepository(e.pool), storage.NewTokenRepository(e.pool, cipher), client, e.logger)
	return syncer, bookings, nil
}
