package main

import (
	"context"
	"fmt"
	"os"
	"time"

	config "github.com/legendaryias/ias_mentor/configs"
	"github.com/legendaryias/ias_mentor/database"
	"github.com/legendaryias/ias_mentor/services"
	"github.com/legendaryias/ias_mentor/store"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "mentorctl",
		Short:   "Operations for the Legendary IAS Mentor payments API",
		Version: Version,
	}

	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL DSN (defaults to DATABASE_URL)")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedAdminCmd())
	rootCmd.AddCommand(duplicatesCmd())
	rootCmd.AddCommand(expireCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func databaseURL(cmd *cobra.Command) string {
	if dsn, _ := cmd.Flags().GetString("database-url"); dsn != "" {
		return dsn
	}
	return config.Config("DATABASE_URL")
}

func openStore(cmd *cobra.Command) (store.Store, error) {
	return database.OpenStore("postgres", databaseURL(cmd))
}

func paymentService(st store.Store) *services.PaymentService {
	events := services.NewEventPublisher(config.Config("KAFKA_BROKERS"), config.Get("KAFKA_TOPIC", "payments"))
	return services.NewPaymentService(st, services.NewAccessService(st), events, nil)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.ConnectDB(databaseURL(cmd))
			if err != nil {
				return err
			}
			return database.Migrate(db)
		},
	}
}

func seedAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the admin account from ADMIN_EMAIL and ADMIN_PASSWORD",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			return database.SeedAdmin(cmd.Context(), st)
		},
	}
}

func duplicatesCmd() *cobra.Command {
	var cleanup bool
	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "List duplicate pending payments, optionally removing all but the oldest",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			svc := paymentService(st)

			groups, err := svc.DuplicateGroups(cmd.Context())
			if err != nil {
				return err
			}
			for _, g := range groups {
				fmt.Printf("%s / %s (%s): keep %s, %d duplicate(s)\n",
					g.UserID, g.ProductID, g.ProductCategory, g.Payments[0].ID, len(g.Payments)-1)
			}
			if !cleanup {
				fmt.Printf("%d duplicate group(s)\n", len(groups))
				return nil
			}

			removed, err := svc.CleanupDuplicates(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d duplicate pending payment(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&cleanup, "cleanup", false, "delete every duplicate except the oldest of each group")
	return cmd
}

func expireCmd() *cobra.Command {
	var hours int
	cmd := &cobra.Command{
		Use:   "expire",
		Short: "Expire pending payments older than --hours",
		RunE: func(cmd *cobra.Command, args []string) error {
			if hours <= 0 {
				return fmt.Errorf("--hours must be positive")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			n, err := paymentService(st).ExpireStale(ctx, time.Duration(hours)*time.Hour)
			if err != nil {
				return err
			}
			fmt.Printf("Expired %d pending payment(s)\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&hours, "hours", config.GetInt("PAYMENT_EXPIRY_HOURS", 72), "age after which a pending payment expires")
	return cmd
}
