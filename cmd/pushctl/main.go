// Command pushctl is the SholatKu push service operator CLI.
//
// Usage:
//
//	pushctl vapid generate
//	pushctl subscribers list
//	pushctl test-push
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ajekkk/sholatku-push/internal/config"
	"github.com/ajekkk/sholatku-push/internal/push"
	"github.com/ajekkk/sholatku-push/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "pushctl",
		Short: "SholatKu push service operator CLI",
	}

	root.AddCommand(vapidCmd())
	root.AddCommand(subscribersCmd())
	root.AddCommand(testPushCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// vapid command
// --------------------------------------------------------------------------

func vapidCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vapid",
		Short: "Manage VAPID keys",
	}
	cmd.AddCommand(vapidGenerateCmd())
	return cmd
}

func vapidGenerateCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate VAPID keys if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if force {
				if err := os.Remove(cfg.VAPIDKeysFile); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("remove old keys: %w", err)
				}
			}

			keys, created, err := push.LoadOrGenerateKeys(cfg.VAPIDKeysFile)
			if err != nil {
				return err
			}
			if created {
				logger.Info("VAPID keys generated", "file", cfg.VAPIDKeysFile)
				logger.Warn("All existing subscriptions must re-subscribe with the new key")
			} else {
				logger.Info("VAPID keys already exist", "file", cfg.VAPIDKeysFile)
			}
			fmt.Println(keys.PublicKey)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Replace existing keys (invalidates all subscriptions)")
	return cmd
}

// --------------------------------------------------------------------------
// subscribers command
// --------------------------------------------------------------------------

func subscribersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "Inspect stored subscriptions",
	}
	cmd.AddCommand(subscribersListCmd())
	return cmd
}

func subscribersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
				subs, err := st.ListAll(ctx)
				if err != nil {
					return err
				}
				for i, rec := range subs {
					fmt.Printf("#%d  %.60s...\n    lat=%g lng=%g prayer=%t imsak=%t created=%s\n",
						i, rec.Endpoint(), rec.Lat, rec.Lng,
						rec.NotificationsEnabled, rec.ImsakNotifEnabled,
						rec.CreatedAt.Format("2006-01-02 15:04"))
				}
				fmt.Printf("%d subscription(s)\n", len(subs))
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// test-push command
// --------------------------------------------------------------------------

func testPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-push",
		Short: "Send a test notification to every subscriber",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
				keys, _, err := push.LoadOrGenerateKeys(cfg.VAPIDKeysFile)
				if err != nil {
					return err
				}
				adapter := push.NewAdapter(st, keys, cfg.VAPIDSubject, logger)

				subs, err := st.ListAll(ctx)
				if err != nil {
					return err
				}
				logger.Info("Sending test push", "subscribers", len(subs))

				for i, rec := range subs {
					result, err := adapter.Deliver(ctx, rec,
						"🧪 Test Push SholatKu",
						"Push notification berhasil! Notif ini dikirim dari pushctl.")
					if err != nil {
						logger.Warn("Delivery failed", "sub", i, "status", result.StatusCode, "error", err)
						continue
					}
					logger.Info("Delivered", "sub", i, "status", result.StatusCode)
				}
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func withStore(fn func(ctx context.Context, cfg *config.Config, st store.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var st store.Store
	if cfg.DatabaseURL != "" {
		st, err = store.OpenPostgres(ctx, cfg.DatabaseURL)
	} else {
		st, err = store.OpenFile(cfg.DataFile)
	}
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	return fn(ctx, cfg, st)
}
