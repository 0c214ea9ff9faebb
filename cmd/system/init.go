package system

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcare-vn/evcare_backend/config"
	"github.com/evcare-vn/evcare_backend/internal/store"
	"github.com/evcare-vn/evcare_backend/pkg/mongodb"
)

func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the document-store indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			client, err := mongodb.Connect(cfg.Mongo)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			fmt.Println("Creating indexes...")
			if err := store.EnsureIndexes(ctx, mongodb.Database(client, cfg.Mongo)); err != nil {
				return fmt.Errorf("failed to create indexes: %w", err)
			}
			fmt.Println("Indexes created successfully.")
			return nil
		},
	}

	return cmd
}
