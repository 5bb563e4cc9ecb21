package main

import (
	"fmt"

	"github.com/Veraticus/extracto/internal/hashstore"
	"github.com/spf13/cobra"
)

func hashesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hashes",
		Short: "Inspect and maintain the duplicate-detection hash store",
	}

	cmd.AddCommand(hashesStatsCmd())
	cmd.AddCommand(hashesPurgeCmd())

	return cmd
}

func hashesStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show hash store entry counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openHashStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			total, expired, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("entries: %d\n", total)
			if expired > 0 {
				fmt.Println(subtleStyle.Render(fmt.Sprintf("expired (purgeable): %d", expired)))
			}
			return nil
		},
	}
}

func hashesPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired hash entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openHashStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			purged, err := store.PurgeExpired(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println(successStyle.Render(fmt.Sprintf("purged %d expired entries", purged)))
			return nil
		},
	}
}

func openHashStore() (*hashstore.SQLiteStore, error) {
	dbPath, err := hashStorePath()
	if err != nil {
		return nil, err
	}
	store, err := hashstore.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open hash store: %w", err)
	}
	return store, nil
}
