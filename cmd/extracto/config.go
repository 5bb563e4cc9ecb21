package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/extracto/internal/common"
	"github.com/Veraticus/extracto/internal/firefly"
	"github.com/Veraticus/extracto/internal/importer"
	"github.com/Veraticus/extracto/internal/model"
	"github.com/spf13/viper"
)

// hashStorePath resolves the sqlite database location for import hashes.
func hashStorePath() (string, error) {
	if path := viper.GetString("database.path"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "extracto", "hashes.db"), nil
}

// fireflyFromConfig builds the ledger client from configuration.
func fireflyFromConfig() (*firefly.Client, error) {
	url := viper.GetString("firefly.url")
	if url == "" {
		return nil, fmt.Errorf("%w: firefly.url is not set", common.ErrMissingConfig)
	}
	token := viper.GetString("firefly.token")
	if token == "" {
		return nil, fmt.Errorf("%w: firefly.token is not set", common.ErrMissingConfig)
	}
	return firefly.NewClient(url, token), nil
}

// importerConfig assembles the importer configuration, including the
// bank → ledger account mapping, from viper keys like accounts.caixabank.
func importerConfig() (importer.Config, error) {
	accounts := make(map[model.Bank]string, len(model.Banks()))
	for _, bank := range model.Banks() {
		if id := viper.GetString("accounts." + string(bank)); id != "" {
			accounts[bank] = id
		}
	}
	if len(accounts) == 0 {
		return importer.Config{}, fmt.Errorf("%w: no accounts.<bank> entries configured", common.ErrMissingConfig)
	}

	cfg := importer.Config{
		Accounts:  accounts,
		ImportTag: viper.GetString("import.tag"),
	}
	if days := viper.GetInt("import.ttl_days"); days > 0 {
		cfg.HashTTL = time.Duration(days) * 24 * time.Hour
	}
	return cfg, nil
}
