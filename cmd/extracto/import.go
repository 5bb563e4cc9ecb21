package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/extracto/internal/hashstore"
	"github.com/Veraticus/extracto/internal/importer"
	"github.com/Veraticus/extracto/internal/model"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// maxErrorLines bounds how many failing rows the summary lists verbatim.
const maxErrorLines = 5

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a bank statement into Firefly III",
		Long: `Import a bank statement export into Firefly III.

The issuing bank is detected from the file's content and name. Rows already
imported (for this user, within the dedup retention window) are counted as
duplicates and skipped, so re-uploading the same statement is safe.

Examples:
  # Import a CaixaBank export
  extracto import ~/Downloads/movimientos-caixabank.xlsx

  # Preview without touching the ledger
  extracto import --dry-run ~/Downloads/Movimientos.csv`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("user", "cli", "user identity used for duplicate detection")
	cmd.Flags().BoolP("dry-run", "d", false, "preview the import without creating anything")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	chatID, _ := cmd.Flags().GetString("user")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	cfg, err := importerConfig()
	if err != nil {
		return err
	}
	cfg.DryRun = dryRun

	ledger, err := fireflyFromConfig()
	if err != nil {
		return err
	}

	dbPath, err := hashStorePath()
	if err != nil {
		return err
	}
	store, err := hashstore.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open hash store: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()

	if !dryRun {
		if err := ledger.Ping(ctx); err != nil {
			return fmt.Errorf("ledger check failed: %w", err)
		}
	}

	// Drive a progress bar from the importer's per-row callback; the bar is
	// created lazily because the row count is only known after parsing.
	var bar *progressbar.ProgressBar
	cfg.OnProgress = func(processed, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("importing rows"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(processed)
	}

	imp, err := importer.New(ledger, store, cfg)
	if err != nil {
		return err
	}

	result, err := imp.Import(ctx, data, filepath.Base(filePath), chatID)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Println(renderSummary(result, dryRun))
	return nil
}

func renderSummary(result *model.ImportResult, dryRun bool) string {
	title := fmt.Sprintf("📄 %s import", result.DisplayName)
	if dryRun {
		title += " (dry run)"
	}

	out := titleStyle.Render(title) + "\n"
	out += subtleStyle.Render(fmt.Sprintf("detection confidence: %s", result.Confidence)) + "\n"
	out += successStyle.Render(fmt.Sprintf("  created:    %d", result.Created)) + "\n"
	out += fmt.Sprintf("  duplicates: %d\n", result.Duplicates)
	if result.Skipped > 0 {
		out += subtleStyle.Render(fmt.Sprintf("  skipped:    %d malformed row(s)", result.Skipped)) + "\n"
	}
	out += fmt.Sprintf("  total:      %d\n", result.Total)

	if len(result.Errors) > 0 {
		out += errorStyle.Render(fmt.Sprintf("  errors:     %d", len(result.Errors))) + "\n"
		for i, rowErr := range result.Errors {
			if i == maxErrorLines {
				out += warningStyle.Render(fmt.Sprintf("    … +%d more", len(result.Errors)-maxErrorLines)) + "\n"
				break
			}
			out += warningStyle.Render(fmt.Sprintf("    row %d (%s): %s", rowErr.Row, rowErr.Description, rowErr.Err)) + "\n"
		}
	}

	return out
}
