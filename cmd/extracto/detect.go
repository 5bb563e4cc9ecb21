package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/extracto/internal/detect"
	"github.com/Veraticus/extracto/internal/importer"
	"github.com/spf13/cobra"
)

func detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect [file]",
		Short: "Detect which bank produced a statement file",
		Long: `Detect the issuing bank of a statement file without importing it.

Useful to verify a file will be recognized before pointing an import at a
real ledger.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			detection, ok := detect.Detect(data, filepath.Base(args[0]))
			if !ok {
				fmt.Println(errorStyle.Render(
					fmt.Sprintf("no bank recognized; supported formats: %s", importer.SupportedFormats())))
				return nil
			}

			fmt.Println(successStyle.Render(fmt.Sprintf("bank: %s", detection.Bank.DisplayName())))
			fmt.Println(subtleStyle.Render(fmt.Sprintf("confidence: %s", detection.Confidence)))
			return nil
		},
	}
}
