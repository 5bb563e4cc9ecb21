// Package detect identifies which bank produced a statement file.
//
// Content-based detection is preferred because filenames are user-controlled
// and unreliable; filename heuristics exist only to rescue files whose
// content markers miss (unusual export variants).
package detect

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Veraticus/extracto/internal/model"
	"github.com/Veraticus/extracto/internal/sheet"
)

// Dimensions of the spreadsheet region inspected for markers: rows 1-10,
// columns A-J.
const (
	scanRows = 10
	scanCols = 10
	csvLines = 5
)

// Content markers. Each one is a fragment a bank reliably includes in its
// own exports.
const (
	markerImaginHeader = "Concepto;Fecha;Importe"
	markerCaixaBank    = "CaixaBank"
	markerSabadell     = "Sabadell"
	markerSabadellCol  = "F. Operativa"
)

// Detect inspects a file's extension and content and returns the issuing
// bank with a confidence level, or ok=false when no bank is recognized.
// It never fails: unreadable content simply falls through to the filename
// heuristics.
func Detect(data []byte, fileName string) (model.Detection, bool) {
	ext := strings.ToLower(filepath.Ext(fileName))

	switch ext {
	case ".csv":
		if d, ok := detectCSV(data); ok {
			return d, true
		}
	case ".xlsx", ".xls":
		if d, ok := detectSpreadsheet(data, fileName); ok {
			return d, true
		}
	}

	return detectFilename(fileName)
}

// detectCSV matches bank literals against the first few lines of the file.
func detectCSV(data []byte) (model.Detection, bool) {
	lines := strings.Split(string(data), "\n")
	if len(lines) > csvLines {
		lines = lines[:csvLines]
	}
	head := strings.Join(lines, "\n")

	switch {
	case strings.Contains(head, markerImaginHeader):
		return model.Detection{Bank: model.BankImaginBank, Confidence: model.ConfidenceHigh}, true
	case strings.Contains(head, markerCaixaBank):
		return model.Detection{Bank: model.BankCaixaBank, Confidence: model.ConfidenceHigh}, true
	}
	return model.Detection{}, false
}

// detectSpreadsheet matches bank literals against the top-left cell region
// of the first worksheet, including the sheet's own name.
func detectSpreadsheet(data []byte, fileName string) (model.Detection, bool) {
	s, err := sheet.Read(data, fileName)
	if err != nil {
		slog.Debug("unreadable spreadsheet during detection", "file", fileName, "error", err)
		return model.Detection{}, false
	}

	var sb strings.Builder
	sb.WriteString(s.Name)
	for _, row := range s.Grid(scanRows, scanCols) {
		for _, cell := range row {
			sb.WriteString(" ")
			sb.WriteString(cell)
		}
	}
	content := sb.String()

	switch {
	case strings.Contains(content, markerCaixaBank):
		return model.Detection{Bank: model.BankCaixaBank, Confidence: model.ConfidenceHigh}, true
	case strings.Contains(content, markerSabadell), strings.Contains(content, markerSabadellCol):
		return model.Detection{Bank: model.BankSabadell, Confidence: model.ConfidenceHigh}, true
	}

	// Content markers missed; a "movimientos" export named after the bank is
	// still a decent signal.
	name := strings.ToLower(filepath.Base(fileName))
	if strings.Contains(name, "movimientos") {
		if bank, ok := bankFromName(name); ok {
			return model.Detection{Bank: bank, Confidence: model.ConfidenceMedium}, true
		}
	}

	return model.Detection{}, false
}

// detectFilename is the last-resort heuristic for any extension.
func detectFilename(fileName string) (model.Detection, bool) {
	name := strings.ToLower(filepath.Base(fileName))
	if bank, ok := bankFromName(name); ok {
		return model.Detection{Bank: bank, Confidence: model.ConfidenceMedium}, true
	}
	return model.Detection{}, false
}

func bankFromName(lowerName string) (model.Bank, bool) {
	switch {
	case strings.Contains(lowerName, "imagin"):
		return model.BankImaginBank, true
	case strings.Contains(lowerName, "sabadell"):
		return model.BankSabadell, true
	case strings.Contains(lowerName, "caixa"):
		return model.BankCaixaBank, true
	}
	return "", false
}
