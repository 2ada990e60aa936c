package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/models"
)

type column int

const (
	columnURL column = iota
	columnFileName
	columnClassification
	columnType
	columnCategory
	columnGoodBadExample
	columnRemarks
)

// headerAliases maps lower-cased header cells to columns
var headerAliases = map[string]column{
	"url":            columnURL,
	"link":           columnURL,
	"filename":       columnFileName,
	"file name":      columnFileName,
	"file_name":      columnFileName,
	"ファイル名":          columnFileName,
	"classification": columnClassification,
	"分類":             columnClassification,
	"type":           columnType,
	"種類":             columnType,
	"category":       columnCategory,
	"カテゴリ":           columnCategory,
	"カテゴリー":          columnCategory,
	"goodbadexample": columnGoodBadExample,
	"good/bad":       columnGoodBadExample,
	"good_bad":       columnGoodBadExample,
	"良い例/悪い例":        columnGoodBadExample,
	"remarks":        columnRemarks,
	"notes":          columnRemarks,
	"備考":             columnRemarks,
}

// SheetLister reads the content source list from a Google Sheet.
// The first row of the range is the header.
type SheetLister struct {
	values        SheetValues
	spreadsheetID string
	readRange     string
	logger        arbor.ILogger
}

// NewSheetLister creates a lister for spreadsheetID!readRange
func NewSheetLister(values SheetValues, spreadsheetID, readRange string, logger arbor.ILogger) *SheetLister {
	return &SheetLister{
		values:        values,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
		logger:        logger,
	}
}

// ListSources implements interfaces.ContentSourceLister
func (l *SheetLister) ListSources(ctx context.Context) ([]models.SourceDescriptor, error) {
	if l.spreadsheetID == "" {
		return nil, fmt.Errorf("no source spreadsheet configured")
	}
	if l.values == nil {
		return nil, fmt.Errorf("google sheets is not configured")
	}

	rows, err := l.values.GetValues(ctx, l.spreadsheetID, l.readRange)
	if err != nil {
		return nil, err
	}

	sources, skipped, err := ParseSourceRows(rows)
	if err != nil {
		return nil, err
	}

	l.logger.Info().
		Str("sheet", l.spreadsheetID).
		Int("rows", len(rows)).
		Int("sources", len(sources)).
		Int("skipped", skipped).
		Msg("Content source list loaded")

	return sources, nil
}

// ParseSourceRows converts raw sheet rows into descriptors. Rows without a url are skipped.
func ParseSourceRows(rows [][]interface{}) ([]models.SourceDescriptor, int, error) {
	if len(rows) == 0 {
		return nil, 0, nil
	}

	columns := make(map[column]int)
	for i, cell := range rows[0] {
		header := strings.ToLower(strings.TrimSpace(fmt.Sprint(cell)))
		if col, ok := headerAliases[header]; ok {
			if _, seen := columns[col]; !seen {
				columns[col] = i
			}
		}
	}
	if _, ok := columns[columnURL]; !ok {
		return nil, 0, fmt.Errorf("source sheet header has no url column")
	}

	var sources []models.SourceDescriptor
	skipped := 0
	for _, row := range rows[1:] {
		cell := func(col column) string {
			i, ok := columns[col]
			if !ok || i >= len(row) || row[i] == nil {
				return ""
			}
			return strings.TrimSpace(fmt.Sprint(row[i]))
		}

		src := models.SourceDescriptor{
			URL:            cell(columnURL),
			FileName:       cell(columnFileName),
			Classification: cell(columnClassification),
			Type:           cell(columnType),
			Category:       cell(columnCategory),
			GoodBadExample: cell(columnGoodBadExample),
			Remarks:        cell(columnRemarks),
		}
		if src.URL == "" {
			skipped++
			continue
		}
		sources = append(sources, src)
	}

	return sources, skipped, nil
}
