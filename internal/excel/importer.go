package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/learntrack/internal/database"
	"github.com/example/learntrack/pkg/models"
)

// ImportConfig defines where catalog fields live in the file
type ImportConfig struct {
	FilePath          string // path to the .xlsx or .csv file
	CourseID          string // course the outcomes belong to
	OutcomeIDColumn   string // column with the outcome code
	TitleColumn       string // column with the short title
	StrandColumn      string // column with the strand, may be empty
	DescriptionColumn string // column with the long description, may be empty
	SheetName         string // name of the sheet to import
	StartRow          int    // the row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		OutcomeIDColumn:   "A",
		TitleColumn:       "B",
		StrandColumn:      "C",
		DescriptionColumn: "D",
		SheetName:         "Sheet1",
		StartRow:          2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// ImportOutcomes imports a course catalog from an Excel or CSV file
func ImportOutcomes(ctx context.Context, store database.OutcomeStore, config ImportConfig) (*ImportResult, error) {
	if config.CourseID == "" {
		return nil, errors.New("course id is required")
	}

	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return importFromCSV(ctx, store, config)
	}
	return importFromExcel(ctx, store, config)
}

// importFromExcel imports outcomes from an Excel workbook
func importFromExcel(ctx context.Context, store database.OutcomeStore, config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", config.SheetName, err)
	}

	imp, err := newImport(ctx, store, config)
	if err != nil {
		return nil, err
	}

	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		imp.addRow(extractRow(row, config), i+1)
	}

	return imp.flush(ctx)
}

// importFromCSV imports outcomes from a CSV file
func importFromCSV(ctx context.Context, store database.OutcomeStore, config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true    // Allow lazy quotes for hand-edited exports

	imp, err := newImport(ctx, store, config)
	if err != nil {
		return nil, err
	}

	rowNum := 0
	currentStrand := ""

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		rowNum++

		// Skip header rows
		if rowNum < config.StartRow {
			continue
		}

		// Curriculum exports group rows under strand headings like
		// "Number and Algebra,,". Rows below inherit the strand until
		// the next heading.
		if isStrandHeader(row) {
			currentStrand = strings.TrimSpace(row[0])
			continue
		}

		d := extractRow(row, config)
		if d.strand == "" {
			d.strand = currentStrand
		}
		imp.addRow(d, rowNum)
	}

	return imp.flush(ctx)
}

// rowData is one catalog row pulled out of a sheet
type rowData struct {
	outcomeID   string
	title       string
	strand      string
	description string
}

// extractRow reads the configured columns out of a raw row
func extractRow(row []string, config ImportConfig) rowData {
	return rowData{
		outcomeID:   cellValue(row, config.OutcomeIDColumn),
		title:       cellValue(row, config.TitleColumn),
		strand:      cellValue(row, config.StrandColumn),
		description: cellValue(row, config.DescriptionColumn),
	}
}

// cellValue returns the trimmed cell under a column letter, or "" when the
// row is too short or the column is not configured
func cellValue(row []string, column string) string {
	if column == "" {
		return ""
	}
	idx := columnToIndex(column)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// isStrandHeader reports whether a csv row is a strand heading: a first
// cell with text and nothing after it
func isStrandHeader(row []string) bool {
	if len(row) < 2 || strings.TrimSpace(row[0]) == "" {
		return false
	}
	for _, cell := range row[1:] {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// catalogImport accumulates one run's rows before writing them in a batch
type catalogImport struct {
	store    database.OutcomeStore
	config   ImportConfig
	existing map[string]models.Outcome
	seen     map[string]bool
	batch    []models.Outcome
	result   *ImportResult
	now      time.Time
	pos      int
}

func newImport(ctx context.Context, store database.OutcomeStore, config ImportConfig) (*catalogImport, error) {
	existing, err := store.ListOutcomesByCourse(ctx, config.CourseID)
	if err != nil {
		return nil, fmt.Errorf("load existing outcomes: %w", err)
	}

	catalog := make(map[string]models.Outcome, len(existing))
	for _, o := range existing {
		catalog[o.OutcomeID] = o
	}

	return &catalogImport{
		store:    store,
		config:   config,
		existing: catalog,
		seen:     make(map[string]bool),
		result:   &ImportResult{Errors: make([]string, 0)},
		now:      time.Now().UTC(),
	}, nil
}

// addRow validates a row and queues it for the batch write. Positions follow
// file order, so a re-import re-orders the catalog to match the file.
func (ci *catalogImport) addRow(d rowData, rowNum int) {
	ci.result.TotalProcessed++

	if d.outcomeID == "" && d.title == "" {
		ci.result.Skipped++
		return
	}
	if d.outcomeID == "" {
		ci.result.Errors = append(ci.result.Errors, fmt.Sprintf("Row %d: outcome id cannot be empty", rowNum))
		return
	}
	if d.title == "" {
		ci.result.Errors = append(ci.result.Errors, fmt.Sprintf("Row %d: title cannot be empty", rowNum))
		return
	}
	if ci.seen[d.outcomeID] {
		ci.result.Errors = append(ci.result.Errors, fmt.Sprintf("Row %d: duplicate outcome id %s", rowNum, d.outcomeID))
		return
	}
	ci.seen[d.outcomeID] = true

	outcome := models.Outcome{
		CourseID:    ci.config.CourseID,
		OutcomeID:   d.outcomeID,
		Title:       d.title,
		Strand:      d.strand,
		Description: d.description,
		Position:    ci.pos,
		CreatedAt:   ci.now,
		UpdatedAt:   ci.now,
	}
	if prev, ok := ci.existing[d.outcomeID]; ok {
		outcome.CreatedAt = prev.CreatedAt
		ci.result.Updated++
	} else {
		ci.result.Created++
	}
	ci.pos++
	ci.batch = append(ci.batch, outcome)
}

func (ci *catalogImport) flush(ctx context.Context) (*ImportResult, error) {
	if err := ci.store.PutOutcomes(ctx, ci.batch); err != nil {
		return nil, fmt.Errorf("write outcomes: %w", err)
	}
	return ci.result, nil
}

// columnToIndex converts an Excel column letter to a 0-based index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
