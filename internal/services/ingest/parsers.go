package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mcoot/pokerstats/internal/model"
)

// Table is raw tabular input: a header row followed by data rows.
// Cells are untrimmed and rows may be ragged.
type Table struct {
	Header []string
	Rows   [][]string
}

// Parser reads an uploaded document into a Table
type Parser interface {
	Parse(data []byte) (*Table, error)
}

// ParserFactory selects a parser for an upload
type ParserFactory interface {
	GetParser(filename, contentType string) (Parser, error)
}

// Factory creates the appropriate parser based on file extension or content type
type Factory struct{}

// NewFactory creates a new parser factory
func NewFactory() *Factory {
	return &Factory{}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GetParser returns the parser for the given filename, falling back to the
// content type when the name has no recognized extension. Uploads with
// neither default to CSV.
func (f *Factory) GetParser(filename, contentType string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return NewCSVParser(), nil
	case ".xlsx":
		return NewXLSXParser(), nil
	case "":
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", model.ErrParseFailure, filepath.Ext(filename))
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return NewCSVParser(), nil
	}
	switch mediaType {
	case xlsxContentType:
		return NewXLSXParser(), nil
	default:
		return NewCSVParser(), nil
	}
}

// CSVParser parses comma-separated text
type CSVParser struct{}

// NewCSVParser creates a new CSV parser
func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func (p *CSVParser) Parse(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty input", model.ErrParseFailure)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", model.ErrParseFailure, err)
	}

	table := &Table{Header: header}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrParseFailure, err)
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}

// XLSXParser parses the first sheet of an Excel workbook
type XLSXParser struct{}

// NewXLSXParser creates a new XLSX parser
func NewXLSXParser() *XLSXParser {
	return &XLSXParser{}
}

func (p *XLSXParser) Parse(data []byte) (*Table, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", model.ErrParseFailure)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open XLSX file: %v", model.ErrParseFailure, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: XLSX file has no sheets", model.ErrParseFailure)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %v", model.ErrParseFailure, sheets[0], err)
	}

	// Leading empty rows are not a header
	for len(rows) > 0 && isBlank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", model.ErrParseFailure, sheets[0])
	}

	return &Table{Header: rows[0], Rows: rows[1:]}, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
