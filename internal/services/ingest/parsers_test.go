package ingest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"

	"github.com/mcoot/pokerstats/internal/model"
)

type ParsersSuite struct {
	suite.Suite
	factory *Factory
}

func TestParsersSuite(t *testing.T) {
	suite.Run(t, new(ParsersSuite))
}

func (s *ParsersSuite) SetupTest() {
	s.factory = NewFactory()
}

// buildWorkbook writes rows to the first sheet of a new workbook
func buildWorkbook(rows ...[]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ParsersSuite) TestFactorySelection() {
	cases := []struct {
		filename    string
		contentType string
		want        any
	}{
		{"stats.csv", "", &CSVParser{}},
		{"STATS.CSV", "application/octet-stream", &CSVParser{}},
		{"export.xlsx", "", &XLSXParser{}},
		{"upload", xlsxContentType, &XLSXParser{}},
		{"upload", "text/csv; charset=utf-8", &CSVParser{}},
		{"", "", &CSVParser{}},
	}
	for _, tc := range cases {
		parser, err := s.factory.GetParser(tc.filename, tc.contentType)
		s.Require().NoError(err, tc.filename)
		s.IsType(tc.want, parser, fmt.Sprintf("%s / %s", tc.filename, tc.contentType))
	}
}

func (s *ParsersSuite) TestFactoryRejectsUnknownExtension() {
	_, err := s.factory.GetParser("notes.pdf", "application/pdf")
	s.ErrorIs(err, model.ErrParseFailure)
}

func (s *ParsersSuite) TestCSVParse() {
	table, err := NewCSVParser().Parse([]byte("username,vpip\n\"o'brien, jr\",12\nx,\"3\"\n"))
	s.Require().NoError(err)
	s.Equal([]string{"username", "vpip"}, table.Header)
	s.Require().Len(table.Rows, 2)
	s.Equal("o'brien, jr", table.Rows[0][0])
}

func (s *ParsersSuite) TestCSVRaggedRowsAllowed() {
	table, err := NewCSVParser().Parse([]byte("username,vpip,pfr\na\nb,1,2,3\n"))
	s.Require().NoError(err)
	s.Len(table.Rows[0], 1)
	s.Len(table.Rows[1], 4)
}

func (s *ParsersSuite) TestCSVEmptyInput() {
	for _, in := range []string{"", "   \n\n", "\ufeff"} {
		_, err := NewCSVParser().Parse([]byte(in))
		s.ErrorIs(err, model.ErrParseFailure, "%q", in)
	}
}

func (s *ParsersSuite) TestXLSXParse() {
	data, err := buildWorkbook(
		[]any{"username", "vpip", "pfr"},
		[]any{"alice", 25.5, "18.2%"},
		[]any{},
		[]any{"bob", 30, nil},
	)
	s.Require().NoError(err)

	table, err := NewXLSXParser().Parse(data)
	s.Require().NoError(err)
	s.Equal([]string{"username", "vpip", "pfr"}, table.Header)

	batch, err := Normalize(table)
	s.Require().NoError(err)
	s.Equal(2, batch.Len())

	var names []string
	for rec := range batch.Records() {
		names = append(names, rec.Username)
		s.Require().NotNil(rec.Fields.Get("vpip"))
	}
	s.Equal([]string{"alice", "bob"}, names)
}

func (s *ParsersSuite) TestXLSXInvalid() {
	_, err := NewXLSXParser().Parse([]byte("definitely not a zip"))
	s.ErrorIs(err, model.ErrParseFailure)

	_, err = NewXLSXParser().Parse(nil)
	s.ErrorIs(err, model.ErrParseFailure)

	empty, err := buildWorkbook()
	s.Require().NoError(err)
	_, err = NewXLSXParser().Parse(empty)
	s.ErrorIs(err, model.ErrParseFailure)
}
