package workflow

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ExcelRowSource streams rows from one sheet of an xlsx file without loading
// the whole sheet into memory.
type ExcelRowSource struct {
	file *excelize.File
	rows *excelize.Rows
}

// NewExcelRowSource opens the workbook from r. An empty sheet name selects
// the first sheet.
func NewExcelRowSource(r io.Reader, sheet string) (*ExcelRowSource, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %v", err)
	}
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		f.Close()
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read sheet %q: %v", sheet, err)
	}
	return &ExcelRowSource{file: f, rows: rows}, nil
}

func (s *ExcelRowSource) Next() ([]string, bool, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	cols, err := s.rows.Columns()
	if err != nil {
		return nil, false, err
	}
	return cols, true, nil
}

func (s *ExcelRowSource) Close() error {
	if err := s.rows.Close(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
