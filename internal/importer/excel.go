package importer

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExcelReader decodes the first sheet of an XLSX workbook into raw records
// using excelize's streaming row iterator, so large workbooks are not
// materialized as a whole. The first row is consumed as the header.
type ExcelReader struct {
	f       *excelize.File
	rows    *excelize.Rows
	headers []string
}

// NewExcelReader opens the workbook and positions the iterator past the
// header row. Callers must Close the reader when done.
func NewExcelReader(r io.Reader) (*ExcelReader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, ErrEmptyFile
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		f.Close()
		return nil, &DecodeError{Err: err}
	}

	if !rows.Next() {
		err := rows.Error()
		rows.Close()
		f.Close()
		if err != nil {
			return nil, &DecodeError{Err: err}
		}
		return nil, ErrEmptyFile
	}

	header, err := rows.Columns()
	if err != nil {
		rows.Close()
		f.Close()
		return nil, &DecodeError{Err: err}
	}

	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
	}

	return &ExcelReader{f: f, rows: rows, headers: headers}, nil
}

// Headers returns the column names declared by the header row.
func (d *ExcelReader) Headers() []string { return d.headers }

// Next returns the next data row, or io.EOF once the sheet is exhausted.
func (d *ExcelReader) Next() (RawRecord, error) {
	if !d.rows.Next() {
		if err := d.rows.Error(); err != nil {
			return nil, &DecodeError{Err: err}
		}
		return nil, io.EOF
	}

	cols, err := d.rows.Columns()
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	rec := make(RawRecord, len(d.headers))
	for i, h := range d.headers {
		if i < len(cols) {
			rec[h] = cols[i]
		} else {
			rec[h] = ""
		}
	}
	return rec, nil
}

// Close releases the row iterator and the underlying workbook.
func (d *ExcelReader) Close() error {
	d.rows.Close()
	return d.f.Close()
}
