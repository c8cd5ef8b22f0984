package importer

import (
	"encoding/csv"
	"io"
	"strings"
)

// RowReader is a lazy, finite, non-restartable producer of raw records in
// file order. Next returns io.EOF once the input is exhausted; any other
// error is terminal for the whole sequence.
type RowReader interface {
	Next() (RawRecord, error)
}

// CSVReader decodes delimited text into raw records, one row at a time.
// The first line is consumed as the header and is never emitted as a
// record. Rows are pulled on demand so memory stays bounded by one row
// regardless of file size.
type CSVReader struct {
	r       *csv.Reader
	headers []string
}

// NewCSVReader wraps r with BOM skipping and UTF-8 sanitization and reads
// the header line. A zero-byte input yields ErrEmptyFile; a structurally
// broken header yields a DecodeError.
func NewCSVReader(r io.Reader) (*CSVReader, error) {
	cr := csv.NewReader(wrapReader(r))
	// Rows with a different column count than the header are a data
	// problem, not a framing problem; the validator reports them per row.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
	}

	return &CSVReader{r: cr, headers: headers}, nil
}

// Headers returns the column names declared by the header line.
func (d *CSVReader) Headers() []string { return d.headers }

// Next returns the next data row. Quoting or encoding failures surface as
// a DecodeError, aborting the sequence: once framing is lost the position
// of subsequent rows cannot be trusted.
func (d *CSVReader) Next() (RawRecord, error) {
	row, err := d.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	rec := make(RawRecord, len(d.headers))
	for i, h := range d.headers {
		if i < len(row) {
			rec[h] = row[i]
		} else {
			rec[h] = ""
		}
	}
	return rec, nil
}
