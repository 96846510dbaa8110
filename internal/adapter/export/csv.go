package export

import (
	"context"
	"encoding/csv"
	"io"
)

// CSVSink implements usecase.RowSink by writing the table as CSV to an
// io.Writer.
type CSVSink struct {
	w io.Writer
}

// NewCSVSink creates a new CSVSink.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: w}
}

// WriteTable writes the header followed by every row.
func (s *CSVSink) WriteTable(ctx context.Context, header []string, rows [][]string) error {
	cw := csv.NewWriter(s.w)

	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}
