package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"FinSignal/internal/domain/models"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// Columns is the header shared by the table and csv formats.
var Columns = []string{
	"ticker",
	"sentiment_score", "sentiment_signal", "sentiment_conviction",
	"analyst_score", "analyst_signal", "analyst_conviction",
	"valid_period", "industry",
	"trailing_pe", "forward_pe", "analyst_target_price",
	"execution_time",
}

// WriteTable renders table in format. Errors are listed after the rows in the
// table format and included in the json document; csv carries rows only.
func WriteTable(w io.Writer, table *models.SignalTable, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	case FormatCSV:
		return writeCSV(w, table)
	case FormatTable, "":
		return writeText(w, table)
	}
	return fmt.Errorf("unknown output format %q", format)
}

func writeCSV(w io.Writer, table *models.SignalTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, row := range table.Rows {
		if err := cw.Write(record(row, "")); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeText(w io.Writer, table *models.SignalTable) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, col := range Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, col)
	}
	fmt.Fprintln(tw)
	for _, row := range table.Rows {
		for i, cell := range record(row, "-") {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(table.Errors) > 0 {
		fmt.Fprintf(w, "\n%d error(s):\n", len(table.Errors))
		for _, e := range table.Errors {
			fmt.Fprintf(w, "  %s\n", e.Error())
		}
	}
	return nil
}

// record flattens row; absent values render as blank.
func record(row models.SignalRow, blank string) []string {
	return []string{
		row.Ticker,
		float(row.SentimentScore, blank),
		direction(row.Sentiment, blank),
		conviction(row.Sentiment, blank),
		float(row.AnalystScore, blank),
		direction(row.Analyst, blank),
		conviction(row.Analyst, blank),
		integer(row.HoldingPeriod, blank),
		str(row.Industry, blank),
		float(row.TrailingPE, blank),
		float(row.ForwardPE, blank),
		float(row.AnalystTargetPrice, blank),
		row.ExecutionTime.Format(time.RFC3339),
	}
}

func float(v *float64, blank string) string {
	if v == nil {
		return blank
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func integer(v *int, blank string) string {
	if v == nil {
		return blank
	}
	return strconv.Itoa(*v)
}

func str(v *string, blank string) string {
	if v == nil || *v == "" {
		return blank
	}
	return *v
}

func direction(c *models.Classification, blank string) string {
	if c == nil {
		return blank
	}
	return string(c.Direction)
}

func conviction(c *models.Classification, blank string) string {
	if c == nil {
		return blank
	}
	return c.Conviction.Label
}
