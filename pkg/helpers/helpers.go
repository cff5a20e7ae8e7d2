package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/filippocastelli/go-omada/pkg/omada"
)

const (
	OutputText = "text"
	OutputJSON = "json"
)

// ValidateOutput checks an --output value.
func ValidateOutput(format string) error {
	switch format {
	case OutputText, OutputJSON:
		return nil
	}
	return fmt.Errorf("unsupported output format %q (expected %s or %s)", format, OutputText, OutputJSON)
}

// RenderTable writes records as an aligned table. With no columns given, every column is shown, sorted.
func RenderTable(w io.Writer, records omada.Records, columns ...string) error {
	if len(columns) == 0 {
		columns = records.Columns()
	}
	if len(columns) == 0 {
		_, err := fmt.Fprintln(w, "(none)")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = strings.ToUpper(c)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range records {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = cleanCell(r.String(c))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// RenderRecord writes a single record as FIELD VALUE lines, fields sorted.
func RenderRecord(w io.Writer, record omada.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rs := omada.Records{record}
	for _, field := range rs.Columns() {
		fmt.Fprintf(tw, "%s\t%s\n", field, cleanCell(record.String(field)))
	}
	return tw.Flush()
}

// RenderSection writes a title line followed by the rendered body.
func RenderSection(w io.Writer, title string, body func(io.Writer) error) error {
	if _, err := fmt.Fprintf(w, "== %s ==\n", title); err != nil {
		return err
	}
	if err := body(w); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// RenderJSON writes v as indented JSON.
func RenderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// cleanCell keeps a cell on one line so tabwriter columns stay aligned.
func cleanCell(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", "").Replace(s)
}
