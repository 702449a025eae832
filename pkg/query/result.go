package query

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// OutputFormat selects how a Result is rendered.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatCSV   OutputFormat = "csv"
)

// Result is a list of hits ready for display.
type Result struct {
	Query string `json:"query"`
	Hits  []Hit  `json:"hits"`
}

// Collect drains a traversal into a Result, stopping at the first error.
func Collect(name string, seq iter.Seq2[Hit, error]) (*Result, error) {
	result := &Result{Query: name}
	for hit, err := range seq {
		if err != nil {
			return nil, err
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}

// Format renders the result in the given format.
func (r *Result) Format(format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return r.FormatJSON()
	case FormatCSV:
		return r.FormatCSV()
	case FormatTable:
		return r.FormatTable(), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

var resultColumns = []string{"depth", "uri", "label", "via"}

func (h Hit) row() []string {
	return []string{strconv.Itoa(h.Depth), h.URI, h.Label, h.Via}
}

// FormatTable renders the hits as an ASCII table.
func (r *Result) FormatTable() string {
	if len(r.Hits) == 0 {
		return "No results (0 rows)\n"
	}

	widths := make([]int, len(resultColumns))
	for i, column := range resultColumns {
		widths[i] = len(column)
	}
	for _, hit := range r.Hits {
		for i, value := range hit.row() {
			widths[i] = max(widths[i], len(value))
		}
	}

	var sep strings.Builder
	sep.WriteString("+")
	for _, w := range widths {
		sep.WriteString(strings.Repeat("-", w+2))
		sep.WriteString("+")
	}
	sep.WriteString("\n")

	var sb strings.Builder
	sb.WriteString(sep.String())
	writeRow := func(values []string) {
		sb.WriteString("|")
		for i, value := range values {
			sb.WriteString(fmt.Sprintf(" %-*s |", widths[i], value))
		}
		sb.WriteString("\n")
	}
	writeRow(resultColumns)
	sb.WriteString(sep.String())
	for _, hit := range r.Hits {
		writeRow(hit.row())
	}
	sb.WriteString(sep.String())

	sb.WriteString(fmt.Sprintf("%d rows\n", len(r.Hits)))
	return sb.String()
}

// FormatJSON renders the result as indented JSON.
func (r *Result) FormatJSON() (string, error) {
	type jsonResult struct {
		Query string `json:"query"`
		Hits  []Hit  `json:"hits"`
		Count int    `json:"count"`
	}

	hits := r.Hits
	if hits == nil {
		hits = []Hit{}
	}
	data, err := json.MarshalIndent(jsonResult{Query: r.Query, Hits: hits, Count: len(r.Hits)}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatCSV renders the hits as CSV with a header row.
func (r *Result) FormatCSV() (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	if err := writer.Write(resultColumns); err != nil {
		return "", err
	}
	for _, hit := range r.Hits {
		if err := writer.Write(hit.row()); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
