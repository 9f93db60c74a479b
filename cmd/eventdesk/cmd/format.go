package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/sanitize"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"sigs.k8s.io/yaml"
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatYAML  outputFormat = "yaml"
)

const maxCellWidth = 40

// parseFormat validates --format. An empty value picks a table on a
// terminal and JSON when output is piped.
func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case formatTable, formatJSON, formatYAML:
		return f, nil
	case "":
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			return formatTable, nil
		}
		return formatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q (must be table, json or yaml)", s)
	}
}

func printEvents(w io.Writer, format outputFormat, list []events.Event, meta *events.Meta) error {
	result := events.ListResult{Data: list, Meta: meta}
	if result.Data == nil {
		result.Data = []events.Event{}
	}

	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case formatYAML:
		out, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	}

	if len(list) == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	table := tablewriter.NewTable(w)
	table.Header("ID", "Title", "Date", "Location", "Category", "Capacity")
	for _, ev := range list {
		if err := table.Append(
			ev.ID,
			sanitize.Display(ev.Title(), maxCellWidth),
			displayDate(ev),
			sanitize.Display(ev.String("location"), maxCellWidth),
			sanitize.Display(ev.String("category"), maxCellWidth),
			fieldText(ev, "capacity"),
		); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	if meta != nil && meta.TotalPages > 0 {
		fmt.Fprintf(w, "Page %d of %d (%d events)\n", meta.Page, meta.TotalPages, meta.Total)
	}
	return nil
}

func printEvent(w io.Writer, ev events.Event) {
	fmt.Fprintf(w, "%s  %s", ev.ID, sanitize.Display(ev.Title(), 0))
	if date := displayDate(ev); date != "" {
		fmt.Fprintf(w, "  %s", date)
	}
	fmt.Fprintln(w)
}

func displayDate(ev events.Event) string {
	t, ok := ev.Date()
	if !ok {
		return sanitize.Display(ev.String("date"), maxCellWidth)
	}
	return t.Local().Format("Mon 02 Jan 2006 15:04")
}

// fieldText renders a scalar field the way the API sent it.
func fieldText(ev events.Event, key string) string {
	switch v := ev.Fields[key].(type) {
	case nil:
		return ""
	case string:
		return sanitize.Display(v, maxCellWidth)
	default:
		return fmt.Sprint(v)
	}
}
