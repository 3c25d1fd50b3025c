package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jrsteele09/vpn-admin/resource"
)

// NowTimeFunc anchors the relative times in command output.
var NowTimeFunc = time.Now

type column struct {
	header string
	value  func(page resource.PageResult, item resource.Resource) string
}

func attr(header, name string) column {
	return column{header: header, value: func(_ resource.PageResult, item resource.Resource) string {
		return item.String(name)
	}}
}

func idColumn() column {
	return column{header: "ID", value: func(_ resource.PageResult, item resource.Resource) string {
		return item.ID()
	}}
}

func timeColumn(header, name string) column {
	return column{header: header, value: func(_ resource.PageResult, item resource.Resource) string {
		return relativeTime(item.String(name))
	}}
}

func moneyColumn(header, name string) column {
	return column{header: header, value: func(_ resource.PageResult, item resource.Resource) string {
		return money(item.Float(name))
	}}
}

// relatedColumn shows field of the side-loaded relationship, or the bare id
// when the backend did not include it.
func relatedColumn(header, relationship, field string) column {
	return column{header: header, value: func(page resource.PageResult, item resource.Resource) string {
		related, ok := page.Related(item, relationship)
		if !ok {
			return item.String(relationship + "_id")
		}
		if v := related.String(field); v != "" {
			return v
		}
		return related.ID()
	}}
}

func relativeTime(raw string) string {
	if raw == "" {
		return "-"
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return humanize.RelTime(t, NowTimeFunc(), "ago", "from now")
}

func money(amount float64) string {
	return "$" + humanize.CommafWithDigits(amount, 2)
}

func printTable(out io.Writer, page resource.PageResult, items []resource.Resource, columns []column) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No results.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.header
	}
	fmt.Fprintln(w, strings.Join(headers, "\t"))

	for _, item := range items {
		values := make([]string, len(columns))
		for i, c := range columns {
			values[i] = c.value(page, item)
			if values[i] == "" {
				values[i] = "-"
			}
		}
		fmt.Fprintln(w, strings.Join(values, "\t"))
	}
	w.Flush()
}

func printFooter(out io.Writer, page resource.PageResult, shown int) {
	fmt.Fprintf(out, "page %d of %d, %s total", page.CurrentPage, page.TotalPages, humanize.Comma(int64(page.TotalCount)))
	if shown != len(page.Items) {
		fmt.Fprintf(out, ", %d matching on this page", shown)
	}
	fmt.Fprintln(out)
}

func printResource(out io.Writer, verb string, item resource.Resource) {
	if item == nil {
		fmt.Fprintf(out, "%s.\n", verb)
		return
	}
	fmt.Fprintf(out, "%s %s (status: %s)\n", verb, item.ID(), item.String("status"))
}
