// Package render formats a thread's acronym expansions as a Markdown reply and as HTML.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Row is one line of the expansion table.
type Row struct {
	Key       string
	Expansion string
}

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// MarkdownTable renders rows as a two-column GFM table. Rows are emitted in the order
// given. An empty list renders as an empty string.
func MarkdownTable(rows []Row) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("|Acronym|Expansion|\n|:--|:--|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "|%s|%s|\n", cell(r.Key), cell(r.Expansion))
	}
	return b.String()
}

// Reply renders the full comment body posted to a thread: a lead line carrying the
// distinct count, then the table.
func Reply(rows []Row) string {
	if len(rows) == 0 {
		return "No known acronyms in this thread.\n"
	}
	noun := "acronyms"
	if len(rows) == 1 {
		noun = "acronym"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s used in this thread:\n\n", len(rows), noun)
	b.WriteString(MarkdownTable(rows))
	return b.String()
}

// HTML converts Markdown to HTML. Raw HTML in the source is escaped, not passed through.
func HTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// cell keeps a value on one table row: pipes are escaped and line breaks collapsed.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
