package indexer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// block is one node of the rich-text document. Content is an inline array for
// regular blocks and a tableContent object for tables.
type block struct {
	Type     string            `json:"type"`
	Content  json.RawMessage   `json:"content"`
	Children []json.RawMessage `json:"children"`
}

type inlineItem struct {
	Type    string          `json:"type"`
	Text    string          `json:"text"`
	Content json.RawMessage `json:"content"` // nested items of a link
}

type tableContent struct {
	Type string     `json:"type"`
	Rows []tableRow `json:"rows"`
}

type tableRow struct {
	Cells []json.RawMessage `json:"cells"`
}

// ExtractPlainText flattens a rich-text block document into newline-separated plain text.
// Malformed input and blocks without content are skipped; it never fails.
func ExtractPlainText(raw json.RawMessage) string {
	var blocks []json.RawMessage
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}

	var lines []string
	for _, b := range blocks {
		lines = appendBlock(lines, b)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func appendBlock(lines []string, raw json.RawMessage) []string {
	var b block
	if err := json.Unmarshal(raw, &b); err != nil {
		return lines
	}

	if b.Type == "table" {
		lines = append(lines, tableLines(b.Content)...)
	} else if text := inlineText(b.Content); strings.TrimSpace(text) != "" {
		lines = append(lines, text)
	}

	for _, child := range b.Children {
		lines = appendBlock(lines, child)
	}
	return lines
}

// inlineText concatenates text items. Anything other than an array yields "".
func inlineText(raw json.RawMessage) string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}

	var sb strings.Builder
	for _, r := range items {
		var item inlineItem
		if err := json.Unmarshal(r, &item); err != nil {
			continue
		}
		switch item.Type {
		case "text":
			sb.WriteString(item.Text)
		case "link":
			sb.WriteString(inlineText(item.Content))
		}
	}
	return sb.String()
}

// cellText reads a table cell, which is either an inline array or {content: [...]}.
func cellText(raw json.RawMessage) string {
	if text := inlineText(raw); text != "" {
		return strings.TrimSpace(text)
	}
	var wrapped struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return ""
	}
	return strings.TrimSpace(inlineText(wrapped.Content))
}

// tableLines renders a table as a "Data Table" header, a "Headers:" line and one
// "Header: Value" line per data row. The first row is the header row.
func tableLines(raw json.RawMessage) []string {
	var tc tableContent
	if err := json.Unmarshal(raw, &tc); err != nil || len(tc.Rows) == 0 {
		return nil
	}

	headers := make([]string, len(tc.Rows[0].Cells))
	for i, c := range tc.Rows[0].Cells {
		headers[i] = cellText(c)
	}

	lines := []string{"Data Table", "Headers: " + strings.Join(headers, ", ")}
	for _, row := range tc.Rows[1:] {
		var pairs []string
		for i, c := range row.Cells {
			value := cellText(c)
			if value == "" {
				continue
			}
			header := ""
			if i < len(headers) {
				header = headers[i]
			}
			if header == "" {
				header = fmt.Sprintf("Column %d", i+1)
			}
			pairs = append(pairs, header+": "+value)
		}
		if len(pairs) > 0 {
			lines = append(lines, strings.Join(pairs, ", "))
		}
	}
	return lines
}
