package vault

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdownParser = goldmark.New(goldmark.WithExtensions(extension.Table)).Parser()

// Block is one node of the rich-text document stored on a note version.
type Block struct {
	Type     string  `json:"type"`
	Content  any     `json:"content"`
	Children []Block `json:"children"`
}

// Inline is a run of inline content. Links carry their text in Content.
type Inline struct {
	Type    string   `json:"type"`
	Text    string   `json:"text,omitempty"`
	Href    string   `json:"href,omitempty"`
	Content []Inline `json:"content,omitempty"`
}

type tableContent struct {
	Type string     `json:"type"`
	Rows []tableRow `json:"rows"`
}

type tableRow struct {
	Cells [][]Inline `json:"cells"`
}

// Document is a converted markdown file.
type Document struct {
	Title       string
	RichContent json.RawMessage
}

// Convert parses markdown into the block document format used for note versions.
// The title is the first level-1 heading, or fallbackTitle when there is none.
func Convert(src []byte, fallbackTitle string) (Document, error) {
	root := markdownParser.Parse(text.NewReader(src))

	c := converter{src: src}
	blocks := c.blocks(root)
	if blocks == nil {
		blocks = []Block{}
	}

	raw, err := json.Marshal(blocks)
	if err != nil {
		return Document{}, fmt.Errorf("failed to encode blocks: %w", err)
	}

	title := c.title
	if title == "" {
		title = fallbackTitle
	}
	return Document{Title: title, RichContent: raw}, nil
}

// titleFromPath turns "projects/meeting-notes.md" into "meeting-notes".
func titleFromPath(relPath string) string {
	base := path.Base(relPath)
	return strings.TrimSuffix(base, path.Ext(base))
}

type converter struct {
	src   []byte
	title string
}

func (c *converter) blocks(parent ast.Node) []Block {
	var out []Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, c.block(n)...)
	}
	return out
}

func (c *converter) block(n ast.Node) []Block {
	switch node := n.(type) {
	case *ast.Heading:
		content := c.inlines(node)
		if node.Level == 1 && c.title == "" {
			c.title = strings.TrimSpace(plain(content))
		}
		return []Block{{Type: "heading", Content: content, Children: []Block{}}}
	case *ast.Paragraph, *ast.TextBlock:
		return []Block{{Type: "paragraph", Content: c.inlines(node), Children: []Block{}}}
	case *ast.List:
		itemType := "bulletListItem"
		if node.IsOrdered() {
			itemType = "numberedListItem"
		}
		var items []Block
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			items = append(items, c.listItem(item, itemType))
		}
		return items
	case *ast.FencedCodeBlock:
		return []Block{c.codeBlock(node)}
	case *ast.CodeBlock:
		return []Block{c.codeBlock(node)}
	case *ast.Blockquote:
		return c.blocks(node)
	case *east.Table:
		return []Block{c.table(node)}
	default:
		// Thematic breaks and raw HTML carry no searchable text.
		return nil
	}
}

func (c *converter) listItem(item ast.Node, itemType string) Block {
	b := Block{Type: itemType, Content: []Inline{}, Children: []Block{}}
	for n := item.FirstChild(); n != nil; n = n.NextSibling() {
		switch n.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			if len(b.Content.([]Inline)) == 0 {
				b.Content = c.inlines(n)
				continue
			}
		}
		b.Children = append(b.Children, c.block(n)...)
	}
	return b
}

func (c *converter) codeBlock(n ast.Node) Block {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(c.src))
	}
	code := strings.TrimRight(sb.String(), "\n")
	return Block{Type: "codeBlock", Content: []Inline{{Type: "text", Text: code}}, Children: []Block{}}
}

func (c *converter) table(t *east.Table) Block {
	tc := tableContent{Type: "tableContent"}
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var r tableRow
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			r.Cells = append(r.Cells, c.inlines(cell))
		}
		tc.Rows = append(tc.Rows, r)
	}
	return Block{Type: "table", Content: tc, Children: []Block{}}
}

// inlines flattens the inline children of n into text runs, keeping links separate.
func (c *converter) inlines(n ast.Node) []Inline {
	out := []Inline{}
	var sb strings.Builder
	flush := func() {
		if sb.Len() > 0 {
			out = append(out, Inline{Type: "text", Text: sb.String()})
			sb.Reset()
		}
	}

	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch node := child.(type) {
		case *ast.Link:
			flush()
			out = append(out, Inline{Type: "link", Href: string(node.Destination), Content: c.inlines(node)})
		case *ast.AutoLink:
			flush()
			label := string(node.Label(c.src))
			out = append(out, Inline{Type: "link", Href: string(node.URL(c.src)), Content: []Inline{{Type: "text", Text: label}}})
		default:
			c.writeText(&sb, child)
		}
	}
	flush()
	return out
}

func (c *converter) writeText(sb *strings.Builder, n ast.Node) {
	switch node := n.(type) {
	case *ast.Text:
		sb.Write(node.Segment.Value(c.src))
		if node.SoftLineBreak() || node.HardLineBreak() {
			sb.WriteByte(' ')
		}
		return
	case *ast.String:
		sb.Write(node.Value)
		return
	case *ast.RawHTML:
		return
	}
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		c.writeText(sb, child)
	}
}

func plain(items []Inline) string {
	var sb strings.Builder
	for _, item := range items {
		if item.Type == "link" {
			sb.WriteString(plain(item.Content))
			continue
		}
		sb.WriteString(item.Text)
	}
	return sb.String()
}
