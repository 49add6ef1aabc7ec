package indexer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// ShortTextThreshold is the length at or below which text is kept as a single chunk.
	ShortTextThreshold = 500
	// DefaultChunkSize is the target number of runes of new content per chunk.
	DefaultChunkSize = 500
	// DefaultChunkOverlap is the number of trailing runes carried into the next chunk.
	DefaultChunkOverlap = 50
)

var paragraphBreak = regexp.MustCompile(`\n[ \t\r]*\n`)

// Chunker splits plain text into overlapping chunks along paragraph and sentence boundaries.
// All sizes are measured in runes.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. Invalid sizes fall back to the defaults.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = 0
		}
	}
	return &Chunker{size: size, overlap: overlap}
}

// Size returns the target chunk size.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the overlap carried between chunks.
func (c *Chunker) Overlap() int { return c.overlap }

// ChunkText chunks text with the default size and overlap.
func ChunkText(text string) []Chunk {
	return NewChunker(DefaultChunkSize, DefaultChunkOverlap).Chunk(text)
}

// Chunk splits text into chunks with contiguous indices starting at 0.
// Whitespace-only text yields no chunks. Short text is returned whole.
func (c *Chunker) Chunk(text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return []Chunk{}
	}
	if utf8.RuneCountInString(text) <= ShortTextThreshold {
		return []Chunk{{Index: 0, Text: text}}
	}

	var texts []string
	current := ""  // chunk being built, empty when none is open
	seedLen := 0   // runes of current taken from the previous chunk, separator included
	previous := "" // last emitted chunk, source of the next seed

	flush := func() {
		if current != "" {
			texts = append(texts, current)
			previous = current
		}
		current, seedLen = "", 0
	}

	for pi, para := range splitParagraphs(text) {
		for si, sentence := range splitSentences(para) {
			sep := " "
			if si == 0 && pi > 0 {
				sep = "\n\n"
			}

			if utf8.RuneCountInString(sentence) > c.size {
				// Oversized sentences stand alone and are never truncated.
				flush()
				texts = append(texts, sentence)
				previous = sentence
				continue
			}

			if current != "" {
				candidate := current + sep + sentence
				if utf8.RuneCountInString(candidate)-seedLen <= c.size {
					current = candidate
					continue
				}
				flush()
			}

			if s := c.seed(previous, utf8.RuneCountInString(sep)); s != "" {
				current = s + sep + sentence
				seedLen = utf8.RuneCountInString(s) + utf8.RuneCountInString(sep)
			} else {
				current = sentence
			}
		}
	}
	flush()

	chunks := make([]Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = Chunk{Index: i, Text: t}
	}
	return chunks
}

// seed returns the tail of prev to carry into the next chunk. Together with the
// separator it fits in overlap runes, and it starts on a word boundary when one
// exists inside the window.
func (c *Chunker) seed(prev string, sepLen int) string {
	limit := c.overlap - sepLen
	if prev == "" || limit <= 0 {
		return ""
	}

	runes := []rune(prev)
	if len(runes) <= limit {
		return prev
	}
	start := len(runes) - limit
	tail := runes[start:]

	if !unicode.IsSpace(runes[start-1]) {
		// Mid-word: skip forward past the partial word.
		for i, r := range tail {
			if unicode.IsSpace(r) {
				tail = tail[i:]
				break
			}
		}
	}
	return strings.TrimSpace(string(tail))
}

func splitParagraphs(text string) []string {
	var paras []string
	for _, p := range paragraphBreak.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}

// splitSentences breaks a paragraph after '.', '!' or '?' when followed by whitespace.
func splitSentences(para string) []string {
	var sentences []string
	runes := []rune(para)
	start := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
