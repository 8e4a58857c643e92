package questiongenerator

import (
	"regexp"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Default chunking parameters. The chunk size targets retrieval
// granularity, not generation sections.
const (
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 50
)

var (
	spaceRuns    = regexp.MustCompile(`[ \t]+`)
	newlineRuns  = regexp.MustCompile(`\n{3,}`)
	nonPrintable = regexp.MustCompile("[^\x20-\x7E\n]")
)

// chunkSeparators are tried in order; coarser boundaries are preferred.
var chunkSeparators = []string{"\n\n", "\n", ". ", " "}

// Chunker cleans raw document text and splits it into bounded,
// slightly overlapping chunks for indexing.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	encoder      *tiktoken.Tiktoken
}

// NewChunker creates a chunker. Non-positive arguments select the
// defaults.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap <= 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	// The encoder is optional: token counts fall back to a character
	// heuristic when the BPE tables cannot be loaded.
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		VerboseLog("tiktoken encoder unavailable, using character heuristic: %v", err)
		encoder = nil
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		encoder:      encoder,
	}
}

// CleanText normalizes extracted text: collapses space runs, caps
// blank-line runs at one, and drops non-printable characters.
func (c *Chunker) CleanText(text string) string {
	text = nonPrintable.ReplaceAllString(text, "")
	text = spaceRuns.ReplaceAllString(text, " ")
	text = newlineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// TokenCount estimates the number of model tokens in text.
func (c *Chunker) TokenCount(text string) int {
	if c.encoder == nil {
		return len(text) / 4
	}
	return len(c.encoder.Encode(text, nil, nil))
}

// Split divides text into chunks of at most chunkSize characters,
// preferring paragraph, line, and sentence boundaries in that order.
func (c *Chunker) Split(text string) []string {
	return c.splitRecursive(text, chunkSeparators)
}

func (c *Chunker) splitRecursive(text string, separators []string) []string {
	if len(text) <= c.chunkSize {
		if t := strings.TrimSpace(text); t != "" {
			return []string{t}
		}
		return nil
	}
	if len(separators) == 0 {
		return c.hardCut(text)
	}

	sep := separators[0]
	if !strings.Contains(text, sep) {
		return c.splitRecursive(text, separators[1:])
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if t := strings.TrimSpace(current.String()); t != "" {
			chunks = append(chunks, t)
			current.Reset()
			current.WriteString(c.overlapTail(t))
		} else {
			current.Reset()
		}
	}

	for _, piece := range strings.Split(text, sep) {
		if piece == "" {
			continue
		}
		if len(piece) > c.chunkSize {
			flush()
			chunks = append(chunks, c.splitRecursive(piece, separators[1:])...)
			current.Reset()
			continue
		}
		if current.Len() > 0 && current.Len()+len(sep)+len(piece) > c.chunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(piece)
	}
	if t := strings.TrimSpace(current.String()); t != "" {
		chunks = append(chunks, t)
	}
	return chunks
}

// overlapTail returns the trailing overlap of a flushed chunk, snapped
// forward to a word boundary, to seed the next chunk with context.
func (c *Chunker) overlapTail(chunk string) string {
	if len(chunk) <= c.chunkOverlap {
		return ""
	}
	tail := chunk[len(chunk)-c.chunkOverlap:]
	if i := strings.IndexByte(tail, ' '); i >= 0 {
		tail = tail[i+1:]
	}
	return tail
}

// hardCut is the last resort for text with no usable separators.
func (c *Chunker) hardCut(text string) []string {
	var chunks []string
	step := c.chunkSize - c.chunkOverlap
	if step <= 0 {
		step = c.chunkSize
	}
	for start := 0; start < len(text); start += step {
		end := start + c.chunkSize
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}

// Process cleans and splits a document in one step.
func (c *Chunker) Process(text string) (string, []string) {
	cleaned := c.CleanText(text)
	return cleaned, c.Split(cleaned)
}
