// Package seed loads documents, chunks them, and pushes them through
// ZeroDB's embed-and-store endpoint to populate the knowledge base.
package seed

import "strings"

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

// separators are tried in order; the first one present in the text wins.
// The final "" separator degrades to a hard character split.
var separators = []string{"\n\n", "\n", " ", ""}

// Chunker splits text recursively on natural boundaries, producing chunks
// of at most Size characters with Overlap characters carried between
// consecutive chunks.
type Chunker struct {
	Size    int
	Overlap int
}

// NewChunker creates a Chunker. Non-positive size or overlap select the
// defaults (1000/200).
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = defaultChunkOverlap
		if overlap >= size {
			overlap = size / 5
		}
	}
	return &Chunker{Size: size, Overlap: overlap}
}

// Split chunks text. Whitespace-only input yields no chunks.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.Size {
		return []string{text}
	}
	return c.split(text, separators)
}

func (c *Chunker) split(text string, seps []string) []string {
	sep := seps[len(seps)-1]
	var rest []string
	for i, s := range seps {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		for i := 0; i < len(text); i += c.Size {
			end := min(i+c.Size, len(text))
			pieces = append(pieces, text[i:end])
		}
	} else {
		pieces = strings.Split(text, sep)
	}

	// Oversized pieces recurse with the remaining separators before merging.
	var sized []string
	for _, p := range pieces {
		if len(p) > c.Size && len(rest) > 0 {
			sized = append(sized, c.split(p, rest)...)
		} else {
			sized = append(sized, p)
		}
	}

	return c.merge(sized, sep)
}

// merge greedily packs pieces into chunks up to Size, carrying a tail of up
// to Overlap characters of pieces into the next chunk.
func (c *Chunker) merge(pieces []string, sep string) []string {
	var chunks []string
	var current []string
	currentLen := 0
	carried := 0 // pieces at the head of current that are overlap from the previous chunk

	flush := func() {
		if len(current) <= carried {
			return
		}
		chunk := strings.TrimSpace(strings.Join(current, sep))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		// Keep trailing pieces within the overlap budget.
		var kept []string
		keptLen := 0
		for i := len(current) - 1; i >= 0; i-- {
			pieceLen := len(current[i]) + len(sep)
			if keptLen+pieceLen > c.Overlap {
				break
			}
			kept = append([]string{current[i]}, kept...)
			keptLen += pieceLen
		}
		current = kept
		currentLen = keptLen
		carried = len(kept)
	}

	for _, p := range pieces {
		pieceLen := len(p)
		if currentLen > 0 {
			pieceLen += len(sep)
		}
		if currentLen+pieceLen > c.Size {
			flush()
			pieceLen = len(p)
			if currentLen > 0 {
				pieceLen += len(sep)
			}
		}
		current = append(current, p)
		currentLen += pieceLen
	}
	flush()

	return chunks
}
