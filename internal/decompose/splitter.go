package decompose

import "strings"

// defaultSeparators are tried in order, coarsest first. The empty separator
// is the rune-level fallback for text with no break points at all.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter breaks text into windows of at most chunkSize characters.
// Adjacent windows from the same text share a bounded suffix/prefix of
// overlap characters so context survives a chunk boundary.
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter creates a splitter. The overlap is clamped below chunkSize.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split returns the chunk texts for the given input. Whitespace-only input
// yields no chunks.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	pieces := split(text, s.chunkSize, defaultSeparators)
	return s.merge(pieces)
}

// split recursively breaks text into pieces no longer than size, preferring
// the coarsest separator that occurs in the text.
func split(text string, size int, separators []string) []string {
	if len([]rune(text)) <= size {
		return []string{text}
	}

	sep := separators[len(separators)-1]
	rest := separators
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	if sep == "" {
		return hardSplit(text, size)
	}

	var pieces []string
	for _, part := range strings.Split(text, sep) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if len([]rune(part)) > size {
			pieces = append(pieces, split(part, size, rest)...)
		} else {
			pieces = append(pieces, part)
		}
	}
	return pieces
}

// hardSplit cuts text into rune windows of exactly size.
func hardSplit(text string, size int) []string {
	runes := []rune(text)
	var pieces []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}

// merge packs pieces back into chunkSize windows, seeding each new window
// with the overlap tail of the previous one. The seed is dropped when it
// would push the window past chunkSize.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var buf string

	for _, piece := range pieces {
		if buf == "" {
			buf = piece
			continue
		}
		if len([]rune(buf))+1+len([]rune(piece)) <= s.chunkSize {
			buf += " " + piece
			continue
		}
		chunks = append(chunks, buf)
		seed := tail(buf, s.overlap)
		if seed != "" && len([]rune(seed))+1+len([]rune(piece)) <= s.chunkSize {
			buf = seed + " " + piece
		} else {
			buf = piece
		}
	}
	if strings.TrimSpace(buf) != "" {
		chunks = append(chunks, buf)
	}
	return chunks
}

func tail(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}
