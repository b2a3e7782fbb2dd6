package decompose

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Chunk is a bounded span of text extracted from one document, tagged with
// the source path it came from and a zero-based page number.
type Chunk struct {
	Text   string
	Source string
	Page   int
}

// Decomposer turns one raw document into an ordered sequence of chunks.
// A well-formed but empty document yields zero chunks and no error.
type Decomposer interface {
	Decompose(path string) ([]Chunk, error)
}

// PDFDecomposer extracts per-page text from a PDF and splits it into
// overlapping character windows.
type PDFDecomposer struct {
	splitter *Splitter
}

// NewPDFDecomposer creates a decomposer producing chunks of at most
// chunkSize characters with the given overlap window.
func NewPDFDecomposer(chunkSize, overlap int) *PDFDecomposer {
	return &PDFDecomposer{splitter: NewSplitter(chunkSize, overlap)}
}

func (d *PDFDecomposer) Decompose(path string) ([]Chunk, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var chunks []Chunk
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		p := r.Page(pageNum)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %s: %w", pageNum, path, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, piece := range d.splitter.Split(text) {
			chunks = append(chunks, Chunk{Text: piece, Source: path, Page: pageNum - 1})
		}
	}
	return chunks, nil
}
