// Package chunker splits page text into overlapping fixed-size windows.
package chunker

import (
	"fmt"
	"iter"
	"slices"

	"github.com/bull/knowledge-pad/internal/domain"
)

// Window is one chunk of a page. Start and End are rune offsets into the page
// text, End exclusive.
type Window struct {
	Index int
	Text  string
	Start int
	End   int
}

// Chunker produces windows of Size characters that overlap by Overlap.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker. Both values must be positive and overlap must be
// smaller than size.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 || overlap <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d and overlap %d must be positive", domain.ErrInvalidConfig, size, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", domain.ErrInvalidConfig, overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the window length in characters.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the number of characters shared by consecutive windows.
func (c *Chunker) Overlap() int { return c.overlap }

// Windows lazily yields the windows of text. The window advances by
// size-overlap characters. A trailing remainder shorter than the overlap is
// folded into the final window instead of becoming its own tiny chunk, so
// the final window may be up to size+overlap-1 characters long.
func (c *Chunker) Windows(text string) iter.Seq[Window] {
	return func(yield func(Window) bool) {
		runes := []rune(text)
		n := len(runes)
		if n == 0 {
			return
		}
		if n <= c.size {
			yield(Window{Index: 0, Text: text, Start: 0, End: n})
			return
		}

		step := c.size - c.overlap
		for start, index := 0, 0; ; start, index = start+step, index+1 {
			end := start + c.size
			if end >= n || n-end < c.overlap {
				end = n
			}
			if !yield(Window{Index: index, Text: string(runes[start:end]), Start: start, End: end}) {
				return
			}
			if end == n {
				return
			}
		}
	}
}

// Split collects every window of text.
func (c *Chunker) Split(text string) []Window {
	return slices.Collect(c.Windows(text))
}
