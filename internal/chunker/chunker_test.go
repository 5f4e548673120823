package chunker

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/knowledge-pad/internal/domain"
)

// reconstruct joins windows back together, dropping each window's overlap
// with its predecessor.
func reconstruct(windows []Window) string {
	var b strings.Builder
	prevEnd := 0
	for i, w := range windows {
		runes := []rune(w.Text)
		if i == 0 {
			b.WriteString(w.Text)
		} else {
			b.WriteString(string(runes[prevEnd-w.Start:]))
		}
		prevEnd = w.End
	}
	return b.String()
}

func TestNew_InvalidConfig(t *testing.T) {
	cases := []struct{ size, overlap int }{
		{0, 10},
		{100, 0},
		{-1, -1},
		{50, 50},
		{50, 60},
	}
	for _, c := range cases {
		_, err := New(c.size, c.overlap)
		assert.ErrorIs(t, err, domain.ErrInvalidConfig, "size=%d overlap=%d", c.size, c.overlap)
	}
}

func TestWindows_ShortTextIsSingleChunk(t *testing.T) {
	c, err := New(500, 50)
	require.NoError(t, err)

	text := "The mitochondria is the powerhouse of the cell."
	windows := c.Split(text)

	require.Len(t, windows, 1)
	assert.Equal(t, text, windows[0].Text)
	assert.Equal(t, 0, windows[0].Start)
	assert.Equal(t, len([]rune(text)), windows[0].End)
}

func TestWindows_ExactSizeIsSingleChunk(t *testing.T) {
	c, err := New(10, 3)
	require.NoError(t, err)

	windows := c.Split("0123456789")
	require.Len(t, windows, 1)
	assert.Equal(t, "0123456789", windows[0].Text)
}

func TestWindows_EmptyText(t *testing.T) {
	c, err := New(10, 3)
	require.NoError(t, err)
	assert.Empty(t, c.Split(""))
}

func TestWindows_StrideAndOverlap(t *testing.T) {
	c, err := New(10, 4)
	require.NoError(t, err)

	// 26 chars: [0,10) [6,16) [12,22) then remainder 4 >= overlap so [18,26)
	text := "abcdefghijklmnopqrstuvwxyz"
	windows := c.Split(text)

	require.Len(t, windows, 4)
	assert.Equal(t, Window{Index: 0, Text: "abcdefghij", Start: 0, End: 10}, windows[0])
	assert.Equal(t, Window{Index: 1, Text: "ghijklmnop", Start: 6, End: 16}, windows[1])
	assert.Equal(t, Window{Index: 2, Text: "mnopqrstuv", Start: 12, End: 22}, windows[2])
	assert.Equal(t, Window{Index: 3, Text: "stuvwxyz", Start: 18, End: 26}, windows[3])
}

func TestWindows_FoldsShortRemainder(t *testing.T) {
	c, err := New(10, 4)
	require.NoError(t, err)

	// 24 chars: [0,10) [6,16) then [12,22) would leave 2 < overlap, so fold
	text := "abcdefghijklmnopqrstuvwx"
	windows := c.Split(text)

	require.Len(t, windows, 3)
	last := windows[2]
	assert.Equal(t, 12, last.Start)
	assert.Equal(t, 24, last.End)
	assert.Equal(t, "mnopqrstuvwx", last.Text)
}

func TestWindows_ReconstructsText(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	alphabet := []rune("abc def. ghij\nklm éü日本")

	for trial := 0; trial < 200; trial++ {
		size := 2 + rng.Intn(40)
		overlap := 1 + rng.Intn(size-1)
		c, err := New(size, overlap)
		require.NoError(t, err)

		n := rng.Intn(300)
		runes := make([]rune, n)
		for i := range runes {
			runes[i] = alphabet[rng.Intn(len(alphabet))]
		}
		text := string(runes)

		windows := c.Split(text)
		assert.Equal(t, text, reconstruct(windows), "size=%d overlap=%d len=%d", size, overlap, n)

		for i, w := range windows {
			assert.Equal(t, i, w.Index)
			assert.Equal(t, string(runes[w.Start:w.End]), w.Text)
			if i > 0 {
				assert.Equal(t, overlap, windows[i-1].End-w.Start, "consecutive windows overlap")
			}
			if i < len(windows)-1 {
				assert.Equal(t, size, w.End-w.Start, "only the final window may differ in size")
			}
		}
	}
}

func TestWindows_UnicodeOffsetsAreRunes(t *testing.T) {
	c, err := New(4, 1)
	require.NoError(t, err)

	windows := c.Split("日本語のテキスト")
	require.NotEmpty(t, windows)
	assert.Equal(t, "日本語の", windows[0].Text)
	assert.Equal(t, 4, windows[0].End)
}

func TestWindows_StopsEarly(t *testing.T) {
	c, err := New(5, 1)
	require.NoError(t, err)

	count := 0
	for range c.Windows(strings.Repeat("x", 1000)) {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}
