package extract

import (
	"context"
	"strings"
	"testing"
)

// TestMarkdownExtractor_Sections tests splitting at H1 and H2 with header paths.
func TestMarkdownExtractor_Sections(t *testing.T) {
	input := `# Getting Started

Introduction text here.

## Installation

Install steps here.

### Details

Nested details stay with installation.

## Configuration

Config details here.
`

	pages, err := NewMarkdownExtractor().Extract(context.Background(), []byte(input))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	// Expect 3 pages: H1, H1>H2 Installation, H1>H2 Configuration
	if len(pages) != 3 {
		t.Fatalf("Expected 3 pages, got %d", len(pages))
	}

	for i, p := range pages {
		if p.Number != i+1 {
			t.Errorf("Page %d number: expected %d, got %d", i, i+1, p.Number)
		}
	}

	if !strings.HasPrefix(pages[0].Text, "# Getting Started") {
		t.Errorf("Page 1 should start with its header path, got %q", pages[0].Text)
	}
	if !strings.Contains(pages[0].Text, "Introduction text here") {
		t.Errorf("Page 1 missing expected content")
	}
	if strings.Contains(pages[0].Text, "Install steps") {
		t.Errorf("Page 1 should not include the next section")
	}

	expected := "# Getting Started > ## Installation"
	if !strings.HasPrefix(pages[1].Text, expected) {
		t.Errorf("Page 2: expected prefix %q, got %q", expected, pages[1].Text)
	}
	if !strings.Contains(pages[1].Text, "Nested details stay with installation") {
		t.Errorf("Page 2 should keep H3 content")
	}

	if !strings.Contains(pages[2].Text, "Config details here") {
		t.Errorf("Page 3 missing expected content")
	}
}

// TestMarkdownExtractor_Preamble tests that text before the first heading is kept.
func TestMarkdownExtractor_Preamble(t *testing.T) {
	input := "Some intro.\n\n# Title\n\nBody.\n"

	pages, err := NewMarkdownExtractor().Extract(context.Background(), []byte(input))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(pages))
	}
	if pages[0].Text != "Some intro." {
		t.Errorf("Preamble: got %q", pages[0].Text)
	}
	if strings.Contains(pages[0].Text, "#") {
		t.Errorf("Preamble should not contain heading markers")
	}
}

// TestMarkdownExtractor_NoHeaders tests a document without headings.
func TestMarkdownExtractor_NoHeaders(t *testing.T) {
	input := "Plain paragraph one.\n\nPlain paragraph two.\n"

	pages, err := NewMarkdownExtractor().Extract(context.Background(), []byte(input))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("Expected 1 page, got %d", len(pages))
	}
	if !strings.Contains(pages[0].Text, "Plain paragraph two.") {
		t.Errorf("Page missing content: %q", pages[0].Text)
	}
}

// TestMarkdownExtractor_Empty tests that an empty document yields one empty page.
func TestMarkdownExtractor_Empty(t *testing.T) {
	pages, err := NewMarkdownExtractor().Extract(context.Background(), []byte("  \n"))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(pages) != 1 || pages[0].Text != "" {
		t.Errorf("Expected one empty page, got %+v", pages)
	}
}

// TestMarkdownExtractor_Setext tests setext headings.
func TestMarkdownExtractor_Setext(t *testing.T) {
	input := "Title\n=====\n\nBody text.\n"

	pages, err := NewMarkdownExtractor().Extract(context.Background(), []byte(input))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("Expected 1 page, got %d", len(pages))
	}
	if pages[0].Text != "# Title\n\nBody text." {
		t.Errorf("Setext page: got %q", pages[0].Text)
	}
}
