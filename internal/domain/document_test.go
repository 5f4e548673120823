package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, ContentTypePDF, ContentTypeFor("paper.PDF"))
	assert.Equal(t, ContentTypeMarkdown, ContentTypeFor("notes.md"))
	assert.Equal(t, ContentTypeMarkdown, ContentTypeFor("notes.markdown"))
	assert.Empty(t, ContentTypeFor("image.png"))
	assert.Empty(t, ContentTypeFor("noext"))
}

func TestStorageKeyFor(t *testing.T) {
	id := "8f0e2b7c-1111-4a4a-9b9b-000000000001"
	assert.Equal(t, "documents/"+id+".pdf", StorageKeyFor(id, "Cell Biology.PDF"))
	assert.Equal(t, "documents/"+id+".bin", StorageKeyFor(id, "README"))
	// Same ID and name always produce the same key
	assert.Equal(t, StorageKeyFor(id, "a.pdf"), StorageKeyFor(id, "b.pdf"))
}

func TestIngestStateTerminal(t *testing.T) {
	assert.True(t, StateComplete.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateIndexed.Terminal())
	assert.False(t, StateReceived.Terminal())
}
