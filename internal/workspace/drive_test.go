package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFolderQuery(t *testing.T) {
	q := folderQuery("Tax", "")
	assert.Equal(t, "mimeType='application/vnd.google-apps.folder' and name='Tax' and trashed=false", q)

	q = folderQuery("Tax", "parent123")
	assert.Contains(t, q, "'parent123' in parents")
}

func TestFolderQueryEscapesQuotes(t *testing.T) {
	q := folderQuery("O'Brien", "")
	assert.Contains(t, q, `name='O\'Brien'`)
	assert.NotContains(t, q, "name='O'Brien'")
}

func TestFileLink(t *testing.T) {
	assert.Equal(t, "https://drive.google.com/file/d/abc123/view", FileLink("abc123"))
}
