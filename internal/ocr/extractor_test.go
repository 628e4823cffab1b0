package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	mu     sync.Mutex
	inputs []Input
	texts  map[string]string
	err    error
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.mu.Unlock()
	if f.err != nil {
		return Result{}, f.err
	}
	return Result{InputID: in.ID, Text: f.texts[string(in.Image)]}, nil
}

func TestPageNumber(t *testing.T) {
	tests := []struct {
		name string
		page int
		ok   bool
	}{
		{"optimized_1_Im0.png", 1, true},
		{"optimized_12_Im3.jpg", 12, true},
		{"scan_3_Img1.jpeg", 3, true},
		{"scan_7_Im0.tif", 7, true},
		{"optimized.pdf", 0, false},
		{"summary.json", 0, false},
		{"notes.txt", 0, false},
	}
	for _, tt := range tests {
		page, ok := pageNumber(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.page, page, tt.name)
	}
}

func TestCollectPageImagesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"doc_10_Im0.png", "doc_2_Im0.png", "doc_1_Im0.png", "doc.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
	}

	images, err := collectPageImages(dir)
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Equal(t, 1, images[0].page)
	assert.Equal(t, 2, images[1].page)
	assert.Equal(t, 10, images[2].page)
}

func TestRecognizePreservesPageOrder(t *testing.T) {
	dir := t.TempDir()
	var images []pageImage
	texts := map[string]string{}
	for page := 1; page <= 5; page++ {
		path := filepath.Join(dir, fmt.Sprintf("doc_%d_Im0.png", page))
		content := fmt.Sprintf("image-%d", page)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		images = append(images, pageImage{page: page, path: path})
		texts[content] = fmt.Sprintf("Seite %d", page)
	}

	engine := &fakeEngine{texts: texts}
	x := NewExtractor(engine, []string{"deu", "eng"}, 300, 3)

	got, err := x.recognize(context.Background(), images)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i, text := range got {
		assert.Equal(t, fmt.Sprintf("Seite %d", i+1), text)
	}

	// Language and DPI hints reach the engine.
	require.NotEmpty(t, engine.inputs)
	assert.Equal(t, []string{"deu", "eng"}, engine.inputs[0].Languages)
	assert.Equal(t, 300, engine.inputs[0].DPI)
}

func TestRecognizePropagatesEngineErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc_1_Im0.png")
	require.NoError(t, os.WriteFile(path, []byte("img"), 0644))

	engine := &fakeEngine{err: errors.New("tesseract not installed")}
	x := NewExtractor(engine, nil, 0, 2)

	_, err := x.recognize(context.Background(), []pageImage{{page: 1, path: path}})
	assert.ErrorContains(t, err, "page 1")
	assert.ErrorContains(t, err, "tesseract not installed")
}

func TestJoinPages(t *testing.T) {
	assert.Equal(t, "a\n\nb", joinPages([]string{"a", "", "  ", "b"}))
	assert.Equal(t, "", joinPages(nil))
	assert.Equal(t, "einzeln", joinPages([]string{" einzeln \n"}))
}
