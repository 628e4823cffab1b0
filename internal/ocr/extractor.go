package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"
)

// Extractor pulls the page images out of a scanned PDF with pdfcpu and feeds
// them through an Engine, page by page.
type Extractor struct {
	engine    Engine
	languages []string
	dpi       int
	workers   int
}

// NewExtractor wires an extractor around the given engine. workers bounds the
// number of pages recognized concurrently.
func NewExtractor(engine Engine, languages []string, dpi, workers int) *Extractor {
	if workers < 1 {
		workers = 1
	}
	return &Extractor{engine: engine, languages: languages, dpi: dpi, workers: workers}
}

// pageImage is one extracted image file attributed to its source page.
type pageImage struct {
	page int
	path string
}

// ExtractText OCRs every page of the PDF at pdfPath and returns the joined
// text in page order, along with the page count.
func (x *Extractor) ExtractText(ctx context.Context, pdfPath string) (string, int, error) {
	tempDir, err := os.MkdirTemp("", "amtspost-ocr-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	optimizedPath := filepath.Join(tempDir, "optimized.pdf")
	if err := optimizePDF(pdfPath, optimizedPath); err != nil {
		return "", 0, fmt.Errorf("failed to validate/optimize PDF: %w", err)
	}

	pageCount, err := api.PageCountFile(optimizedPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to get page count: %w", err)
	}

	if err := api.ExtractImagesFile(optimizedPath, tempDir, nil, nil); err != nil {
		return "", 0, fmt.Errorf("failed to extract page images: %w", err)
	}

	images, err := collectPageImages(tempDir)
	if err != nil {
		return "", 0, err
	}
	if len(images) == 0 {
		return "", 0, fmt.Errorf("no page images found in %s (is this a scanned PDF?)", pdfPath)
	}
	slog.Info("Extracted page images.", "pdf", pdfPath, "pages", pageCount, "images", len(images))

	texts, err := x.recognize(ctx, images)
	if err != nil {
		return "", 0, err
	}

	return joinPages(texts), pageCount, nil
}

// recognize runs the engine over the images with bounded concurrency,
// preserving page order in the returned slice.
func (x *Extractor) recognize(ctx context.Context, images []pageImage) ([]string, error) {
	texts := make([]string, len(images))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(x.workers)

	for i, img := range images {
		eg.Go(func() error {
			data, err := os.ReadFile(img.path)
			if err != nil {
				return fmt.Errorf("page %d: read image: %w", img.page, err)
			}
			res, err := x.engine.Recognize(gctx, Input{
				ID:        fmt.Sprintf("page-%d", img.page),
				Image:     data,
				Languages: x.languages,
				DPI:       x.dpi,
			})
			if err != nil {
				return fmt.Errorf("page %d: %w", img.page, err)
			}
			texts[i] = res.Text
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}

// pdfcpu names extracted images <basename>_<pageNr>_<resource>.<ext>.
var pageImagePattern = regexp.MustCompile(`_(\d+)_[^_.]+\.(?:png|jpe?g|tiff?)$`)

// pageNumber parses the source page number out of an extracted image
// filename. The second return is false for files pdfcpu did not produce.
func pageNumber(name string) (int, bool) {
	m := pageImagePattern.FindStringSubmatch(strings.ToLower(name))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func collectPageImages(dir string) ([]pageImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list extracted images: %w", err)
	}

	var images []pageImage
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		page, ok := pageNumber(entry.Name())
		if !ok {
			continue
		}
		images = append(images, pageImage{page: page, path: filepath.Join(dir, entry.Name())})
	}
	sort.Slice(images, func(i, j int) bool {
		if images[i].page != images[j].page {
			return images[i].page < images[j].page
		}
		return images[i].path < images[j].path
	})
	return images, nil
}

func joinPages(texts []string) string {
	var nonEmpty []string
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(t))
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}

func optimizePDF(inPath, outPath string) error {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return api.OptimizeFile(inPath, outPath, cfg)
}
