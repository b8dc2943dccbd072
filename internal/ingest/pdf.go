package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/xdoubleu/essentia/v2/pkg/logging"
)

const pdfFetchTimeout = 60 * time.Second

// PDFScanner downloads result-sheet PDFs and extracts their text.
// Extracted text is cached on disk keyed by URL; result sheets never
// change once published, so cache entries are kept forever.
type PDFScanner struct {
	logger    *slog.Logger
	client    *http.Client
	cachePath string
	cache     map[string]string
	dirty     bool
}

func NewPDFScanner(logger *slog.Logger, cachePath string) *PDFScanner {
	scanner := &PDFScanner{
		logger:    logger,
		client:    &http.Client{Timeout: pdfFetchTimeout},
		cachePath: cachePath,
		cache:     map[string]string{},
	}

	data, err := os.ReadFile(cachePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("can't read pdf cache", logging.ErrAttr(err))
		}
		return scanner
	}

	if err = json.Unmarshal(data, &scanner.cache); err != nil {
		logger.Warn("discarding corrupt pdf cache", logging.ErrAttr(err))
		scanner.cache = map[string]string{}
	}
	return scanner
}

// Text returns the plain text of the PDF at url, downloading and
// extracting it on a cache miss.
func (s *PDFScanner) Text(ctx context.Context, url string) (string, error) {
	if text, ok := s.cache[url]; ok {
		return text, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch pdf %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch pdf %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read pdf %s: %w", url, err)
	}

	text, err := extractPDFText(data)
	if err != nil {
		return "", fmt.Errorf("extract pdf %s: %w", url, err)
	}

	s.cache[url] = text
	s.dirty = true
	return text, nil
}

// Save persists the cache when new PDFs were scanned this run.
func (s *PDFScanner) Save() error {
	if !s.dirty {
		return nil
	}

	data, err := json.Marshal(s.cache)
	if err != nil {
		return err
	}
	if err = os.WriteFile(s.cachePath, data, 0o644); err != nil {
		return fmt.Errorf("write pdf cache: %w", err)
	}

	s.dirty = false
	return nil
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err = buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
