// Package extract pulls plain text out of uploaded attachments so it can be
// stored alongside the file and offered back as prompt context.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmarti/chatbridge/internal/domain/chatModel"
	"github.com/dmarti/chatbridge/pkg/logger_i"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

var logger = logger_i.NewLogger("Extract")

// DetectKind maps a filename to the attachment kind we know how to extract.
func DetectKind(path string) chatModel.FileKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return chatModel.PDF
	case ".docx", ".odt", ".rtf":
		return chatModel.DOCX
	case ".txt", ".md":
		return chatModel.TXT
	default:
		return chatModel.ERR
	}
}

// Text extracts the full plain text of the file at path.
func Text(path string, kind chatModel.FileKind) (string, error) {
	switch kind {
	case chatModel.PDF:
		return extractPDF(path)
	case chatModel.DOCX, chatModel.TXT:
		return extractWithCat(path)
	default:
		return "", fmt.Errorf("unsupported attachment type for %s", filepath.Base(path))
	}
}

func extractPDF(path string) (string, error) {
	f, err := pdf.Open(path)
	if err != nil {
		logger.Error("failed opening pdf file", "path", path)
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []string
	numPages := f.NumPage()
	logger.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// keep going, a single broken page shouldn't sink the upload
			logger.Error("Error parsing page content", "page", i, "error", err)
			continue
		}
		pages = append(pages, content)
	}
	return strings.Join(pages, "\n\n"), nil
}

// cat reads .odt, .docx, .rtf and plaintext files
func extractWithCat(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		logger.Error("Error extracting content from doc", "path", path)
		return "", fmt.Errorf("failed to extract document: %w", err)
	}
	return text, nil
}

// protectExtract runs the page extraction with a timeout, the pdf library can
// hang on malformed content streams.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(time.Second * 10):
		logger.Error("pageExtract", "timeout", true)
		return "", errors.New("timeout")
	}
}
