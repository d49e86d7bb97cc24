// Package upload is the boundary to the remote processing service: local file
// checks, the multipart submission and normalization of what comes back.
package upload

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"quillium-client/internal/models"
)

// MaxFileSize is the largest file accepted for upload.
const MaxFileSize = 50 * 1024 * 1024

const sniffLen = 512

// ValidationError is returned for files rejected before any request is made.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if msg, ok := e.Fields["file"]; ok {
		return msg
	}
	return "Validation error"
}

func invalid(msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{"file": msg}}
}

// Validate checks the file name, size and first bytes of a candidate upload.
func Validate(name string, size int64, head []byte) error {
	if size <= 0 {
		return invalid("Uploaded file is empty")
	}
	if !isPDF(name, head) {
		return invalid("Please upload a valid PDF file under 50MB")
	}
	if size > MaxFileSize {
		return invalid("Please upload a valid PDF file under 50MB")
	}
	return nil
}

func isPDF(name string, head []byte) bool {
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	switch http.DetectContentType(head) {
	case "application/pdf":
		return true
	case "application/octet-stream":
		return strings.EqualFold(filepath.Ext(name), ".pdf")
	default:
		return false
	}
}

// ReadHead returns up to the first 512 bytes of r and rewinds it.
func ReadHead(r io.ReadSeeker) ([]byte, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read file header: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind file: %w", err)
	}
	return buf[:n], nil
}

// Inspect validates the file at path and reports its name, size and page
// count. Pages is 0 when the PDF cannot be parsed locally.
func Inspect(path string) (models.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.FileInfo{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return models.FileInfo{}, fmt.Errorf("failed to stat file: %w", err)
	}
	head, err := ReadHead(f)
	if err != nil {
		return models.FileInfo{}, err
	}

	info := models.FileInfo{Name: filepath.Base(path), Size: st.Size()}
	if err := Validate(info.Name, info.Size, head); err != nil {
		return info, err
	}
	info.Pages = PageCount(f, info.Size)
	return info, nil
}

// PageCount returns the number of pages in the PDF, or 0 when it cannot be read.
func PageCount(r io.ReaderAt, size int64) (pages int) {
	// The parser panics on some malformed files.
	defer func() {
		if recover() != nil {
			pages = 0
		}
	}()
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return 0
	}
	return reader.NumPage()
}
