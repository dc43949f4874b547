package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"ledgerlens-backend/internal/shared/storage/object"
)

const mimePDF = "application/pdf"

// Result carries extracted text plus page count for document records.
type Result struct {
	Text     string
	NumPages int
}

// ExtractText pulls text from a stored PDF object.
func ExtractText(ctx context.Context, store object.ObjectStore, fileKey string, mimeType string, fileName string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	body, err := store.Open(ctx, fileKey)
	if err != nil {
		return Result{}, fmt.Errorf("extract text key=%s mime=%s: %w", fileKey, mimeType, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return Result{}, fmt.Errorf("extract text key=%s mime=%s: read: %w", fileKey, mimeType, err)
	}

	res, err := ExtractTextFromBytes(ctx, raw, mimeType, fileName)
	if err != nil {
		return Result{}, fmt.Errorf("extract text key=%s mime=%s: %w", fileKey, mimeType, err)
	}
	return res, nil
}

// ExtractTextFromBytes extracts text from an in-memory payload. Only PDF
// filings are supported.
func ExtractTextFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if !isPDF(mimeType, fileName) {
		return Result{}, fmt.Errorf("unsupported mime type: %s", mimeType)
	}
	return extractPDF(data)
}

func isPDF(mimeType string, fileName string) bool {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean == mimePDF {
		return true
	}
	// Some upload clients send application/octet-stream for PDFs.
	if clean == "" || clean == "application/octet-stream" {
		return strings.ToLower(filepath.Ext(fileName)) == ".pdf"
	}
	return false
}

func extractPDF(data []byte) (Result, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return Result{}, err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return Result{}, err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return Result{}, err
	}
	return Result{Text: buf.String(), NumPages: pdfReader.NumPage()}, nil
}
