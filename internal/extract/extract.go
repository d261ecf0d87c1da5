// Package extract turns uploaded file bytes into plain text. One strategy
// per supported content type; everything else is rejected before any store
// write happens.
package extract

import (
	"errors"
	"fmt"
	"mime"
	"strings"
)

var ErrUnsupportedType = errors.New("unsupported file type")

const (
	TypePDF  = "application/pdf"
	TypeDOC  = "application/msword"
	TypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeTXT  = "text/plain"
)

// Supported reports whether the declared content type has an extraction
// strategy. Parameters such as charset are ignored.
func Supported(contentType string) bool {
	switch normalize(contentType) {
	case TypePDF, TypeDOC, TypeDOCX, TypeTXT:
		return true
	}
	return false
}

// Text extracts plain text from data according to the declared content type.
func Text(contentType string, data []byte) (string, error) {
	switch normalize(contentType) {
	case TypePDF:
		text, err := pdfText(data)
		if err != nil {
			return "", fmt.Errorf("extract pdf text failed: %w", err)
		}
		return text, nil
	case TypeDOCX:
		text, err := docxText(data)
		if err != nil {
			return "", fmt.Errorf("extract docx text failed: %w", err)
		}
		return text, nil
	case TypeDOC:
		return docText(data), nil
	case TypeTXT:
		return string(data), nil
	default:
		return "", ErrUnsupportedType
	}
}

func normalize(contentType string) string {
	parsed, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return parsed
}
