package plaintext

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/veriskai/modelrisk/internal/core/domain"
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, doc *domain.Document, raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("document %s is not valid utf-8 text", doc.DisplayName)
	}
	return strings.TrimSpace(string(raw)), nil
}
