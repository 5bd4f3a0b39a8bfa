// Package extractor selects a text extractor by document media type.
// Extraction never blocks ingestion: unknown media types and extraction
// failures both degrade to a short placeholder, and the document still
// indexes (with near-zero useful chunks).
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/veriskai/modelrisk/internal/core/domain"
	"github.com/veriskai/modelrisk/internal/core/ports"
	"github.com/veriskai/modelrisk/internal/infrastructure/extractor/pdf"
	"github.com/veriskai/modelrisk/internal/infrastructure/extractor/plaintext"
	"github.com/veriskai/modelrisk/internal/infrastructure/extractor/spreadsheet"
)

const xlsxMediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Dispatcher struct {
	byType map[string]ports.TextExtractor
	text   ports.TextExtractor
}

func NewDispatcher() *Dispatcher {
	text := plaintext.New()
	return &Dispatcher{
		byType: map[string]ports.TextExtractor{
			"application/pdf":  pdf.New(),
			"application/json": text,
			xlsxMediaType:      spreadsheet.New(),
		},
		text: text,
	}
}

func (d *Dispatcher) Extract(ctx context.Context, doc *domain.Document, raw []byte) (string, error) {
	impl := d.lookup(doc.MediaType)
	if impl == nil {
		slog.Warn("unsupported_media_type", "document_id", doc.ID, "media_type", doc.MediaType)
		return placeholder(doc), nil
	}

	text, err := impl.Extract(ctx, doc, raw)
	if err != nil {
		slog.Warn("extraction_degraded", "document_id", doc.ID, "media_type", doc.MediaType, "error", err)
		return placeholder(doc), nil
	}
	return text, nil
}

func (d *Dispatcher) lookup(mediaType string) ports.TextExtractor {
	mediaType = normalizeMediaType(mediaType)
	if impl, ok := d.byType[mediaType]; ok {
		return impl
	}
	if strings.HasPrefix(mediaType, "text/") {
		return d.text
	}
	return nil
}

func normalizeMediaType(mediaType string) string {
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}
	return mediaType
}

func placeholder(doc *domain.Document) string {
	return fmt.Sprintf("[no text extracted from %s (%s)]", doc.DisplayName, doc.MediaType)
}
