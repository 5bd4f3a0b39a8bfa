package extractor

import (
	"context"
	"strings"
	"testing"

	"github.com/veriskai/modelrisk/internal/core/domain"
)

func TestExtractPlainText(t *testing.T) {
	d := NewDispatcher()
	doc := &domain.Document{ID: "doc-1", DisplayName: "policy.txt", MediaType: "text/plain; charset=utf-8"}

	text, err := d.Extract(context.Background(), doc, []byte("  model risk policy  "))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "model risk policy" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractUnknownMediaTypeDegradesToPlaceholder(t *testing.T) {
	d := NewDispatcher()
	doc := &domain.Document{ID: "doc-1", DisplayName: "model.bin", MediaType: "application/octet-stream"}

	text, err := d.Extract(context.Background(), doc, []byte{0x00, 0x01})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(text, "model.bin") {
		t.Fatalf("expected placeholder naming the document, got %q", text)
	}
}

func TestExtractCorruptPDFDegradesToPlaceholder(t *testing.T) {
	d := NewDispatcher()
	doc := &domain.Document{ID: "doc-1", DisplayName: "broken.pdf", MediaType: "application/pdf"}

	text, err := d.Extract(context.Background(), doc, []byte("not a pdf"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(text, "no text extracted") {
		t.Fatalf("expected degraded placeholder, got %q", text)
	}
}

func TestExtractBinaryLabeledAsTextDegrades(t *testing.T) {
	d := NewDispatcher()
	doc := &domain.Document{ID: "doc-1", DisplayName: "odd.txt", MediaType: "text/plain"}

	text, err := d.Extract(context.Background(), doc, []byte{0xff, 0xfe, 0x00})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(text, "no text extracted") {
		t.Fatalf("expected degraded placeholder for invalid utf-8, got %q", text)
	}
}

func TestNormalizeMediaType(t *testing.T) {
	cases := map[string]string{
		"Text/Plain; charset=UTF-8": "text/plain",
		"  application/pdf ":        "application/pdf",
		"":                          "",
	}
	for in, want := range cases {
		if got := normalizeMediaType(in); got != want {
			t.Fatalf("normalizeMediaType(%q) = %q, want %q", in, got, want)
		}
	}
}
