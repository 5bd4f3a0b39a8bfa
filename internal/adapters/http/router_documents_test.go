package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/veriskai/modelrisk/internal/config"
	"github.com/veriskai/modelrisk/internal/core/domain"
)

type documentsFake struct {
	uploadErr   error
	getErr      error
	deleteErr   error
	reingestErr error
	reingested  []string
}

func (f *documentsFake) Upload(_ context.Context, ownerID, displayName, mediaType string, size int64, body io.Reader) (*domain.Document, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if _, err := io.ReadAll(body); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &domain.Document{
		ID:          "doc-1",
		OwnerID:     ownerID,
		DisplayName: displayName,
		MediaType:   mediaType,
		SizeBytes:   size,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (f *documentsFake) Get(_ context.Context, ownerID, documentID string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &domain.Document{ID: documentID, OwnerID: ownerID, Status: domain.StatusIndexed}, nil
}

func (f *documentsFake) List(context.Context, string, int) ([]domain.Document, error) {
	return nil, nil
}

func (f *documentsFake) Delete(context.Context, string, string) error {
	return f.deleteErr
}

func (f *documentsFake) Reingest(_ context.Context, _, documentID string) error {
	if f.reingestErr != nil {
		return f.reingestErr
	}
	f.reingested = append(f.reingested, documentID)
	return nil
}

type answersFake struct {
	answerErr error
	record    *domain.QuestionRecord
}

func (f *answersFake) Answer(_ context.Context, ownerID, question string) (*domain.QuestionRecord, error) {
	if f.answerErr != nil {
		return nil, f.answerErr
	}
	if f.record != nil {
		return f.record, nil
	}
	return &domain.QuestionRecord{
		ID:           "q-1",
		OwnerID:      ownerID,
		Question:     question,
		Answer:       "ok",
		RiskCategory: domain.RiskUnknown,
	}, nil
}

func (f *answersFake) History(context.Context, string, int) ([]domain.QuestionRecord, error) {
	return nil, nil
}

type usageFake struct {
	lastOwnerID string
}

func (f *usageFake) Compute(_ context.Context, ownerID string) (*domain.UsageMetrics, error) {
	f.lastOwnerID = ownerID
	return &domain.UsageMetrics{WindowDays: 30}, nil
}

func newTestRouter(documents *documentsFake, answers *answersFake, usage *usageFake) http.Handler {
	if documents == nil {
		documents = &documentsFake{}
	}
	if answers == nil {
		answers = &answersFake{}
	}
	if usage == nil {
		usage = &usageFake{}
	}
	return NewRouter(config.Config{}, documents, answers, usage).Handler()
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestUploadDocumentSuccess(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)

	body, contentType := multipartBody(t, "policy.txt", "hello")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(userIDHeader, "owner-1")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}

	var docResp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&docResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if docResp["id"] != "doc-1" || docResp["owner_id"] != "owner-1" {
		t.Fatalf("unexpected response: %+v", docResp)
	}
}

func TestUploadRequiresUserIDHeader(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)

	body, contentType := multipartBody(t, "policy.txt", "hello")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestUploadDocumentMissingMultipartField(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", bytes.NewBufferString("plain-text"))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set(userIDHeader, "owner-1")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetDocumentReturns404ForNotFound(t *testing.T) {
	documents := &documentsFake{
		getErr: domain.WrapError(domain.ErrNotFound, "get document", errors.New("id missing")),
	}
	handler := newTestRouter(documents, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	req.Header.Set(userIDHeader, "owner-1")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestDeleteDocumentReturns204(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)

	req := httptest.NewRequest(http.MethodDelete, "/v1/documents/doc-1", nil)
	req.Header.Set(userIDHeader, "owner-1")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
}

func TestReingestQueuesDocument(t *testing.T) {
	documents := &documentsFake{}
	handler := newTestRouter(documents, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/doc-1/ingest", nil)
	req.Header.Set(userIDHeader, "owner-1")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}
	if len(documents.reingested) != 1 || documents.reingested[0] != "doc-1" {
		t.Fatalf("expected reingest call for doc-1, got %v", documents.reingested)
	}
}

func TestListDocumentsReturnsEmptyArray(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents", nil)
	req.Header.Set(userIDHeader, "owner-1")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var resp struct {
		Documents []domain.Document `json:"documents"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Documents == nil {
		t.Fatal("expected empty array, got null")
	}
}
