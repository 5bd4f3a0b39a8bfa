package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/veriskai/modelrisk/internal/core/domain"
)

// Client talks to Qdrant over its HTTP API. Upserts use wait=true so chunks
// are durable and visible before the call returns; stale revisions of a
// document are dropped only afterwards, which gives re-ingestion its
// atomic-swap behavior.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Upsert(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, revision string) error {
	if len(chunks) == 0 {
		return nil
	}

	if err := c.ensureCollection(ctx, len(chunks[0].Embedding)); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for _, chunk := range chunks {
		points = append(points, point{
			ID:     chunk.ID,
			Vector: chunk.Embedding,
			Payload: map[string]any{
				"doc_id":   chunk.DocumentID,
				"doc_name": doc.DisplayName,
				"owner_id": doc.OwnerID,
				"ordinal":  chunk.Ordinal,
				"text":     chunk.Content,
				"revision": revision,
			},
		})
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	return c.do(ctx, http.MethodPut, url, map[string]any{"points": points}, nil, "upsert")
}

func (c *Client) Search(
	ctx context.Context,
	queryVector []float32,
	k int,
	minSimilarity float64,
	scope domain.SearchScope,
) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	reqBody := map[string]any{
		"vector":          queryVector,
		"limit":           k,
		"score_threshold": minSimilarity,
		"with_payload":    true,
	}
	if scope.OwnerID != "" {
		reqBody["filter"] = map[string]any{
			"must": []map[string]any{
				{"key": "owner_id", "match": map[string]any{"value": scope.OwnerID}},
			},
		}
	}

	var searchResp struct {
		Result []struct {
			ID      string         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodPost, url, reqBody, &searchResp, "search"); err != nil {
		return nil, err
	}

	out := make([]domain.ScoredChunk, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.ScoredChunk{
			DocumentID:   stringPayload(r.Payload, "doc_id"),
			DocumentName: stringPayload(r.Payload, "doc_name"),
			ChunkID:      r.ID,
			Ordinal:      intPayload(r.Payload, "ordinal"),
			Content:      stringPayload(r.Payload, "text"),
			Similarity:   r.Score,
		})
	}
	return out, nil
}

func (c *Client) DeleteByDocument(ctx context.Context, documentID string) error {
	filter := map[string]any{
		"must": []map[string]any{
			{"key": "doc_id", "match": map[string]any{"value": documentID}},
		},
	}
	return c.deleteByFilter(ctx, filter)
}

func (c *Client) DropStale(ctx context.Context, documentID, keepRevision string) error {
	filter := map[string]any{
		"must": []map[string]any{
			{"key": "doc_id", "match": map[string]any{"value": documentID}},
		},
		"must_not": []map[string]any{
			{"key": "revision", "match": map[string]any{"value": keepRevision}},
		},
	}
	return c.deleteByFilter(ctx, filter)
}

func (c *Client) deleteByFilter(ctx context.Context, filter map[string]any) error {
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", c.baseURL, c.collection)
	return c.do(ctx, http.MethodPost, url, map[string]any{"filter": filter}, nil, "delete")
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	err := c.do(ctx, http.MethodPut, url, reqBody, nil, "ensure collection")
	// 409 means the collection already exists, which is fine.
	var statusErr *httpStatusError
	if err != nil && !(asStatusError(err, &statusErr) && statusErr.statusCode == http.StatusConflict) {
		return err
	}

	c.ensureMu.Lock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
	c.ensureMu.Unlock()
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, payload, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &httpStatusError{
			operation:  operation,
			statusCode: resp.StatusCode,
			status:     resp.Status,
			body:       strings.TrimSpace(string(respBody)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func stringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func intPayload(payload map[string]any, key string) int {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return 0
}
