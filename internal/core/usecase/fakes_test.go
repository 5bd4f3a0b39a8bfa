package usecase

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/veriskai/modelrisk/internal/core/domain"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type repoFake struct {
	doc         *domain.Document
	docs        []domain.Document
	getErr      error
	statusErr   error
	indexedErr  error
	deleteErr   error
	statusCalls []statusCall
	indexedID   string
	chunkCount  int
	deletedID   string
}

func (f *repoFake) Create(_ context.Context, doc *domain.Document) error {
	f.doc = doc
	return nil
}

func (f *repoFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *repoFake) ListByOwner(context.Context, string, int) ([]domain.Document, error) {
	return f.docs, nil
}

func (f *repoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	return f.statusErr
}

func (f *repoFake) SetIndexed(ctx context.Context, id string, chunkCount int) error {
	// Mirrors the real repository: an ExecContext on a dead context
	// returns its error before any row is touched.
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.indexedErr != nil {
		return f.indexedErr
	}
	f.statusCalls = append(f.statusCalls, statusCall{status: domain.StatusIndexed})
	f.indexedID = id
	f.chunkCount = chunkCount
	return nil
}

func (f *repoFake) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedID = id
	return nil
}

type storageFake struct {
	content  string
	fetchErr error
	saveErr  error
	savedKey string
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedKey = key
	_, _ = io.Copy(io.Discard, data)
	return nil
}

func (f *storageFake) Fetch(context.Context, string) (io.ReadCloser, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return io.NopCloser(bytes.NewReader([]byte(f.content))), nil
}

type queueFake struct {
	published  []string
	publishErr error
}

func (f *queueFake) PublishIngestRequested(_ context.Context, documentID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeIngestRequested(context.Context, func(context.Context, string) error) error {
	return nil
}

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Extract(context.Context, *domain.Document, []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type chunkerFake struct {
	chunks []string
}

func (f *chunkerFake) Split(string) []string { return f.chunks }

type embedderFake struct {
	vectors     [][]float32
	queryVector []float32
	err         error
	queryErr    error
}

func (f *embedderFake) Embed(context.Context, []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors, nil
}

func (f *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryVector, nil
}

type indexCall struct {
	op       string
	docID    string
	revision string
	chunks   int
}

type indexFake struct {
	hits        []domain.ScoredChunk
	upsertErr   error
	searchErr   error
	onDropStale func()
	calls       []indexCall
}

func (f *indexFake) Upsert(_ context.Context, doc *domain.Document, chunks []domain.Chunk, revision string) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.calls = append(f.calls, indexCall{op: "upsert", docID: doc.ID, revision: revision, chunks: len(chunks)})
	return nil
}

func (f *indexFake) Search(context.Context, []float32, int, float64, domain.SearchScope) ([]domain.ScoredChunk, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.hits, nil
}

func (f *indexFake) DeleteByDocument(_ context.Context, documentID string) error {
	f.calls = append(f.calls, indexCall{op: "delete", docID: documentID})
	return nil
}

func (f *indexFake) DropStale(_ context.Context, documentID, keepRevision string) error {
	f.calls = append(f.calls, indexCall{op: "drop_stale", docID: documentID, revision: keepRevision})
	if f.onDropStale != nil {
		f.onDropStale()
	}
	return nil
}

type generatorFake struct {
	answer string
	err    error
	calls  int
	// captured inputs
	lastQuestion string
	lastContext  string
}

func (f *generatorFake) Generate(_ context.Context, question, contextBlock string) (string, error) {
	f.calls++
	f.lastQuestion = question
	f.lastContext = contextBlock
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type questionRepoFake struct {
	records   []domain.QuestionRecord
	createErr error
	listErr   error
}

func (f *questionRepoFake) Create(_ context.Context, record *domain.QuestionRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.records = append(f.records, *record)
	return nil
}

func (f *questionRepoFake) ListByOwner(_ context.Context, ownerID string, limit int) ([]domain.QuestionRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.QuestionRecord, 0, len(f.records))
	for _, r := range f.records {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *questionRepoFake) ListSince(_ context.Context, ownerID string, since time.Time) ([]domain.QuestionRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.QuestionRecord, 0, len(f.records))
	for _, r := range f.records {
		if ownerID != "" && r.OwnerID != ownerID {
			continue
		}
		if r.CreatedAt.Before(since) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
