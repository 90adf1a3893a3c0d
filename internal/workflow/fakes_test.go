package workflow_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"

	"github.com/tinywideclouds/go-notification-relay/internal/metrics"
	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

// --- Sender (mock) ---

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, tokens []string, payload *dispatch.Payload) (*dispatch.BatchResult, error) {
	args := m.Called(ctx, tokens, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatch.BatchResult), args.Error(1)
}

// --- RecordStore (in-memory) ---

type memRecordStore struct {
	mu        sync.Mutex
	records   map[string]*notification.Record
	markErr   error
	staleErr  error
	deleteErr error
	marks     int
}

func newMemRecordStore() *memRecordStore {
	return &memRecordStore{records: make(map[string]*notification.Record)}
}

func (s *memRecordStore) put(id string, rec notification.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = &rec
}

func (s *memRecordStore) get(id string) (notification.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return notification.Record{}, false
	}
	return *rec, true
}

func (s *memRecordStore) Get(_ context.Context, id string) (*notification.Record, error) {
	rec, ok := s.get(id)
	if !ok {
		return nil, dispatch.ErrRecordNotFound
	}
	return &rec, nil
}

func (s *memRecordStore) MarkSent(_ context.Context, id string, c dispatch.Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks++
	if s.markErr != nil {
		return s.markErr
	}
	rec, ok := s.records[id]
	if !ok {
		return dispatch.ErrRecordNotFound
	}
	rec.Sent = true
	if c.Delivered {
		rec.SentAt = time.Now()
		rec.SuccessCount = c.SuccessCount
		rec.FailureCount = c.FailureCount
	}
	if c.Error != "" {
		rec.Error = c.Error
	}
	return nil
}

func (s *memRecordStore) StaleIDs(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.staleErr != nil {
		return nil, s.staleErr
	}
	var ids []string
	for id, rec := range s.records {
		if rec.CreatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *memRecordStore) DeleteRecords(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for _, id := range ids {
		delete(s.records, id)
	}
	return nil
}

// --- TokenStore (in-memory) ---

type memTokenStore struct {
	mu        sync.Mutex
	tokens    map[string][]string
	fetchErr  error
	deleteErr error
	deletes   int
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[string][]string)}
}

func (s *memTokenStore) Tokens(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return append([]string(nil), s.tokens[userID]...), nil
}

func (s *memTokenStore) DeleteTokens(_ context.Context, userID string, tokens []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	drop := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		drop[t] = true
	}
	var kept []string
	for _, t := range s.tokens[userID] {
		if !drop[t] {
			kept = append(kept, t)
		}
	}
	s.tokens[userID] = kept
	return nil
}

func (s *memTokenStore) RegisterToken(_ context.Context, userID string, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID] = append(s.tokens[userID], token)
	return nil
}

func (s *memTokenStore) set(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tokens[userID]...)
}
