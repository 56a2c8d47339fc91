package translator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"modmanager/internal/domain"
	"modmanager/internal/ports"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type backendMock struct{ mock.Mock }

func (m *backendMock) Name() string { return "mock" }

func (m *backendMock) Translate(ctx context.Context, req ports.TranslateRequest) ([]domain.Translation, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).([]domain.Translation)
	return res, args.Error(1)
}

// echoBackend upper-cases every text and records when each call started.
type echoBackend struct {
	mu     sync.Mutex
	clock  ports.Clock
	starts []time.Time
	reqs   []ports.TranslateRequest
}

func (e *echoBackend) Name() string { return "echo" }

func (e *echoBackend) Translate(_ context.Context, req ports.TranslateRequest) ([]domain.Translation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.clock != nil {
		e.starts = append(e.starts, e.clock.Now())
	}
	e.reqs = append(e.reqs, req)
	out := make([]domain.Translation, len(req.Texts))
	for i, t := range req.Texts {
		out[i] = domain.Translation{Text: strings.ToUpper(t), DetectedLanguage: "xx"}
	}
	return out, nil
}

func (e *echoBackend) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.reqs)
}

// mapStore is an in-memory TranslationCacheRepository.
type mapStore struct {
	mu      sync.Mutex
	entries map[string]domain.TranslationCacheEntry
	fail    error
	gets    int
	puts    int
}

func newMapStore() *mapStore { return &mapStore{entries: map[string]domain.TranslationCacheEntry{}} }

func (s *mapStore) Get(_ context.Context, key domain.CacheKey) (*domain.TranslationCacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.fail != nil {
		return nil, s.fail
	}
	e, ok := s.entries[key.String()]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *mapStore) Put(_ context.Context, key domain.CacheKey, tr domain.Translation, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.fail != nil {
		return s.fail
	}
	s.entries[key.String()] = domain.TranslationCacheEntry{Key: key, TranslatedText: tr.Text, DetectedLanguage: tr.DetectedLanguage}
	return nil
}

func (s *mapStore) PurgeExpired(context.Context) (int64, error) { return 0, s.fail }

func (s *mapStore) Clear(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return 0, s.fail
	}
	n := len(s.entries)
	s.entries = map[string]domain.TranslationCacheEntry{}
	return int64(n), nil
}

func (s *mapStore) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), s.fail
}

func throttled() error {
	return &domain.TranslationError{Kind: domain.ErrThrottled, Status: 429, Category: "rateLimitExceeded"}
}
