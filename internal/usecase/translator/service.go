package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	"modmanager/internal/domain"
	"modmanager/internal/logging"
	"modmanager/internal/ports"
)

type Deps struct {
	// Backend is nil when no credentials are configured; translation then
	// fails with domain.ErrConfiguration.
	Backend ports.TranslationBackend
	Memory  MemoryCache
	// Store may be nil to run memory-only.
	Store  ports.TranslationCacheRepository
	Clock  ports.Clock
	Logger logging.Logger
}

type Options struct {
	PerSecond   int
	PerMinute   int
	MinInterval time.Duration
	MaxRetries  int
	BaseBackoff time.Duration
	StoreTTL    time.Duration
	BatchLimit  int
}

func (o *Options) withDefaults() {
	if o.PerSecond <= 0 {
		o.PerSecond = 5
	}
	if o.PerMinute <= 0 {
		o.PerMinute = 100
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = time.Second
	}
	if o.StoreTTL <= 0 {
		o.StoreTTL = 7 * 24 * time.Hour
	}
	if o.BatchLimit <= 0 {
		o.BatchLimit = 50
	}
}

// Service translates text through the cache tiers and, on a miss, the
// rate-limited remote backend.
type Service struct {
	d      Deps
	o      Options
	budget *RateBudget
	tiers  []Tier
	store  *storeTier
	group  singleflight.Group
	log    logging.Logger
}

func New(d Deps, o Options) *Service {
	o.withDefaults()
	if d.Clock == nil {
		d.Clock = ports.SystemClock
	}
	if d.Logger == nil {
		d.Logger = logging.NoOp()
	}
	s := &Service{
		d:      d,
		o:      o,
		budget: NewRateBudget(o.PerSecond, o.PerMinute, o.MinInterval, d.Clock),
		log:    d.Logger.With("component", "translator"),
	}
	if d.Memory != nil {
		s.tiers = append(s.tiers, memoryTier{cache: d.Memory})
	}
	if d.Store != nil {
		s.store = &storeTier{repo: d.Store, ttl: o.StoreTTL, log: s.log}
		s.tiers = append(s.tiers, s.store)
	}
	return s
}

// Enabled reports whether a remote backend is configured.
func (s *Service) Enabled() bool { return s.d.Backend != nil }

func (s *Service) Budget() *RateBudget { return s.budget }

// Translate returns the translation of text into targetLang. An empty
// sourceLang lets the backend detect the language.
func (s *Service) Translate(ctx context.Context, text, sourceLang, targetLang string) (domain.Translation, error) {
	if strings.TrimSpace(targetLang) == "" {
		return domain.Translation{}, errors.New("translate: target language required")
	}
	if strings.TrimSpace(text) == "" {
		return domain.Translation{Text: text}, nil
	}
	key := domain.NewCacheKey(text, sourceLang, targetLang)
	if tr, ok := s.lookup(ctx, key); ok {
		return tr, nil
	}
	if !s.Enabled() {
		return domain.Translation{}, &domain.TranslationError{Kind: domain.ErrConfiguration, Message: "no translation backend configured"}
	}
	v, err, _ := s.group.Do(key.String(), func() (any, error) {
		// a flight that just finished may have filled the cache
		if tr, ok := s.lookup(ctx, key); ok {
			return tr, nil
		}
		res, err := s.call(ctx, ports.TranslateRequest{Texts: []string{text}, SourceLang: key.SourceParam(), TargetLang: key.TargetLang})
		if err != nil {
			return nil, err
		}
		s.remember(ctx, key, res[0])
		return res[0], nil
	})
	if err != nil {
		return domain.Translation{}, err
	}
	return v.(domain.Translation), nil
}

// TranslateBatch translates texts together, sending every cache miss to the
// backend in as few calls as BatchLimit allows. Results keep input order.
func (s *Service) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]domain.Translation, error) {
	if strings.TrimSpace(targetLang) == "" {
		return nil, errors.New("translate: target language required")
	}
	out := make([]domain.Translation, len(texts))
	pending := map[string][]int{}
	var misses []domain.CacheKey
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			out[i] = domain.Translation{Text: text}
			continue
		}
		key := domain.NewCacheKey(text, sourceLang, targetLang)
		if tr, ok := s.lookup(ctx, key); ok {
			out[i] = tr
			continue
		}
		if _, seen := pending[text]; !seen {
			misses = append(misses, key)
		}
		pending[text] = append(pending[text], i)
	}
	if len(misses) == 0 {
		return out, nil
	}
	if !s.Enabled() {
		return nil, &domain.TranslationError{Kind: domain.ErrConfiguration, Message: "no translation backend configured"}
	}
	for start := 0; start < len(misses); start += s.o.BatchLimit {
		chunk := misses[start:min(start+s.o.BatchLimit, len(misses))]
		req := ports.TranslateRequest{Texts: make([]string, len(chunk)), SourceLang: chunk[0].SourceParam(), TargetLang: chunk[0].TargetLang}
		for i, k := range chunk {
			req.Texts[i] = k.Text
		}
		res, err := s.call(ctx, req)
		if err != nil {
			return nil, err
		}
		for i, k := range chunk {
			s.remember(ctx, k, res[i])
			for _, idx := range pending[k.Text] {
				out[idx] = res[i]
			}
		}
	}
	return out, nil
}

// call performs one remote request, retrying throttled attempts with
// exponential backoff. Each attempt takes a slot from the rate budget.
func (s *Service) call(ctx context.Context, req ports.TranslateRequest) ([]domain.Translation, error) {
	backoff := retry.WithMaxRetries(uint64(s.o.MaxRetries), retry.NewExponential(s.o.BaseBackoff))
	for attempt := 1; ; attempt++ {
		if err := s.budget.Acquire(ctx); err != nil {
			return nil, err
		}
		res, err := s.d.Backend.Translate(ctx, req)
		if err == nil {
			if len(res) != len(req.Texts) {
				return nil, &domain.TranslationError{
					Kind:    domain.ErrRejected,
					Message: fmt.Sprintf("backend returned %d results for %d texts", len(res), len(req.Texts)),
				}
			}
			return res, nil
		}
		if !errors.Is(err, domain.ErrThrottled) {
			return nil, err
		}
		delay, stop := backoff.Next()
		if stop {
			s.log.Warn(ctx, "translation still throttled, giving up", "attempts", attempt, "error", err)
			return nil, err
		}
		var te *domain.TranslationError
		if errors.As(err, &te) && te.RetryAfter > delay {
			delay = te.RetryAfter
		}
		s.log.Debug(ctx, "translation throttled, backing off", "attempt", attempt, "delay", delay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.d.Clock.After(delay):
		}
	}
}

func (s *Service) lookup(ctx context.Context, key domain.CacheKey) (domain.Translation, bool) {
	for i, t := range s.tiers {
		tr, ok := t.Lookup(ctx, key)
		if !ok {
			continue
		}
		for _, earlier := range s.tiers[:i] {
			earlier.Store(ctx, key, tr)
		}
		return tr, true
	}
	return domain.Translation{}, false
}

// remember writes through every tier, memory first, so a store failure
// never loses the value.
func (s *Service) remember(ctx context.Context, key domain.CacheKey, tr domain.Translation) {
	for _, t := range s.tiers {
		t.Store(ctx, key, tr)
	}
}

// ClearCache empties both tiers.
func (s *Service) ClearCache(ctx context.Context) error {
	if s.d.Memory != nil {
		s.d.Memory.Clear()
	}
	if s.store == nil || s.store.Degraded() {
		return nil
	}
	n, err := s.d.Store.Clear(ctx)
	if err != nil {
		s.store.degrade(ctx, err)
		return err
	}
	s.log.Info(ctx, "translation cache cleared", "persistent_entries", n)
	return nil
}

// PurgeExpired sweeps the memory tier and deletes expired store rows.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	var removed int64
	if s.d.Memory != nil {
		removed += int64(s.d.Memory.Sweep())
	}
	if s.store == nil || s.store.Degraded() {
		return removed, nil
	}
	n, err := s.d.Store.PurgeExpired(ctx)
	if err != nil {
		s.store.degrade(ctx, err)
		return removed, err
	}
	return removed + n, nil
}

func (s *Service) CacheStats(ctx context.Context) domain.CacheStats {
	var st domain.CacheStats
	if s.d.Memory != nil {
		st.MemoryEntryCount = s.d.Memory.Len()
		st.ApproximateMemorySize = s.d.Memory.ApproxSize()
	}
	if s.store != nil {
		if !s.store.Degraded() {
			n, err := s.d.Store.Count(ctx)
			if err != nil {
				s.store.degrade(ctx, err)
			}
			st.PersistentEntryCount = n
		}
		st.StoreDegraded = s.store.Degraded()
	}
	return st
}

// RunMaintenance purges expired entries every interval until ctx is done.
func (s *Service) RunMaintenance(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.PurgeExpired(ctx); err != nil {
				s.log.Warn(ctx, "cache maintenance failed", "error", err)
			} else if n > 0 {
				s.log.Debug(ctx, "expired translations purged", "count", n)
			}
		}
	}
}
