// Package catalog answers read queries over the stored catalog.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"modmanager/internal/adapters/exporter/registry"
	"modmanager/internal/domain"
	"modmanager/internal/ports"
)

const DefaultSearchLimit = 50

type Service struct {
	Items        ports.CatalogRepository
	Exporters    *registry.Registry
	Clock        ports.Clock
	RecentWindow time.Duration
}

func New(items ports.CatalogRepository, exporters *registry.Registry, clock ports.Clock, recentWindow time.Duration) *Service {
	if clock == nil {
		clock = ports.SystemClock
	}
	if recentWindow <= 0 {
		recentWindow = 7 * 24 * time.Hour
	}
	return &Service{Items: items, Exporters: exporters, Clock: clock, RecentWindow: recentWindow}
}

// GetItem returns the stored item. With includeTranslation the title and
// description show the translation when there is one and the originals stay
// under Translation; without it the remote text is returned and Translation
// is omitted.
func (s *Service) GetItem(ctx context.Context, id string, includeTranslation bool) (*domain.CatalogItem, error) {
	it, err := s.Items.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	var out domain.CatalogItem
	if includeTranslation {
		out = it.Localized()
	} else {
		out = it.Original()
	}
	return &out, nil
}

// Search matches term against original and translated text. Results are
// localized the same way GetItem does with includeTranslation.
func (s *Service) Search(ctx context.Context, term string, limit int) ([]domain.CatalogItem, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	items, err := s.Items.Search(ctx, strings.TrimSpace(term), limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CatalogItem, 0, len(items))
	for _, it := range items {
		out = append(out, it.Localized())
	}
	return out, nil
}

func (s *Service) Statistics(ctx context.Context) (domain.Statistics, error) {
	return s.Items.Statistics(ctx, s.Clock.Now().Add(-s.RecentWindow))
}

// Export renders every stored item in the given format.
func (s *Service) Export(ctx context.Context, format string) ([]byte, error) {
	if s.Exporters == nil {
		return nil, fmt.Errorf("no exporters configured")
	}
	exp, ok := s.Exporters.Get(strings.ToLower(format))
	if !ok {
		return nil, fmt.Errorf("no exporter for format %q (have %s)", format, strings.Join(s.Exporters.Formats(), ", "))
	}
	items, err := s.Items.List(ctx)
	if err != nil {
		return nil, err
	}
	return exp.Export(items)
}
