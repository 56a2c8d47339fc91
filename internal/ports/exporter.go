package ports

import "modmanager/internal/domain"

// CatalogExporter renders catalog items into a file format.
type CatalogExporter interface {
	Format() string
	Export(items []*domain.CatalogItem) ([]byte, error)
}
