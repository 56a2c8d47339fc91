package json

import (
	"encoding/json"

	"modmanager/internal/domain"
)

type Exporter struct{}

func New() *Exporter { return &Exporter{} }

func (e *Exporter) Format() string { return "json" }

func (e *Exporter) Export(items []*domain.CatalogItem) ([]byte, error) {
	if items == nil {
		items = []*domain.CatalogItem{}
	}
	return json.MarshalIndent(items, "", "  ")
}
