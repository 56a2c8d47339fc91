package registry

import (
	"sort"

	"modmanager/internal/ports"
)

type Registry struct{ byFormat map[string]ports.CatalogExporter }

func New(exporters ...ports.CatalogExporter) *Registry {
	r := &Registry{byFormat: map[string]ports.CatalogExporter{}}
	for _, e := range exporters {
		r.Register(e)
	}
	return r
}

func (r *Registry) Register(e ports.CatalogExporter) { r.byFormat[e.Format()] = e }

func (r *Registry) Get(format string) (ports.CatalogExporter, bool) {
	e, ok := r.byFormat[format]
	return e, ok
}

func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.byFormat))
	for f := range r.byFormat {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
