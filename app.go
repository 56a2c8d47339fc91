package main

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"modmanager/internal/bootstrap"
)

// App owns the window lifecycle; catalog operations are bound separately.
type App struct {
	ctx  context.Context
	stop context.CancelFunc
	core *bootstrap.App
}

func NewApp(core *bootstrap.App) *App {
	return &App{core: core}
}

// startup is called when the app starts. Sync progress is forwarded to the
// frontend from here on.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.core.Syncer.SetEmitter(wailsEmitter{ctx: ctx})
	mctx, cancel := context.WithCancel(ctx)
	a.stop = cancel
	a.core.StartMaintenance(mctx)
}

func (a *App) shutdown(ctx context.Context) {
	if a.stop != nil {
		a.stop()
	}
	if err := a.core.Close(); err != nil {
		a.core.Logger.Error(ctx, "close database", "error", err)
	}
}

// DefaultLanguage is the language catalog text is translated into.
func (a *App) DefaultLanguage() string {
	return a.core.Config.DefaultLanguage
}

// ExportFormats lists the formats accepted by Export.
func (a *App) ExportFormats() []string {
	return a.core.Catalog.Exporters.Formats()
}

type wailsEmitter struct{ ctx context.Context }

func (w wailsEmitter) Emit(name string, payload any) {
	runtime.EventsEmit(w.ctx, name, payload)
}
