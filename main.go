package main

import (
	"context"
	"embed"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"modmanager/internal/bootstrap"
	"modmanager/internal/config"
	"modmanager/internal/logging"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfg, err := config.Load("")
	if err != nil {
		println("Config Error:", err.Error())
		return
	}
	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Backend: cfg.Log.Backend})
	if err != nil {
		println("Logger Error:", err.Error())
		return
	}

	built, err := bootstrap.Build(context.Background(), cfg, log, bootstrap.Overrides{})
	if err != nil {
		println("Startup Error:", err.Error())
		return
	}
	app := NewApp(built)

	err = wails.Run(&options.App{
		Title:  "Mod Manager",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		Bind: []interface{}{
			app,
			built.API,
		},
	})
	if err != nil {
		println("Error:", err.Error())
	}
}
