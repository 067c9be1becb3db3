package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"linux-particleengine/internal/config"
	"linux-particleengine/internal/convert"
	"linux-particleengine/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func main() {
	cfg, err := config.Parse(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		utils.Error("%v", err)
		os.Exit(2)
	}
	utils.CurrentLevel = cfg.LogLevel()
	utils.ShowRaylibInfo = cfg.Log.Raylib
	utils.ShowDebugUI = cfg.Debug
	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = time.Now().UnixNano()
	}

	utils.Info("--- Particle Engine Start ---")
	fsys, err := openAssets(cfg.Assets)
	if err != nil {
		utils.Error("Failed to open assets: %v", err)
		os.Exit(1)
	}

	if cfg.Assets.ConvertDir != "" {
		n, err := convert.ConvertTextures(fsys, cfg.Assets.ConvertDir)
		if err != nil {
			utils.Error("Texture conversion failed after %d files: %v", n, err)
			os.Exit(1)
		}
		if cfg.Effect == "" && cfg.Scene == "" {
			return
		}
	}

	scene, err := loadPlacements(fsys, cfg)
	if err != nil {
		utils.Error("Failed to load: %v", err)
		os.Exit(1)
	}
	utils.Info("Loaded %d effects", len(scene.Placements))

	rl.SetTraceLogCallback(utils.RaylibLogCallback)
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Window.Width), int32(cfg.Window.Height), cfg.Window.Title)
	defer rl.CloseWindow()

	window, err := NewWindow(cfg, fsys, scene)
	if err != nil {
		utils.Error("Failed to start renderer: %v", err)
		os.Exit(1)
	}
	defer window.Close()

	utils.Info("Starting render loop...")
	if err := window.Run(); err != nil {
		utils.Error("Render loop error: %v", err)
		os.Exit(1)
	}
}

// openAssets layers the loose asset directory over the package, if any.
func openAssets(a config.Assets) (fs.FS, error) {
	var layers utils.LayeredFS
	if a.Path != "" {
		info, err := os.Stat(a.Path)
		switch {
		case err == nil && info.IsDir():
			layers = append(layers, os.DirFS(a.Path))
		case a.Package != "":
			utils.Debug("Assets: no directory at %s, using the package only", a.Path)
		case err == nil:
			return nil, fmt.Errorf("%s is not a directory", a.Path)
		default:
			return nil, err
		}
	}
	if a.Package != "" {
		pkg, err := convert.OpenPackage(a.Package)
		if err != nil {
			return nil, err
		}
		utils.Info("Package %s: %d files", pkg.Version, len(pkg.Entries))
		layers = append(layers, pkg)
	}
	if a.ConvertDir != "" {
		if _, err := os.Stat(a.ConvertDir); err == nil {
			layers = append(layers, os.DirFS(a.ConvertDir))
		}
	}
	return layers, nil
}
