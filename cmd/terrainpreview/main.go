// Terrain preview tool - interactive view of the height and water field and
// the obstacle layout, with sliders for the snow lines, river and seed.
//
// Usage: go run ./cmd/terrainpreview [-config path]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/patrikandersson91/ecosystem-sub000/config"
	"github.com/patrikandersson91/ecosystem-sub000/renderer"
	"github.com/patrikandersson91/ecosystem-sub000/systems"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 640
	gridSize     = 200
	panelWidth   = windowWidth - previewSize - 30
)

// previewParams holds the tunable terrain parameters.
type previewParams struct {
	SnowSoft   float32
	SnowHard   float32
	RiverWidth float32
	RiverAmp   float32
	Seed       int64
}

func paramsFrom(cfg *config.Config) previewParams {
	return previewParams{
		SnowSoft:   float32(cfg.Terrain.SnowSoft),
		SnowHard:   float32(cfg.Terrain.SnowHard),
		RiverWidth: float32(cfg.Terrain.River.Width),
		RiverAmp:   float32(cfg.Terrain.River.A),
		Seed:       cfg.World.Seed,
	}
}

func (p previewParams) apply(cfg *config.Config) {
	cfg.Terrain.SnowSoft = float64(p.SnowSoft)
	cfg.Terrain.SnowHard = float64(p.SnowHard)
	cfg.Terrain.River.Width = float64(p.RiverWidth)
	cfg.Terrain.River.A = float64(p.RiverAmp)
	cfg.World.Seed = p.Seed
}

// fieldStats summarizes a terrain sample.
type fieldStats struct {
	Water, Walkable, Snow float64 // fractions of the map
	MinH, MaxH            float64
}

func sampleStats(t *systems.Terrain) fieldStats {
	half := t.HalfSize()
	soft, _ := t.SnowLine()
	s := fieldStats{MinH: 1e9, MaxH: -1e9}
	var water, walk, snow int
	for row := 0; row < gridSize; row++ {
		z := -half + (float64(row)+0.5)/gridSize*2*half
		for col := 0; col < gridSize; col++ {
			x := -half + (float64(col)+0.5)/gridSize*2*half
			h := t.HeightAt(x, z)
			s.MinH = min(s.MinH, h)
			s.MaxH = max(s.MaxH, h)
			switch {
			case t.WaterDepthAt(x, z) > 0:
				water++
			case h >= soft:
				snow++
			}
			if t.IsWalkable(x, z, 0) {
				walk++
			}
		}
	}
	n := float64(gridSize * gridSize)
	s.Water, s.Walkable, s.Snow = float64(water)/n, float64(walk)/n, float64(snow)/n
	return s
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	defaults := paramsFrom(cfg)
	params := defaults

	rl.InitWindow(windowWidth, windowHeight, "Terrain Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	var (
		terrain   *systems.Terrain
		obstacles []systems.Obstacle
		texture   rl.Texture2D
		stats     fieldStats
		loaded    bool
	)
	regenerate := func() {
		params.apply(cfg)
		cfg.ComputeDerived()
		terrain = systems.NewTerrain(cfg)
		obstacles = systems.GenerateObstacles(cfg, terrain, params.Seed)
		stats = sampleStats(terrain)
		if loaded {
			rl.UnloadTexture(texture)
		}
		texture = renderer.LoadTerrainTexture(terrain, gridSize)
		loaded = true
	}
	regenerate()
	defer func() { rl.UnloadTexture(texture) }()

	needsRegen := false
	scale := float32(previewSize) / float32(2*terrain.HalfSize())
	toScreen := func(p r3.Vec) rl.Vector2 {
		half := terrain.HalfSize()
		return rl.Vector2{X: 10 + float32(p.X+half)*scale, Y: 10 + float32(p.Z+half)*scale}
	}

	slider := func(panelX float32, panelY *float32, label, lo, hi, format string, value, minV, maxV float32) float32 {
		rl.DrawText(label, int32(panelX), int32(*panelY), 14, rl.Gray)
		*panelY += 18
		v := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: *panelY, Width: float32(panelWidth - 80), Height: 20},
			lo, hi, value, minV, maxV,
		)
		rl.DrawText(fmt.Sprintf(format, value), int32(panelX+float32(panelWidth-70)), int32(*panelY+2), 16, rl.DarkGray)
		*panelY += 35
		return v
	}

	for !rl.WindowShouldClose() {
		if needsRegen {
			regenerate()
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: gridSize, Height: gridSize},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		for _, o := range obstacles {
			c := rl.DarkGreen
			switch o.Kind {
			case systems.ObstacleStone:
				c = rl.Gray
			case systems.ObstacleBush:
				c = rl.Lime
			}
			rl.DrawCircleV(toScreen(o.Pos), max(float32(o.Radius)*scale, 1.5), c)
		}
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("Height %.1f .. %.1f   Water %.0f%%  Walkable %.0f%%  Snow %.0f%%",
			stats.MinH, stats.MaxH, stats.Water*100, stats.Walkable*100, stats.Snow*100), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Obstacles: %d", len(obstacles)), 15, statsY+20, 16, rl.DarkGray)

		panelX := float32(previewSize + 20)
		panelY := float32(10)
		rl.DrawText("Terrain Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		if v := slider(panelX, &panelY, "Snow soft line (push starts)", "2", "15", "%.1f", params.SnowSoft, 2, 15); v != params.SnowSoft {
			params.SnowSoft = v
			params.SnowHard = max(params.SnowHard, v)
			needsRegen = true
		}
		if v := slider(panelX, &panelY, "Snow hard cap", "2", "20", "%.1f", params.SnowHard, 2, 20); v != params.SnowHard {
			params.SnowHard = max(v, params.SnowSoft)
			needsRegen = true
		}
		if v := slider(panelX, &panelY, "River width", "2", "20", "%.1f", params.RiverWidth, 2, 20); v != params.RiverWidth {
			params.RiverWidth = v
			needsRegen = true
		}
		if v := slider(panelX, &panelY, "River meander amplitude", "0", "30", "%.1f", params.RiverAmp, 0, 30); v != params.RiverAmp {
			params.RiverAmp = v
			needsRegen = true
		}
		if v := slider(panelX, &panelY, "Obstacle seed", "0", "99999", "%.0f", float32(params.Seed), 0, 99999); int64(v) != params.Seed {
			params.Seed = int64(v)
			needsRegen = true
		}
		panelY += 10

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = int64(rl.GetRandomValue(0, 99999))
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaults
			needsRegen = true
		}
		panelY += 55

		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		for _, line := range yamlLines(params) {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			text := ""
			for _, line := range yamlLines(params) {
				text += line + "\n"
			}
			rl.SetClipboardText(text)
		}

		rl.EndDrawing()
	}
}

func yamlLines(p previewParams) []string {
	return []string{
		"world:",
		fmt.Sprintf("  seed: %d", p.Seed),
		"terrain:",
		fmt.Sprintf("  snow_soft: %.1f", p.SnowSoft),
		fmt.Sprintf("  snow_hard: %.1f", p.SnowHard),
		"  river:",
		fmt.Sprintf("    a: %.1f", p.RiverAmp),
		fmt.Sprintf("    width: %.1f", p.RiverWidth),
	}
}
