// Package renderer draws a top-down view of the world snapshot with raylib.
// It only reads state; every change goes back through the simulation.
package renderer

import (
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/patrikandersson91/ecosystem-sub000/systems"
)

// TerrainColor maps a height and water depth to a map color: water darkens
// with depth, grass lightens with height, and rock fades to snow between the
// soft and hard snow lines.
func TerrainColor(h, depth, soft, hard float64) color.RGBA {
	if depth > 0 {
		t := math.Min(depth/2, 1)
		return color.RGBA{R: uint8(60 - 40*t), G: uint8(140 - 70*t), B: uint8(200 - 40*t), A: 255}
	}
	if h >= soft {
		t := 1.0
		if hard > soft {
			t = math.Min((h-soft)/(hard-soft), 1)
		}
		return color.RGBA{R: uint8(130 + 120*t), G: uint8(125 + 125*t), B: uint8(120 + 130*t), A: 255}
	}

	t := clamp01((h + 2) / (soft + 2))
	return color.RGBA{R: uint8(70 + 60*t), G: uint8(130 + 40*t), B: uint8(50 + 30*t), A: 255}
}

// TerrainPixels samples the terrain on a size x size grid, +Z pointing down
// the image.
func TerrainPixels(t *systems.Terrain, size int) []color.RGBA {
	half := t.HalfSize()
	soft, hard := t.SnowLine()
	pixels := make([]color.RGBA, size*size)
	for row := 0; row < size; row++ {
		z := -half + (float64(row)+0.5)/float64(size)*2*half
		for col := 0; col < size; col++ {
			x := -half + (float64(col)+0.5)/float64(size)*2*half
			pixels[row*size+col] = TerrainColor(t.HeightAt(x, z), t.WaterDepthAt(x, z), soft, hard)
		}
	}
	return pixels
}

// LoadTerrainTexture bakes the terrain into a GPU texture.
func LoadTerrainTexture(t *systems.Terrain, size int) rl.Texture2D {
	img := rl.GenImageColor(size, size, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.UpdateTexture(texture, TerrainPixels(t, size))
	return texture
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
