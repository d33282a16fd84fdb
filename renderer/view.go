package renderer

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/patrikandersson91/ecosystem-sub000/camera"
	"github.com/patrikandersson91/ecosystem-sub000/components"
	"github.com/patrikandersson91/ecosystem-sub000/store"
	"github.com/patrikandersson91/ecosystem-sub000/systems"
)

// PanelWidth is the width of the side panel drawn right of the map.
const PanelWidth = 260

const (
	terrainTextureSize = 256
	pickRadiusPx       = 10
)

// Controls is the part of the simulation the viewer drives.
type Controls interface {
	TogglePause()
	SetSpeed(speed float64)
	SetTimeOfDay(fraction float64)
	SetManualControl(id store.EntityID, dir r3.Vec) bool
	ClearManualControl(id store.EntityID)
	ControllerFields(id store.EntityID) ([]float64, bool)
}

var speciesColors = [...]rl.Color{
	store.SpeciesRabbit: {R: 235, G: 225, B: 210, A: 255},
	store.SpeciesFox:    {R: 230, G: 110, B: 30, A: 255},
	store.SpeciesMoose:  {R: 110, G: 70, B: 40, A: 255},
}

var obstacleColors = [...]rl.Color{
	systems.ObstacleTree:  {R: 30, G: 90, B: 40, A: 255},
	systems.ObstacleStone: {R: 120, G: 120, B: 125, A: 255},
	systems.ObstacleBush:  {R: 60, G: 120, B: 50, A: 255},
}

// Viewer draws the world map, agents and a control panel.
type Viewer struct {
	terrain   *systems.Terrain
	obstacles []systems.Obstacle
	texture   rl.Texture2D

	mapSize float32 // pixels
	cam     *camera.Camera

	selected   store.EntityID // 0 = none
	controlled bool
}

// NewViewer bakes the terrain texture. Must be called after rl.InitWindow.
func NewViewer(terrain *systems.Terrain, obstacles []systems.Obstacle, mapSize int32) *Viewer {
	return &Viewer{
		terrain:   terrain,
		obstacles: obstacles,
		texture:   LoadTerrainTexture(terrain, terrainTextureSize),
		mapSize:   float32(mapSize),
		cam:       camera.New(float64(mapSize), float64(mapSize), terrain.HalfSize()),
	}
}

// Unload releases GPU resources.
func (v *Viewer) Unload() {
	rl.UnloadTexture(v.texture)
}

func (v *Viewer) toScreen(p r3.Vec) rl.Vector2 {
	x, y := v.cam.WorldToScreen(p.X, p.Z)
	return rl.Vector2{X: float32(x), Y: float32(y)}
}

func (v *Viewer) scale() float32 {
	return float32(v.cam.Scale())
}

// handleCamera zooms with the mouse wheel, pans with a right drag and resets
// on R.
func (v *Viewer) handleCamera(mouse rl.Vector2) {
	if mouse.X >= v.mapSize {
		return
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		v.cam.ZoomAt(math.Pow(1.15, float64(wheel)), float64(mouse.X), float64(mouse.Y))
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		v.cam.Pan(-float64(d.X), -float64(d.Y))
	}
	if rl.IsKeyPressed(rl.KeyR) {
		v.cam.Reset()
	}
}

// HandleInput processes keyboard and mouse input.
// Space pauses, left click selects an agent, WASD drives the selected agent
// and Q hands it back to its AI. The wheel and right drag move the camera.
func (v *Viewer) HandleInput(s *store.State, ctl Controls) {
	if rl.IsKeyPressed(rl.KeySpace) {
		ctl.TogglePause()
	}

	if v.selected != 0 {
		if _, ok := s.Entity(v.selected); !ok {
			v.selected, v.controlled = 0, false
		}
	}

	mouse := rl.GetMousePosition()
	v.handleCamera(mouse)
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) && mouse.X < v.mapSize {
		if id, ok := v.pick(s, mouse); ok && id != v.selected {
			v.release(ctl)
			v.selected = id
		}
	}

	if v.selected == 0 {
		return
	}
	if rl.IsKeyPressed(rl.KeyQ) {
		v.release(ctl)
		return
	}

	var dir r3.Vec
	if rl.IsKeyDown(rl.KeyW) {
		dir.Z--
	}
	if rl.IsKeyDown(rl.KeyS) {
		dir.Z++
	}
	if rl.IsKeyDown(rl.KeyA) {
		dir.X--
	}
	if rl.IsKeyDown(rl.KeyD) {
		dir.X++
	}
	if dir != (r3.Vec{}) || v.controlled {
		v.controlled = ctl.SetManualControl(v.selected, dir)
	}
}

func (v *Viewer) release(ctl Controls) {
	if v.controlled {
		ctl.ClearManualControl(v.selected)
	}
	v.controlled = false
}

// pick returns the agent closest to the mouse within the pick radius.
func (v *Viewer) pick(s *store.State, mouse rl.Vector2) (store.EntityID, bool) {
	var best store.EntityID
	bestD := float32(pickRadiusPx)
	for _, sp := range store.AllSpecies {
		for _, e := range s.EntitiesOf(sp) {
			p := v.toScreen(e.Position)
			if d := rl.Vector2Distance(p, mouse); d < bestD {
				best, bestD = e.ID, d
			}
		}
	}
	return best, best != 0
}

// Draw renders the map and the control panel. ctl receives slider changes.
func (v *Viewer) Draw(s *store.State, ctl Controls) {
	// Texels per world unit; the visible bounds select the source rectangle.
	half := v.terrain.HalfSize()
	tpu := terrainTextureSize / (2 * half)
	minX, minZ, maxX, maxZ := v.cam.VisibleWorldBounds()
	rl.DrawTexturePro(
		v.texture,
		rl.Rectangle{
			X:      float32((minX + half) * tpu),
			Y:      float32((minZ + half) * tpu),
			Width:  float32((maxX - minX) * tpu),
			Height: float32((maxZ - minZ) * tpu),
		},
		rl.Rectangle{X: 0, Y: 0, Width: v.mapSize, Height: v.mapSize},
		rl.Vector2{},
		0,
		rl.White,
	)

	rl.BeginScissorMode(0, 0, int32(v.mapSize), int32(v.mapSize))
	for _, o := range v.obstacles {
		if v.cam.IsVisible(o.Pos.X, o.Pos.Z, o.Radius) {
			rl.DrawCircleV(v.toScreen(o.Pos), float32(o.Radius)*v.scale(), obstacleColors[o.Kind])
		}
	}
	for _, f := range s.FlowerList() {
		if v.cam.IsVisible(f.Position.X, f.Position.Z, 1) {
			rl.DrawCircleV(v.toScreen(f.Position), 2, rl.Color{R: 240, G: 90, B: 180, A: 255})
		}
	}
	for _, sp := range store.AllSpecies {
		body := v.bodyRadius(sp)
		for _, e := range s.EntitiesOf(sp) {
			if v.cam.IsVisible(e.Position.X, e.Position.Z, 2) {
				v.drawAgent(e, body)
			}
		}
	}
	rl.EndScissorMode()

	v.drawShade(s)
	v.drawPanel(s, ctl)
}

func (v *Viewer) bodyRadius(sp store.Species) float32 {
	r := [...]float32{store.SpeciesRabbit: 2.5, store.SpeciesFox: 3.5, store.SpeciesMoose: 5}
	return r[sp]
}

func (v *Viewer) drawAgent(e store.Entity, radius float32) {
	p := v.toScreen(e.Position)
	if !e.IsAdult() {
		radius *= 0.65
	}
	rl.DrawCircleV(p, radius, speciesColors[e.Species])

	if speed := math.Hypot(e.Velocity.X, e.Velocity.Z); speed > 0.05 {
		tip := rl.Vector2{
			X: p.X + float32(e.Velocity.X/speed)*radius*1.8,
			Y: p.Y + float32(e.Velocity.Z/speed)*radius*1.8,
		}
		rl.DrawLineV(p, tip, rl.Black)
	}
	if e.ID == v.selected {
		ring := rl.Yellow
		if v.controlled {
			ring = rl.Red
		}
		rl.DrawCircleLinesV(p, radius+3, ring)
	}
}

// drawShade darkens the map at night.
func (v *Viewer) drawShade(s *store.State) {
	dark := 1 - systems.Daylight(s.Clock.TimeOfDay)
	if alpha := uint8(110 * dark); alpha > 0 {
		rl.DrawRectangle(0, 0, int32(v.mapSize), int32(v.mapSize), rl.Color{R: 10, G: 10, B: 40, A: alpha})
	}
}

func (v *Viewer) drawPanel(s *store.State, ctl Controls) {
	x := v.mapSize + 10
	y := float32(10)
	text := func(str string, size int32, c rl.Color) {
		rl.DrawText(str, int32(x), int32(y), size, c)
		y += float32(size) + 6
	}

	text("Ecosystem", 20, rl.DarkGray)
	text(fmt.Sprintf("Rabbits %d  Foxes %d  Moose %d",
		s.Count(store.SpeciesRabbit), s.Count(store.SpeciesFox), s.Count(store.SpeciesMoose)), 14, rl.DarkGray)
	text(fmt.Sprintf("Flowers %d", len(s.Flowers)), 14, rl.DarkGray)
	text(fmt.Sprintf("Time %.0fs  Day %.2f", s.Clock.Elapsed, s.Clock.TimeOfDay), 14, rl.DarkGray)
	text(fmt.Sprintf("Weather %s (%.0f%%)", s.Weather.Type, s.Weather.Intensity*100), 14, rl.DarkGray)
	if s.GameOver {
		text("GAME OVER", 20, rl.Red)
	}
	y += 8

	label := "Pause"
	if s.Paused {
		label = "Resume"
	}
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 120, Height: 28}, label) {
		ctl.TogglePause()
	}
	y += 40

	text("Speed", 14, rl.Gray)
	speed := gui.SliderBar(
		rl.Rectangle{X: x + 30, Y: y, Width: PanelWidth - 90, Height: 18},
		fmt.Sprintf("%.2f", store.MinSpeed), fmt.Sprintf("%.0f", store.MaxSpeed),
		float32(s.Speed), store.MinSpeed, store.MaxSpeed,
	)
	if math.Abs(float64(speed)-s.Speed) > 1e-3 {
		ctl.SetSpeed(float64(speed))
	}
	y += 30

	text("Time of day", 14, rl.Gray)
	tod := gui.SliderBar(
		rl.Rectangle{X: x + 30, Y: y, Width: PanelWidth - 90, Height: 18},
		"0", "1",
		float32(s.Clock.TimeOfDay), 0, 1,
	)
	if math.Abs(float64(tod)-s.Clock.TimeOfDay) > 1e-3 {
		ctl.SetTimeOfDay(float64(tod))
	}
	y += 36

	if e, ok := s.Entity(v.selected); ok {
		text("Selected", 16, rl.DarkGray)
		for _, f := range AgentFields(e) {
			text(fmt.Sprintf("%-9s %s", f.Label, f.Value), 14, rl.Gray)
		}
		if values, ok := ctl.ControllerFields(e.ID); ok {
			y += 4
			text("Live", 14, rl.DarkGray)
			for i, fd := range components.AgentFieldDescriptors() {
				y = drawField(x, y, fd, values[i])
			}
		}
		if v.controlled {
			text("WASD to steer, Q to release", 12, rl.LightGray)
		} else {
			text("WASD to take control", 12, rl.LightGray)
		}
	} else {
		text("Click an animal to select it", 12, rl.LightGray)
	}
}

// drawField draws one controller value, as a bar when the descriptor asks
// for one, and returns the next line's y.
func drawField(x, y float32, fd components.FieldDescriptor, value float64) float32 {
	rl.DrawText(fd.Label, int32(x), int32(y), 12, rl.Gray)
	if fd.IsBar {
		w := float32(PanelWidth - 110)
		frac := float32((value - fd.Min) / (fd.Max - fd.Min))
		frac = max(0, min(1, frac))
		rl.DrawRectangleV(rl.Vector2{X: x + 70, Y: y + 1}, rl.Vector2{X: w, Y: 10}, rl.LightGray)
		rl.DrawRectangleV(rl.Vector2{X: x + 70, Y: y + 1}, rl.Vector2{X: w * frac, Y: 10}, rl.DarkGreen)
	} else {
		rl.DrawText(fmt.Sprintf(fd.Format, value), int32(x+70), int32(y), 12, rl.Gray)
	}
	return y + 16
}

// Field is one labelled line of the agent panel.
type Field struct {
	Label string
	Value string
}

// AgentFields describes an entity for the selection panel.
func AgentFields(e store.Entity) []Field {
	fields := []Field{
		{"species", e.Species.String()},
		{"id", fmt.Sprintf("%d", e.ID)},
		{"behavior", e.Behavior.String()},
		{"hunger", fmt.Sprintf("%.2f", e.Hunger)},
		{"thirst", fmt.Sprintf("%.2f", e.Thirst)},
		{"position", fmt.Sprintf("%.1f, %.1f", e.Position.X, e.Position.Z)},
	}
	if r, ok := e.Reproduction(); ok {
		stage := "juvenile"
		if r.IsAdult {
			stage = "adult"
		}
		fields = append(fields,
			Field{"sex", r.Sex.String()},
			Field{"stage", stage},
			Field{"pregnant", fmt.Sprintf("%t", r.Pregnant)},
			Field{"matings", fmt.Sprintf("%d", r.Matings)},
		)
	}
	switch t := e.Traits.(type) {
	case store.RabbitTraits:
		fields = append(fields, Field{"meals", fmt.Sprintf("%d", t.MealsEaten)})
	case store.FoxTraits:
		if t.TargetID != 0 {
			fields = append(fields, Field{"target", fmt.Sprintf("%d", t.TargetID)})
		}
	}
	return fields
}
