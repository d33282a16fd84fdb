// Package camera maps the square world [-half, half]² onto a screen viewport
// with pan and zoom.
package camera

// Camera controls the viewport into the world. World X maps to screen X and
// world Z maps to screen Y.
type Camera struct {
	// Center of the view in world coordinates
	X, Z float64

	// Pixels per world unit at Zoom 1 (the whole world fits the viewport)
	baseScale float64
	Zoom      float64

	ViewportW, ViewportH float64
	HalfSize             float64

	MinZoom, MaxZoom float64
}

// New creates a camera that shows the whole world centered in the viewport.
func New(viewportW, viewportH, halfSize float64) *Camera {
	return &Camera{
		baseScale: min(viewportW, viewportH) / (2 * halfSize),
		Zoom:      1,
		ViewportW: viewportW,
		ViewportH: viewportH,
		HalfSize:  halfSize,
		MinZoom:   1,
		MaxZoom:   8,
	}
}

// Scale returns the current pixels per world unit.
func (c *Camera) Scale() float64 {
	return c.baseScale * c.Zoom
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wz float64) (sx, sy float64) {
	s := c.Scale()
	return c.ViewportW/2 + (wx-c.X)*s, c.ViewportH/2 + (wz-c.Z)*s
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wz float64) {
	s := c.Scale()
	return c.X + (sx-c.ViewportW/2)/s, c.Z + (sy-c.ViewportH/2)/s
}

// IsVisible reports whether a circle at (wx, wz) could be on screen.
func (c *Camera) IsVisible(wx, wz, radius float64) bool {
	s := c.Scale()
	halfW := c.ViewportW/(2*s) + radius
	halfH := c.ViewportH/(2*s) + radius
	return abs(wx-c.X) <= halfW && abs(wz-c.Z) <= halfH
}

// Pan moves the camera by a delta in screen pixels.
func (c *Camera) Pan(dx, dy float64) {
	s := c.Scale()
	c.X += dx / s
	c.Z += dy / s
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float64) {
	c.Zoom = min(max(zoom, c.MinZoom), c.MaxZoom)
	c.clampCenter()
}

// ZoomAt multiplies the zoom by factor, keeping the world point under the
// screen position (sx, sy) fixed where the bounds allow it.
func (c *Camera) ZoomAt(factor, sx, sy float64) {
	wx, wz := c.ScreenToWorld(sx, sy)
	c.Zoom = min(max(c.Zoom*factor, c.MinZoom), c.MaxZoom)
	s := c.Scale()
	c.X = wx - (sx-c.ViewportW/2)/s
	c.Z = wz - (sy-c.ViewportH/2)/s
	c.clampCenter()
}

// Reset shows the whole world again.
func (c *Camera) Reset() {
	c.X, c.Z = 0, 0
	c.Zoom = 1
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minZ, maxX, maxZ float64) {
	s := c.Scale()
	halfW := c.ViewportW / (2 * s)
	halfH := c.ViewportH / (2 * s)
	return c.X - halfW, c.Z - halfH, c.X + halfW, c.Z + halfH
}

// clampCenter keeps the view inside the world once zoomed in.
func (c *Camera) clampCenter() {
	s := c.Scale()
	c.X = clampAxis(c.X, c.ViewportW/(2*s), c.HalfSize)
	c.Z = clampAxis(c.Z, c.ViewportH/(2*s), c.HalfSize)
}

// clampAxis limits a center coordinate so [v-halfView, v+halfView] stays in
// [-half, half]. A view wider than the world is centered.
func clampAxis(v, halfView, half float64) float64 {
	if halfView >= half {
		return 0
	}
	return min(max(v, -half+halfView), half-halfView)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
