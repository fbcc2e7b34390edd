// Package camera maps the transverse aperture plane onto a screen viewport.
package camera

// Camera controls the viewport into the aperture plane. World coordinates are
// metres with y pointing up; screen coordinates are pixels with y pointing
// down.
type Camera struct {
	// Position is the camera center in world coordinates [m]
	X, Y float64

	// Scale is pixels per metre at zoom 1
	Scale float64

	// Zoom level (1.0 = fitted view, 2.0 = 2x magnification)
	Zoom float64

	// Viewport rectangle on screen
	OffsetX, OffsetY     float32
	ViewportW, ViewportH float32

	// Zoom constraints
	MinZoom, MaxZoom float64

	home struct{ x, y, scale float64 }
}

// New creates a camera for a viewport at (offsetX, offsetY) showing a 1 m
// square around the origin.
func New(offsetX, offsetY, viewportW, viewportH float32) *Camera {
	c := &Camera{
		OffsetX:   offsetX,
		OffsetY:   offsetY,
		ViewportW: viewportW,
		ViewportH: viewportH,
		MinZoom:   0.25,
		MaxZoom:   64,
	}
	c.Fit(-0.5, 0.5, -0.5, 0.5, 0)
	return c
}

// Fit centres the camera on the given world box and scales it to fill the
// viewport, leaving margin (a fraction of the box span) on each side. The
// fitted view becomes the Reset target.
func (c *Camera) Fit(minX, maxX, minY, maxY, margin float64) {
	spanX := (maxX - minX) * (1 + 2*margin)
	spanY := (maxY - minY) * (1 + 2*margin)
	scale := 1.0
	switch {
	case spanX > 0 && spanY > 0:
		scale = min(float64(c.ViewportW)/spanX, float64(c.ViewportH)/spanY)
	case spanX > 0:
		scale = float64(c.ViewportW) / spanX
	case spanY > 0:
		scale = float64(c.ViewportH) / spanY
	}
	c.home.x, c.home.y, c.home.scale = (minX+maxX)/2, (minY+maxY)/2, scale
	c.Reset()
}

func (c *Camera) pixelsPerMetre() float64 { return c.Scale * c.Zoom }

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float32) {
	k := c.pixelsPerMetre()
	sx = c.OffsetX + c.ViewportW/2 + float32((wx-c.X)*k)
	sy = c.OffsetY + c.ViewportH/2 - float32((wy-c.Y)*k)
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float64) {
	k := c.pixelsPerMetre()
	wx = c.X + float64(sx-c.OffsetX-c.ViewportW/2)/k
	wy = c.Y - float64(sy-c.OffsetY-c.ViewportH/2)/k
	return wx, wy
}

// InViewport reports whether a screen position lies inside the viewport.
func (c *Camera) InViewport(sx, sy float32) bool {
	return sx >= c.OffsetX && sx < c.OffsetX+c.ViewportW &&
		sy >= c.OffsetY && sy < c.OffsetY+c.ViewportH
}

// Pan moves the view by the given delta in screen pixels, so the content
// follows a mouse drag.
func (c *Camera) Pan(dx, dy float32) {
	k := c.pixelsPerMetre()
	c.X -= float64(dx) / k
	c.Y += float64(dy) / k
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float64) {
	c.Zoom = max(c.MinZoom, min(zoom, c.MaxZoom))
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float64) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt zooms by factor keeping the world point under (sx, sy) in place.
func (c *Camera) ZoomAt(sx, sy float32, factor float64) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.ZoomBy(factor)
	nx, ny := c.ScreenToWorld(sx, sy)
	c.X += wx - nx
	c.Y += wy - ny
}

// Reset returns the camera to the fitted position and zoom.
func (c *Camera) Reset() {
	c.X, c.Y, c.Scale = c.home.x, c.home.y, c.home.scale
	c.Zoom = 1.0
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float64) {
	k := c.pixelsPerMetre()
	halfW := float64(c.ViewportW) / (2 * k)
	halfH := float64(c.ViewportH) / (2 * k)
	return c.X - halfW, c.Y - halfH, c.X + halfW, c.Y + halfH
}
