package camera

import (
	"math"
	"testing"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestFit(t *testing.T) {
	cam := New(10, 10, 600, 400)
	cam.Fit(-0.03, 0.03, -0.04, 0.04, 0)

	// The taller extent limits the scale: 400 px over 0.08 m.
	if !near(cam.Scale, 5000, 1e-9) {
		t.Errorf("scale = %v, want 5000", cam.Scale)
	}
	if cam.X != 0 || cam.Y != 0 || cam.Zoom != 1 {
		t.Errorf("camera at (%v, %v) zoom %v", cam.X, cam.Y, cam.Zoom)
	}

	sx, sy := cam.WorldToScreen(0, 0.04)
	if !near(float64(sx), 310, 0.01) || !near(float64(sy), 10, 0.01) {
		t.Errorf("top of box at (%v, %v), want (310, 10)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(0, 0, 1280, 720)
	cam.Fit(-0.06, 0.06, -0.06, 0.06, 0.1)
	cam.ZoomBy(2.5)
	cam.Pan(30, -12)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},
		{100, 100},
		{1200, 600},
	}
	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(float64(sx), float64(tc.sx), 0.01) || !near(float64(sy), float64(tc.sy), 0.01) {
			t.Errorf("roundtrip failed: (%v,%v) -> (%v,%v) -> (%v,%v)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestYAxisPointsUp(t *testing.T) {
	cam := New(0, 0, 100, 100)
	_, low := cam.WorldToScreen(0, -0.1)
	_, high := cam.WorldToScreen(0, 0.1)
	if high >= low {
		t.Errorf("positive y drawn below negative y: %v >= %v", high, low)
	}
}

func TestPanFollowsDrag(t *testing.T) {
	cam := New(0, 0, 100, 100)
	wx, wy := cam.ScreenToWorld(20, 20)
	cam.Pan(15, 5)
	sx, sy := cam.WorldToScreen(wx, wy)
	if !near(float64(sx), 35, 0.01) || !near(float64(sy), 25, 0.01) {
		t.Errorf("dragged point at (%v, %v), want (35, 25)", sx, sy)
	}
}

func TestZoomAtKeepsPoint(t *testing.T) {
	cam := New(0, 0, 800, 800)
	wx, wy := cam.ScreenToWorld(200, 600)
	cam.ZoomAt(200, 600, 3)
	if cam.Zoom != 3 {
		t.Fatalf("zoom = %v", cam.Zoom)
	}
	gx, gy := cam.ScreenToWorld(200, 600)
	if !near(gx, wx, 1e-9) || !near(gy, wy, 1e-9) {
		t.Errorf("point moved from (%v, %v) to (%v, %v)", wx, wy, gx, gy)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(0, 0, 100, 100)
	cam.SetZoom(1000)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("zoom = %v, want max %v", cam.Zoom, cam.MaxZoom)
	}
	cam.SetZoom(0.001)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("zoom = %v, want min %v", cam.Zoom, cam.MinZoom)
	}
	cam.Reset()
	if cam.Zoom != 1 {
		t.Errorf("reset zoom = %v", cam.Zoom)
	}
}

func TestVisibleWorldBounds(t *testing.T) {
	cam := New(0, 0, 200, 100)
	cam.Fit(-1, 1, -1, 1, 0)
	minX, minY, maxX, maxY := cam.VisibleWorldBounds()
	if !near(minX, -2, 1e-12) || !near(maxX, 2, 1e-12) || !near(minY, -1, 1e-12) || !near(maxY, 1, 1e-12) {
		t.Errorf("bounds = %v %v %v %v", minX, minY, maxX, maxY)
	}
	if !cam.InViewport(199, 99) || cam.InViewport(200, 50) {
		t.Error("InViewport edges")
	}
}
