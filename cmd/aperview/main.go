// Aperture viewer - scatters test points over a polygon aperture and colours
// them by containment.
//
// Usage: go run ./cmd/aperview [-polygon aperture.csv] [-config config.yaml]
//
// The exact check re-classifies every point at aperture.precision_digits
// against the polygon file's decimal vertices.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"math/rand/v2"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/collimation/beam"
	"github.com/pthm-cable/collimation/camera"
	"github.com/pthm-cable/collimation/config"
	"github.com/pthm-cable/collimation/elements"
	"github.com/pthm-cable/collimation/geometry"
	"github.com/pthm-cable/collimation/lattice"
	"github.com/pthm-cable/collimation/numeric"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 640
	panelWidth   = windowWidth - previewSize - 30
)

var scalar numeric.Backend[float64, float64, bool] = numeric.Scalar{}

// fitCamera frames the polygon together with the origin, so the scaled
// reference point of an off-centre polygon stays in view.
func fitCamera(cam *camera.Camera, poly geometry.Polygon[float64]) {
	minX, maxX := min(poly.X[0], 0), max(poly.X[0], 0)
	minY, maxY := min(poly.Y[0], 0), max(poly.Y[0], 0)
	for i := range poly.X {
		minX, maxX = min(minX, poly.X[i]), max(maxX, poly.X[i])
		minY, maxY = min(minY, poly.Y[i]), max(maxY, poly.Y[i])
	}
	cam.Fit(minX, maxX, minY, maxY, 0.2)
}

func toScreen(cam *camera.Camera, x, y float64) rl.Vector2 {
	sx, sy := cam.WorldToScreen(x, y)
	return rl.Vector2{X: sx, Y: sy}
}

// sample holds random test points and their classification.
type sample struct {
	xs, ys []float64
	inside []bool
	err    error
	in     int
	// differ counts points whose exact classification overrode float64.
	differ int
}

// classify scatters n points over the visible area and classifies them. With
// exact set every point is re-checked against the aperture's decimal vertices
// at its configured precision, and that result wins.
func classify(ap *elements.LimitPolygon, cam *camera.Camera, n int, seed uint64, exact bool) sample {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	minX, minY, maxX, maxY := cam.VisibleWorldBounds()
	s := sample{xs: make([]float64, n), ys: make([]float64, n)}
	for i := range n {
		s.xs[i] = minX + rng.Float64()*(maxX-minX)
		s.ys[i] = minY + rng.Float64()*(maxY-minY)
	}
	s.inside, s.err = geometry.ContainsBatch(ap.Polygon, s.xs, s.ys, ap.Reference)
	if s.err != nil {
		return s
	}
	if exact {
		for i := range s.inside {
			p := &beam.BigParticle{X: big.NewFloat(s.xs[i]), Y: big.NewFloat(s.ys[i]), State: 1}
			status, err := ap.TrackBig(p)
			if err != nil {
				s.err = err
				return s
			}
			if in := status == elements.StatusOK; in != s.inside[i] {
				s.inside[i] = in
				s.differ++
			}
		}
	}
	for _, in := range s.inside {
		if in {
			s.in++
		}
	}
	return s
}

// defaultPolygon is a concave aperture with a notch on its upper edge.
func defaultPolygon(ref geometry.RefPolicy, prec uint) (*elements.LimitPolygon, error) {
	return elements.NewLimitPolygonDecimal(
		[]string{"0.03", "0.01", "0.0", "-0.01", "-0.03", "-0.03", "0.03"},
		[]string{"0.04", "0.04", "0.01", "0.04", "0.04", "-0.04", "-0.04"},
		ref, prec,
	)
}

func main() {
	polygonPath := flag.String("polygon", "", "Aperture vertex file (empty = built-in concave polygon)")
	configPath := flag.String("config", "", "Path to config.yaml for the default reference policy")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	var ap *elements.LimitPolygon
	if *polygonPath != "" {
		ap, err = lattice.ReadLimitPolygonFile(*polygonPath, cfg.Derived.Reference, cfg.Derived.Prec)
	} else {
		ap, err = defaultPolygon(cfg.Derived.Reference, cfg.Derived.Prec)
	}
	if err != nil {
		slog.Error("failed to read polygon", "path", *polygonPath, "error", err)
		os.Exit(1)
	}
	poly := ap.Polygon
	cam := camera.New(10, 10, previewSize, previewSize)
	fitCamera(cam, poly)

	rl.InitWindow(windowWidth, windowHeight, "Aperture Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	points := float32(4000)
	seed := uint64(1)
	exact := false
	s := classify(ap, cam, int(points), seed, exact)
	needsRegen := false

	for !rl.WindowShouldClose() {
		mouse := rl.GetMousePosition()
		if cam.InViewport(mouse.X, mouse.Y) {
			if wheel := rl.GetMouseWheelMove(); wheel != 0 {
				cam.ZoomAt(mouse.X, mouse.Y, math.Pow(1.2, float64(wheel)))
				needsRegen = true
			}
			if rl.IsMouseButtonDown(rl.MouseButtonRight) {
				if d := rl.GetMouseDelta(); d.X != 0 || d.Y != 0 {
					cam.Pan(d.X, d.Y)
					needsRegen = true
				}
			}
		}
		if rl.IsKeyPressed(rl.KeyR) {
			cam.Reset()
			needsRegen = true
		}

		if needsRegen {
			s = classify(ap, cam, int(points), seed, exact)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawRectangle(10, 10, previewSize, previewSize, rl.Black)
		rl.BeginScissorMode(10, 10, previewSize, previewSize)
		if s.err == nil {
			for i := range s.xs {
				c := rl.Color{R: 200, G: 60, B: 60, A: 255}
				if s.inside[i] {
					c = rl.Color{R: 60, G: 200, B: 120, A: 255}
				}
				p := toScreen(cam, s.xs[i], s.ys[i])
				rl.DrawPixelV(p, c)
			}
		}
		for i := range poly.Len() {
			a, b := poly.Edge(i)
			rl.DrawLineV(toScreen(cam, a.X, a.Y), toScreen(cam, b.X, b.Y), rl.White)
		}
		ref, refErr := geometry.ReferencePoint(scalar, poly, ap.Reference)
		if refErr == nil {
			rl.DrawCircleV(toScreen(cam, ref.X, ref.Y), 4, rl.Yellow)
		}
		rl.EndScissorMode()
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		statsY := int32(previewSize + 25)
		if s.err != nil {
			rl.DrawText(fmt.Sprintf("Error: %v", s.err), 15, statsY, 16, rl.Red)
		} else {
			text := fmt.Sprintf("Inside: %d  Outside: %d", s.in, len(s.xs)-s.in)
			if exact {
				text += fmt.Sprintf("  Exact changed: %d", s.differ)
			}
			rl.DrawText(text, 15, statsY, 16, rl.DarkGray)
		}
		rl.DrawText(fmt.Sprintf("Vertices: %d  Reference: %s  Zoom: %.2fx", poly.Len(), ap.Reference, cam.Zoom), 15, statsY+20, 16, rl.DarkGray)

		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Aperture", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		rl.DrawText("Test points", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newPoints := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"100", "50000",
			points, 100, 50000,
		)
		rl.DrawText(fmt.Sprintf("%d", int(points)), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if int(newPoints) != int(points) {
			points = newPoints
			needsRegen = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Toggle Ref") {
			if ap.Reference == geometry.RefScaled {
				ap.Reference = geometry.RefBoundingBox
			} else {
				ap.Reference = geometry.RefScaled
			}
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Resample") {
			seed++
			needsRegen = true
		}
		panelY += 40

		if newExact := gui.CheckBox(rl.Rectangle{X: panelX, Y: panelY, Width: 20, Height: 20},
			fmt.Sprintf("Exact check (%d bits)", ap.Prec), exact); newExact != exact {
			exact = newExact
			needsRegen = true
		}
		panelY += 40

		if refErr != nil {
			rl.DrawText(refErr.Error(), int32(panelX), int32(panelY), 12, rl.Red)
		} else {
			rl.DrawText(fmt.Sprintf("ref = (%.4g, %.4g)", ref.X, ref.Y), int32(panelX), int32(panelY), 14, rl.Gray)
		}

		rl.DrawText("Wheel: zoom  Right drag: pan  R: reset view", int32(panelX), int32(windowHeight-48), 12, rl.LightGray)
		rl.DrawText("Green: inside  Red: outside  Yellow: reference", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)

		rl.EndDrawing()
	}
}
