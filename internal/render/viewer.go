//go:build viewer

package render

import (
	"context"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/marchwater/internal/config"
	"github.com/Faultbox/marchwater/internal/debug"
	"github.com/Faultbox/marchwater/internal/density"
	"github.com/Faultbox/marchwater/internal/mesh"
	"github.com/Faultbox/marchwater/internal/surface"
)

// Viewer is the interactive frame loop. It is the world's mesh sink, so
// commits applied by Drain upload straight to the GPU.
type Viewer struct {
	window   *Window
	renderer *MeshRenderer
	input    *Input
	camera   *OrbitCamera
	overlay  bool
	fitted   bool
	log      *zap.Logger
}

// NewViewer opens the window and initialises GL.
func NewViewer(cfg config.ViewerConfig, pointsPerAxis int, log *zap.Logger) (*Viewer, error) {
	v := &Viewer{
		input:   NewInput(),
		camera:  NewOrbitCamera(pointsPerAxis),
		overlay: cfg.ShowOverlay,
		log:     log,
	}

	var err error
	v.window, err = NewWindow(WindowConfig{
		Title:  "Marchwater",
		Width:  cfg.Width,
		Height: cfg.Height,
		VSync:  cfg.VSync,
	}, log.Named("window"))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer needs the GL context the window just created
	v.renderer, err = NewMeshRenderer(cfg.Width, cfg.Height, log.Named("renderer"))
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	return v, nil
}

// Commit uploads a mesh and frames the camera on the first terrain mesh.
func (v *Viewer) Commit(name string, b *mesh.Buffer) {
	v.renderer.Commit(name, b)
	if name == surface.TerrainName && !v.fitted && !b.IsEmpty() {
		v.camera.FitToBounds(b.Bounds)
		v.fitted = true
	}
}

// Run starts the world and draws frames until the window closes or ctx is
// cancelled. Keys: Esc quits, R resets the world, O toggles the overlay,
// I logs the water cell at the seed.
func (v *Viewer) Run(ctx context.Context, world *surface.World) error {
	world.Start(ctx)

	frames := 0
	fpsTimer := time.Now()
	v.log.Info("starting viewer loop")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if v.input.Update() {
			return nil
		}
		for _, e := range v.input.Events() {
			switch e.Type {
			case EventWindowResize:
				v.renderer.Resize(e.Width, e.Height)
			case EventMouseDrag:
				v.camera.HandleDrag(e.DX, e.DY)
			case EventMouseWheel:
				v.camera.HandleZoom(e.DY)
			case EventKeyDown:
				switch e.Key {
				case sdl.SCANCODE_ESCAPE:
					return nil
				case sdl.SCANCODE_R:
					world.Reset()
				case sdl.SCANCODE_O:
					v.overlay = !v.overlay
				case sdl.SCANCODE_I:
					v.inspectSeed(world)
				}
			}
		}

		// Commits run here, on the GL thread.
		world.Drain()

		if v.overlay {
			v.updateOverlay(world)
		}
		v.renderer.Draw(v.camera, v.overlay)
		v.window.SwapBuffers()

		frames++
		if time.Since(fpsTimer) >= time.Second {
			st := world.Stats()
			v.window.SetTitle(fmt.Sprintf("Marchwater  %d fps  tick %d", frames, st.Ticks))
			v.log.Debug("fps", zap.Int("count", frames), zap.Uint64("ticks", st.Ticks))
			frames = 0
			fpsTimer = time.Now()
		}
	}
}

func (v *Viewer) updateOverlay(world *surface.World) {
	iso := world.Params().IsoValue
	var points, lines []debug.Vertex
	world.Water.Read(func(f *density.Field) {
		o := debug.NewOverlay(f, iso)
		o.Tint = [3]float32{0.4, 0.7, 1}
		points = o.Points(0.05)
		lines = o.Bounds()
	})
	world.Terrain.Read(func(f *density.Field) {
		points = append(points, debug.NewOverlay(f, iso).SurfaceCells()...)
	})
	v.renderer.SetOverlay(points, lines)
}

func (v *Viewer) inspectSeed(world *surface.World) {
	p := world.Params()
	var info *debug.CellInfo
	world.Water.Read(func(f *density.Field) {
		info = debug.NewOverlay(f, p.IsoValue).Inspect(p.Seed[0], p.Seed[1], p.Seed[2])
	})
	if info == nil {
		v.log.Info("seed cell is on the lattice boundary", zap.Ints("seed", p.Seed[:]))
		return
	}
	v.log.Info("water cell",
		zap.Ints("origin", []int{info.X, info.Y, info.Z}),
		zap.Uint8("config", info.Config),
		zap.Int("triangles", info.Triangles),
		zap.Float32s("corners", info.Corners[:]))
}

// Close releases the renderer and the window.
func (v *Viewer) Close() {
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
