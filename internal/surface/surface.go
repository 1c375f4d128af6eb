// Package surface binds a density field to its extracted mesh and wires the
// terrain and water surfaces into the simulation loop.
package surface

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/marchwater/internal/density"
	"github.com/Faultbox/marchwater/internal/march"
	"github.com/Faultbox/marchwater/internal/mesh"
	"github.com/Faultbox/marchwater/internal/pipeline"
	"github.com/Faultbox/marchwater/internal/terrain"
)

// Sink receives committed meshes. It is only called on the commit context.
type Sink interface {
	Commit(name string, b *mesh.Buffer)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(name string, b *mesh.Buffer)

// Commit calls f.
func (f SinkFunc) Commit(name string, b *mesh.Buffer) { f(name, b) }

type nopSink struct{}

func (nopSink) Commit(string, *mesh.Buffer) {}

// Options configures a Surface.
type Options struct {
	Name    string
	Size    int
	Iso     float32
	Shading mesh.Shading
	// Generator populates the field before the first extraction. Surfaces
	// populated elsewhere (water) leave it nil.
	Generator terrain.Generator
	Sink      Sink
	Log       *zap.Logger
}

// Surface owns one density field and the mesh extracted from it.
type Surface struct {
	name      string
	iso       float32
	shading   mesh.Shading
	generator terrain.Generator
	sink      Sink
	log       *zap.Logger

	mu    sync.RWMutex
	field *density.Field

	live       *pipeline.Liveness
	extraction *pipeline.Extraction

	// Commit context only.
	mesh       *mesh.Buffer
	onBuilt    []func(*mesh.Buffer)
	dependents []*Surface
}

// New allocates a surface and its field. Extraction runs on exec.
func New(opts Options, exec *pipeline.Executor) *Surface {
	if opts.Sink == nil {
		opts.Sink = nopSink{}
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Iso == 0 {
		opts.Iso = march.DefaultIsoValue
	}
	s := &Surface{
		name:      opts.Name,
		iso:       opts.Iso,
		shading:   opts.Shading,
		generator: opts.Generator,
		sink:      opts.Sink,
		log:       opts.Log,
		field:     density.New(opts.Size),
		live:      pipeline.NewLiveness(),
	}
	s.extraction = pipeline.NewExtraction(s.name, exec, s.live, s.build, s.install, s.log)
	return s
}

// Name returns the surface name used for the sink and logs.
func (s *Surface) Name() string { return s.name }

// Field returns the surface's field. Callers must hold the matching lock
// through Read or Write.
func (s *Surface) Field() *density.Field { return s.field }

// Read runs fn with the field under a read lock.
func (s *Surface) Read(fn func(*density.Field)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.field)
}

// Write runs fn with the field under the write lock.
func (s *Surface) Write(fn func(*density.Field)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.field)
}

// Mesh returns the last committed mesh, or nil before the first commit.
// Commit context only.
func (s *Surface) Mesh() *mesh.Buffer { return s.mesh }

// OnMeshBuilt registers a callback run after every committed mesh.
func (s *Surface) OnMeshBuilt(fn func(*mesh.Buffer)) {
	s.onBuilt = append(s.onBuilt, fn)
}

// AddDependent registers a surface that is reset along with this one.
func (s *Surface) AddDependent(d *Surface) {
	s.dependents = append(s.dependents, d)
}

// Liveness returns the token source guarding this surface's commits.
func (s *Surface) Liveness() *pipeline.Liveness { return s.live }

// Stats returns the extraction counters.
func (s *Surface) Stats() pipeline.Stats { return s.extraction.Stats() }

// State returns the extraction state.
func (s *Surface) State() pipeline.State { return s.extraction.State() }

// OnAttach is called when the surface enters the world. It issues the
// first extraction.
func (s *Surface) OnAttach() {
	s.log.Debug("attached", zap.String("surface", s.name))
	s.Request()
}

// Request schedules a background rebuild.
func (s *Surface) Request() { s.extraction.Request() }

// OnExternalReset invalidates the field so it is repopulated, discards any
// in-flight results, resets dependents and re-extracts.
func (s *Surface) OnExternalReset() {
	s.invalidate()
	s.Request()
}

func (s *Surface) invalidate() {
	gen := s.live.Bump()
	s.Write((*density.Field).Invalidate)
	s.log.Debug("reset", zap.String("surface", s.name), zap.Uint64("generation", gen))
	// Dependents are rebuilt by this surface's commit callbacks.
	for _, d := range s.dependents {
		d.invalidate()
	}
}

// Destroy stops any further commits for this surface.
func (s *Surface) Destroy() {
	s.live.Kill()
	s.log.Debug("destroyed", zap.String("surface", s.name))
}

// populate runs the generator if the field has not been generated since
// allocation or the last reset.
func (s *Surface) populate() {
	if s.generator == nil {
		return
	}
	s.Write(func(f *density.Field) {
		if f.Generated() {
			return
		}
		s.generator.Populate(f)
		f.MarkGenerated()
	})
}

// build runs on a worker.
func (s *Surface) build() *mesh.Buffer {
	s.populate()
	var tris []march.Triangle
	s.Read(func(f *density.Field) {
		tris = march.Extract(f, s.iso)
	})
	return mesh.AssembleShaded(tris, s.shading)
}

// install runs on the commit context.
func (s *Surface) install(b *mesh.Buffer) {
	s.swap(b)
	for _, fn := range s.onBuilt {
		fn(b)
	}
}

func (s *Surface) swap(b *mesh.Buffer) {
	s.mesh = b
	s.sink.Commit(s.name, b)
	s.log.Debug("mesh committed",
		zap.String("surface", s.name),
		zap.Int("triangles", b.TriangleCount()),
		zap.Int("vertices", b.VertexCount()))
}

// Rebuild extracts and installs a mesh synchronously without running the
// completion callbacks. It must be called from the commit context.
func (s *Surface) Rebuild() *mesh.Buffer {
	b := s.build()
	s.swap(b)
	return b
}
