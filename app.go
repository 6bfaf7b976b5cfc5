package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/chazu/slabanim/internal/config"
	"github.com/chazu/slabanim/pkg/anim"
	"github.com/chazu/slabanim/pkg/engine"
	"github.com/chazu/slabanim/pkg/kernel"
	"github.com/chazu/slabanim/pkg/kernel/sdfx"
	"github.com/chazu/slabanim/pkg/report"
	"github.com/chazu/slabanim/pkg/scene"
	"github.com/chazu/slabanim/pkg/slicer"
	"github.com/chazu/slabanim/pkg/store"
	"github.com/chazu/slabanim/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to slabs.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// Error kinds reported to the frontend.
const (
	KindEval         = "eval"
	KindInvalidInput = "invalid_input"
	KindSealFailure  = "seal_failure"
	KindNoSlab       = "no_slab"
	KindInternal     = "internal"
)

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx    context.Context
	cfg    *config.Config
	kernel kernel.Kernel
	engine *engine.Engine
	store  *store.Store

	mu      sync.Mutex
	source  string
	program *engine.Program
	last    *run
}

// run is the state of the latest Apply.
type run struct {
	id     string
	scene  *scene.Scene
	curves *anim.Curves
	result *slicer.Result
	parts  []tessellate.Part
	params slicer.Params
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
	Object   int       `json:"object"`
	Slab     int       `json:"slab"`
	Start    int       `json:"start"`
	End      int       `json:"end"`
}

// ErrorData is a JSON-serializable error for the frontend.
type ErrorData struct {
	Kind    string `json:"kind"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is returned by Evaluate.
type EvalResult struct {
	Meshes   []MeshData    `json:"meshes"`
	Objects  []string      `json:"objects"`
	Params   slicer.Params `json:"params"`
	Errors   []ErrorData   `json:"errors"`
	Warnings []ErrorData   `json:"warnings"`
}

// ApplyRequest carries the two panel inputs plus the optional settings.
type ApplyRequest struct {
	Slices   int    `json:"slices"`
	Duration int    `json:"duration"`
	Timing   string `json:"timing"`
	Strict   bool   `json:"strict"`
	// Objects selects what to slice, in order. Empty means every object
	// the script declared.
	Objects []string `json:"objects"`
}

// ScheduleData is one row of the schedule shown to the user.
type ScheduleData struct {
	Object string `json:"object"`
	Slab   int    `json:"slab"`
	Unit   string `json:"unit"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// ApplyResult is returned by Apply.
type ApplyResult struct {
	RunID    string         `json:"runId"`
	Meshes   []MeshData     `json:"meshes"`
	Schedule []ScheduleData `json:"schedule"`
	Dropped  int            `json:"dropped"`
	Errors   []ErrorData    `json:"errors"`
}

// NewApp creates an App from the default settings file, if present.
func NewApp() *App {
	cfg, err := config.LoadOrEmpty("")
	if err != nil {
		log.Printf("config: %v; using defaults", err)
		cfg = config.Empty()
	}
	return NewAppWithConfig(cfg)
}

// NewAppWithConfig creates an App with an engine, the sdfx kernel and,
// when configured, the run history store.
func NewAppWithConfig(cfg *config.Config) *App {
	k := sdfx.NewWithOptions(cfg.KernelOptions())
	eng := engine.NewEngine(k)
	eng.SetDefaults(cfg.Params())

	a := &App{cfg: cfg, kernel: k, engine: eng}
	if path := cfg.GetDatabase(); path != "" {
		s, err := store.Open(path)
		if err != nil {
			log.Printf("run history disabled: %v", err)
		} else {
			a.store = s
		}
	}
	return a
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// shutdown is called by Wails when the window closes.
func (a *App) shutdown(ctx context.Context) {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}
}

func (a *App) context() context.Context {
	if a.ctx != nil {
		return a.ctx
	}
	return context.Background()
}

// Evaluate runs a scene script and returns a preview mesh per declared
// object. This is the binding called by the frontend editor.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Objects:  []string{},
		Errors:   []ErrorData{},
		Warnings: []ErrorData{},
		Params:   a.cfg.Params(),
	}

	prog, evalErrs, err := a.engine.EvaluateContext(a.context(), source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, ErrorData{Kind: KindInternal, Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, ErrorData{
				Kind:    KindEval,
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	for _, w := range prog.Warnings {
		result.Warnings = append(result.Warnings, ErrorData{Kind: KindEval, Message: w})
	}
	if prog.Params != nil {
		result.Params = *prog.Params
	}

	sc, err := a.buildScene(prog)
	if err != nil {
		result.Errors = append(result.Errors, ErrorData{Kind: KindInternal, Message: err.Error()})
		return result
	}
	meshes, err := tessellate.Tessellate(sc)
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		result.Errors = append(result.Errors, ErrorData{
			Kind:    KindInternal,
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Name:     m.Name,
			Color:    colorPalette[i%len(colorPalette)],
			Object:   i,
		})
	}
	for _, o := range prog.Objects {
		result.Objects = append(result.Objects, o.Name)
	}

	a.mu.Lock()
	a.source = source
	a.program = prog
	a.last = nil
	a.mu.Unlock()
	return result
}

// buildScene loads every declared object into a fresh scene.
func (a *App) buildScene(prog *engine.Program) (*scene.Scene, error) {
	sc := scene.New(a.kernel)
	for _, o := range prog.Objects {
		if _, err := sc.Add(o.Name, o.Solid); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

// Apply slices the selected objects of the last evaluated script and keys
// the sequential animation. Every call starts from the unsliced objects.
func (a *App) Apply(req ApplyRequest) ApplyResult {
	result := ApplyResult{
		Meshes:   []MeshData{},
		Schedule: []ScheduleData{},
		Errors:   []ErrorData{},
	}

	a.mu.Lock()
	prog, source := a.program, a.source
	a.mu.Unlock()
	if prog == nil {
		result.Errors = append(result.Errors, ErrorData{
			Kind:    KindInvalidInput,
			Message: "nothing to slice: evaluate a script first",
		})
		return result
	}

	p, err := a.requestParams(req)
	if err != nil {
		result.Errors = append(result.Errors, toErrorData(err))
		return result
	}

	sc, err := a.buildScene(prog)
	if err != nil {
		result.Errors = append(result.Errors, ErrorData{Kind: KindInternal, Message: err.Error()})
		return result
	}
	names := req.Objects
	if len(names) == 0 {
		for _, o := range prog.Objects {
			names = append(names, o.Name)
		}
	}
	var objects []slicer.Handle
	for _, n := range names {
		h, ok := sc.Lookup(n)
		if !ok {
			result.Errors = append(result.Errors, ErrorData{
				Kind:    KindInvalidInput,
				Message: fmt.Sprintf("no object named %q", n),
			})
			return result
		}
		objects = append(objects, h)
	}

	curves := anim.NewCurves()
	res, err := slicer.Run(sc, curves, objects, p)
	if err != nil {
		log.Printf("Apply: %v", err)
		result.Errors = append(result.Errors, toErrorData(err))
		return result
	}

	parts, err := tessellate.Units(sc, res)
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		result.Errors = append(result.Errors, ErrorData{
			Kind:    KindInternal,
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}
	for _, pt := range parts {
		result.Meshes = append(result.Meshes, partMesh(pt))
	}
	for _, e := range res.Schedule {
		result.Schedule = append(result.Schedule, ScheduleData{
			Object: res.Objects[e.Object].Name,
			Slab:   e.Slab,
			Unit:   sc.Name(e.Target),
			Start:  e.Start,
			End:    e.End,
		})
	}
	result.Dropped = res.Dropped()

	r := &run{scene: sc, curves: curves, result: res, parts: parts, params: p}
	if a.store != nil {
		id, err := a.store.SaveRun(a.context(), store.Run{
			Label:  names[0],
			Script: source,
			Params: p,
			Result: res,
			Curves: curves,
			Name:   sc.Name,
		})
		if err != nil {
			log.Printf("save run: %v", err)
		} else {
			r.id = id
			result.RunID = id
		}
	}

	a.mu.Lock()
	a.last = r
	a.mu.Unlock()
	return result
}

// requestParams merges the panel inputs over the configured defaults.
func (a *App) requestParams(req ApplyRequest) (slicer.Params, error) {
	p := a.cfg.Params()
	p.Slices = req.Slices
	p.Duration = req.Duration
	p.Strict = req.Strict
	if req.Timing != "" {
		m, err := slicer.ParseTimingMode(req.Timing)
		if err != nil {
			return p, err
		}
		p.Timing = m
	}
	return p, p.Validate()
}

func partMesh(pt tessellate.Part) MeshData {
	return MeshData{
		Vertices: pt.Mesh.Vertices,
		Normals:  pt.Mesh.Normals,
		Indices:  pt.Mesh.Indices,
		Name:     pt.Mesh.Name,
		Color:    colorPalette[pt.Slab%len(colorPalette)],
		Object:   pt.Object,
		Slab:     pt.Slab,
		Start:    pt.Start,
		End:      pt.End,
	}
}

// Pose returns the sliced meshes as they stand at frame.
func (a *App) Pose(frame float64) []MeshData {
	a.mu.Lock()
	r := a.last
	a.mu.Unlock()
	out := []MeshData{}
	if r == nil {
		return out
	}
	posed := tessellate.Pose(r.parts, r.curves, r.params.Key.Attribute, frame)
	for i, m := range posed {
		md := partMesh(r.parts[i])
		md.Vertices = m.Vertices
		out = append(out, md)
	}
	return out
}

// WriteReports renders the last run's PNG and HTML reports into the
// configured report directory and returns their paths.
func (a *App) WriteReports() ([]string, error) {
	a.mu.Lock()
	r := a.last
	a.mu.Unlock()
	if r == nil {
		return nil, errors.New("no run to report: apply first")
	}
	tl, err := report.Build("slabanim", r.result, r.curves, r.params.Key.Attribute, r.scene.Name)
	if err != nil {
		return nil, err
	}
	paths, err := tl.WriteDir(a.cfg.GetReportDir())
	if err != nil {
		return nil, err
	}
	log.Printf("reports written to %s", a.cfg.GetReportDir())
	return paths, nil
}

// History lists recorded runs, newest first.
func (a *App) History(limit int) ([]store.Summary, error) {
	if a.store == nil {
		return []store.Summary{}, nil
	}
	return a.store.Runs(a.context(), limit)
}

// toErrorData classifies a pipeline error for the frontend.
func toErrorData(err error) ErrorData {
	kind := KindInternal
	switch {
	case errors.Is(err, slicer.ErrSealFailure):
		kind = KindSealFailure
	case errors.Is(err, slicer.ErrNoSlab):
		kind = KindNoSlab
	case errors.Is(err, slicer.ErrInvalidInput):
		kind = KindInvalidInput
	}
	return ErrorData{Kind: kind, Message: err.Error()}
}
