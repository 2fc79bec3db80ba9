// Package batch runs YAML scripts of frame captures.
package batch

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/palcycle/internal/cycle"
	"github.com/san-kum/palcycle/internal/logging"
	"github.com/san-kum/palcycle/internal/player"
	"github.com/san-kum/palcycle/internal/render"
	"github.com/san-kum/palcycle/internal/scene"
	"github.com/san-kum/palcycle/internal/storage"
	"github.com/san-kum/palcycle/internal/timeline"
)

// Script is a named list of captures.
type Script struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step renders one frame. At is a time of day ("HH:MM[:SS]"). Output, when
// set, receives a PNG; Capture stores the frame in the capture store.
type Step struct {
	Scene   string `yaml:"scene"`
	At      string `yaml:"at"`
	Clock   uint64 `yaml:"clock_ms"`
	Scale   int    `yaml:"scale"`
	Output  string `yaml:"output"`
	Capture bool   `yaml:"capture"`
}

// StepResult reports what a step produced.
type StepResult struct {
	Step      int
	Scene     string
	Palette   string
	Output    string
	CaptureID string
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, err
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("script %s has no steps", path)
	}
	return &script, nil
}

// Runner executes scripts. Scene paths in steps are relative to BaseDir.
type Runner struct {
	Engine  cycle.Engine
	Store   *storage.Store
	BaseDir string
	Load    func(path string) (*scene.Scene, error)
	Logger  *logging.Logger
}

func (r *Runner) Run(ctx context.Context, script *Script) ([]StepResult, error) {
	load := r.Load
	if load == nil {
		load = scene.Load
	}
	log := r.Logger
	if log == nil {
		log = logging.Discard()
	}
	log = log.With("component", "batch", "script", script.Name)

	scenes := make(map[string]*scene.Scene)
	results := make([]StepResult, 0, len(script.Steps))

	for i, step := range script.Steps {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		path := r.resolve(step.Scene)
		sc, ok := scenes[path]
		if !ok {
			var err error
			sc, err = load(path)
			if err != nil {
				return results, fmt.Errorf("step %d: %w", i, err)
			}
			scenes[path] = sc
		}

		seconds, err := timeline.ParseTimeOfDay(step.At)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i, err)
		}

		frame, err := player.NewSession(sc, r.Engine).Frame(seconds, step.Clock)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i, err)
		}

		res := StepResult{Step: i, Scene: sc.Name, Palette: frame.Palette}
		img := render.Scale(render.Compose(sc, &frame.Table), max(step.Scale, 1))

		if step.Output != "" {
			out := r.resolve(step.Output)
			if err := writePNG(out, img); err != nil {
				return results, fmt.Errorf("step %d: %w", i, err)
			}
			res.Output = out
		}

		if step.Capture {
			if r.Store == nil {
				return results, fmt.Errorf("step %d: capture requested without a store", i)
			}
			if err := r.Store.Init(); err != nil {
				return results, err
			}
			id, err := r.Store.Save(storage.CaptureMetadata{
				Scene:   sc.Name,
				Palette: frame.Palette,
				Seconds: seconds,
				Clock:   step.Clock,
				Speed:   r.Engine.Speed,
				Width:   sc.Width,
				Height:  sc.Height,
			}, &frame.Table, img)
			if err != nil {
				return results, fmt.Errorf("step %d: %w", i, err)
			}
			res.CaptureID = id
		}

		log.Debug("step done", "step", i, "scene", sc.Name, "palette", frame.Palette, "at", step.At)
		results = append(results, res)
	}

	return results, nil
}

func (r *Runner) resolve(path string) string {
	if r.BaseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.BaseDir, path)
}

func writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render.WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
