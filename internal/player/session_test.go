package player

import (
	"errors"
	"sync"
	"testing"

	"github.com/san-kum/palcycle/internal/cycle"
	"github.com/san-kum/palcycle/internal/scene"
)

func solidScene(t *testing.T, name string, c []int) *scene.Scene {
	t.Helper()
	s, err := scene.Build(name, scene.Definition{
		Width:  2,
		Height: 2,
		Pixels: []int{0, 1, 1, 0},
		Palettes: map[string]scene.PaletteDefinition{
			"day":   {Colors: [][]int{c, {0, 0, 0}}, Cycles: []scene.RuleDefinition{{Low: 0, High: 1, Rate: 280}}},
			"night": {Colors: [][]int{{1, 1, 1}, {2, 2, 2}}},
		},
		Timeline: map[uint32]string{0: "night", 21600: "day", 72000: "night"},
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return s
}

func TestSessionFrame(t *testing.T) {
	s := solidScene(t, "a", []int{200, 0, 0})
	sess := NewSession(s, cycle.New(0))

	f, err := sess.Frame(43200, 1000)
	if err != nil {
		t.Fatalf("frame failed: %v", err)
	}
	if f.Palette != "day" {
		t.Errorf("expected day, got %s", f.Palette)
	}
	if f.Table[1] != (scene.Color{200, 0, 0}) {
		t.Errorf("expected rotated slot 1, got %v", f.Table[1])
	}
	if f.Scene != s {
		t.Error("frame does not reference the active scene")
	}

	f, _ = sess.Frame(3600, 1000)
	if f.Palette != "night" {
		t.Errorf("expected night before dawn, got %s", f.Palette)
	}
}

func TestSessionEmpty(t *testing.T) {
	sess := NewSession(nil, cycle.New(0))
	if _, err := sess.Frame(0, 0); !errors.Is(err, ErrNoScene) {
		t.Errorf("expected ErrNoScene, got %v", err)
	}
}

func TestSessionSwap(t *testing.T) {
	a := solidScene(t, "a", []int{10, 0, 0})
	b := solidScene(t, "b", []int{0, 20, 0})
	sess := NewSession(a, cycle.New(0))

	if old := sess.Swap(b); old != a {
		t.Error("Swap did not return the previous scene")
	}
	f, err := sess.Frame(43200, 0)
	if err != nil {
		t.Fatal(err)
	}
	if f.Scene != b || f.Table[0] != (scene.Color{0, 20, 0}) {
		t.Errorf("frame not computed from the swapped scene: %v", f.Table[0])
	}
}

func TestSessionSwapConcurrent(t *testing.T) {
	a := solidScene(t, "a", []int{10, 0, 0})
	b := solidScene(t, "b", []int{0, 20, 0})
	sess := NewSession(a, cycle.New(0))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if i%2 == 0 {
				sess.Swap(b)
			} else {
				sess.Swap(a)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			f, err := sess.Frame(43200, 0)
			if err != nil {
				t.Error(err)
				return
			}
			want := scene.Color{10, 0, 0}
			if f.Scene == b {
				want = scene.Color{0, 20, 0}
			}
			if f.Table[0] != want {
				t.Errorf("frame mixes scenes: %s with %v", f.Scene.Name, f.Table[0])
				return
			}
		}
	}()
	wg.Wait()
}
