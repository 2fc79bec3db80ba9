package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/palcycle/internal/batch"
	"github.com/san-kum/palcycle/internal/catalog"
	"github.com/san-kum/palcycle/internal/config"
	"github.com/san-kum/palcycle/internal/cycle"
	"github.com/san-kum/palcycle/internal/export"
	"github.com/san-kum/palcycle/internal/logging"
	"github.com/san-kum/palcycle/internal/player"
	"github.com/san-kum/palcycle/internal/render"
	"github.com/san-kum/palcycle/internal/scene"
	"github.com/san-kum/palcycle/internal/storage"
	"github.com/san-kum/palcycle/internal/timeline"
)

var version = "dev"

var (
	cfg    = config.DefaultConfig()
	logger = logging.Discard()

	configFile string
	dataDir    string
	scenesDir  string
	logLevel   string
	speed      int

	at     string
	clock  uint64
	scale  int
	output string

	from   uint64
	frames int
	step   uint64
	delay  int

	paletteName string
	ruleIndex   int
	span        time.Duration

	month   string
	weather string
	seed    int64

	fps       int
	timeScale float64
	theme     string
	preset    string
)

// main registers the commands and flags and runs the player when no
// subcommand is given.
func main() {
	rootCmd := &cobra.Command{
		Use:               "palcycle",
		Short:             "palette cycling scene player",
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE:              play,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "capture directory")
	pf.StringVar(&scenesDir, "scenes", config.DefaultScenesDir, "scene directory")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.IntVar(&speed, "speed", config.DefaultSpeed, "cycle speed constant")
	addPlayFlags(rootCmd)

	validateCmd := &cobra.Command{
		Use:   "validate [scene]",
		Short: "load a scene and report problems",
		Args:  cobra.ExactArgs(1),
		RunE:  validateScene,
	}

	resolveCmd := &cobra.Command{
		Use:   "resolve [scene]",
		Short: "print the palette active at a time of day",
		Args:  cobra.ExactArgs(1),
		RunE:  resolvePalette,
	}
	resolveCmd.Flags().StringVar(&at, "at", "", "time of day HH:MM[:SS] (default now)")

	timelineCmd := &cobra.Command{
		Use:   "timeline [scene]",
		Short: "list palette breakpoints",
		Args:  cobra.ExactArgs(1),
		RunE:  listTimeline,
	}

	renderCmd := &cobra.Command{
		Use:   "render [scene]",
		Short: "write one frame as png",
		Args:  cobra.ExactArgs(1),
		RunE:  renderFrame,
	}
	addFrameFlags(renderCmd)
	renderCmd.Flags().StringVarP(&output, "output", "o", "frame.png", "output file")

	gifCmd := &cobra.Command{
		Use:   "gif [scene]",
		Short: "write an animated gif of the cycling palette",
		Args:  cobra.ExactArgs(1),
		RunE:  renderGIF,
	}
	gifCmd.Flags().StringVar(&at, "at", "", "time of day HH:MM[:SS] (default now)")
	gifCmd.Flags().Uint64Var(&from, "from", 0, "animation clock of the first frame (ms)")
	gifCmd.Flags().IntVar(&frames, "frames", 60, "number of frames")
	gifCmd.Flags().Uint64Var(&step, "step", 1000, "clock step between frames (ms)")
	gifCmd.Flags().IntVar(&delay, "delay", 10, "frame delay (1/100 s)")
	gifCmd.Flags().IntVar(&scale, "scale", 1, "integer upscale factor")
	gifCmd.Flags().StringVarP(&output, "output", "o", "scene.gif", "output file")

	captureCmd := &cobra.Command{
		Use:   "capture [scene]",
		Short: "save a frame to the capture store",
		Args:  cobra.ExactArgs(1),
		RunE:  captureFrame,
	}
	addFrameFlags(captureCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list captures",
		RunE:  listCaptures,
	}

	showCmd := &cobra.Command{
		Use:   "show [capture-id]",
		Short: "print a stored capture's color table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showCapture(os.Stdout, storage.New(cfg.DataDir), args[0])
		},
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [scene]",
		Short: "plot a cycle rule's step count over time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotPhase,
	}
	phaseCmd.Flags().StringVar(&paletteName, "palette", "", "palette name (default: active now)")
	phaseCmd.Flags().IntVar(&ruleIndex, "rule", 0, "rule index within the palette")
	phaseCmd.Flags().DurationVar(&span, "span", time.Minute, "animation time to plot")

	swatchCmd := &cobra.Command{
		Use:   "swatch [scene]",
		Short: "export the color table as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSwatch,
	}
	addFrameFlags(swatchCmd)
	swatchCmd.Flags().StringVarP(&output, "output", "o", "table.svg", "output file")

	pickCmd := &cobra.Command{
		Use:   "pick",
		Short: "choose a scene file for a month and weather",
		RunE:  pickScene,
	}
	pickCmd.Flags().StringVar(&month, "month", "", "month name or number (default current)")
	pickCmd.Flags().StringVar(&weather, "weather", "", "weather variant (default random)")
	pickCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")

	batchCmd := &cobra.Command{
		Use:   "batch [script]",
		Short: "run a yaml capture script",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	playCmd := &cobra.Command{
		Use:   "play [scene]",
		Short: "play a scene in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  play,
	}
	addPlayFlags(playCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list player presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tFPS\tTIME SCALE")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\tx%.0f\n", name, p.FPS, p.TimeScale)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(validateCmd, resolveCmd, timelineCmd, renderCmd, gifCmd, captureCmd, listCmd,
		showCmd, phaseCmd, swatchCmd, pickCmd, batchCmd, playCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addFrameFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&at, "at", "", "time of day HH:MM[:SS] (default now)")
	cmd.Flags().Uint64Var(&clock, "clock", 0, "animation clock (ms)")
	cmd.Flags().IntVar(&scale, "scale", 1, "integer upscale factor")
}

func addPlayFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "frame rate")
	cmd.Flags().Float64Var(&timeScale, "time-scale", config.DefaultTimeScale, "time of day speed-up")
	cmd.Flags().StringVar(&theme, "theme", config.DefaultTheme,
		fmt.Sprintf("status bar theme (%s)", strings.Join(player.ThemeNames(), ", ")))
	cmd.Flags().StringVar(&preset, "preset", "", "player preset")
}

// setup loads the config file, lets explicitly set flags override it and
// builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("data") || configFile == "" {
		cfg.DataDir = dataDir
	}
	if flags.Changed("scenes") || configFile == "" {
		cfg.ScenesDir = scenesDir
	}
	if flags.Changed("speed") {
		cfg.SpeedConstant = speed
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}

	if preset != "" {
		if err := cfg.ApplyPreset(preset); err != nil {
			return err
		}
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if flags.Changed("time-scale") {
		cfg.TimeScale = timeScale
	}
	if flags.Changed("theme") {
		cfg.Theme = theme
	}
	if flags.Changed("scale") {
		cfg.Scale = scale
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := player.LookupTheme(cfg.Theme); err != nil {
		return err
	}

	logger = logging.New(cfg.Logging, version)
	return nil
}

func engine() cycle.Engine {
	return cycle.New(cfg.SpeedConstant)
}

func loadScene(path string) (*scene.Scene, error) {
	s, err := scene.Load(path)
	if err != nil {
		return nil, err
	}
	for _, w := range s.Warnings(cfg.SpeedConstant) {
		logger.Warn("degenerate cycle rule", "scene", s.Name, "palette", w.Palette, "rule", w.Rule, "rate", w.Rate)
	}
	logger.Debug("scene loaded", "scene", s.Name, "width", s.Width, "height", s.Height, "palettes", len(s.Palettes))
	return s, nil
}

func queryTime() (uint32, error) {
	if at == "" {
		return timeline.SecondsOfDay(time.Now()), nil
	}
	return timeline.ParseTimeOfDay(at)
}

func frameFor(path string) (*scene.Scene, player.Frame, error) {
	s, err := loadScene(path)
	if err != nil {
		return nil, player.Frame{}, err
	}
	secs, err := queryTime()
	if err != nil {
		return nil, player.Frame{}, err
	}
	f, err := player.NewSession(s, engine()).Frame(secs, clock)
	if err != nil {
		return nil, player.Frame{}, err
	}
	return s, f, nil
}

func validateScene(cmd *cobra.Command, args []string) error {
	s, err := scene.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("scene: %s (%dx%d)\n", s.Name, s.Width, s.Height)
	fmt.Printf("palettes: %d\n", len(s.Palettes))
	fmt.Printf("breakpoints: %d\n", len(s.Timeline))

	warnings := s.Warnings(cfg.SpeedConstant)
	if len(warnings) == 0 {
		fmt.Println("ok")
		return nil
	}
	fmt.Println("\nwarnings:")
	for _, w := range warnings {
		fmt.Printf("  %s\n", w)
	}
	return nil
}

func resolvePalette(cmd *cobra.Command, args []string) error {
	s, err := loadScene(args[0])
	if err != nil {
		return err
	}
	secs, err := queryTime()
	if err != nil {
		return err
	}
	name, err := timeline.Resolve(s.Timeline, secs)
	if err != nil {
		return err
	}
	fmt.Println(name)
	return nil
}

func listTimeline(cmd *cobra.Command, args []string) error {
	s, err := loadScene(args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tPALETTE\tCOLORS\tCYCLES")
	for _, bp := range s.Timeline {
		p, _ := s.Palette(bp.Palette)
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", timeline.Format(bp.Seconds), bp.Palette, p.Count, len(p.Cycles))
	}
	return w.Flush()
}

func renderFrame(cmd *cobra.Command, args []string) error {
	s, f, err := frameFor(args[0])
	if err != nil {
		return err
	}

	file, err := os.Create(output)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := render.WritePNG(file, render.Scale(render.Compose(s, &f.Table), cfg.Scale)); err != nil {
		return err
	}
	fmt.Printf("%s at %s, clock %dms -> %s\n", f.Palette, timeline.Format(f.Seconds), f.Clock, output)
	return nil
}

func renderGIF(cmd *cobra.Command, args []string) error {
	s, err := loadScene(args[0])
	if err != nil {
		return err
	}
	secs, err := queryTime()
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := render.Frames(cmd.Context(), s, engine(), render.Sequence{
		Seconds: secs,
		From:    from,
		Step:    step,
		Frames:  frames,
	})
	if err != nil {
		return err
	}

	file, err := os.Create(output)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := render.WriteGIF(file, s, res, delay, cfg.Scale); err != nil {
		return err
	}
	logger.Info("gif written", "path", output, "frames", frames, "palette", res.Palette, "elapsed", time.Since(start))
	fmt.Printf("%d frames of %s -> %s\n", frames, res.Palette, output)
	return nil
}

func captureFrame(cmd *cobra.Command, args []string) error {
	s, f, err := frameFor(args[0])
	if err != nil {
		return err
	}

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	id, err := st.Save(storage.CaptureMetadata{
		Scene:   s.Name,
		Palette: f.Palette,
		Seconds: f.Seconds,
		Clock:   f.Clock,
		Speed:   cfg.SpeedConstant,
		Width:   s.Width,
		Height:  s.Height,
	}, &f.Table, render.Scale(render.Compose(s, &f.Table), cfg.Scale))
	if err != nil {
		return err
	}

	fmt.Printf("capture id: %s\n", id)
	return nil
}

func listCaptures(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.DataDir)
	captures, err := st.List()
	if err != nil {
		return err
	}

	if len(captures) == 0 {
		fmt.Println("no captures found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tPALETTE\tAT\tCLOCK\tTAKEN")
	for _, c := range captures {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dms\t%s\n",
			c.ID,
			c.Scene,
			c.Palette,
			timeline.Format(c.Seconds),
			c.Clock,
			c.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}

func showCapture(w io.Writer, st *storage.Store, id string) error {
	meta, err := st.Load(id)
	if err != nil {
		return fmt.Errorf("failed to load capture: %w", err)
	}
	table, err := st.LoadTable(id)
	if err != nil {
		return err
	}

	frame := st.FramePath(id)
	if _, err := os.Stat(frame); err != nil {
		frame = "-"
	}

	fmt.Fprintf(w, "capture: %s\n", meta.ID)
	fmt.Fprintf(w, "scene: %s (%dx%d)\n", meta.Scene, meta.Width, meta.Height)
	fmt.Fprintf(w, "palette: %s at %s, clock %dms, speed %d\n", meta.Palette, timeline.Format(meta.Seconds), meta.Clock, meta.Speed)
	fmt.Fprintf(w, "frame: %s\n\n", frame)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tR\tG\tB\tHEX")
	for i, c := range table {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\n", i, c[0], c[1], c[2], export.Hex(c))
	}
	return tw.Flush()
}

func plotPhase(cmd *cobra.Command, args []string) error {
	s, err := loadScene(args[0])
	if err != nil {
		return err
	}

	name := paletteName
	if name == "" {
		secs, err := queryTime()
		if err != nil {
			return err
		}
		if name, err = timeline.Resolve(s.Timeline, secs); err != nil {
			return err
		}
	}
	p, ok := s.Palette(name)
	if !ok {
		return fmt.Errorf("unknown palette: %s (available: %v)", name, s.PaletteNames())
	}
	if ruleIndex < 0 || ruleIndex >= len(p.Cycles) {
		return fmt.Errorf("palette %s has %d rules, no rule %d", name, len(p.Cycles), ruleIndex)
	}
	rule := p.Cycles[ruleIndex]

	eng := engine()
	seconds := int(span / time.Second)
	if seconds < 2 {
		return fmt.Errorf("span must be at least 2s")
	}
	data := make([]float64, seconds)
	for i := range data {
		amount, active := eng.Amount(rule, uint64(i)*1000)
		if !active {
			return fmt.Errorf("rule %d (rate %d) is inactive at speed constant %d", ruleIndex, rule.Rate, eng.Speed)
		}
		data[i] = float64(amount)
	}

	fmt.Printf("palette: %s\n", name)
	fmt.Printf("rule: %d slots %d-%d, rate %d, %s\n\n", ruleIndex, rule.Low, rule.High, rule.Rate, rule.Mode)
	graph := asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("rotation steps vs animation seconds"),
	)
	fmt.Println(graph)
	return nil
}

func exportSwatch(cmd *cobra.Command, args []string) error {
	s, f, err := frameFor(args[0])
	if err != nil {
		return err
	}
	p, _ := s.Palette(f.Palette)

	svg := export.TableToSVG(&f.Table, 16, 16*cfg.Scale, p.Cycles)
	if err := os.WriteFile(output, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("%s -> %s\n", f.Palette, output)
	return nil
}

func pickScene(cmd *cobra.Command, args []string) error {
	entry, err := pick(time.Now(), month, weather, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}
	fmt.Println(entry.Path)
	return nil
}

func pick(now time.Time, monthName, weatherName string, rng *rand.Rand) (catalog.Entry, error) {
	entries, err := catalog.Scan(cfg.ScenesDir)
	if err != nil {
		return catalog.Entry{}, err
	}
	m := now.Month()
	if monthName != "" {
		if m, err = catalog.ParseMonth(monthName); err != nil {
			return catalog.Entry{}, err
		}
	}
	entry, err := catalog.Pick(entries, m, weatherName, rng)
	if errors.Is(err, catalog.ErrNoScene) {
		available := catalog.Weathers(entries, m)
		if len(available) == 0 {
			return catalog.Entry{}, fmt.Errorf("%w (no scenes for %s in %s)", err, m, cfg.ScenesDir)
		}
		return catalog.Entry{}, fmt.Errorf("%w (available for %s: %s)", err, m, strings.Join(available, ", "))
	}
	return entry, err
}

func runBatch(cmd *cobra.Command, args []string) error {
	script, err := batch.LoadScript(args[0])
	if err != nil {
		return err
	}

	runner := &batch.Runner{
		Engine:  engine(),
		Store:   storage.New(cfg.DataDir),
		BaseDir: filepath.Dir(args[0]),
		Load:    loadScene,
		Logger:  logger,
	}
	results, err := runner.Run(cmd.Context(), script)
	for _, r := range results {
		line := fmt.Sprintf("step %d: %s %s", r.Step, r.Scene, r.Palette)
		if r.Output != "" {
			line += " -> " + r.Output
		}
		if r.CaptureID != "" {
			line += " capture " + r.CaptureID
		}
		fmt.Println(line)
	}
	return err
}

func play(cmd *cobra.Command, args []string) error {
	path := cfg.Scene
	if len(args) > 0 {
		path = args[0]
	}

	var playlist []string
	if entries, err := catalog.Scan(cfg.ScenesDir); err == nil {
		for _, e := range entries {
			playlist = append(playlist, e.Path)
		}
	}

	if path == "" {
		entry, err := pick(time.Now(), "", "", rand.New(rand.NewSource(time.Now().UnixNano())))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("no scene given and scene directory %q not found", cfg.ScenesDir)
			}
			return err
		}
		path = entry.Path
	}

	s, err := loadScene(path)
	if err != nil {
		return err
	}

	m := player.NewModel(player.NewSession(s, engine()), player.Options{
		FPS:       cfg.FPS,
		TimeScale: cfg.TimeScale,
		Theme:     cfg.Theme,
		Scenes:    playlist,
		Load:      loadScene,
		Logger:    logger,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
