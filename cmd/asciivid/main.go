package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/san-kum/asciivid/internal/config"
)

var (
	dataDir string
	verbose bool

	// Style
	configFile     string
	preset         string
	chars          string
	mode           string
	width          int
	fps            float64
	whiteThreshold float64
	noise          float64
	contrast       float64
	exposure       float64
	skipStart      int
	skipEnd        int
	seed           int64
	includeAudio   bool
	masks          []string
	seekTimeout    time.Duration

	// Convert
	format        string
	outPath       string
	sourceBackend string
	muxBackend    string
	svgFrame      int

	// Play and preview
	audioPath string
	plain     bool
	pngPath   string
	verify    bool
)

// main registers the commands and exits 1 with a single message when one
// fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "asciivid",
		Short:         "turn video into glyph and dot animations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(verbose)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".asciivid", "data directory for export records")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	convertCmd := &cobra.Command{
		Use:   "convert [video]",
		Short: "convert a video or image sequence",
		Args:  cobra.ExactArgs(1),
		RunE:  runConvert,
	}
	addStyleFlags(convertCmd)
	convertCmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, delta, video, svg, gif")
	convertCmd.Flags().StringVarP(&outPath, "out", "o", "", "output path (default derived from input)")
	convertCmd.Flags().IntVar(&width, "width", config.DefaultWidth, "grid width in cells")
	convertCmd.Flags().Float64Var(&fps, "fps", config.DefaultFPS, "frames per second to sample")
	convertCmd.Flags().Float64Var(&noise, "noise", config.DefaultNoise, "probability of a random glyph shift [0,1]")
	convertCmd.Flags().Float64Var(&contrast, "contrast", config.DefaultContrast, "contrast percentage")
	convertCmd.Flags().Float64Var(&exposure, "exposure", 0, "exposure offset added to each channel")
	convertCmd.Flags().IntVar(&skipStart, "skip-start", 0, "frames to drop from the start")
	convertCmd.Flags().IntVar(&skipEnd, "skip-end", 0, "frames to drop from the end")
	convertCmd.Flags().Int64Var(&seed, "seed", 0, "noise seed")
	convertCmd.Flags().BoolVar(&includeAudio, "audio", true, "carry the soundtrack into video exports")
	convertCmd.Flags().StringArrayVar(&masks, "mask", nil, "blank cells: x,y or x,y,w,h (repeatable)")
	convertCmd.Flags().DurationVar(&seekTimeout, "seek-timeout", config.DefaultSeekTimeout, "maximum wait for one frame")
	convertCmd.Flags().StringVar(&sourceBackend, "source", "auto", "decoder: auto, opencv, ffmpeg")
	convertCmd.Flags().StringVar(&muxBackend, "muxer", "auto", "video writer: auto, ffmpeg, opencv")
	convertCmd.Flags().IntVar(&svgFrame, "frame", 0, "frame index for svg output")

	playCmd := &cobra.Command{
		Use:   "play [file]",
		Short: "play a .jsonl(.gz) or .meta.json animation in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlay,
	}
	addStyleFlags(playCmd)
	playCmd.Flags().StringVar(&audioPath, "audio", "", "soundtrack to play alongside (wav or any ffmpeg input)")
	playCmd.Flags().BoolVar(&plain, "plain", false, "repaint in place without the interactive UI")

	infoCmd := &cobra.Command{
		Use:   "info [file]",
		Short: "show animation metadata and change density",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}

	previewCmd := &cobra.Command{
		Use:   "preview [file]",
		Short: "print the first frame",
		Args:  cobra.ExactArgs(1),
		RunE:  runPreview,
	}
	addStyleFlags(previewCmd)
	previewCmd.Flags().StringVar(&pngPath, "png", "", "write the frame as a png instead")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded exports",
		RunE:  runList,
	}
	listCmd.Flags().BoolVar(&verify, "verify", false, "recheck file checksums")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list style presets",
		RunE:  runPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the effective configuration as yaml or toml",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfig,
	}
	addStyleFlags(configCmd)

	rootCmd.AddCommand(convertCmd, playCmd, infoCmd, previewCmd, listCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "asciivid:", err)
		os.Exit(1)
	}
}

func addStyleFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file (yaml or toml)")
	cmd.Flags().StringVar(&preset, "preset", "", "style preset, e.g. grain or dot/halftone")
	cmd.Flags().StringVar(&chars, "chars", config.DefaultChars, "glyph alphabet, densest first")
	cmd.Flags().StringVar(&mode, "mode", "glyph", "glyph or dot")
	cmd.Flags().Float64Var(&whiteThreshold, "threshold", config.DefaultWhiteThreshold, "brightness at or above which cells are blank")
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	var w = colorable.NewColorableStderr()
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		w = colorable.NewNonColorable(os.Stderr)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// resolveConfig layers defaults, the config file, the preset and finally
// any flag the user set explicitly.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if preset != "" {
		m, style, err := lookupPreset(preset, cfg.Mode)
		if err != nil {
			return nil, err
		}
		style.Apply(cfg, m)
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if f := flags.Lookup(name); f != nil && f.Changed {
			apply()
		}
	}
	set("chars", func() { cfg.Chars = chars })
	set("mode", func() { cfg.Mode = mode })
	set("threshold", func() { cfg.WhiteThreshold = whiteThreshold })
	set("width", func() { cfg.Width = width })
	set("fps", func() { cfg.FPS = fps })
	set("noise", func() { cfg.Noise = noise })
	set("contrast", func() { cfg.Contrast = contrast })
	set("exposure", func() { cfg.Exposure = exposure })
	set("skip-start", func() { cfg.SkipStart = skipStart })
	set("skip-end", func() { cfg.SkipEnd = skipEnd })
	set("seed", func() { cfg.Seed = seed })
	set("audio", func() { cfg.IncludeAudio = includeAudio })
	set("seek-timeout", func() { cfg.SeekTimeout = seekTimeout })
	if len(masks) > 0 {
		if err := applyMasks(cfg, masks); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// lookupPreset accepts mode/name, or a bare name searched in the current
// mode first.
func lookupPreset(name, currentMode string) (string, config.Style, error) {
	if m, n, ok := strings.Cut(name, "/"); ok {
		if s, ok := config.Presets[m][n]; ok {
			return m, s, nil
		}
		return "", config.Style{}, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets(m))
	}
	modes := append([]string{currentMode}, config.ListModes()...)
	for _, m := range modes {
		if s, ok := config.Presets[m][name]; ok {
			return m, s, nil
		}
	}
	return "", config.Style{}, fmt.Errorf("unknown preset: %s", name)
}

// applyMasks parses x,y points and x,y,w,h rectangles.
func applyMasks(cfg *config.Config, args []string) error {
	for _, arg := range args {
		parts := strings.Split(arg, ",")
		nums := make([]int, len(parts))
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return fmt.Errorf("mask %q: %w", arg, err)
			}
			nums[i] = n
		}
		switch len(nums) {
		case 2:
			cfg.Mask = append(cfg.Mask, [2]int{nums[0], nums[1]})
		case 4:
			cfg.MaskRects = append(cfg.MaskRects, config.MaskRect{X: nums[0], Y: nums[1], W: nums[2], H: nums[3]})
		default:
			return fmt.Errorf("mask %q: want x,y or x,y,w,h", arg)
		}
	}
	return nil
}
