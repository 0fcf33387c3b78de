package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/asciivid/internal/config"
)

func TestApplyMasks(t *testing.T) {
	cfg := config.DefaultConfig()
	if err := applyMasks(cfg, []string{"1,2", " 3, 4 ,5,6"}); err != nil {
		t.Fatal(err)
	}
	if len(cfg.Mask) != 1 || cfg.Mask[0] != [2]int{1, 2} {
		t.Errorf("unexpected points %v", cfg.Mask)
	}
	want := config.MaskRect{X: 3, Y: 4, W: 5, H: 6}
	if len(cfg.MaskRects) != 1 || cfg.MaskRects[0] != want {
		t.Errorf("unexpected rects %v", cfg.MaskRects)
	}

	for _, bad := range []string{"1", "1,2,3", "a,b", "1,2,3,4,5"} {
		if err := applyMasks(config.DefaultConfig(), []string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestLookupPreset(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		wantMode string
		wantErr  bool
	}{
		{"grain", "glyph", "glyph", false},
		{"halftone", "glyph", "dot", false},
		{"dot/speckle", "glyph", "dot", false},
		{"glyph/halftone", "dot", "", true},
		{"nope", "glyph", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, style, err := lookupPreset(tt.name, tt.current)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if mode != tt.wantMode {
				t.Errorf("mode = %s, want %s", mode, tt.wantMode)
			}
			if style.Chars == "" {
				t.Error("preset has no alphabet")
			}
		})
	}
}

func newStyleCmd() *cobra.Command {
	configFile, preset, masks = "", "", nil
	cmd := &cobra.Command{Use: "test"}
	addStyleFlags(cmd)
	cmd.Flags().IntVar(&width, "width", config.DefaultWidth, "")
	cmd.Flags().StringArrayVar(&masks, "mask", nil, "")
	return cmd
}

func TestResolveConfigLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("width: 120\nchars: \"AB \"\nnoise: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := newStyleCmd()
	if err := cmd.Flags().Parse([]string{"--config", path, "--preset", "grain", "--width", "64", "--mask", "0,0"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 64 {
		t.Errorf("flag should win over the file, width = %d", cfg.Width)
	}
	grain := config.Presets["glyph"]["grain"]
	if cfg.Chars != grain.Chars || cfg.Noise != grain.Noise {
		t.Errorf("preset should win over the file, got chars %q noise %g", cfg.Chars, cfg.Noise)
	}
	if len(cfg.Mask) != 1 {
		t.Errorf("expected one masked cell, got %v", cfg.Mask)
	}
}

func TestResolveConfigDefaults(t *testing.T) {
	cmd := newStyleCmd()
	if err := cmd.Flags().Parse(nil); err != nil {
		t.Fatal(err)
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		t.Fatal(err)
	}
	def := config.DefaultConfig()
	if cfg.Chars != def.Chars || cfg.Width != def.Width || cfg.Mode != def.Mode {
		t.Errorf("unset flags should keep defaults, got %+v", cfg)
	}
}

func TestResolveConfigRejectsBadMode(t *testing.T) {
	cmd := newStyleCmd()
	if err := cmd.Flags().Parse([]string{"--mode", "braille"}); err != nil {
		t.Fatal(err)
	}
	if _, err := resolveConfig(cmd); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestShort(t *testing.T) {
	if short("abc", 16) != "abc" || short("abcdef", 3) != "abc" {
		t.Error("short truncates wrong")
	}
}
