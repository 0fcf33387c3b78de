package main

import (
	"fmt"
	"image"
	"os"
	"text/tabwriter"

	"github.com/disintegration/imaging"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/san-kum/asciivid/internal/animation"
	"github.com/san-kum/asciivid/internal/glyph"
	"github.com/san-kum/asciivid/internal/storage"
)

// runInfo accepts an animation file or the id of a recorded export.
func runInfo(cmd *cobra.Command, args []string) error {
	target := args[0]
	if animation.Kind(target) != "" {
		anim, err := animation.Open(target, animation.DefaultStyle())
		if err != nil {
			return err
		}
		printMeta(target, anim.Meta)
		plotChanges(storage.Stats(anim.Frames, anim.Meta.FPS), anim.Meta.Width*anim.Meta.Height)
		return nil
	}

	st := storage.New(dataDir)
	rec, err := st.Load(target)
	if err != nil {
		return fmt.Errorf("%s is neither an animation nor a recorded export: %w", target, err)
	}
	stats, err := st.LoadStats(target)
	if err != nil {
		return err
	}
	printMeta(rec.Source, glyph.Metadata{
		FPS:        rec.FPS,
		Width:      rec.Width,
		Height:     rec.Height,
		FrameCount: rec.FrameCount,
		Duration:   rec.Duration,
		Format:     rec.Format,
	})
	fmt.Printf("id: %s\nmode: %s  chars: %q  seed: %d\n", rec.ID, rec.Mode, rec.Chars, rec.Seed)
	for _, f := range rec.Files {
		fmt.Printf("  %s  %d bytes  blake3:%s\n", f.Path, f.Size, short(f.BLAKE3, 16))
	}
	fmt.Println()
	plotChanges(stats, rec.Width*rec.Height)
	return nil
}

func printMeta(name string, m glyph.Metadata) {
	fmt.Printf("%s\n", name)
	fmt.Printf("format: %s\n", m.Format)
	fmt.Printf("grid: %dx%d\n", m.Width, m.Height)
	fmt.Printf("frames: %d @ %.2f fps (%.2fs)\n", m.FrameCount, m.FPS, m.EffectiveDuration())
}

// plotChanges graphs the fraction of cells that change per frame.
func plotChanges(stats []storage.FrameStat, cells int) {
	if len(stats) < 2 || cells <= 0 {
		return
	}
	data := make([]float64, len(stats))
	for i, s := range stats {
		data[i] = float64(s.Changed) / float64(cells)
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("changed cells per frame"),
	))
}

func runList(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	recs, err := st.List()
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("no exports recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := "ID\tSOURCE\tFORMAT\tMODE\tTIME\tGRID\tFRAMES"
	if verify {
		header += "\tSTATUS"
	}
	fmt.Fprintln(w, header)

	for _, rec := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%dx%d\t%d",
			rec.ID,
			rec.Source,
			rec.Format,
			rec.Mode,
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.Width, rec.Height,
			rec.FrameCount,
		)
		if verify {
			fmt.Fprintf(w, "\t%s", verifyStatus(st, rec.ID))
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func verifyStatus(st *storage.Store, id string) string {
	bad, err := st.Verify(id)
	switch {
	case err != nil:
		return "error: " + err.Error()
	case len(bad) > 0:
		return fmt.Sprintf("%d modified", len(bad))
	}
	return "ok"
}

// terminalWidth falls back to 80 columns when stdout is not a terminal.
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

func short(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func saveImage(path string, img image.Image) error {
	return imaging.Save(img, path)
}
