package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/asciivid/internal/glyph"
)

func frame(cells ...glyph.Cell) glyph.Frame {
	return glyph.Frame{Width: len(cells), Height: 1, Cells: cells}
}

func TestStats(t *testing.T) {
	red := glyph.RGB{R: 255}
	frames := []glyph.Frame{
		frame(glyph.SymbolCell('F', red), glyph.EmptyCell(), glyph.EmptyCell()),
		frame(glyph.SymbolCell('F', red), glyph.SymbolCell('V', red), glyph.EmptyCell()),
		frame(glyph.EmptyCell(), glyph.SymbolCell('V', red), glyph.EmptyCell()),
	}
	stats := Stats(frames, 10)

	want := []FrameStat{
		{Index: 0, Time: 0, Filled: 1, Changed: 1},
		{Index: 1, Time: 0.1, Filled: 2, Changed: 1},
		{Index: 2, Time: 0.2, Filled: 1, Changed: 1},
	}
	for i, w := range want {
		if stats[i] != w {
			t.Errorf("frame %d: expected %+v, got %+v", i, w, stats[i])
		}
	}
}

func TestStoreRecordLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(filepath.Join(tmpDir, "data"))
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	artifact := filepath.Join(tmpDir, "clip.jsonl")
	if err := os.WriteFile(artifact, []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	stats := []FrameStat{{Index: 0, Filled: 4, Changed: 4}, {Index: 1, Time: 0.1, Filled: 3, Changed: 2}}
	id, err := st.Record(ExportRecord{Source: "clip.mp4", Format: "text", FPS: 10, FrameCount: 2}, []string{artifact}, stats)
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected uuid id, got %q", id)
	}

	rec, err := st.Load(id)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if rec.Source != "clip.mp4" || rec.FrameCount != 2 {
		t.Errorf("unexpected record %+v", rec)
	}
	if len(rec.Files) != 1 || rec.Files[0].Size != 3 || len(rec.Files[0].BLAKE3) != 64 {
		t.Fatalf("unexpected files %+v", rec.Files)
	}

	got, err := st.LoadStats(id)
	if err != nil {
		t.Fatalf("load stats failed: %v", err)
	}
	if len(got) != 2 || got[1] != stats[1] {
		t.Errorf("expected %v, got %v", stats, got)
	}

	bad, err := st.Verify(id)
	if err != nil || len(bad) != 0 {
		t.Fatalf("fresh export should verify, got %v %v", bad, err)
	}
	os.WriteFile(artifact, []byte("{}\n{}\n"), 0644)
	if bad, _ := st.Verify(id); len(bad) != 1 {
		t.Errorf("expected modified artifact to fail verification, got %v", bad)
	}
}

func TestChecksumStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.bin")
	os.WriteFile(path, []byte("asciivid"), 0644)
	a, err := Checksum(path)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Checksum(path)
	if a.BLAKE3 != b.BLAKE3 {
		t.Error("checksum should be deterministic")
	}
	if _, err := Checksum(path + ".missing"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	st.Init()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, src := range []string{"b.mp4", "a.mp4"} {
		rec := ExportRecord{Source: src, Timestamp: base.Add(time.Duration(1-i) * time.Hour)}
		if _, err := st.Record(rec, nil, nil); err != nil {
			t.Fatal(err)
		}
	}
	os.MkdirAll(filepath.Join(st.Dir(), "not-an-export"), 0755)

	records, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Source != "a.mp4" {
		t.Errorf("expected oldest first, got %s", records[0].Source)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope"))
	records, err := st.List()
	if err != nil || len(records) != 0 {
		t.Errorf("expected empty list, got %v %v", records, err)
	}
}
