package storage

import (
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/san-kum/asciivid/internal/glyph"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

// Store keeps one directory per export holding its manifest and per-frame
// statistics.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type FileEntry struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	BLAKE3 string `json:"blake3"`
}

type ExportRecord struct {
	ID         string      `json:"id"`
	Source     string      `json:"source"`
	Format     string      `json:"format"`
	Mode       string      `json:"mode"`
	Chars      string      `json:"chars"`
	Timestamp  time.Time   `json:"timestamp"`
	Seed       int64       `json:"seed"`
	FPS        float64     `json:"fps"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	FrameCount int         `json:"frame_count"`
	Duration   float64     `json:"duration"`
	Files      []FileEntry `json:"files"`
}

// FrameStat summarizes one frame. Changed counts cells that differ from the
// previous frame; frame 0 counts every filled cell as changed.
type FrameStat struct {
	Index   int
	Time    float64
	Filled  int
	Changed int
}

// Stats computes per-frame fill and change counts.
func Stats(frames []glyph.Frame, fps float64) []FrameStat {
	out := make([]FrameStat, len(frames))
	for i, f := range frames {
		st := FrameStat{Index: i}
		if fps > 0 {
			st.Time = float64(i) / fps
		}
		for j, c := range f.Cells {
			if !c.IsEmpty() {
				st.Filled++
			}
			if i == 0 {
				if !c.IsEmpty() {
					st.Changed++
				}
				continue
			}
			if prev := frames[i-1].Cells; j >= len(prev) || prev[j] != c {
				st.Changed++
			}
		}
		out[i] = st
	}
	return out
}

// Checksum hashes a file with BLAKE3.
func Checksum(path string) (FileEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileEntry{}, err
	}
	defer f.Close()

	h := blake3.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return FileEntry{}, err
	}
	return FileEntry{Path: path, Size: n, BLAKE3: hex.EncodeToString(h.Sum(nil))}, nil
}

// Record assigns an id, checksums files and writes the manifest and stats.
func (s *Store) Record(rec ExportRecord, files []string, stats []FrameStat) (string, error) {
	rec.ID = uuid.NewString()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	rec.Files = rec.Files[:0]
	for _, p := range files {
		entry, err := Checksum(p)
		if err != nil {
			return "", fmt.Errorf("checksum %s: %w", p, err)
		}
		rec.Files = append(rec.Files, entry)
	}

	dir := filepath.Join(s.baseDir, rec.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(dir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return "", err
	}

	if err := writeStats(filepath.Join(dir, framesFile), stats); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func writeStats(path string, stats []FrameStat) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"frame", "time", "filled", "changed"}); err != nil {
		return err
	}
	for _, st := range stats {
		row := []string{
			strconv.Itoa(st.Index),
			strconv.FormatFloat(st.Time, 'f', 6, 64),
			strconv.Itoa(st.Filled),
			strconv.Itoa(st.Changed),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable record, oldest first.
func (s *Store) List() ([]ExportRecord, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ExportRecord{}, nil
		}
		return nil, err
	}

	records := make([]ExportRecord, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rec, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records, nil
}

func (s *Store) Load(id string) (*ExportRecord, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		return nil, err
	}

	var rec ExportRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) LoadStats(id string) ([]FrameStat, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []FrameStat{}, nil
	}

	stats := make([]FrameStat, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != 4 {
			return nil, fmt.Errorf("frames.csv: expected 4 fields, got %d", len(rec))
		}
		var st FrameStat
		var perr error
		parseInt := func(s string) int {
			v, err := strconv.Atoi(s)
			if err != nil && perr == nil {
				perr = err
			}
			return v
		}
		st.Index = parseInt(rec[0])
		st.Time, err = strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, err
		}
		st.Filled = parseInt(rec[2])
		st.Changed = parseInt(rec[3])
		if perr != nil {
			return nil, perr
		}
		stats = append(stats, st)
	}
	return stats, nil
}

// Verify rehashes the recorded files and returns the paths that are missing
// or no longer match.
func (s *Store) Verify(id string) ([]string, error) {
	rec, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	var bad []string
	for _, f := range rec.Files {
		got, err := Checksum(f.Path)
		if err != nil || got.BLAKE3 != f.BLAKE3 {
			bad = append(bad, f.Path)
		}
	}
	return bad, nil
}
