package audio

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ChunkDuration is the slice size used when streaming PCM.
const ChunkDuration = 100 * time.Millisecond

// WriteWAV encodes p as 16-bit interleaved PCM, one chunk at a time.
func WriteWAV(w io.WriteSeeker, p *PCM) error {
	if p == nil || p.Channels <= 0 || p.SampleRate <= 0 {
		return fmt.Errorf("no audio to write")
	}
	enc := wav.NewEncoder(w, p.SampleRate, 16, p.Channels, 1)
	format := &goaudio.Format{NumChannels: p.Channels, SampleRate: p.SampleRate}

	for _, chunk := range p.Chunks(ChunkDuration) {
		buf := &goaudio.IntBuffer{
			Format:         format,
			Data:           make([]int, len(chunk)),
			SourceBitDepth: 16,
		}
		for i, s := range chunk {
			buf.Data[i] = toInt16(s)
		}
		if err := enc.Write(buf); err != nil {
			return err
		}
	}
	return enc.Close()
}

// WriteWAVFile writes p to path.
func WriteWAVFile(path string, p *PCM) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWAV(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func toInt16(s float32) int {
	v := math.Max(-1, math.Min(1, float64(s)))
	if v < 0 {
		return int(math.Round(v * 32768))
	}
	return int(math.Round(v * 32767))
}
