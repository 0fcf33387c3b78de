// Package audio decodes soundtracks to PCM, writes them as WAV for the muxer,
// meters their spectrum and plays them back alongside an animation.
//
// Audio is always optional: every load failure degrades to silence.
package audio

import "time"

const (
	SampleRate = 44100
	Channels   = 2
	BufferSize = 1024
)

// PCM holds interleaved float samples in [-1, 1].
type PCM struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// Frames is the number of sample frames (one sample per channel).
func (p *PCM) Frames() int {
	if p == nil || p.Channels <= 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

func (p *PCM) Duration() float64 {
	if p == nil || p.SampleRate <= 0 {
		return 0
	}
	return float64(p.Frames()) / float64(p.SampleRate)
}

// Slice returns the samples between start and start+length seconds. A
// non-positive length runs to the end. The result shares storage with p.
func (p *PCM) Slice(start, length float64) *PCM {
	if p == nil {
		return nil
	}
	from := p.frameAt(start)
	to := p.Frames()
	if length > 0 {
		to = min(to, p.frameAt(start+length))
	}
	if from > to {
		from = to
	}
	return &PCM{
		SampleRate: p.SampleRate,
		Channels:   p.Channels,
		Samples:    p.Samples[from*p.Channels : to*p.Channels],
	}
}

func (p *PCM) frameAt(sec float64) int {
	if sec <= 0 {
		return 0
	}
	i := int(sec * float64(p.SampleRate))
	return min(i, p.Frames())
}

// Chunks splits p into consecutive pieces of d, the last one possibly
// shorter. Each chunk is interleaved like p.
func (p *PCM) Chunks(d time.Duration) [][]float32 {
	if p == nil || len(p.Samples) == 0 {
		return nil
	}
	per := int(d.Seconds()*float64(p.SampleRate)) * p.Channels
	if per <= 0 {
		per = p.Channels
	}
	var out [][]float32
	for off := 0; off < len(p.Samples); off += per {
		end := min(off+per, len(p.Samples))
		out = append(out, p.Samples[off:end])
	}
	return out
}

// Mono averages channels into one sample per frame.
func (p *PCM) Mono() []float64 {
	n := p.Frames()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < p.Channels; c++ {
			sum += float64(p.Samples[i*p.Channels+c])
		}
		out[i] = sum / float64(p.Channels)
	}
	return out
}
