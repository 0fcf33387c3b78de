package audio

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Levels are smoothed band energies normalized to [0, 1].
type Levels struct {
	Bass, Mid, High float64
}

// Meter tracks bass, mid and high energy with automatic gain, for the
// player's level display.
type Meter struct {
	rate     int
	window   []float64
	maxLevel float64
	levels   Levels
}

func NewMeter(sampleRate int) *Meter {
	if sampleRate <= 0 {
		sampleRate = SampleRate
	}
	w := make([]float64, BufferSize)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(BufferSize-1)))
	}
	return &Meter{rate: sampleRate, window: w, maxLevel: 0.1}
}

func (m *Meter) Levels() Levels { return m.levels }

// Feed analyzes one block of mono samples. Blocks shorter than BufferSize
// are zero padded; longer ones are truncated.
func (m *Meter) Feed(samples []float64) Levels {
	buf := make([]float64, BufferSize)
	for i := 0; i < BufferSize && i < len(samples); i++ {
		buf[i] = samples[i] * m.window[i]
	}
	spectrum := fft.FFTReal(buf)

	binHz := float64(m.rate) / BufferSize
	var bass, mid, high float64
	for i := 1; i < BufferSize/2; i++ {
		mag := cmplx.Abs(spectrum[i])
		switch hz := float64(i) * binHz; {
		case hz < 250:
			bass += mag
		case hz < 2000:
			mid += mag
		case hz < 20000:
			high += mag
		}
	}

	peak := math.Max(bass/100, math.Max(mid/500, high/1000))
	if peak > m.maxLevel {
		m.maxLevel = peak
	} else {
		m.maxLevel *= 0.999
	}
	gain := 1.0
	if m.maxLevel > 0.001 {
		gain = math.Min(1/m.maxLevel, 50)
	}

	m.levels.Bass = m.levels.Bass*0.9 + math.Min(bass/100*gain, 1)*0.1
	m.levels.Mid = m.levels.Mid*0.9 + math.Min(mid/500*gain, 1)*0.1
	m.levels.High = m.levels.High*0.9 + math.Min(high/1000*gain, 1)*0.1
	return m.levels
}
