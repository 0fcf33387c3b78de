package audio

import (
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Player streams a PCM track to the default output device.
type Player struct {
	pcm    *PCM
	stream *portaudio.Stream
	meter  *Meter

	mu      sync.Mutex
	pos     int
	playing bool
}

func NewPlayer(p *PCM) *Player {
	return &Player{pcm: p, meter: NewMeter(p.SampleRate)}
}

// Start opens the output stream. Playback stays silent until Play.
func (a *Player) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	stream, err := portaudio.OpenDefaultStream(0, a.pcm.Channels, float64(a.pcm.SampleRate), BufferSize, a.process)
	if err != nil {
		portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return err
	}
	a.stream = stream
	return nil
}

func (a *Player) Stop() {
	if a.stream != nil {
		a.stream.Stop()
		a.stream.Close()
		a.stream = nil
		portaudio.Terminate()
	}
}

func (a *Player) Play() {
	a.mu.Lock()
	a.playing = true
	a.mu.Unlock()
}

func (a *Player) Pause() {
	a.mu.Lock()
	a.playing = false
	a.mu.Unlock()
}

// Seek moves playback to sec seconds.
func (a *Player) Seek(sec float64) {
	a.mu.Lock()
	a.pos = a.pcm.frameAt(sec) * a.pcm.Channels
	a.mu.Unlock()
}

func (a *Player) Levels() Levels {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.meter.Levels()
}

func (a *Player) process(out []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fill(out)
}

// fill copies the next block into out, padding with silence when paused or
// past the end, and updates the meter.
func (a *Player) fill(out []float32) {
	n := 0
	if a.playing {
		n = copy(out, a.pcm.Samples[min(a.pos, len(a.pcm.Samples)):])
		a.pos += n
	}
	for i := n; i < len(out); i++ {
		out[i] = 0
	}

	ch := a.pcm.Channels
	mono := make([]float64, len(out)/ch)
	for i := range mono {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(out[i*ch+c])
		}
		mono[i] = sum / float64(ch)
	}
	a.meter.Feed(mono)
}
