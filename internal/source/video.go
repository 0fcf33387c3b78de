package source

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Video seeks a container through OpenCV. The capture handle is not safe for
// concurrent use; an abandoned FrameAt holds the lock until it returns.
type Video struct {
	mu       sync.Mutex
	capture  *gocv.VideoCapture
	mat      gocv.Mat
	fps      float64
	duration float64
	width    int
	height   int
}

func OpenVideo(path string) (*Video, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("open %s: no decodable video stream", path)
	}

	v := &Video{
		capture: capture,
		mat:     gocv.NewMat(),
		fps:     capture.Get(gocv.VideoCaptureFPS),
		width:   int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(capture.Get(gocv.VideoCaptureFrameHeight)),
	}
	frames := capture.Get(gocv.VideoCaptureFrameCount)
	if v.fps > 0 && frames > 0 {
		v.duration = frames / v.fps
	}
	if v.width <= 0 || v.height <= 0 {
		v.Close()
		return nil, fmt.Errorf("open %s: unknown frame size", path)
	}
	return v, nil
}

func (v *Video) Duration() float64 { return v.duration }

func (v *Video) Size() (int, int) { return v.width, v.height }

// NativeFPS is the container frame rate reported by the demuxer.
func (v *Video) NativeFPS() float64 { return v.fps }

func (v *Video) FrameAt(ctx context.Context, t float64) (image.Image, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.capture.Set(gocv.VideoCapturePosMsec, t*1000)
	if ok := v.capture.Read(&v.mat); !ok || v.mat.Empty() {
		return nil, fmt.Errorf("no frame at %.3fs", t)
	}
	return v.mat.ToImage()
}

func (v *Video) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mat.Close()
	return v.capture.Close()
}
