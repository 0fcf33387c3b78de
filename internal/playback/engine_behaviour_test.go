package playback_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/asciivid/internal/playback"
)

var _ = Describe("Engine", func() {
	var (
		engine *playback.Engine
		start  time.Time
	)

	at := func(d time.Duration) time.Time { return start.Add(d) }

	BeforeEach(func() {
		engine = playback.New()
		start = time.Unix(1_700_000_000, 0)
	})

	It("starts stopped", func() {
		Expect(engine.State()).To(Equal(playback.Stopped))
	})

	Context("with a 24 frame animation at 12 fps", func() {
		BeforeEach(func() {
			Expect(engine.Load(24, 12)).To(Succeed())
		})

		It("is paused on the first frame", func() {
			Expect(engine.State()).To(Equal(playback.Paused))
			Expect(engine.Index()).To(BeZero())
			Expect(engine.Duration()).To(BeNumerically("~", 2.0, 1e-9))
		})

		It("toggles between paused and playing", func() {
			engine.Toggle(at(0))
			Expect(engine.State()).To(Equal(playback.Playing))
			engine.Toggle(at(0))
			Expect(engine.State()).To(Equal(playback.Paused))
		})

		When("playing", func() {
			BeforeEach(func() {
				engine.Play(at(0))
			})

			It("shows only the newly reachable frame after a stall", func() {
				idx, changed := engine.Tick(at(time.Second))
				Expect(changed).To(BeTrue())
				Expect(idx).To(Equal(12))
			})

			It("loops back to the first frame", func() {
				idx, _ := engine.Tick(at(3 * time.Second))
				Expect(idx).To(BeZero())
			})

			It("keeps playing across a seek", func() {
				Expect(engine.Seek(20, at(500*time.Millisecond))).To(Equal(20))
				Expect(engine.State()).To(Equal(playback.Playing))
			})

			It("reports position in seconds", func() {
				engine.Tick(at(500 * time.Millisecond))
				Expect(engine.Position()).To(BeNumerically("~", 0.5, 1e-9))
			})
		})

		When("paused", func() {
			It("ignores the clock", func() {
				_, changed := engine.Tick(at(10 * time.Second))
				Expect(changed).To(BeFalse())
				Expect(engine.Index()).To(BeZero())
			})

			It("stays paused across a seek", func() {
				engine.Seek(9, at(0))
				Expect(engine.State()).To(Equal(playback.Paused))
				Expect(engine.Index()).To(Equal(9))
			})
		})
	})
})

var _ = Describe("Runner", func() {
	It("stops rendering once paused", func() {
		engine := playback.New()
		Expect(engine.Load(500, 500)).To(Succeed())

		shown := make(chan int, 1024)
		runner := playback.NewRunner(engine, playback.SurfaceFunc(func(i int) { shown <- i }))
		runner.SetInterval(time.Millisecond)

		runner.Play()
		Eventually(func() int { return len(shown) }).Should(BeNumerically(">=", 3))
		runner.Pause()

		n := len(shown)
		Consistently(func() int { return len(shown) }, 30*time.Millisecond, 5*time.Millisecond).Should(Equal(n))
	})
})
