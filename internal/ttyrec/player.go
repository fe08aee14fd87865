package ttyrec

import (
	"context"
	"io"
	"time"
)

// PlayerConfig tunes playback pacing: Speed multiplies the recorded
// inter-frame delay (2.0 plays twice as fast), and MaxIdle caps any single
// delay so a long idle stretch in the recording doesn't stall playback
// ("skip idle" fast-forward, the conventional ttyrec-player feature).
type PlayerConfig struct {
	Speed   float64
	MaxIdle time.Duration
}

// Play reads frames from r and writes their data to w, pacing delivery by
// the recorded timestamps scaled by cfg. Returns when r is exhausted (nil
// error) or ctx is cancelled.
func Play(ctx context.Context, r io.Reader, w io.Writer, cfg PlayerConfig) error {
	if cfg.Speed <= 0 {
		cfg.Speed = 1.0
	}

	reader := NewReader(r)

	var last time.Time
	first := true

	for {
		frame, err := reader.ReadFrame()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		if !first {
			delay := frame.Time.Sub(last)
			if cfg.MaxIdle > 0 && delay > cfg.MaxIdle {
				delay = cfg.MaxIdle
			}
			if delay > 0 {
				delay = time.Duration(float64(delay) / cfg.Speed)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}
			}
		}
		first = false
		last = frame.Time

		if len(frame.Data) > 0 {
			if _, err := w.Write(frame.Data); err != nil {
				return err
			}
		}
	}
}
