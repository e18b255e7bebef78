// Package trace records per-tick body state as CSV so runs can be compared
// and replayed offline.
package trace

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/opd-ai/go-physics2d/pkg/physics"
)

// Sample is one body's state at the end of a tick. Position is in pixels,
// velocity in m/s and rotation in radians.
type Sample struct {
	Tick      uint64  `csv:"tick"`
	Entity    uint64  `csv:"entity"`
	Type      string  `csv:"type"`
	X         float64 `csv:"x_px"`
	Y         float64 `csv:"y_px"`
	Rotation  float64 `csv:"rotation"`
	VelocityX float64 `csv:"vx"`
	VelocityY float64 `csv:"vy"`
}

// Recorder streams samples to a CSV writer. The header is written with the
// first batch.
type Recorder struct {
	out           io.Writer
	closer        io.Closer
	every         uint64
	headerWritten bool
	rows          int
}

// NewRecorder writes every Nth tick to out. every < 1 records every tick.
func NewRecorder(out io.Writer, every int) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{out: out, every: uint64(every)}
}

// NewFileRecorder creates path and records into it. Close the recorder to
// flush the file.
func NewFileRecorder(path string, every int) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating trace file: %w", err)
	}
	r := NewRecorder(f, every)
	r.closer = f
	return r, nil
}

// Capture appends one row per registered body, in registration order.
// Ticks not on the sampling interval are skipped.
func (r *Recorder) Capture(w *physics.World) error {
	if r == nil {
		return nil
	}
	tick := w.Tick()
	if tick%r.every != 0 {
		return nil
	}
	bodies := w.Bodies()
	if len(bodies) == 0 {
		return nil
	}
	return r.write(Snapshot(tick, bodies))
}

func (r *Recorder) write(samples []Sample) error {
	var err error
	if !r.headerWritten {
		err = gocsv.Marshal(samples, r.out)
		r.headerWritten = true
	} else {
		err = gocsv.MarshalWithoutHeaders(samples, r.out)
	}
	if err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	r.rows += len(samples)
	return nil
}

// Rows returns the number of samples written so far
func (r *Recorder) Rows() int {
	return r.rows
}

// Close closes the underlying file when the recorder owns one
func (r *Recorder) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Snapshot converts bodies into samples for tick
func Snapshot(tick uint64, bodies []*physics.Body) []Sample {
	samples := make([]Sample, 0, len(bodies))
	for _, b := range bodies {
		t := b.Transform()
		v := b.Velocity()
		samples = append(samples, Sample{
			Tick:      tick,
			Entity:    uint64(b.Entity()),
			Type:      b.Type().String(),
			X:         t.Position.X,
			Y:         t.Position.Y,
			Rotation:  t.Rotation,
			VelocityX: v.X,
			VelocityY: v.Y,
		})
	}
	return samples
}

// ReadSamples parses a trace written by a Recorder
func ReadSamples(in io.Reader) ([]Sample, error) {
	var samples []Sample
	if err := gocsv.Unmarshal(in, &samples); err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	return samples, nil
}
