package sinks

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"

	"github.com/JakeFAU/jobboard-harvester/internal/progress"
)

// SpinnerSink renders a terminal progress line ("Procesando ofertas 12/60").
// The spinner only animates when w is a terminal; the tally is kept either way.
type SpinnerSink struct {
	spin      *spinner.Spinner
	total     int64
	completed int64
	failed    int64
}

// NewSpinnerSink builds a sink writing to w.
func NewSpinnerSink(w io.Writer) *SpinnerSink {
	spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond, spinner.WithWriter(w))
	return &SpinnerSink{spin: spin}
}

// Consume advances the tally and refreshes the spinner suffix.
func (s *SpinnerSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		switch evt.Stage {
		case progress.StageRunStart:
			s.spin.Start()
		case progress.StageDispatchStart:
			s.total += evt.Count
		case progress.StageListingDone:
			s.completed++
			if evt.Unavailable {
				s.failed++
			}
		case progress.StageRunDone, progress.StageRunError:
			s.spin.FinalMSG = s.Line() + "\n"
			s.spin.Stop()
		}
	}
	s.spin.Lock()
	s.spin.Suffix = " " + s.Line()
	s.spin.Unlock()
	return nil
}

// Line renders the current tally.
func (s *SpinnerSink) Line() string {
	return fmt.Sprintf("Procesando ofertas %d/%d (%d no disponibles)", s.completed, s.total, s.failed)
}

// Close stops the spinner if a run ended without a terminal event.
func (s *SpinnerSink) Close(context.Context) error {
	s.spin.Stop()
	return nil
}
