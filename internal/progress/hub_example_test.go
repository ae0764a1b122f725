package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type exampleCountingSink struct {
	unavailable int
}

func (s *exampleCountingSink) Consume(_ context.Context, batch []Event) error {
	for _, evt := range batch {
		if evt.Stage == StageListingDone && evt.Unavailable {
			s.unavailable++
		}
	}
	return nil
}

func (s *exampleCountingSink) Close(context.Context) error {
	return nil
}

// ExampleHub_Emit demonstrates emitting listing completions and flushing via Close.
func ExampleHub_Emit() {
	sink := &exampleCountingSink{}
	hub := NewHub(Config{
		BufferSize:     4,
		MaxBatchEvents: 1,
		FlushInterval:  time.Second,
	}, sink)

	runID := UUIDToBytes(uuid.MustParse("00000000-0000-0000-0000-000000000001"))
	for _, status := range []int{200, 404} {
		hub.Emit(Event{
			RunID:       runID,
			Stage:       StageListingDone,
			URL:         "https://example.com/oferta",
			StatusClass: ClassifyStatus(status),
			Unavailable: status != 200,
		})
	}
	if err := hub.Close(context.Background()); err != nil {
		panic(err)
	}

	fmt.Printf("unavailable listings: %d\n", sink.unavailable)
	// Output:
	// unavailable listings: 1
}

// ExampleCounter shows the exact tally kept alongside the event stream.
func ExampleCounter() {
	var c Counter
	c.Reset(3)
	c.Done(false)
	c.Done(true)

	snap := c.Snapshot()
	fmt.Printf("%d/%d done, %d unavailable, %d remaining\n", snap.Completed, snap.Total, snap.Unavailable, snap.Remaining())
	// Output:
	// 2/3 done, 1 unavailable, 1 remaining
}
