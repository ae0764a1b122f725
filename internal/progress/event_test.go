package progress

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestEventValidate(t *testing.T) {
	t.Parallel()

	runID := UUIDToBytes(uuid.New())
	now := time.Now()

	testCases := []struct {
		name    string
		evt     Event
		wantErr string
	}{
		{"run start", Event{RunID: runID, TS: now, Stage: StageRunStart}, ""},
		{"missing run", Event{TS: now, Stage: StageRunStart}, "run id is required"},
		{"missing ts", Event{RunID: runID, Stage: StageRunStart}, "timestamp is required"},
		{"negative count", Event{RunID: runID, TS: now, Stage: StageIndexDone, Count: -1}, "count must be >= 0"},
		{"listing without url", Event{RunID: runID, TS: now, Stage: StageListingDone, StatusClass: Status2xx}, "listing done requires url"},
		{"listing without class", Event{RunID: runID, TS: now, Stage: StageListingDone, URL: "u"}, "listing done requires status class"},
		{"unknown stage", Event{RunID: runID, TS: now, Stage: "NOPE"}, `unknown stage "NOPE"`},
		{"negative duration", Event{RunID: runID, TS: now, Stage: StageRunDone, Dur: -time.Second}, "duration must be >= 0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.evt.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tc.wantErr)
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	require.Equal(t, Status2xx, ClassifyStatus(200))
	require.Equal(t, Status3xx, ClassifyStatus(301))
	require.Equal(t, Status4xx, ClassifyStatus(404))
	require.Equal(t, Status5xx, ClassifyStatus(503))
	require.Equal(t, StatusOther, ClassifyStatus(0))
}

func TestRunUUIDRoundTrip(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	require.Equal(t, id, Event{RunID: UUIDToBytes(id)}.RunUUID())
}
