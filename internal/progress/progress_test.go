package progress

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_UpdateMergesAndStamps(t *testing.T) {
	r := NewReporter()
	now := time.UnixMilli(1_700_000_000_000)
	r.SetClock(func() time.Time { return now })

	r.Update(func(s *Snapshot) {
		s.Started = true
		s.Index = Int(0)
		s.Total = Int(2)
	})
	r.Update(func(s *Snapshot) { s.Navigating = true })

	s := r.Snapshot()
	assert.True(t, s.Started)
	assert.True(t, s.Navigating)
	require.NotNil(t, s.Total)
	assert.Equal(t, 2, *s.Total)
	assert.Equal(t, now.UnixMilli(), s.At)
}

func TestReporter_ResetReplaces(t *testing.T) {
	r := NewReporter()
	r.Update(func(s *Snapshot) { s.Error = "boom"; s.Index = Int(3) })
	r.Reset(Snapshot{Finished: true})

	s := r.Snapshot()
	assert.True(t, s.Finished)
	assert.Empty(t, s.Error)
	assert.Nil(t, s.Index)
}

func TestReporter_ObserversSeeEveryUpdate(t *testing.T) {
	r := NewReporter()
	var mu sync.Mutex
	var seen []string
	r.Observe(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s.Message)
		mu.Unlock()
	})
	r.Progress(0, 2, "Starting…")
	r.Progress(1, 2, "Saved")
	assert.Equal(t, []string{"Added 0 of 2 events — Starting…", "Added 1 of 2 events — Saved"}, seen)
}

func TestSnapshot_JSONOmitsUnsetCounters(t *testing.T) {
	data, err := json.Marshal(Snapshot{Finished: true, At: 5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"finished":true,"navigating":false,"at":5}`, string(data))

	data, err = json.Marshal(Snapshot{Index: Int(0), Total: Int(0), At: 5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"finished":false,"navigating":false,"index":0,"total":0,"at":5}`, string(data))
}

func TestProgressText(t *testing.T) {
	assert.Equal(t, "Added 2 of 2 events", ProgressText(5, 2, ""))
	assert.Equal(t, "Added 0 of 0 events — Navigating…", ProgressText(1, 0, "Navigating…"))
	assert.Equal(t, "All events added: 2/2", FinalText(2, 0))
	assert.Equal(t, "Events added: 1/3 (2 not started)", FinalText(3, 2))
}
