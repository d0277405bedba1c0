package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestTracker(t *testing.T, d Durations) *Tracker {
	t.Helper()
	tr := NewTracker(d, nil)
	t.Cleanup(tr.Close)
	return tr
}

func TestTrackerStartsIdle(t *testing.T) {
	tr := newTestTracker(t, DefaultDurations())
	assert.Equal(t, Idle, tr.Current().Phase)
}

func TestTrackerTransitions(t *testing.T) {
	tr := newTestTracker(t, Durations{Success: time.Hour, Error: time.Hour, Info: time.Hour})

	tr.Pending("encrypting")
	assert.Equal(t, Pending, tr.Current().Phase)
	assert.Equal(t, "encrypting", tr.Current().Message)

	tr.Error("UserCancelled", "transaction cancelled")
	cur := tr.Current()
	assert.Equal(t, Error, cur.Phase)
	assert.Equal(t, "UserCancelled", cur.Code)

	tr.Info("AlreadyVerified", "already verified")
	cur = tr.Current()
	assert.Equal(t, Success, cur.Phase)
	assert.Equal(t, "AlreadyVerified", cur.Code)
}

func TestTrackerAutoDismiss(t *testing.T) {
	tr := newTestTracker(t, Durations{Success: 20 * time.Millisecond, Error: 40 * time.Millisecond, Info: 20 * time.Millisecond})

	tr.Success("done")
	require.Eventually(t, func() bool { return tr.Current().Phase == Idle }, time.Second, 5*time.Millisecond)

	tr.Error("LedgerWriteFailure", "boom")
	require.Eventually(t, func() bool { return tr.Current().Phase == Idle }, time.Second, 5*time.Millisecond)
}

func TestTrackerPendingNotDismissedByStaleTimer(t *testing.T) {
	tr := newTestTracker(t, Durations{Success: 20 * time.Millisecond, Error: time.Hour, Info: time.Hour})

	tr.Success("first operation done")
	tr.Pending("second operation running")
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, Pending, tr.Current().Phase, "timer of an older notification must not clear a newer one")
}

func TestTrackerSubscribe(t *testing.T) {
	tr := newTestTracker(t, Durations{Success: time.Hour, Error: time.Hour, Info: time.Hour})
	ch, cancel := tr.Subscribe()

	tr.Pending("a")
	tr.Success("b")

	got := []Phase{(<-ch).Phase, (<-ch).Phase}
	assert.Equal(t, []Phase{Pending, Success}, got)

	cancel()
	_, open := <-ch
	assert.False(t, open, "cancel closes the channel")
}

func TestTrackerClose(t *testing.T) {
	tr := NewTracker(Durations{Success: time.Hour}, nil)
	ch, _ := tr.Subscribe()
	tr.Success("x")
	tr.Close()
	tr.Close()

	<-ch
	_, open := <-ch
	assert.False(t, open)

	tr.Error("X", "ignored after close")
	assert.Equal(t, Success, tr.Current().Phase)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "error", Error.String())
}
