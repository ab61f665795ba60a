package commlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(hours int, kind Kind) Event {
	return Event{Timestamp: base.Add(time.Duration(hours) * time.Hour), Kind: kind}
}

func assertNewestFirst(t *testing.T, log []Event) {
	t.Helper()
	for i := 1; i < len(log); i++ {
		assert.False(t, log[i].Timestamp.After(log[i-1].Timestamp),
			"entry %d (%s) is newer than entry %d (%s)", i, log[i].Timestamp, i-1, log[i-1].Timestamp)
	}
}

func TestAppendEvent_EmptyLog(t *testing.T) {
	e := at(0, KindCall)

	got := AppendEvent(nil, e)

	require.Len(t, got, 1)
	assert.Equal(t, e, got[0])
}

func TestAppendEvent_KeepsTenMostRecent(t *testing.T) {
	var log []Event
	log = AppendEvent(log, at(0, KindCall))
	for i := 1; i <= 11; i++ {
		log = AppendEvent(log, at(i, KindMessage))
	}

	require.Len(t, log, MaxEvents)
	assertNewestFirst(t, log)
	assert.Equal(t, base.Add(11*time.Hour), log[0].Timestamp)
	assert.Equal(t, base.Add(2*time.Hour), log[MaxEvents-1].Timestamp)
}

func TestAppendEvent_LengthProperty(t *testing.T) {
	var log []Event
	for n := 0; n < 15; n++ {
		// alternate old and new timestamps so inserts land mid-log
		hours := n * 7 % 13
		next := AppendEvent(log, at(hours, KindCall))

		want := len(log) + 1
		if want > MaxEvents {
			want = MaxEvents
		}
		assert.Len(t, next, want)
		assertNewestFirst(t, next)
		log = next
	}
}

func TestAppendEvent_DropsEventOlderThanFullLog(t *testing.T) {
	var log []Event
	for i := 1; i <= MaxEvents; i++ {
		log = AppendEvent(log, at(i, KindCall))
	}

	got := AppendEvent(log, at(-5, KindMessage))

	assert.Equal(t, log, got)
}

func TestAppendEvent_AllowsDuplicates(t *testing.T) {
	e := at(3, KindCall)

	once := AppendEvent(nil, e)
	twice := AppendEvent(once, e)

	require.Len(t, twice, 2)
	assert.Equal(t, e, twice[0])
	assert.Equal(t, e, twice[1])
	assert.NotEqual(t, once, twice)
}

func TestAppendEvent_DoesNotModifyInput(t *testing.T) {
	log := []Event{at(5, KindCall), at(1, KindMessage)}
	snapshot := append([]Event(nil), log...)

	_ = AppendEvent(log, at(3, KindCall))

	assert.Equal(t, snapshot, log)
}

func TestAppendEvent_FutureTimestampSortsFirst(t *testing.T) {
	log := []Event{at(2, KindCall), at(1, KindCall)}
	future := at(24*365, KindMessage)

	got := AppendEvent(log, future)

	assert.Equal(t, future, got[0])
}

func TestDeleteEventAt(t *testing.T) {
	log := []Event{at(4, KindCall), at(3, KindMessage), at(2, KindCall), at(1, KindMessage)}

	tests := []struct {
		name  string
		index int
		want  []Event
	}{
		{"first", 0, []Event{log[1], log[2], log[3]}},
		{"middle", 2, []Event{log[0], log[1], log[3]}},
		{"last", 3, []Event{log[0], log[1], log[2]}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeleteEventAt(log, tt.index)
			require.NoError(t, err)
			assert.Len(t, got, len(log)-1)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Len(t, log, 4, "input must be left intact")
}

func TestDeleteEventAt_OutOfRange(t *testing.T) {
	log := []Event{at(1, KindCall)}

	for _, index := range []int{-1, 1, 42} {
		_, err := DeleteEventAt(log, index)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", index)
	}

	_, err := DeleteEventAt(nil, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestFormatRecency(t *testing.T) {
	now := base

	tests := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"just now", 0, "Today"},
		{"23h", 23 * time.Hour, "Today"},
		{"exactly 24h", 24 * time.Hour, "1 day ago"},
		{"47h", 47 * time.Hour, "1 day ago"},
		{"48h", 48 * time.Hour, "2 days ago"},
		{"30 days", 30 * 24 * time.Hour, "30 days ago"},
		{"future hour", -time.Hour, "Today"},
		{"future days", -72 * time.Hour, "Today"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRecency(now.Add(-tt.ago), now))
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Call ")
	require.NoError(t, err)
	assert.Equal(t, KindCall, k)

	k, err = ParseKind("message")
	require.NoError(t, err)
	assert.Equal(t, KindMessage, k)

	_, err = ParseKind("email")
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestLatest(t *testing.T) {
	_, ok := Latest(nil)
	assert.False(t, ok)

	log := AppendEvent(AppendEvent(nil, at(1, KindCall)), at(2, KindMessage))
	e, ok := Latest(log)
	require.True(t, ok)
	assert.Equal(t, KindMessage, e.Kind)
}
