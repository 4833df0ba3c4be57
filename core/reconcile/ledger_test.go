package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ms(v int64) *int64 { return &v }

func pos(v int) *int { return &v }

func TestLapLedger_CapKeepsMostRecent(t *testing.T) {
	l := NewLapLedger(DefaultLapCap)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= 120; i++ {
		_, ok := l.RecordLap("A", LapRecord{
			LapNumber: i,
			LapTimeMs: ms(int64(40000 + i)),
			ArrivedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.True(t, ok)

		history := l.HistoryFor("A")
		assert.LessOrEqual(t, len(history), DefaultLapCap)
	}

	history := l.HistoryFor("A")
	require.Len(t, history, DefaultLapCap)
	for i, lap := range history {
		assert.Equal(t, 71+i, lap.LapNumber)
	}
	assert.Equal(t, DefaultLapCap, l.Len())
}

func TestLapLedger_DuplicateLapIgnored(t *testing.T) {
	l := NewLapLedger(0)
	assert.Equal(t, DefaultLapCap, l.Cap())

	_, ok := l.RecordLap("A", LapRecord{LapNumber: 3, LapTimeMs: ms(45000)})
	require.True(t, ok)
	_, ok = l.RecordLap("A", LapRecord{LapNumber: 3, LapTimeMs: ms(41000)})
	assert.False(t, ok)

	history := l.HistoryFor("A")
	require.Len(t, history, 1)
	assert.Equal(t, int64(45000), *history[0].LapTimeMs)
}

func TestLapLedger_PersonalBest(t *testing.T) {
	l := NewLapLedger(2)

	tests := []struct {
		lap  int
		time *int64
		pb   bool
	}{
		{1, ms(45000), true},
		{2, nil, false},
		{3, ms(45000), false},
		{4, ms(44000), true},
		{5, ms(46000), false},
	}

	for _, tt := range tests {
		stored, ok := l.RecordLap("A", LapRecord{LapNumber: tt.lap, LapTimeMs: tt.time})
		require.True(t, ok)
		assert.Equal(t, tt.pb, stored.IsPersonalBest, "lap %d", tt.lap)
	}

	best, ok := l.BestLap("A")
	require.True(t, ok)
	assert.Equal(t, int64(44000), best)
}

func TestLapLedger_RecentLapsOrder(t *testing.T) {
	l := NewLapLedger(DefaultLapCap)
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Second)

	l.RecordLap("B", LapRecord{LapNumber: 1, ArrivedAt: t0})
	l.RecordLap("C", LapRecord{LapNumber: 1, ArrivedAt: t1})
	l.RecordLap("A", LapRecord{LapNumber: 1, ArrivedAt: t1})
	l.RecordLap("A", LapRecord{LapNumber: 2, ArrivedAt: t1})

	recent := l.RecentLaps(10)
	require.Len(t, recent, 4)

	got := make([][2]any, len(recent))
	for i, lap := range recent {
		got[i] = [2]any{lap.DriverID, lap.LapNumber}
	}
	assert.Equal(t, [][2]any{{"A", 2}, {"A", 1}, {"C", 1}, {"B", 1}}, got)

	assert.Len(t, l.RecentLaps(2), 2)
	assert.Empty(t, l.RecentLaps(0))
}

func TestLapLedger_Reset(t *testing.T) {
	l := NewLapLedger(DefaultLapCap)
	l.RecordLap("A", LapRecord{LapNumber: 1, LapTimeMs: ms(1)})
	l.RecordLap("B", LapRecord{LapNumber: 1, LapTimeMs: ms(1)})

	l.Reset("A")
	assert.Empty(t, l.HistoryFor("A"))
	assert.Len(t, l.HistoryFor("B"), 1)
	assert.Equal(t, 1, l.Len())

	_, ok := l.BestLap("A")
	assert.False(t, ok)

	l.Reset()
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.RecentLaps(5))
}

func TestLapLedger_ReturnedCopiesAreDetached(t *testing.T) {
	l := NewLapLedger(DefaultLapCap)
	l.RecordLap("A", LapRecord{LapNumber: 1, LapTimeMs: ms(1000), SectorTimesMs: []int64{300, 300, 400}})

	history := l.HistoryFor("A")
	*history[0].LapTimeMs = 1
	history[0].SectorTimesMs[0] = 1

	fresh := l.HistoryFor("A")
	assert.Equal(t, int64(1000), *fresh[0].LapTimeMs)
	assert.Equal(t, []int64{300, 300, 400}, fresh[0].SectorTimesMs)
}

func TestLapLedger_EvictedLapStaysDuplicate(t *testing.T) {
	l := NewLapLedger(DefaultLapCap)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= DefaultLapCap+1; i++ {
		_, ok := l.RecordLap("A", LapRecord{LapNumber: i, LapTimeMs: ms(45000), ArrivedAt: base.Add(time.Duration(i) * time.Second)})
		require.True(t, ok)
	}
	require.Equal(t, 2, l.HistoryFor("A")[0].LapNumber)

	_, ok := l.RecordLap("A", LapRecord{LapNumber: 1, LapTimeMs: ms(45000), ArrivedAt: base.Add(time.Hour)})
	assert.False(t, ok)

	history := l.HistoryFor("A")
	require.Len(t, history, DefaultLapCap)
	assert.Equal(t, 2, history[0].LapNumber)
	assert.Equal(t, DefaultLapCap+1, history[len(history)-1].LapNumber)
	assert.Equal(t, DefaultLapCap+1, l.RecentLaps(1)[0].LapNumber)
	assert.Equal(t, DefaultLapCap+1, l.HighWater("A"))

	// A reset starts a new run where lap 1 is fresh again.
	l.Reset("A")
	assert.Zero(t, l.HighWater("A"))
	_, ok = l.RecordLap("A", LapRecord{LapNumber: 1, LapTimeMs: ms(45000)})
	assert.True(t, ok)
}

func TestLapLedger_OutOfOrderLapsAccepted(t *testing.T) {
	l := NewLapLedger(DefaultLapCap)

	for _, n := range []int{4, 2, 3} {
		_, ok := l.RecordLap("A", LapRecord{LapNumber: n})
		require.True(t, ok, "lap %d", n)
	}
	assert.Equal(t, 4, l.HighWater("A"))
	assert.True(t, l.Has("A", 2))
	assert.False(t, l.Has("A", 1))
}

func TestLapLedger_CapacityBounds(t *testing.T) {
	tests := []struct {
		requested int
		want      int
	}{
		{-1, DefaultLapCap},
		{0, DefaultLapCap},
		{10, 10},
		{DefaultLapCap, DefaultLapCap},
		{500, DefaultLapCap},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewLapLedger(tt.requested).Cap(), "requested %d", tt.requested)
	}
}

func TestLapLedger_SeedBest(t *testing.T) {
	l := NewLapLedger(DefaultLapCap)
	l.SeedBest("A", 44000)
	l.SeedBest("A", 46000)

	stored, ok := l.RecordLap("A", LapRecord{LapNumber: 1, LapTimeMs: ms(45000)})
	require.True(t, ok)
	assert.False(t, stored.IsPersonalBest)

	best, _ := l.BestLap("A")
	assert.Equal(t, int64(44000), best)

	// Stats only aggregate laps recorded here.
	st, ok := l.Stats("A")
	require.True(t, ok)
	assert.Equal(t, int64(45000), *st.BestLapMs)
}

func TestLapLedger_StatsSurviveEviction(t *testing.T) {
	l := NewLapLedger(2)
	for i, v := range []int64{40000, 42000, 44000} {
		_, ok := l.RecordLap("A", LapRecord{LapNumber: i + 1, LapTimeMs: ms(v)})
		require.True(t, ok)
	}

	st, ok := l.Stats("A")
	require.True(t, ok)
	assert.Equal(t, 3, st.Laps)
	assert.Equal(t, int64(40000), *st.BestLapMs)
	assert.Equal(t, int64(42000), *st.AverageLapMs)
	assert.Equal(t, int64(44000), *st.LastLapMs)
	assert.Len(t, l.HistoryFor("A"), 2)

	_, ok = l.Stats("B")
	assert.False(t, ok)
	assert.Equal(t, []string{"A"}, l.Drivers())
}
