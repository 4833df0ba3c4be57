package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(drivers []DriverRecord) []string {
	out := make([]string, len(drivers))
	for i, d := range drivers {
		out[i] = d.ID
	}
	return out
}

func TestStandingsTable_RankedViewOrder(t *testing.T) {
	table := NewStandingsTable()
	skipped := table.ReplaceSnapshot([]DriverRecord{
		{ID: "zed"},
		{ID: "c", Position: pos(2)},
		{ID: "amy"},
		{ID: "b", Position: pos(1)},
		{ID: "a", Position: pos(2)},
		{ID: ""},
		{ID: "neg", Position: pos(0)},
	})
	assert.Equal(t, 1, skipped)

	for i := 0; i < 20; i++ {
		assert.Equal(t, []string{"b", "a", "c", "amy", "neg", "zed"}, ids(table.RankedView(FilterAll())))
	}
	assert.Equal(t, []string{"b", "a"}, ids(table.RankedView(FilterTop(2))))
	assert.Len(t, table.RankedView(FilterTop(50)), 6)
	assert.Len(t, table.RankedView(Filter{}), 6)
}

func TestStandingsTable_ReplaceSnapshotIsIdempotent(t *testing.T) {
	snapshot := []DriverRecord{
		{ID: "1", Name: "Ana", Position: pos(2), LapsCompleted: 4, BestLapMs: ms(44000)},
		{ID: "2", Name: "Ben", Position: pos(1), LapsCompleted: 5},
	}
	table := NewStandingsTable()

	table.ReplaceSnapshot(snapshot)
	first := table.RankedView(FilterAll())
	table.ReplaceSnapshot(snapshot)
	second := table.RankedView(FilterAll())

	assert.Equal(t, first, second)
	assert.Equal(t, StatusUnknown, first[0].Status)
}

func TestStandingsTable_ApplyLapSideEffects(t *testing.T) {
	table := NewStandingsTable()
	table.ReplaceSnapshot([]DriverRecord{
		{ID: "A", Position: pos(3), LapsCompleted: 2, GapMs: ms(1500), BestLapMs: ms(45000)},
		{ID: "B", Position: pos(1)},
	})

	table.ApplyLapSideEffects("A", LapRecord{LapNumber: 3, LapTimeMs: ms(44000)})
	a, ok := table.Get("A")
	require.True(t, ok)
	assert.Equal(t, 3, a.LapsCompleted)
	assert.Equal(t, int64(44000), *a.LastLapMs)
	assert.Equal(t, int64(44000), *a.BestLapMs)
	assert.Equal(t, 3, *a.Position)
	assert.Equal(t, int64(1500), *a.GapMs)

	// An older lap arriving late only competes for best.
	table.ApplyLapSideEffects("A", LapRecord{LapNumber: 1, LapTimeMs: ms(43000)})
	a, _ = table.Get("A")
	assert.Equal(t, 3, a.LapsCompleted)
	assert.Equal(t, int64(44000), *a.LastLapMs)
	assert.Equal(t, int64(43000), *a.BestLapMs)

	b, _ := table.Get("B")
	assert.Nil(t, b.LastLapMs)
	assert.Equal(t, []string{"B", "A"}, ids(table.RankedView(FilterAll())))
}

func TestStandingsTable_Ensure(t *testing.T) {
	table := NewStandingsTable()

	assert.True(t, table.Ensure("7", "", "car-1"))
	rec, ok := table.Get("7")
	require.True(t, ok)
	assert.Equal(t, "7", rec.Name)
	assert.Nil(t, rec.Position)
	assert.Equal(t, StatusUnknown, rec.Status)

	assert.False(t, table.Ensure("7", "Dana", "car-2"))
	rec, _ = table.Get("7")
	assert.Equal(t, "7", rec.Name)
	assert.Equal(t, "car-1", rec.CarID)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		mode    string
		want    Filter
		wantErr bool
	}{
		{"all", FilterAll(), false},
		{"ALL", FilterAll(), false},
		{"top", FilterTop(DefaultTopN), false},
		{"top6", FilterTop(6), false},
		{"top:10", FilterTop(10), false},
		{"top:0", Filter{}, true},
		{"top:x", Filter{}, true},
		{"bogus", Filter{}, true},
		{"", Filter{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			got, err := ParseFilter(tt.mode)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "all", FilterAll().String())
	assert.Equal(t, "top:6", FilterTop(6).String())
	assert.True(t, Filter{}.IsZero())
}
