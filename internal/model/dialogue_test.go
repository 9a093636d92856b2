package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEpoch(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 500_000_000, time.UTC)
	require.InDelta(t, 1704110400.5, Epoch(ts), 1e-6)
}

func TestEpochOf(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"int", 1700000000, 1700000000, true},
		{"int64", int64(1700000000), 1700000000, true},
		{"float64", 1700000000.25, 1700000000.25, true},
		{"time", time.Unix(1700000000, 0), 1700000000, true},
		{"zero time", time.Time{}, 0, false},
		{"string", "1700000000", 0, false},
		{"nil", nil, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := EpochOf(tc.in)
			require.Equal(t, tc.ok, ok)
			require.InDelta(t, tc.want, got, 1e-6)
		})
	}
}

func TestTurnConstructors(t *testing.T) {
	require.Equal(t, Turn{Role: RoleUser, Content: "hi", Timestamp: 1}, UserTurn("hi", 1))
	require.Equal(t, Turn{Role: RoleBot, Content: "hello", Timestamp: 2}, BotTurn("hello", 2))
}
