package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextValue(t *testing.T) {
	next, clamped, err := NextValue(363, OpIncrement)
	require.NoError(t, err)
	assert.Equal(t, int64(364), next)
	assert.False(t, clamped)

	next, clamped, err = NextValue(1, OpDecrement)
	require.NoError(t, err)
	assert.Equal(t, int64(0), next)
	assert.False(t, clamped)

	next, clamped, err = NextValue(0, OpDecrement)
	require.NoError(t, err)
	assert.Equal(t, int64(0), next)
	assert.True(t, clamped)

	_, _, err = NextValue(5, OpIgnore)
	assert.Error(t, err)
}

func TestReplayTimeline(t *testing.T) {
	entries := []TimelineEntry{
		{Action: OpDecrement},
		{Action: OpDecrement},
		{Action: OpIncrement},
		{Action: OpIncrement},
		{Action: OpDecrement},
	}

	// 1 -> 0 -> 0 (clamped) -> 1 -> 2 -> 1
	assert.Equal(t, int64(1), ReplayTimeline(1, entries))
	assert.Equal(t, int64(7), ReplayTimeline(7, nil))
}

func TestTimeLabelAndDate(t *testing.T) {
	// 02:30 UTC is the previous evening in Chicago
	at := time.Date(2026, 2, 27, 2, 30, 0, 0, time.UTC)
	assert.Equal(t, "8:30 PM CT", TimeLabel(at))
	assert.Equal(t, "2026-02-26", EntryDate(at))

	summer := time.Date(2025, 9, 20, 14, 5, 0, 0, time.UTC)
	assert.Equal(t, "9:05 AM CT", TimeLabel(summer))
}

func TestBaselineState(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	state := BaselineState("msm_enrollments", 318, at)

	assert.Equal(t, int64(318), state.MetricValue)
	assert.Equal(t, at, state.LastUpdatedAt)
	assert.True(t, state.IsBaseline())
}

func TestFailedCharge_Normalize(t *testing.T) {
	c := FailedCharge{FailedAmount: decimal.NewFromInt(10), RecoveryStatus: " Resolved ", PriorityLevel: ""}.Normalize()

	assert.Equal(t, RecoveryResolved, c.RecoveryStatus)
	assert.Equal(t, PriorityMedium, c.PriorityLevel)
}

func TestCustomerDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", CustomerDisplayName("Ada Lovelace", "x", "y"))
	assert.Equal(t, "Grace Hopper", CustomerDisplayName("", "Grace", "Hopper"))
	assert.Equal(t, "Grace", CustomerDisplayName("  ", "Grace", ""))
}
