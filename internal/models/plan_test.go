package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitsForKnownTiers(t *testing.T) {
	assert.Equal(t, 2, LimitsFor(PlanFree).MonthlyCases)
	assert.Equal(t, 15, LimitsFor(PlanFirm).StaffSeats)
	// Bar is effectively unbounded but still finite so arithmetic stays total.
	assert.Equal(t, 1_000_000, LimitsFor(PlanBar).MonthlyCases)
}

func TestLimitsForUnknownTierFailsSafeToFree(t *testing.T) {
	limits := LimitsFor(PlanTier("PLATINUM"))
	assert.Equal(t, LimitsFor(PlanFree), limits)
}

func TestParsePlanTier(t *testing.T) {
	tier, ok := ParsePlanTier("pro")
	assert.True(t, ok)
	assert.Equal(t, PlanPro, tier)
	tier, ok = ParsePlanTier("FIRM")
	assert.True(t, ok)
	assert.Equal(t, PlanFirm, tier)
	_, ok = ParsePlanTier("platinum")
	assert.False(t, ok)
}
