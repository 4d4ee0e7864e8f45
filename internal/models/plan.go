package models

// PlanTier identifies a subscription plan.
type PlanTier string

const (
	PlanFree PlanTier = "FREE"
	PlanPro  PlanTier = "PRO"
	PlanFirm PlanTier = "FIRM"
	PlanBar  PlanTier = "BAR"
)

// PlanLimits captures the quotas attached to a plan tier.
type PlanLimits struct {
	MonthlyCases int
	StaffSeats   int
	// PriceMinor is the monthly price in the payment currency's minor unit.
	PriceMinor int64
}

// barMonthlyCases stands in for "unbounded" so quota arithmetic stays total.
const barMonthlyCases = 1_000_000

var planLimits = map[PlanTier]PlanLimits{
	PlanFree: {MonthlyCases: 2, StaffSeats: 0, PriceMinor: 0},
	PlanPro:  {MonthlyCases: 50, StaffSeats: 3, PriceMinor: 1_500_000},
	PlanFirm: {MonthlyCases: 200, StaffSeats: 15, PriceMinor: 5_000_000},
	PlanBar:  {MonthlyCases: barMonthlyCases, StaffSeats: 50, PriceMinor: 20_000_000},
}

// LimitsFor returns the limits for a tier. Unknown tiers fall back to Free.
func LimitsFor(tier PlanTier) PlanLimits {
	if limits, ok := planLimits[tier]; ok {
		return limits
	}
	return planLimits[PlanFree]
}

// ParsePlanTier maps loose user input onto a known tier.
func ParsePlanTier(raw string) (PlanTier, bool) {
	switch PlanTier(raw) {
	case PlanFree, PlanPro, PlanFirm, PlanBar:
		return PlanTier(raw), true
	}
	switch raw {
	case "free":
		return PlanFree, true
	case "pro":
		return PlanPro, true
	case "firm":
		return PlanFirm, true
	case "bar":
		return PlanBar, true
	}
	return "", false
}
