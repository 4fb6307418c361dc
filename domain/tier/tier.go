// Package tier provides the static subscription and pricing catalogs.
// Everything here is immutable, process-wide configuration: tier configs,
// purchasable credit packages, and request-time quality tiers. No I/O.
package tier

// Unlimited is the sentinel for limits that do not apply.
const Unlimited = -1

// Tier identifies a subscription level. Values match the user-tier
// trust header.
type Tier string

const (
	Free Tier = "free"
	Pro  Tier = "pro"
	BYOK Tier = "byok"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case Free, Pro, BYOK:
		return true
	}
	return false
}

// Config describes what a subscription tier grants (immutable value type).
type Config struct {
	Tier               Tier
	PriceMonthly       int64 // USD
	MonthlyCredits     float64
	MonthlyCompletions int // Unlimited = no cap
	ProjectLimit       int // Unlimited = no cap
	HasDualAI          bool
	RequiresOwnKeys    bool
	Features           []string
}

// configs is the built-in catalog. Lookup copies values out, so callers
// cannot mutate the catalog.
var configs = map[Tier]Config{
	Free: {
		Tier:               Free,
		PriceMonthly:       0,
		MonthlyCredits:     5,
		MonthlyCompletions: 0,
		ProjectLimit:       200,
		HasDualAI:          false,
		RequiresOwnKeys:    false,
		Features: []string{
			"Website Builder",
			"$5 usage credit per month",
			"Create up to 200 projects",
			"Access to 1 AI Builder",
			"Any top-up unlocks the Dual AI Builder",
		},
	},
	Pro: {
		Tier:               Pro,
		PriceMonthly:       20,
		MonthlyCredits:     20,
		MonthlyCompletions: 300,
		ProjectLimit:       Unlimited,
		HasDualAI:          true,
		RequiresOwnKeys:    false,
		Features: []string{
			"300 chat completions",
			"$20 usage credit per month",
			"Unlimited projects",
			"Dual AI Builder included",
		},
	},
	BYOK: {
		Tier:               BYOK,
		PriceMonthly:       10, // 50% discount for bringing your own keys
		MonthlyCredits:     20,
		MonthlyCompletions: 300,
		ProjectLimit:       Unlimited,
		HasDualAI:          true,
		RequiresOwnKeys:    true,
		Features: []string{
			"300 chat completions",
			"$20 usage credit per month",
			"Unlimited projects",
			"Dual AI Builder included",
			"Use your own provider API keys",
		},
	},
}

// Lookup returns the config for a tier.
// This is a PURE function.
func Lookup(t Tier) (Config, bool) {
	c, ok := configs[t]
	return c, ok
}

// MustLookup returns the config for a tier, falling back to Free for
// unknown tiers. Callers that already validated the tier use this.
func MustLookup(t Tier) Config {
	if c, ok := configs[t]; ok {
		return c
	}
	return configs[Free]
}

// All returns every tier config, cheapest first.
func All() []Config {
	return []Config{configs[Free], configs[BYOK], configs[Pro]}
}

// CompletionsRemaining computes how many monthly completions are left
// given a tier config and a used count. Returns Unlimited when the tier
// has no completion cap.
// This is a PURE function.
func CompletionsRemaining(c Config, used int) int {
	if c.MonthlyCompletions == Unlimited {
		return Unlimited
	}
	rem := c.MonthlyCompletions - used
	if rem < 0 {
		return 0
	}
	return rem
}
