package tier

// RequestTier selects the generation quality for a single request,
// independent of the caller's subscription tier. Higher request tiers
// pick stronger provider models and carry a higher estimated cost.
type RequestTier string

const (
	Basic      RequestTier = "basic"
	Premium    RequestTier = "premium"
	Enterprise RequestTier = "enterprise"
)

// Valid reports whether rt is a known request tier.
func (rt RequestTier) Valid() bool {
	switch rt {
	case Basic, Premium, Enterprise:
		return true
	}
	return false
}

// RequestConfig describes the per-call model selection for a request tier.
type RequestConfig struct {
	Tier          RequestTier
	V0Model       string
	GatewayModel  string
	EstimatedCost float64 // USD, for the full dual call
	Description   string
}

var requestConfigs = map[RequestTier]RequestConfig{
	Basic: {
		Tier:          Basic,
		V0Model:       "v0-1.5-md",
		GatewayModel:  "anthropic/claude-3-haiku-20240307",
		EstimatedCost: 0.02,
		Description:   "Fast models, good for drafts and components",
	},
	Premium: {
		Tier:          Premium,
		V0Model:       "v0-1.5-md",
		GatewayModel:  "anthropic/claude-3-5-sonnet-20241022",
		EstimatedCost: 0.10,
		Description:   "Balanced quality and latency",
	},
	Enterprise: {
		Tier:          Enterprise,
		V0Model:       "v0-1.5-lg",
		GatewayModel:  "anthropic/claude-3-opus-20240229",
		EstimatedCost: 0.40,
		Description:   "Strongest models for production-grade output",
	},
}

// LookupRequest returns the request config for a request tier, falling
// back to Basic for unknown values.
// This is a PURE function.
func LookupRequest(rt RequestTier) RequestConfig {
	if c, ok := requestConfigs[rt]; ok {
		return c
	}
	return requestConfigs[Basic]
}

// CanUseRequestTier reports whether a subscription tier may use a given
// request tier: premium needs any paid subscription, enterprise needs
// pro or byok.
// This is a PURE function.
func CanUseRequestTier(sub Tier, rt RequestTier) bool {
	switch rt {
	case Premium:
		return sub != Free
	case Enterprise:
		return sub == Pro || sub == BYOK
	}
	return true
}
