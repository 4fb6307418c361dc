package tier

// CreditPackage is a purchasable credit top-up (immutable value type).
// Any purchase, regardless of size, permanently unlocks the Dual AI
// Builder for the buying account.
type CreditPackage struct {
	Key         string
	Name        string
	PriceUSD    int64
	Completions int
	Credits     float64 // pricing convention: credits == price (1 credit = $1)
	Description string
	Features    []string
}

var packages = []CreditPackage{
	{
		Key:         "small",
		Name:        "Small Package",
		PriceUSD:    3,
		Completions: 50,
		Credits:     3,
		Description: "50 chat completions + Dual AI Builder",
		Features:    []string{"50 chat completions", "Dual AI Builder", "Perfect for light usage"},
	},
	{
		Key:         "medium",
		Name:        "Medium Package",
		PriceUSD:    5,
		Completions: 150,
		Credits:     5,
		Description: "150 chat completions + Dual AI Builder",
		Features:    []string{"150 chat completions", "Dual AI Builder", "Great for regular usage"},
	},
	{
		Key:         "large",
		Name:        "Large Package",
		PriceUSD:    7,
		Completions: 300,
		Credits:     7,
		Description: "300 chat completions + Dual AI Builder",
		Features:    []string{"300 chat completions", "Dual AI Builder", "Ideal for heavy usage"},
	},
	{
		Key:         "xlarge",
		Name:        "Extra Large Package",
		PriceUSD:    10,
		Completions: 500,
		Credits:     10,
		Description: "500 chat completions + Dual AI Builder",
		Features:    []string{"500 chat completions", "Dual AI Builder", "Maximum value package"},
	},
}

// Packages returns the purchasable credit packages, smallest first.
func Packages() []CreditPackage {
	out := make([]CreditPackage, len(packages))
	copy(out, packages)
	return out
}

// FindPackage finds a credit package by key.
// This is a PURE function.
func FindPackage(key string) (CreditPackage, bool) {
	for _, p := range packages {
		if p.Key == key {
			return p, true
		}
	}
	return CreditPackage{}, false
}
