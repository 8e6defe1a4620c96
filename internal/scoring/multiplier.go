package scoring

// SupportersPerStep supporters add MultiplierStep to the reward multiplier.
const (
	SupportersPerStep  = 5
	MultiplierStep     = 0.1
	MaxMultiplierBonus = 1.0
)

// Multiplier returns 1 + min(n/5*0.1, 1.0). The curve is continuous, so every
// additional supporter raises it until the 2.0 cap.
func Multiplier(supporters int) float64 {
	if supporters <= 0 {
		return 1
	}

	bonus := float64(supporters) / SupportersPerStep * MultiplierStep
	if bonus > MaxMultiplierBonus {
		bonus = MaxMultiplierBonus
	}
	return 1 + bonus
}
