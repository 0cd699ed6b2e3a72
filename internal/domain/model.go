package domain

import "time"

// VideoModel is one catalog entry for a provider model variant users
// can request at submission time.
type VideoModel struct {
	ID            string
	Slug          string
	DisplayName   string
	ProviderRef   string
	CostPerSecond int
	Enabled       bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// resolutionMultipliers scales the per-second credit cost by output
// resolution. 720p is the pricing baseline.
var resolutionMultipliers = map[string]int{
	"480p":  1,
	"720p":  2,
	"1080p": 4,
}

// CreditCost computes the credit charge for one generation with the
// given duration (seconds) and resolution.
func (m VideoModel) CreditCost(duration int, resolution string) int {
	mult, ok := resolutionMultipliers[resolution]
	if !ok {
		mult = 2
	}
	return m.CostPerSecond * duration * mult
}
