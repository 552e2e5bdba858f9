package probe

import (
	"math/rand/v2"

	"github.com/okian/tianji/internal/domain/bazi"
)

// Input ranges accepted by the service.
const (
	minYear  = 1900
	yearSpan = 201
	months   = 12
	maxDay   = 31
	hours    = 24
)

// GenerateInputs returns n birth inputs drawn from the accepted ranges. The
// same seed always yields the same inputs.
func GenerateInputs(n int, seed uint64) []bazi.BirthInput {
	if n <= 0 {
		return nil
	}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]bazi.BirthInput, n)
	for i := range out {
		out[i] = bazi.BirthInput{
			Year:  minYear + r.IntN(yearSpan),
			Month: 1 + r.IntN(months),
			Day:   1 + r.IntN(maxDay),
			Hour:  r.IntN(hours),
		}
	}
	return out
}
