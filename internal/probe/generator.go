package probe

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// Ranges accepted by /v1/predictions.
const (
	minAge   = 18
	maxAge   = 99
	minSplit = 600
	maxSplit = 5459
)

// Typical amateur 5 km splits; most generated runners fall inside.
const (
	commonSplitMin   = 1000
	commonSplitRange = 1400
	commonAgeMax     = 75
	outlierDivisor   = 10
)

// randomInt returns a uniform integer in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// GenerateProfiles creates n runners with unique names. Roughly one in ten
// runners sits at the edges of the accepted ranges.
func GenerateProfiles(n int) []Profile {
	profiles := make([]Profile, n)
	for i := range profiles {
		gender := "M"
		if randomInt(2) == 1 {
			gender = "K"
		}

		age := minAge + randomInt(commonAgeMax-minAge+1)
		split := commonSplitMin + randomInt(commonSplitRange)
		if randomInt(outlierDivisor) == 0 {
			age = minAge + randomInt(maxAge-minAge+1)
			split = minSplit + randomInt(maxSplit-minSplit+1)
		}

		profiles[i] = Profile{
			Name:          "runner-" + uuid.NewString(),
			Gender:        gender,
			Age:           age,
			Time5kSeconds: split,
		}
	}
	return profiles
}
