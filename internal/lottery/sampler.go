package lottery

import (
	"crypto/rand" // CSPRNG
	"fmt"         // Error wrapping
	"math/big"    // Bounds for rand.Int
	"slices"      // Sorting the sample

	"lottery_system/internal/draws" // Number range
)

// Sampler produces the numbers of a winning draw
type Sampler func() ([]int, error)

// RandomNumbers picks six distinct numbers uniformly from [1,60] using
// crypto/rand and returns them in ascending order.
func RandomNumbers() ([]int, error) {
	pool := make([]int, draws.MaxNumber-draws.MinNumber+1)
	for i := range pool {
		pool[i] = draws.MinNumber + i
	}
	// Partial Fisher-Yates: the first NumbersPerDraw slots end up a uniform sample
	for i := 0; i < draws.NumbersPerDraw; i++ {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(len(pool)-i)))
		if err != nil {
			return nil, fmt.Errorf("sample winning numbers: %w", err)
		}
		k := i + int(j.Int64())
		pool[i], pool[k] = pool[k], pool[i]
	}
	picked := slices.Clone(pool[:draws.NumbersPerDraw])
	slices.Sort(picked)
	return picked, nil
}
