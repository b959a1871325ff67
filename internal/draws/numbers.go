package draws

import (
	"fmt"     // Message formatting
	"strconv" // Number formatting
	"strings" // Joining numbers

	"lottery_system/internal/domain" // Validation errors
)

const (
	NumbersPerDraw = 6  // Numbers in every draw
	MinNumber      = 1  // Smallest number that can be drawn
	MaxNumber      = 60 // Largest number that can be drawn
)

// ValidateNumbers accepts exactly six distinct numbers in [1,60] given in
// ascending order. Out of order sets are rejected, not sorted.
func ValidateNumbers(numbers []int) error {
	if len(numbers) != NumbersPerDraw {
		return domain.NewValidationError("numbers", fmt.Sprintf("Exactly %d numbers are required", NumbersPerDraw))
	}
	for i, n := range numbers {
		if n < MinNumber || n > MaxNumber {
			return domain.NewValidationError("numbers", fmt.Sprintf("Numbers must be between %d and %d", MinNumber, MaxNumber))
		}
		if i == 0 {
			continue
		}
		switch {
		case n == numbers[i-1]:
			return domain.NewValidationError("numbers", "All numbers must be unique!")
		case n < numbers[i-1]:
			return domain.NewValidationError("numbers", "The numbers must be in ascending order!")
		}
	}
	return nil
}

// FormatNumbers renders numbers the one way both submissions and winning draws
// are stored: decimal, single space separated.
func FormatNumbers(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
}
