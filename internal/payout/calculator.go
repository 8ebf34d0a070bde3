// Package payout implements the pure, deterministic function that maps a
// commit's position in a contributor's history to a piconero amount.
package payout

import (
	"math"

	"github.com/fossable/turbine/internal/currency"
)

// Compute returns the piconero payout for commitID given the contributor's
// ordered commit history, a base payout, and an optional cap (0 means no
// cap). The commit in position n (1-based) pays floor(base * (1 + ln(n))),
// clamped to cap when set.
//
// A commitID absent from commits is treated as n=1, so compute is always
// defined regardless of whether the caller has fully populated the history
// yet.
func Compute[T comparable](commits []T, commitID T, base currency.Piconero, cap currency.Piconero) currency.Piconero {
	n := position(commits, commitID)

	raw := float64(base) * (1 + math.Log(float64(n)))
	result := currency.Piconero(math.Floor(raw))

	if cap != 0 && result > cap {
		return cap
	}
	return result
}

// position returns the 1-based index of commitID within commits, or 1 if
// commitID is not present.
func position[T comparable](commits []T, commitID T) int {
	for i, c := range commits {
		if c == commitID {
			return i + 1
		}
	}
	return 1
}
