package payout

import (
	"testing"

	"github.com/fossable/turbine/internal/currency"
)

func commitList(n int) []int {
	commits := make([]int, n)
	for i := range commits {
		commits[i] = i + 1
	}
	return commits
}

func TestCompute_FirstCommitPaysBase(t *testing.T) {
	base := currency.Piconero(1_000_000_000)
	commits := commitList(10)
	if got := Compute(commits, 1, base, 0); got != base {
		t.Fatalf("Compute(n=1) = %d, want %d", got, base)
	}
}

func TestCompute_ConcreteScenario(t *testing.T) {
	base := currency.Piconero(1_000_000_000)
	commits := commitList(10)

	tests := []struct {
		commitID int
		want     currency.Piconero
	}{
		{1, 1_000_000_000},
		{2, 1_693_147_180},
		{5, 2_609_437_912},
		{10, 3_302_585_092},
	}

	const tolerance = currency.Piconero(100)
	for _, tc := range tests {
		got := Compute(commits, tc.commitID, base, 0)
		diff := got - tc.want
		if got < tc.want {
			diff = tc.want - got
		}
		if diff > tolerance {
			t.Fatalf("Compute(n=%d) = %d, want %d (+/- %d)", tc.commitID, got, tc.want, tolerance)
		}
	}
}

func TestCompute_CapClamps(t *testing.T) {
	base := currency.Piconero(1_000_000_000)
	cap := currency.Piconero(3_000_000_000)
	commits := commitList(100)

	got := Compute(commits, 100, base, cap)
	if got != cap {
		t.Fatalf("Compute(n=100, cap) = %d, want %d", got, cap)
	}
}

func TestCompute_Monotonic(t *testing.T) {
	base := currency.Piconero(1_000_000_000)
	commits := commitList(50)

	prev := Compute(commits, 1, base, 0)
	for n := 2; n <= 50; n++ {
		cur := Compute(commits, n, base, 0)
		if cur < prev {
			t.Fatalf("Compute is not monotonic at n=%d: %d < %d", n, cur, prev)
		}
		prev = cur
	}
}

func TestCompute_ConcaveGrowth(t *testing.T) {
	base := currency.Piconero(1_000_000_000)
	commits := commitList(50)

	growth := func(n int) currency.Piconero {
		return Compute(commits, n+1, base, 0) - Compute(commits, n, base, 0)
	}

	for n := 1; n < 48; n++ {
		if growth(n) < growth(n+1) {
			t.Fatalf("growth not diminishing at n=%d: growth(n)=%d < growth(n+1)=%d", n, growth(n), growth(n+1))
		}
	}
}

func TestCompute_CapInertWhenAboveCurve(t *testing.T) {
	base := currency.Piconero(1_000_000_000)
	commits := commitList(10)

	uncapped := Compute(commits, 10, base, 0)
	capped := Compute(commits, 10, base, uncapped+1_000_000)
	if capped != uncapped {
		t.Fatalf("cap above curve should be inert: capped=%d uncapped=%d", capped, uncapped)
	}
}

func TestCompute_AbsentCommitTreatedAsFirst(t *testing.T) {
	base := currency.Piconero(1_000_000_000)
	commits := commitList(10)

	absent := Compute(commits, 999, base, 0)
	first := Compute(commits, 1, base, 0)
	if absent != first {
		t.Fatalf("absent commit = %d, want same as first commit %d", absent, first)
	}
}
