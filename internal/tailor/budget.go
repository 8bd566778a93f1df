package tailor

const (
	MinMatchPercent = 50
	MaxMatchPercent = 100
)

// Budget is the keyword subset the rewrite aims to cover.
type Budget struct {
	Percent  int
	K        int
	Selected []string
}

// ClampPercent raises values below 50 to 50 and lowers values above 100 to 100.
func ClampPercent(percent int) int {
	switch {
	case percent < MinMatchPercent:
		return MinMatchPercent
	case percent > MaxMatchPercent:
		return MaxMatchPercent
	default:
		return percent
	}
}

// SelectBudget picks the first ceil(p/100*n) ranked keywords, at least one, where p is the
// clamped percent. The result depends only on its inputs.
func SelectBudget(percent int, ranked []string) Budget {
	p := ClampPercent(percent)
	n := len(ranked)

	if n == 0 {
		return Budget{Percent: p, K: 0, Selected: []string{}}
	}

	k := (p*n + 99) / 100
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}

	selected := make([]string, k)
	copy(selected, ranked[:k])

	return Budget{Percent: p, K: k, Selected: selected}
}
