package optimize

import "github.com/c360studio/semtrim/tokens"

// Selection is the outcome of a budget prefix choice.
type Selection struct {
	// Kept is the number of leading elements retained.
	Kept int
	// Omitted is the number of elements dropped.
	Omitted int
	// Saved is the estimated token cost of the dropped elements and
	// their separators.
	Saved int
	// Fits reports that every element fit the budget and no omission
	// marker is needed.
	Fits bool
}

// Selector chooses maximal element prefixes under token budgets. The
// choice is greedy, taking the longest prefix that fits, which keeps
// results deterministic at the cost of optimal packing.
type Selector struct {
	counter tokens.Counter
}

// NewSelector builds a selector around a token counter.
func NewSelector(counter tokens.Counter) Selector {
	return Selector{counter: counter}
}

// Prefix selects the longest prefix of elements whose rendered cost
// (element text, separators, and the omission marker produced by marker)
// fits budget. At least minElements are always kept, even when that alone
// exceeds the budget. The marker callback must render the complete marker
// text, comment delimiters included, so its token cost is charged
// accurately.
func (s Selector) Prefix(elements []Element, separator string, budget, minElements int, marker func(omitted, saved int) string) Selection {
	n := len(elements)
	if n == 0 {
		return Selection{Fits: true}
	}
	if minElements < 1 {
		minElements = 1
	}
	if minElements > n {
		minElements = n
	}

	costs := make([]int, n)
	total := 0
	sepCost := s.counter.Count(separator + " ")
	for i, el := range elements {
		costs[i] = s.counter.Count(el.Text)
		total += costs[i]
		if i > 0 {
			total += sepCost
		}
	}
	if total <= budget {
		return Selection{Kept: n, Fits: true}
	}

	// Charge the marker against the budget up front. The estimate uses
	// the worst-case omission count and savings, whose digit widths are
	// at least those of the final marker, so the final render never
	// costs more than what was reserved.
	markerCost := s.counter.Count(marker(n-minElements, total))
	effective := budget - markerCost
	if effective < 0 {
		effective = 0
	}

	kept := 0
	running := 0
	for i, c := range costs {
		if i > 0 {
			c += sepCost
		}
		if running+c > effective {
			break
		}
		running += c
		kept++
	}
	if kept < minElements {
		kept = minElements
	}

	saved := 0
	for i := kept; i < n; i++ {
		saved += costs[i] + sepCost
	}
	return Selection{
		Kept:    kept,
		Omitted: n - kept,
		Saved:   saved,
		Fits:    kept == n,
	}
}
