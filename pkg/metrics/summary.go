package metrics

// NumericSummary reduces one day of cells
type NumericSummary struct {
	Avg   uint64 `json:"avg"`
	Min   uint64 `json:"min"`
	Max   uint64 `json:"max"`
	First uint64 `json:"first"`
	Last  uint64 `json:"last"`
}

// Summarize reduces values. Max covers every cell; Min and Avg only cells
// above zero (0 when there are none). Avg uses integer division.
func Summarize(values []uint64) NumericSummary {
	var s NumericSummary
	if len(values) == 0 {
		return s
	}

	s.First = values[0]
	s.Last = values[len(values)-1]

	var sum, count uint64
	for _, v := range values {
		if v > s.Max {
			s.Max = v
		}
		if v == 0 {
			continue
		}
		if count == 0 || v < s.Min {
			s.Min = v
		}
		sum += v
		count++
	}

	if count > 0 {
		s.Avg = sum / count
	}
	return s
}
