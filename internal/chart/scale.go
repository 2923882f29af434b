package chart

import "math"

const (
	flatEpsilon = 1e-12
	maxTicks    = 100
)

// Scale maps data values onto a vertical pixel span.
type Scale struct {
	Min, Max float64
	Ticks    []float64
}

// NiceScale picks about n round tick values covering data. Non-finite values are ignored.
func NiceScale(data []float64, n int) Scale {
	if n < 2 {
		n = 2
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return Scale{Min: 0, Max: 1, Ticks: []float64{0, 1}}
	}

	// A spread this close to float64 precision cannot be stepped through; draw it flat.
	if hi-lo <= flatEpsilon*math.Max(math.Abs(lo), math.Abs(hi)) {
		mid := lo + (hi-lo)/2
		pad := math.Abs(mid) * 0.01
		if pad == 0 {
			pad = 1
		}
		lo, hi = mid-pad, mid+pad
	}

	step := niceNum((hi-lo)/float64(n-1), true)
	min := math.Floor(lo/step) * step
	max := math.Ceil(hi/step) * step

	count := int(math.Round((max - min) / step))
	if count < 1 || count > maxTicks {
		return Scale{Min: lo, Max: hi, Ticks: []float64{lo, hi}}
	}
	ticks := make([]float64, 0, count+1)
	for i := 0; i <= count; i++ {
		ticks = append(ticks, min+float64(i)*step)
	}
	return Scale{Min: min, Max: max, Ticks: ticks}
}

// Pos returns the fraction of the span v sits at, 0 at Min and 1 at Max.
func (s Scale) Pos(v float64) float64 {
	if s.Max == s.Min {
		return 0.5
	}
	return (v - s.Min) / (s.Max - s.Min)
}

func niceNum(x float64, round bool) float64 {
	exp := math.Floor(math.Log10(x))
	f := x / math.Pow(10, exp)
	var nf float64
	if round {
		switch {
		case f < 1.5:
			nf = 1
		case f < 3:
			nf = 2
		case f < 7:
			nf = 5
		default:
			nf = 10
		}
	} else {
		switch {
		case f <= 1:
			nf = 1
		case f <= 2:
			nf = 2
		case f <= 5:
			nf = 5
		default:
			nf = 10
		}
	}
	return nf * math.Pow(10, exp)
}

// LabelStride returns every how-many labels to print so that at most maxLabels show.
func LabelStride(points, maxLabels int) int {
	if maxLabels < 1 {
		maxLabels = 1
	}
	if points <= maxLabels {
		return 1
	}
	return int(math.Ceil(float64(points) / float64(maxLabels)))
}
