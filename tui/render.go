package tui

import (
	"math"
	"strings"

	"github.com/uyouii/lossopt/model"
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws values in width columns, averaging the points that share a column.
// Columns averaging to +Inf draw at the top level, NaN and -Inf columns draw blank.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if width > len(values) {
		width = len(values)
	}

	cols := make([]float64, width)
	lo, hi := math.Inf(1), math.Inf(-1)
	for c := range cols {
		begin := c * len(values) / width
		end := (c + 1) * len(values) / width
		sum := 0.0
		for _, v := range values[begin:end] {
			sum += v
		}
		cols[c] = sum / float64(end-begin)
		if !math.IsInf(cols[c], 0) && !math.IsNaN(cols[c]) {
			lo, hi = math.Min(lo, cols[c]), math.Max(hi, cols[c])
		}
	}

	var sb strings.Builder
	top := len(sparkLevels) - 1
	for _, v := range cols {
		switch {
		case math.IsNaN(v) || math.IsInf(v, -1):
			sb.WriteRune(' ')
		case math.IsInf(v, 1):
			sb.WriteRune(sparkLevels[top])
		default:
			sb.WriteRune(sparkLevels[sparkLevel(v, lo, hi, top)])
		}
	}
	return sb.String()
}

// sparkLevel maps v in [lo, hi] onto [0, top]. Halving keeps hi-lo finite for any finite pair.
func sparkLevel(v, lo, hi float64, top int) int {
	if !(hi > lo) {
		return 0
	}
	ratio := (v/2 - lo/2) / (hi/2 - lo/2)
	level := int(math.Round(ratio * float64(top)))
	return max(0, min(level, top))
}

// MarkerLine puts a caret under column of x in [lower, upper) drawn over width columns.
func MarkerLine(x, lower, upper float64, width int) string {
	if width <= 0 || !(upper > lower) || x < lower || x >= upper {
		return ""
	}
	col := int((x - lower) / (upper - lower) * float64(width))
	col = min(col, width-1)
	return strings.Repeat(" ", col) + "^"
}

// Window returns the part of the curve with abscissa in [lower, upper).
func Window(grid model.Grid, values []float64, lower, upper float64) []float64 {
	res := []float64{}
	for i, v := range values {
		x := grid.At(i)
		if x >= lower && x < upper {
			res = append(res, v)
		}
	}
	return res
}
