package kde

const (
	// grid extends cut*bw past the lowest and highest sample so the kernel goes to zero
	DefaultCut = 3.0

	// intervals of the CDF grid, independent of the sample size since each
	// node costs a pass over the sample
	CdfGridSize = 200

	// nodes per interval for the fixed Gauss-Legendre CDF integration
	CdfQuadNodes = 10

	MinDistinctPointCnt = 2
)

var (
	SummaryQuantiles = []float64{0.05, 0.5, 0.95}
)
