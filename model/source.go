package model

// DensitySource is either Parametric or Empirical.
type DensitySource interface {
	Kind() string
	densitySource()
}

// Parametric is a Gaussian density.
type Parametric struct {
	Mean  float64
	Stdev float64
}

func (Parametric) Kind() string { return "parametric" }
func (Parametric) densitySource() {}

// Empirical is a finite sample whose density is estimated by KDE.
// If Clip is set, sample values outside [Clip.Lower, Clip.Upper] are dropped.
type Empirical struct {
	Sample []float64
	Clip   *Clip
}

func (Empirical) Kind() string { return "empirical" }
func (Empirical) densitySource() {}
