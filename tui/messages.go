package tui

// recomputeMsg fires after the debounce delay; it is dropped if inputs changed since.
type recomputeMsg struct {
	revision int
}

// sampleLoadedMsg carries the empirical sample read from disk.
type sampleLoadedMsg struct {
	sample []float64
	err    error
}
