package cascade

// Progress observes pair completion. Advance is called once per finished
// pair (matched or skipped) with the number of pairs done so far and the
// total; calls are serialized.
type Progress interface {
	Advance(done, total int)
}

// ProgressFunc adapts a function to the Progress interface.
type ProgressFunc func(done, total int)

// Advance implements Progress.
func (f ProgressFunc) Advance(done, total int) { f(done, total) }

type noopProgress struct{}

func (noopProgress) Advance(int, int) {}
