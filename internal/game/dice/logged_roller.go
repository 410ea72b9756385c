package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger so every random decision that reaches
// persisted state leaves a debug-level audit line.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source exposes the underlying randomness provider.
func (r *Roller) Source() Source {
	return r.src
}

// Pick chooses an index in [0, n) and logs the draw under label.
//
// Postcondition: returns -1 without logging when n <= 0.
func (r *Roller) Pick(label string, n int) int {
	idx := Pick(r.src, n)
	if idx < 0 {
		return idx
	}
	r.logger.Debug("random pick",
		zap.String("label", label),
		zap.Int("candidates", n),
		zap.Int("index", idx),
	)
	return idx
}

// Shuffle permutes n elements via swap and logs the draw under label.
func (r *Roller) Shuffle(label string, n int, swap func(i, j int)) {
	Shuffle(r.src, n, swap)
	r.logger.Debug("random shuffle",
		zap.String("label", label),
		zap.Int("elements", n),
	)
}
