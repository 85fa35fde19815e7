package sampler

import "errors"

// ErrConfiguration is wrapped by every error caused by invalid sampler input:
// a non-positive batch size, a negative dataset length, or a notifier whose
// dataset names do not line up with the datasets.
// Use errors.Is to check: errors.Is(err, sampler.ErrConfiguration)
var ErrConfiguration = errors.New("sampler: invalid configuration")
