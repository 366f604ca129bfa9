package metric

import "errors"

// Sentinel errors returned by the registry. Callers match them with errors.Is;
// returned errors carry the metric name and offending values as context.
var (
	// ErrDuplicateMetricName is returned when a name is registered twice with
	// a different definition.
	ErrDuplicateMetricName = errors.New("metric: duplicate metric name")

	// ErrLabelCardinalityMismatch is returned when the supplied label keys do
	// not match the definition's label names exactly.
	ErrLabelCardinalityMismatch = errors.New("metric: label cardinality mismatch")

	// ErrInvalidLabelValue is returned when a label value is rejected, e.g.
	// because it is not valid UTF-8.
	ErrInvalidLabelValue = errors.New("metric: invalid label value")

	// ErrNegativeCounterDelta is returned when a counter is asked to decrease.
	ErrNegativeCounterDelta = errors.New("metric: negative counter delta")

	// ErrInvalidObservation is returned for NaN or infinite values.
	ErrInvalidObservation = errors.New("metric: invalid observation")

	// ErrExposition is returned when the registry cannot be rendered.
	ErrExposition = errors.New("metric: exposition failed")

	// ErrInvalidDefinition is returned for malformed definitions
	// (empty or illegal names, bad buckets, reserved label names).
	ErrInvalidDefinition = errors.New("metric: invalid definition")

	// ErrKindMismatch is returned when an operation does not match the
	// handle's metric kind, e.g. observing a counter.
	ErrKindMismatch = errors.New("metric: kind mismatch")
)
