package metric

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Kind is the type of a metric family.
type Kind int

const (
	// KindCounter is a monotonically non-decreasing value.
	KindCounter Kind = iota + 1
	// KindGauge is a value that can go up and down.
	KindGauge
	// KindHistogram samples observations into cumulative buckets.
	KindHistogram
)

func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindHistogram:
		return "histogram"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Labels maps label names to label values for a single series.
type Labels map[string]string

// Definition describes a metric family. A definition is immutable once
// registered; its identity is (Name, Kind).
type Definition struct {
	Name       string
	Help       string
	Kind       Kind
	LabelNames []string
	// Buckets are the histogram upper bounds. Ignored for other kinds.
	Buckets []float64
}

// bucketLabel is reserved by the exposition format for histogram buckets.
const bucketLabel = "le"

func (d Definition) validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDefinition)
	}
	if !validName(d.Name, true) {
		return fmt.Errorf("%w: illegal name %q", ErrInvalidDefinition, d.Name)
	}
	switch d.Kind {
	case KindCounter, KindGauge:
	case KindHistogram:
		if err := validateBuckets(d.Buckets); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, d.Name, err)
		}
		if slices.Contains(d.LabelNames, bucketLabel) {
			return fmt.Errorf("%w: %s: label %q is reserved for histograms", ErrInvalidDefinition, d.Name, bucketLabel)
		}
	default:
		return fmt.Errorf("%w: %s: unknown kind %s", ErrInvalidDefinition, d.Name, d.Kind)
	}

	seen := make(map[string]struct{}, len(d.LabelNames))
	for _, n := range d.LabelNames {
		if !validName(n, false) || strings.HasPrefix(n, "__") {
			return fmt.Errorf("%w: %s: illegal label name %q", ErrInvalidDefinition, d.Name, n)
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("%w: %s: label %q listed twice", ErrInvalidDefinition, d.Name, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

func validateBuckets(b []float64) error {
	if len(b) == 0 {
		return fmt.Errorf("no buckets")
	}
	for i, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("bucket %d (%v) must be finite and positive", i, v)
		}
		if i > 0 && v <= b[i-1] {
			return fmt.Errorf("buckets must be strictly ascending, got %v after %v", v, b[i-1])
		}
	}
	return nil
}

// validName applies the classic exposition-format character set. Colons are
// allowed in metric names only.
func validName(s string, colon bool) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c == ':' && colon:
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// equal reports whether two definitions describe the same family.
func (d Definition) equal(o Definition) bool {
	return d.Name == o.Name &&
		d.Kind == o.Kind &&
		d.Help == o.Help &&
		slices.Equal(d.LabelNames, o.LabelNames) &&
		(d.Kind != KindHistogram || slices.Equal(d.Buckets, o.Buckets))
}

func (d Definition) clone() Definition {
	d.LabelNames = slices.Clone(d.LabelNames)
	d.Buckets = slices.Clone(d.Buckets)
	return d
}
