// Package buildinfo provides build-time version information.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/goldtodo/internal/infra/buildinfo.Version=v1.0.0"
package buildinfo

import (
	"runtime"

	"github.com/yndnr/goldtodo/internal/telemetry/metric"
)

// Build-time variables (set via ldflags).
var (
	// Version is the semantic version.
	Version = "dev"

	// Commit is the git commit hash.
	Commit = "unknown"

	// BuildTime is the build timestamp.
	BuildTime = "unknown"

	// GoVersion is the Go version used to build.
	GoVersion = runtime.Version()
)

// Info contains build information.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// Get returns the build information.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
	}
}

// String returns a formatted version string.
func String() string {
	return Version + " (" + Commit + ") built at " + BuildTime
}

// BuildInfoMetric is the name of the constant build info gauge.
const BuildInfoMetric = "goldtodo_build_info"

// Register exposes the build information as a gauge fixed at 1.
func Register(reg *metric.Registry) error {
	h, err := reg.Register(metric.Definition{
		Name:       BuildInfoMetric,
		Help:       "Build information of the running goldtodo binary",
		Kind:       metric.KindGauge,
		LabelNames: []string{"version", "commit", "go_version"},
	})
	if err != nil {
		return err
	}
	return reg.GaugeSet(h, metric.Labels{
		"version":    Version,
		"commit":     Commit,
		"go_version": GoVersion,
	}, 1)
}
