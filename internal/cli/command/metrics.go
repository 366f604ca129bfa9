package command

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/goldtodo/internal/cli/connection"
)

// sample is one exposed series value.
type sample struct {
	Name   string            `json:"name" table:"NAME"`
	Labels map[string]string `json:"labels,omitempty" table:"-"`
	Text   string            `json:"-" table:"LABELS"`
	Value  float64           `json:"value" table:"VALUE"`
	Type   string            `json:"type" table:"TYPE,wide"`
}

// MetricsCommand returns the metrics command.
func MetricsCommand() *cli.Command {
	return &cli.Command{
		Name:  "metrics",
		Usage: "Show the server's metrics",
		Description: "Fetches the Prometheus exposition and lists one row per series.\n" +
			"Histograms show their _count and _sum; --buckets adds every bucket.",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "Only show metrics whose name contains `TEXT` (repeatable)",
			},
			&cli.StringFlag{
				Name:  "path",
				Usage: "Exposition path on the server",
				Value: "/metrics",
			},
			&cli.BoolFlag{
				Name:  "buckets",
				Usage: "Include histogram buckets",
			},
		},
		Action: metricsShow,
	}
}

func metricsShow(c *cli.Context) error {
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, flags)
	defer cancel()

	resp, err := client.Get(ctx, c.String("path"))
	if err != nil {
		return err
	}
	body, err := connection.ReadText(resp)
	if err != nil {
		return err
	}

	samples, err := parseSamples(body, c.StringSlice("filter"), c.Bool("buckets"))
	if err != nil {
		return err
	}
	return render(c, flags, samples)
}

// parseSamples flattens an exposition into samples ordered by family name.
func parseSamples(body string, filters []string, buckets bool) ([]sample, error) {
	parser := expfmt.NewTextParser(model.UTF8Validation)
	families, err := parser.TextToMetricFamilies(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse metrics: %w", err)
	}

	names := make([]string, 0, len(families))
	for name := range families {
		if matchesAny(name, filters) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	samples := []sample{}
	for _, name := range names {
		mf := families[name]
		kind := strings.ToLower(mf.GetType().String())
		for _, m := range mf.GetMetric() {
			labels := labelMap(m.GetLabel())
			add := func(suffix string, v float64, extra ...string) {
				l := labels
				if len(extra) == 2 {
					l = make(map[string]string, len(labels)+1)
					for k, lv := range labels {
						l[k] = lv
					}
					l[extra[0]] = extra[1]
				}
				samples = append(samples, sample{
					Name:   name + suffix,
					Labels: l,
					Text:   labelText(l),
					Value:  v,
					Type:   kind,
				})
			}

			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				add("", m.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				add("", m.GetGauge().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				if buckets {
					inf := false
					for _, b := range h.GetBucket() {
						inf = inf || math.IsInf(b.GetUpperBound(), +1)
						add("_bucket", float64(b.GetCumulativeCount()), "le", formatBound(b.GetUpperBound()))
					}
					if !inf {
						add("_bucket", float64(h.GetSampleCount()), "le", "+Inf")
					}
				}
				add("_sum", h.GetSampleSum())
				add("_count", float64(h.GetSampleCount()))
			case dto.MetricType_SUMMARY:
				s := m.GetSummary()
				for _, q := range s.GetQuantile() {
					add("", q.GetValue(), "quantile", formatBound(q.GetQuantile()))
				}
				add("_sum", s.GetSampleSum())
				add("_count", float64(s.GetSampleCount()))
			default:
				add("", m.GetUntyped().GetValue())
			}
		}
	}
	return samples, nil
}

func matchesAny(name string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if strings.Contains(name, f) {
			return true
		}
	}
	return false
}

func labelMap(pairs []*dto.LabelPair) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		m[p.GetName()] = p.GetValue()
	}
	return m
}

// labelText renders labels as k="v" pairs sorted by name.
func labelText(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + strconv.Quote(labels[k])
	}
	return strings.Join(parts, ",")
}

func formatBound(v float64) string {
	if math.IsInf(v, +1) {
		return "+Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
