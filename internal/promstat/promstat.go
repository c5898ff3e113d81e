package promstat

import (
	"errors"
	"fmt"
	"io"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// ErrNoFields reports an exposition that parsed cleanly but contained no
// metric family mappable to a stat field.
var ErrNoFields = errors.New("no stat fields found in exposition")

// fieldSpec maps one exposition family onto a procmon stat field.
type fieldSpec struct {
	stat  string
	scale float64 // applied to the summed family value
}

// fieldMap translates metric family names to stat fields. The standard
// process-exporter names are converted; procmon-native names pass through
// unscaled for exporters that republish the collector's own gauges.
var fieldMap = map[string]fieldSpec{
	"process_cpu_seconds_total":     {stat: "cpu_sec", scale: 1},
	"process_resident_memory_bytes": {stat: "peak_rss_size_kib", scale: 1.0 / 1024},

	"cpu_sec":           {stat: "cpu_sec", scale: 1},
	"total_sec":         {stat: "total_sec", scale: 1},
	"avg_cpu_percent":   {stat: "avg_cpu_percent", scale: 1},
	"peak_cpu_percent":  {stat: "peak_cpu_percent", scale: 1},
	"avg_rss_size_kib":  {stat: "avg_rss_size_kib", scale: 1},
	"peak_rss_size_kib": {stat: "peak_rss_size_kib", scale: 1},
}

// Parse decodes a Prometheus text exposition from r into a stat sample.
// Each mappable family is summed across its label sets; families with no
// stat-field mapping are ignored. An exposition yielding no mapped field
// at all fails with ErrNoFields.
func Parse(r io.Reader) (map[string]float64, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("promstat: parse exposition: %w", err)
	}
	// A non-empty result with a non-nil err is a partial parse (trailing
	// lines, format warnings). Treat as success.

	sample := make(map[string]float64)
	for name, mf := range mfs {
		spec, ok := fieldMap[name]
		if !ok {
			continue
		}
		sample[spec.stat] = sumFamily(mf) * spec.scale
	}
	if len(sample) == 0 {
		return nil, fmt.Errorf("promstat: %w", ErrNoFields)
	}
	return sample, nil
}

// sumFamily adds up all counter, gauge, or untyped values in a family.
func sumFamily(mf *dto.MetricFamily) float64 {
	var total float64
	for _, m := range mf.GetMetric() {
		switch {
		case m.Counter != nil:
			total += m.Counter.GetValue()
		case m.Gauge != nil:
			total += m.Gauge.GetValue()
		case m.Untyped != nil:
			total += m.Untyped.GetValue()
		}
	}
	return total
}
