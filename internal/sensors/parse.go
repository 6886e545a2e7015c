package sensors

import "strings"

var metricReplacer = strings.NewReplacer("/", "_", " ", "_", "+", "", ".", "_")

// NormalizeMetric turns a raw sensors label into the form used in URLs:
// "/", " " and "." become "_" and "+" is dropped.
func NormalizeMetric(label string) string {
	return metricReplacer.Replace(label)
}

// Parse extracts every metric reading from sensors output. Lines that start
// with a space or "(" are continuation lines and are skipped; a line without
// a colon starts a new device.
func Parse(raw string) []Reading {
	var (
		readings []Reading
		device   string
	)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, " ") || strings.HasPrefix(line, "(") {
			continue
		}
		label, rest, ok := strings.Cut(line, ":")
		if !ok {
			device = line
			continue
		}
		var value string
		if fields := strings.Fields(rest); len(fields) > 0 {
			value = fields[0]
		}
		readings = append(readings, Reading{
			Device: device,
			Metric: NormalizeMetric(label),
			Value:  value,
		})
	}
	return readings
}

// Find returns the first reading whose device and metric match,
// ignoring case.
func Find(readings []Reading, device, metric string) (Reading, bool) {
	for _, r := range readings {
		if strings.EqualFold(r.Device, device) && strings.EqualFold(r.Metric, metric) {
			return r, true
		}
	}
	return Reading{}, false
}
