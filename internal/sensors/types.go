// Package sensors reads hardware sensor values from the lm-sensors
// `sensors` command and looks them up by device and metric name.
package sensors

// Reading is one metric line of `sensors -A` output.
type Reading struct {
	// Device is the chip header the metric appeared under (e.g. "coretemp-isa-0000").
	Device string

	// Metric is the normalised label (e.g. "Package_id_0").
	Metric string

	// Value is the first whitespace-separated token after the colon (e.g. "+45.0°C").
	Value string
}
