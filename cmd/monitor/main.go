// Command monitor serves host telemetry as plaintext HTTP endpoints for
// conky and similar desktop widgets.
//
// Usage:
//
//	monitor                       # listen on 0.0.0.0:9000 with 5 workers
//	monitor -p 9100 -w 8          # custom port and worker pool
//	monitor --sensors             # list sensor URLs and exit
//	monitor --config monitor.yaml # load settings from a YAML file
package main

import (
	"errors"
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd(version, &options{}).Execute(); err != nil {
		if !errors.Is(err, errSensorsListed) {
			fmt.Fprintf(os.Stderr, "monitor: %v\n", err)
		}
		os.Exit(1)
	}
}
