package metrics

import (
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile writes everything reg gathers to path in the text exposition format.
// The file is replaced atomically by the Prometheus library.
func WriteTextfile(reg prom.Gatherer, path string) error {
	if err := prom.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
