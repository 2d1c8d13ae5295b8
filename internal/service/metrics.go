package service

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/mlprov/internal/ops"
	"github.com/roach88/mlprov/internal/prov"
)

// WriteMetrics exports the record counts of doc to path in the Prometheus
// text format, for pickup by a node exporter textfile collector.
func WriteMetrics(path string, doc *prov.Document, resolution ops.Resolution) error {
	counts, err := ops.Count(doc, resolution)
	if err != nil {
		return err
	}

	records := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mlprov",
		Name:      "records",
		Help:      "Number of records in the provenance document by record type.",
	}, []string{"record_type"})
	for _, c := range counts {
		records.WithLabelValues(c.Type).Set(float64(c.Count))
	}

	registry := prometheus.NewRegistry()
	if err := registry.Register(records); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
