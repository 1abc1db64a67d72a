package metric

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Registry holds the fixed set of Redis node gauges and the liveness gauge.
// Values only change through Set calls made by the exporter.
type Registry struct {
	ConnectedClients prometheus.Gauge
	MaxClients       prometheus.Gauge
	UsedMemory       prometheus.Gauge
	UsedCPUSys       prometheus.Gauge
	UsedCPUUser      prometheus.Gauge
	RoleMaster       prometheus.Gauge
	DBSize           prometheus.Gauge
	AvgTTL           prometheus.Gauge

	Up prometheus.Gauge

	namespace string
	byInfoKey map[string]prometheus.Gauge

	dbKeys         *prometheus.Desc
	dbKeysExpiring *prometheus.Desc

	nodeRegistry *prometheus.Registry
	upRegistry   *prometheus.Registry
}

// New creates a registry whose metric names are prefixed with namespace.
// Invalid or duplicate names are reported here rather than during a scrape.
func New(namespace string) (*Registry, error) {
	r := &Registry{
		namespace:    namespace,
		byInfoKey:    make(map[string]prometheus.Gauge),
		nodeRegistry: prometheus.NewRegistry(),
		upRegistry:   prometheus.NewRegistry(),
	}

	fields := map[string]*prometheus.Gauge{
		"connected_clients": &r.ConnectedClients,
		"max_clients":       &r.MaxClients,
		"used_memory":       &r.UsedMemory,
		"used_cpu_sys":      &r.UsedCPUSys,
		"used_cpu_user":     &r.UsedCPUUser,
		NameRoleMaster:      &r.RoleMaster,
		NameDBSize:          &r.DBSize,
		NameAvgTTL:          &r.AvgTTL,
	}

	for _, d := range Descriptors {
		field, ok := fields[d.Name]
		if !ok {
			return nil, fmt.Errorf("metric %q has no registry field", d.Name)
		}

		gauge := r.newGauge(d)
		if err := r.nodeRegistry.Register(gauge); err != nil {
			return nil, fmt.Errorf("failed to register metric %q: %w", d.Name, err)
		}
		*field = gauge

		if d.InfoKey != "" {
			r.byInfoKey[d.InfoKey] = gauge
		}
	}

	r.Up = r.newGauge(UpDescriptor)
	if err := r.upRegistry.Register(r.Up); err != nil {
		return nil, fmt.Errorf("failed to register metric %q: %w", UpDescriptor.Name, err)
	}

	r.dbKeys = r.newPartitionDesc(PartitionDescriptors[0])
	r.dbKeysExpiring = r.newPartitionDesc(PartitionDescriptors[1])

	return r, nil
}

func (r *Registry) newPartitionDesc(d Descriptor) *prometheus.Desc {
	return prometheus.NewDesc(r.FullName(d.Name), d.Description, []string{LabelDB}, nil)
}

func (r *Registry) newGauge(d Descriptor) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      d.Name,
		Help:      d.Description,
	})
}

// Lookup returns the gauge fed directly by an INFO field.
func (r *Registry) Lookup(infoKey string) (prometheus.Gauge, bool) {
	g, ok := r.byInfoKey[infoKey]
	return g, ok
}

// FullName returns the exposed name of a metric.
func (r *Registry) FullName(name string) string {
	return prometheus.BuildFQName(r.namespace, "", name)
}

// Gather returns the liveness family and, when includeNode is set, the node
// families plus one db_keys and db_keys_expiring series per partition.
// Partition names must be unique.
func (r *Registry) Gather(includeNode bool, partitions []Partition) ([]*dto.MetricFamily, error) {
	if !includeNode {
		return r.upRegistry.Gather()
	}

	gatherers := prometheus.Gatherers{r.upRegistry, r.nodeRegistry}

	if len(partitions) > 0 {
		cycle := prometheus.NewRegistry()
		if err := cycle.Register(&partitionCollector{
			keys:       r.dbKeys,
			expiring:   r.dbKeysExpiring,
			partitions: partitions,
		}); err != nil {
			return nil, fmt.Errorf("failed to register partition metrics: %w", err)
		}
		gatherers = append(gatherers, cycle)
	}

	return gatherers.Gather()
}

// Partition holds the key counts of one database.
type Partition struct {
	DB       string
	Keys     float64
	Expiring float64
}

// partitionCollector exposes the partitions of one cycle as const metrics.
type partitionCollector struct {
	keys       *prometheus.Desc
	expiring   *prometheus.Desc
	partitions []Partition
}

func (c *partitionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.expiring
}

func (c *partitionCollector) Collect(ch chan<- prometheus.Metric) {
	for _, p := range c.partitions {
		ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, p.Keys, p.DB)
		ch <- prometheus.MustNewConstMetric(c.expiring, prometheus.GaugeValue, p.Expiring, p.DB)
	}
}
