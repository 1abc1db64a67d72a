package exporter

import (
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/neox5/redisbox/internal/info"
	"github.com/neox5/redisbox/internal/metric"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	roleKey           = "role"
	roleMaster        = "master"
	clusterEnabledKey = "cluster_enabled"
	keyspaceSection   = "Keyspace"
	partitionPrefix   = "db"

	partitionKeys    = "keys"
	partitionExpires = "expires"
	partitionAvgTTL  = "avg_ttl"

	// Databases reported when empty ones are filled in. A cluster node
	// only has db0.
	defaultDatabases = 16
	clusterDatabases = 1
)

// update is a pending gauge write.
type update struct {
	gauge prometheus.Gauge
	value float64
}

// partitionFigures are the numbers of one keyspace entry.
type partitionFigures struct {
	keys    float64
	expires float64
	avgTTL  float64
}

// scrape accumulates the state of one INFO reply. Nothing reaches the
// registry until apply is called.
type scrape struct {
	role           string
	clusterEnabled bool
	totalKeys      float64
	totalAvgTTL    float64
	partitions     map[string]metric.Partition
	updates        []update
	skipped        int
}

func (s *scrape) isMaster() bool {
	return s.role == roleMaster
}

// translate walks an INFO reply and collects the gauge writes it implies.
func translate(text string, metrics *metric.Registry) (*scrape, error) {
	s := &scrape{partitions: make(map[string]metric.Partition)}

	for line := range info.Parse(text) {
		switch line.Key {
		case roleKey:
			s.role = line.Value
			continue
		case clusterEnabledKey:
			s.clusterEnabled = line.Value == "1"
			continue
		}

		// Keyspace lines only feed the aggregates, and only on a master.
		if line.Section == keyspaceSection {
			if s.isMaster() && strings.HasPrefix(line.Key, partitionPrefix) {
				figures, err := readPartition(line.Value)
				if err != nil {
					return nil, err
				}
				s.totalKeys += figures.keys
				s.totalAvgTTL += figures.avgTTL
				s.partitions[line.Key] = metric.Partition{
					DB:       line.Key,
					Keys:     figures.keys,
					Expiring: figures.expires,
				}
			}
			continue
		}

		gauge, ok := metrics.Lookup(line.Key)
		if !ok {
			continue
		}

		value, ok := info.Coerce(line.Value)
		if !ok {
			slog.Debug("skipping unparsable value", "key", line.Key, "value", line.Value)
			s.skipped++
			continue
		}

		s.updates = append(s.updates, update{gauge: gauge, value: value})
	}

	return s, nil
}

// readPartition reads the figures of one keyspace entry.
// Missing fields count as zero.
func readPartition(value string) (partitionFigures, error) {
	fields := info.ParsePartition(value)

	var figures partitionFigures
	for name, dst := range map[string]*float64{
		partitionKeys:    &figures.keys,
		partitionExpires: &figures.expires,
		partitionAvgTTL:  &figures.avgTTL,
	} {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		v, err := info.ParseFloat(name, raw)
		if err != nil {
			return partitionFigures{}, err
		}
		*dst = v
	}

	return figures, nil
}

// apply writes the accumulated values to the registry. A replica keeps the
// previous aggregate values.
func (s *scrape) apply(metrics *metric.Registry) {
	for _, u := range s.updates {
		u.gauge.Set(u.value)
	}

	if s.isMaster() {
		metrics.RoleMaster.Set(1)
		metrics.DBSize.Set(s.totalKeys)
		metrics.AvgTTL.Set(s.totalAvgTTL)
		return
	}

	metrics.RoleMaster.Set(0)
}

// partitionList returns the per-database series of a master cycle, sorted by
// database name. With includeEmpty, databases absent from the keyspace
// section are reported with zero keys. A replica cycle reports none.
func (s *scrape) partitionList(includeEmpty bool) []metric.Partition {
	if !s.isMaster() {
		return nil
	}

	if includeEmpty {
		count := defaultDatabases
		if s.clusterEnabled {
			count = clusterDatabases
		}
		for i := range count {
			name := partitionPrefix + strconv.Itoa(i)
			if _, ok := s.partitions[name]; !ok {
				s.partitions[name] = metric.Partition{DB: name}
			}
		}
	}

	return slices.SortedFunc(maps.Values(s.partitions), func(a, b metric.Partition) int {
		return strings.Compare(a.DB, b.DB)
	})
}
