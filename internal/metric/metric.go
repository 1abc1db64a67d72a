package metric

// Descriptor holds static metadata for one exposed gauge.
type Descriptor struct {
	// Name is the metric name without namespace.
	Name string
	// InfoKey is the INFO field that feeds the metric directly.
	// Reserved metrics derived by the exporter leave it empty.
	InfoKey     string
	Description string
}

// Names of the reserved metrics.
const (
	NameRoleMaster = "role_master"
	NameDBSize     = "dbsize"
	NameAvgTTL     = "avg_ttl"
	NameUp         = "node_status"
)

// Names and label of the per-database families.
const (
	NameDBKeys         = "db_keys"
	NameDBKeysExpiring = "db_keys_expiring"
	LabelDB            = "db"
)

// Descriptors is the fixed metric set exposed for a Redis node, in output order.
var Descriptors = []Descriptor{
	{Name: "connected_clients", InfoKey: "connected_clients", Description: "Total connections connect to redis"},
	{Name: "max_clients", InfoKey: "maxclients", Description: "Max allowed connection number"},
	{Name: "used_memory", InfoKey: "used_memory", Description: "Used memory in bytes"},
	{Name: "used_cpu_sys", InfoKey: "used_cpu_sys", Description: "Used cpu in system"},
	{Name: "used_cpu_user", InfoKey: "used_cpu_user", Description: "Used cpu in user"},
	{Name: NameRoleMaster, Description: "Current node is master"},
	{Name: NameDBSize, Description: "Total key number of current node"},
	{Name: NameAvgTTL, Description: "Total avg_ttl of all db in this node"},
}

// UpDescriptor describes the liveness gauge.
var UpDescriptor = Descriptor{Name: NameUp, Description: "The status of current node"}

// PartitionDescriptors describe the per-database families, labelled by LabelDB.
var PartitionDescriptors = []Descriptor{
	{Name: NameDBKeys, Description: "Total number of keys by DB"},
	{Name: NameDBKeysExpiring, Description: "Total number of expiring keys by DB"},
}
