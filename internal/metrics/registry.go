package metrics

import "github.com/prometheus/client_golang/prometheus"

// namespace prefixes every metric exposed by this package.
const namespace = "sageconnect"

// Registry is the Prometheus registry all collectors in this package attach
// to. It is a dedicated registry rather than the global default, and it is
// shared by every core in the process (e.g. both profiles of the demo CLI).
var Registry = prometheus.NewRegistry()
