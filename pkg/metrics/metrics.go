// Package metrics defines the observability interfaces the client
// consumes. Implementations live in subpackages (prometheus); a nil
// interface disables collection with zero overhead.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics observes client activity: RPC traffic per program,
// retransmit/timeout behavior of the UDP transport, data throughput and
// the number of registered mounts.
//
// Pass nil wherever a ClientMetrics is accepted to disable collection.
type ClientMetrics interface {
	// RecordCall counts one RPC call to a program ("portmap", "mount",
	// "nfs"). Retransmits of the same call are not counted again.
	RecordCall(program string)

	// RecordRetransmit counts one UDP retransmission.
	RecordRetransmit(program string)

	// RecordTimeout counts one call that exhausted its retry budget.
	RecordTimeout(program string)

	// RecordBytesTransferred records payload bytes moved by READ or
	// WRITE; direction is "read" or "write".
	RecordBytesTransferred(direction string, bytes uint64)

	// RecordMount / RecordUnmount track the registered-device gauge.
	RecordMount(device string)
	RecordUnmount(device string)
}

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
)

// InitRegistry installs the Prometheus registry the implementations
// attach their collectors to. Until it is called, IsEnabled is false
// and constructors in the prometheus subpackage return nil.
func InitRegistry(reg *prometheus.Registry) {
	mu.Lock()
	defer mu.Unlock()
	registry = reg
}

// IsEnabled reports whether a registry was installed.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

// GetRegistry returns the installed registry, nil when disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}
