package registry

import "errors"

var ErrNotFound = errors.New("registry: instance not registered")

// Endpoint is one addressable interface instance.
type Endpoint struct {
	InstanceID uint16 `json:"instance_id"`
	Addr       string `json:"addr"`
}

// Registry is the directory mapping an instance id to the address its
// packets should be delivered to. Endpoints with a static id register
// themselves under it; endpoints without one obtain an id from Allocate
// first.
type Registry interface {
	Register(ep Endpoint, ttl int64) error
	Deregister(instanceID uint16) error
	Lookup(instanceID uint16) (Endpoint, error)
	Watch(instanceID uint16) <-chan Endpoint
	Allocate() (uint16, error)
}
