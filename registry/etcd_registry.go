// Package registry provides the etcd-based endpoint directory.
//
// etcd is a distributed key-value store with strong consistency (Raft). We
// use it as a phonebook for interface instances:
//
//	Key:   /wirerpc/endpoints/{instanceID}
//	Value: JSON-encoded Endpoint
//
// Registration uses TTL-based leases: if the endpoint crashes, the lease
// expires and the entry disappears on its own, preventing ghost instances.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const (
	endpointPrefix = "/wirerpc/endpoints/"
	allocKey       = "/wirerpc/nextid"
)

// EtcdRegistry implements Registry on etcd v3.
type EtcdRegistry struct {
	client *clientv3.Client // thread-safe, shared across goroutines
}

func NewEtcdRegistry(endpoints []string) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints: endpoints,
	})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c}, nil
}

func endpointKey(instanceID uint16) string {
	return fmt.Sprintf("%s%d", endpointPrefix, instanceID)
}

// Register stores the endpoint under its instance id with a TTL lease and
// starts background KeepAlive renewal.
func (r *EtcdRegistry) Register(ep Endpoint, ttl int64) error {
	ctx := context.TODO()

	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return err
	}

	val, err := json.Marshal(ep)
	if err != nil {
		return err
	}

	_, err = r.client.Put(ctx, endpointKey(ep.InstanceID), string(val), clientv3.WithLease(lease.ID))
	if err != nil {
		return err
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}

	// Consume KeepAlive responses so the channel never fills up.
	go func() {
		for range ch {
		}
	}()
	return nil
}

// Deregister removes the endpoint entry. Called during graceful shutdown.
func (r *EtcdRegistry) Deregister(instanceID uint16) error {
	_, err := r.client.Delete(context.TODO(), endpointKey(instanceID))
	return err
}

// Lookup returns the registered endpoint for an instance id.
func (r *EtcdRegistry) Lookup(instanceID uint16) (Endpoint, error) {
	resp, err := r.client.Get(context.TODO(), endpointKey(instanceID))
	if err != nil {
		return Endpoint{}, err
	}
	if len(resp.Kvs) == 0 {
		return Endpoint{}, fmt.Errorf("instance %d: %w", instanceID, ErrNotFound)
	}

	var ep Endpoint
	if err := json.Unmarshal(resp.Kvs[0].Value, &ep); err != nil {
		return Endpoint{}, err
	}
	return ep, nil
}

// Watch monitors one instance id and emits the endpoint whenever it is
// re-registered (e.g. the instance moved to a new address).
func (r *EtcdRegistry) Watch(instanceID uint16) <-chan Endpoint {
	ctx := context.TODO()
	ch := make(chan Endpoint, 1)

	go func() {
		watchChan := r.client.Watch(ctx, endpointKey(instanceID))
		for range watchChan {
			ep, err := r.Lookup(instanceID)
			if err != nil {
				continue // deleted or malformed entry
			}
			ch <- ep
		}
	}()

	return ch
}

// Allocate hands out the next free dynamic instance id using a
// compare-and-swap transaction on a shared counter key, so concurrent
// endpoints never receive the same id.
func (r *EtcdRegistry) Allocate() (uint16, error) {
	ctx := context.TODO()
	for {
		resp, err := r.client.Get(ctx, allocKey)
		if err != nil {
			return 0, err
		}

		next := 1
		var cmp clientv3.Cmp
		if len(resp.Kvs) == 0 {
			cmp = clientv3.Compare(clientv3.CreateRevision(allocKey), "=", 0)
		} else {
			next, err = strconv.Atoi(string(resp.Kvs[0].Value))
			if err != nil {
				return 0, fmt.Errorf("registry: corrupt id counter: %w", err)
			}
			cmp = clientv3.Compare(clientv3.ModRevision(allocKey), "=", resp.Kvs[0].ModRevision)
		}
		if next > int(^uint16(0)) {
			return 0, fmt.Errorf("registry: instance id space exhausted")
		}

		txnResp, err := r.client.Txn(ctx).
			If(cmp).
			Then(clientv3.OpPut(allocKey, strconv.Itoa(next+1))).
			Commit()
		if err != nil {
			return 0, err
		}
		if txnResp.Succeeded {
			return uint16(next), nil
		}
		// Lost the race with another allocator: retry with fresh state.
	}
}
