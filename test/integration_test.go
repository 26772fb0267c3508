package test

import (
	"context"
	"sync"
	"testing"
	"time"

	"wirerpc"
	"wirerpc/codec"
	"wirerpc/middleware"
	"wirerpc/registry"
	"wirerpc/transport"
)

// declareCalc declares the shared calculator schema. Declaration order is
// the schema: both sides must build it identically.
func declareCalc(ri *wirerpc.Interface) (reset, add, square *wirerpc.Call) {
	reset = wirerpc.Declare[func()](ri)
	add = wirerpc.Declare[func(int, int) int](ri)
	square = wirerpc.Declare[func(int) int](ri)
	return
}

func startCalcServer(t *testing.T) string {
	t.Helper()
	ln, err := transport.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go ln.Serve(codec.CodecTypeGob, func(p *transport.Peer) {
		ri := wirerpc.New(1, p, codec.GetCodec(codec.CodecTypeGob), nil)
		reset, add, square := declareCalc(ri)
		resets := 0
		reset.Bind(func() { resets++ })
		add.Bind(func(a, b int) int { return a + b })
		square.Bind(func(v int) int { return v * v })
		p.Bind(ri, middleware.Recover(), middleware.Logging())
	})

	return ln.Addr().String()
}

// TestEndToEnd runs the full stack: interface → codec → protocol framing →
// TCP → dispatch → handler → response → correlation.
func TestEndToEnd(t *testing.T) {
	addr := startCalcServer(t)

	peer, err := transport.Dial("tcp", addr, codec.CodecTypeGob)
	if err != nil {
		t.Fatal(err)
	}
	defer peer.Close()

	ri := wirerpc.New(0, peer, codec.GetCodec(codec.CodecTypeGob),
		&wirerpc.Options{Guard: &sync.Mutex{}})
	reset, add, square := declareCalc(ri)
	peer.Bind(ri)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// Fire-and-forget goes out without creating correlation state.
	if _, err := reset.Invoke(); err != nil {
		t.Fatal(err)
	}
	if ri.Pending() != 0 {
		t.Fatalf("void call left %d pending entries", ri.Pending())
	}

	futAdd, err := add.Invoke(3, 5)
	if err != nil {
		t.Fatal(err)
	}
	futSquare, err := square.Invoke(6)
	if err != nil {
		t.Fatal(err)
	}

	v, err := futAdd.Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.(int) != 8 {
		t.Fatalf("add: expect 8, got %v", v)
	}

	v, err = futSquare.Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.(int) != 36 {
		t.Fatalf("square: expect 36, got %v", v)
	}

	if ri.Pending() != 0 {
		t.Fatalf("expect no pending entries after responses, got %d", ri.Pending())
	}
}

// TestEndToEndWithRegistry registers the server's instance id in etcd and
// lets the client find it with DialInstance. Skips without a local etcd.
func TestEndToEndWithRegistry(t *testing.T) {
	reg, err := registry.NewEtcdRegistry([]string{"127.0.0.1:2379"})
	if err != nil {
		t.Skipf("etcd client: %v", err)
	}

	addr := startCalcServer(t)

	const serverInstance = uint16(2001)
	if err := reg.Register(registry.Endpoint{InstanceID: serverInstance, Addr: addr}, 10); err != nil {
		t.Skipf("etcd not reachable: %v", err)
	}
	defer reg.Deregister(serverInstance)

	peer, err := transport.DialInstance(reg, serverInstance, codec.CodecTypeGob)
	if err != nil {
		t.Fatal(err)
	}
	defer peer.Close()

	ri := wirerpc.New(0, peer, codec.GetCodec(codec.CodecTypeGob),
		&wirerpc.Options{Guard: &sync.Mutex{}})
	_, add, _ := declareCalc(ri)
	peer.Bind(ri)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	fut, err := add.Invoke(20, 22)
	if err != nil {
		t.Fatal(err)
	}
	v, err := fut.Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.(int) != 42 {
		t.Fatalf("add: expect 42, got %v", v)
	}
}
