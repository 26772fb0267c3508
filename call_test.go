package wirerpc

import (
	"strings"
	"testing"

	"wirerpc/codec"
)

func TestDeclareRejectsBadSignatures(t *testing.T) {
	ri := New(0, &capture{}, codec.GetCodec(codec.CodecTypeJSON), nil)

	assertPanic := func(name string, fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected panic", name)
			}
		}()
		fn()
	}

	assertPanic("non-func", func() { Declare[int](ri) })
	assertPanic("variadic", func() { Declare[func(...int)](ri) })
	assertPanic("two returns", func() { Declare[func() (int, error)](ri) })
}

func TestBindChecksSignature(t *testing.T) {
	ep := newEndpoint(0, nil)

	if err := ep.square.Bind(func(s string) int { return 0 }); err == nil {
		t.Fatal("expect error binding wrong signature")
	}
	if err := ep.square.Bind(nil); err == nil {
		t.Fatal("expect error binding nil handler")
	}
	if err := ep.square.Bind(func(v int) int { return v }); err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	// Rebinding replaces the previous handler.
	if err := ep.square.Bind(func(v int) int { return -v }); err != nil {
		t.Fatalf("rebind failed: %v", err)
	}
}

func TestRebindTakesEffect(t *testing.T) {
	sender := newEndpoint(0, nil)
	receiver := newEndpoint(1, nil)

	receiver.square.Bind(func(v int) int { return v * v })
	receiver.square.Bind(func(v int) int { return v + 1 })

	fut, err := sender.square.Invoke(10)
	if err != nil {
		t.Fatal(err)
	}
	sender.tr.drain(t, receiver.ri)
	receiver.tr.drain(t, sender.ri)

	if got := Await[int](fut); got != 11 {
		t.Fatalf("expect rebound handler result 11, got %d", got)
	}
}

func TestInvokeArgumentChecks(t *testing.T) {
	ep := newEndpoint(0, nil)

	if _, err := ep.square.Invoke(); err == nil {
		t.Fatal("expect error for missing argument")
	}
	if _, err := ep.square.Invoke(1, 2); err == nil {
		t.Fatal("expect error for extra argument")
	}
	_, err := ep.square.Invoke("five")
	if err == nil {
		t.Fatal("expect error for wrong argument type")
	}
	if !strings.Contains(err.Error(), "argument 0") {
		t.Errorf("error should name the offending argument, got: %v", err)
	}
}

func TestMultiArgumentCall(t *testing.T) {
	sender := newEndpoint(0, nil)
	receiver := newEndpoint(1, nil)

	receiver.concat.Bind(func(s string, n int) string {
		return s + strings.Repeat("!", n)
	})

	fut, err := sender.concat.Invoke("hey", 3)
	if err != nil {
		t.Fatal(err)
	}
	sender.tr.drain(t, receiver.ri)
	receiver.tr.drain(t, sender.ri)

	if got := Await[string](fut); got != "hey!!!" {
		t.Fatalf("expect %q, got %q", "hey!!!", got)
	}
}

func TestPacketHeaderStamp(t *testing.T) {
	ep := newEndpoint(42, nil)

	if _, err := ep.square.Invoke(5); err != nil {
		t.Fatal(err)
	}
	pkt := ep.tr.out[0]
	if pkt.InstanceID != 42 {
		t.Errorf("InstanceID: got %d, want 42", pkt.InstanceID)
	}
	if pkt.FunctionID != ep.square.FunctionID() {
		t.Errorf("FunctionID: got %d, want %d", pkt.FunctionID, ep.square.FunctionID())
	}
	if pkt.CallID == 0 {
		t.Error("result-bearing call must carry a non-zero CallID")
	}

	// Dynamic identity: packets pick up the new id.
	ep.ri.SetInstanceID(7)
	if _, err := ep.notify.Invoke("x"); err != nil {
		t.Fatal(err)
	}
	if got := ep.tr.out[1].InstanceID; got != 7 {
		t.Errorf("InstanceID after SetInstanceID: got %d, want 7", got)
	}
}
