package test

import (
	"testing"

	"wirerpc"
	"wirerpc/codec"
	"wirerpc/transport"
)

// BenchmarkQueueRoundTrip measures the cooperative hot path: invoke →
// encode → enqueue → dispatch → handler → response → resolve.
func BenchmarkQueueRoundTrip(b *testing.B) {
	q := transport.NewQueue()

	caller := wirerpc.New(0, q, codec.GetCodec(codec.CodecTypeJSON), nil)
	callee := wirerpc.New(1, q, codec.GetCodec(codec.CodecTypeJSON), nil)

	callerSquare := wirerpc.Declare[func(int) int](caller)
	calleeSquare := wirerpc.Declare[func(int) int](callee)
	calleeSquare.Bind(func(v int) int { return v * v })

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fut, err := callerSquare.Invoke(i)
		if err != nil {
			b.Fatal(err)
		}
		if err := q.Pump(0, callee); err != nil {
			b.Fatal(err)
		}
		if err := q.Pump(1, caller); err != nil {
			b.Fatal(err)
		}
		if !fut.Ready() {
			b.Fatal("future not resolved after pumping both sides")
		}
	}
}

// BenchmarkFireAndForget measures the void-call path, which keeps no
// correlation state.
func BenchmarkFireAndForget(b *testing.B) {
	q := transport.NewQueue()

	caller := wirerpc.New(0, q, codec.GetCodec(codec.CodecTypeJSON), nil)
	callee := wirerpc.New(1, q, codec.GetCodec(codec.CodecTypeJSON), nil)

	callerNotify := wirerpc.Declare[func(int)](caller)
	calleeNotify := wirerpc.Declare[func(int)](callee)
	sink := 0
	calleeNotify.Bind(func(v int) { sink += v })

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := callerNotify.Invoke(i); err != nil {
			b.Fatal(err)
		}
		if err := q.Pump(0, callee); err != nil {
			b.Fatal(err)
		}
	}
}
