package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AXI0MH1VE/meshwire"
)

// Load Testing
// These tests measure performance under load and help identify bottlenecks.
// Every command round-trips through the single actor loop, so the numbers
// here characterize the loop itself, not the network.

const benchTopic = "bench-topic"

// startBenchNode creates and starts a node for benchmarking.
func startBenchNode(b *testing.B) *meshwire.Node {
	b.Helper()
	node, err := meshwire.New(meshwire.NewConfig(
		meshwire.WithListenAddrs("/ip4/127.0.0.1/tcp/0"),
		meshwire.WithTopics(benchTopic),
	))
	if err != nil {
		b.Fatalf("New failed: %v", err)
	}
	if err := node.Start(); err != nil {
		b.Fatalf("Start failed: %v", err)
	}
	b.Cleanup(func() { _ = node.Stop() })
	return node
}

// BenchmarkNodeCreation measures node creation performance. Creation
// generates an ephemeral identity but binds no sockets.
func BenchmarkNodeCreation(b *testing.B) {
	cfg := meshwire.NewConfig(
		meshwire.WithListenAddrs("/ip4/127.0.0.1/tcp/0"),
	)

	for i := 0; i < b.N; i++ {
		_, err := meshwire.New(cfg)
		if err != nil {
			b.Fatalf("New failed: %v", err)
		}
	}
}

// BenchmarkNodeStartStop measures the full start/stop cycle including
// socket binding and actor loop teardown.
func BenchmarkNodeStartStop(b *testing.B) {
	for i := 0; i < b.N; i++ {
		node, err := meshwire.New(meshwire.NewConfig(
			meshwire.WithListenAddrs("/ip4/127.0.0.1/tcp/0"),
		))
		if err != nil {
			b.Fatalf("New failed: %v", err)
		}
		if err := node.Start(); err != nil {
			b.Fatalf("Start failed: %v", err)
		}
		if err := node.Stop(); err != nil {
			b.Fatalf("Stop failed: %v", err)
		}
	}
}

// BenchmarkPeersRoundTrip measures a full command round-trip through the
// actor loop: send GetPeers, block on the reply channel.
func BenchmarkPeersRoundTrip(b *testing.B) {
	node := startBenchNode(b)
	ctx := context.Background()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := node.Commander().Peers(ctx); err != nil {
			b.Fatalf("Peers failed: %v", err)
		}
	}
}

// BenchmarkPeerIDRoundTrip measures the cheapest possible command
// round-trip, a single fixed-size reply.
func BenchmarkPeerIDRoundTrip(b *testing.B) {
	node := startBenchNode(b)
	ctx := context.Background()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := node.Commander().PeerID(ctx); err != nil {
			b.Fatalf("PeerID failed: %v", err)
		}
	}
}

// BenchmarkPublish measures publish command throughput with various
// payload sizes. Publish is fire and forget, but the bounded command
// channel means sustained publishing runs at the speed the loop drains,
// which includes message signing.
func BenchmarkPublish_64B(b *testing.B)  { benchmarkPublish(b, 64) }
func BenchmarkPublish_1KB(b *testing.B)  { benchmarkPublish(b, 1024) }
func BenchmarkPublish_64KB(b *testing.B) { benchmarkPublish(b, 64*1024) }

func benchmarkPublish(b *testing.B, size int) {
	node := startBenchNode(b)
	payload := make([]byte, size)

	b.SetBytes(int64(size))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		node.Commander().Publish(benchTopic, payload)
	}
}

// BenchmarkHealthCheck measures health check performance.
func BenchmarkHealthCheck(b *testing.B) {
	node := startBenchNode(b)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = node.IsHealthy()
	}
}

// BenchmarkReadinessChecks measures detailed readiness check performance.
func BenchmarkReadinessChecks(b *testing.B) {
	node := startBenchNode(b)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = node.ReadinessChecks()
	}
}

// BenchmarkStatsSnapshot measures the stats snapshot path used by
// monitoring endpoints.
func BenchmarkStatsSnapshot(b *testing.B) {
	node := startBenchNode(b)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = node.Stats()
	}
}

// BenchmarkConcurrentPeers measures command round-trips with many
// goroutines contending for the bounded command channel.
func BenchmarkConcurrentPeers(b *testing.B) {
	node := startBenchNode(b)
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := node.Commander().Peers(ctx); err != nil {
				b.Fatalf("Peers failed: %v", err)
			}
		}
	})
}

// TestLoadScaling tests how command latency scales with payload size.
// This is a test (not a benchmark) that produces a performance report.
func TestLoadScaling(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping load scaling test in short mode")
	}

	node, err := meshwire.New(meshwire.NewConfig(
		meshwire.WithListenAddrs("/ip4/127.0.0.1/tcp/0"),
		meshwire.WithTopics(benchTopic),
	))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer node.Stop()

	if err := node.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	ctx := context.Background()
	payloadSizes := []int{64, 512, 4 * 1024, 64 * 1024, 512 * 1024}

	t.Log("=== Load Scaling Report ===")
	t.Log("")

	const iterations = 200

	// Baseline: query round-trip with no payload involved.
	start := time.Now()
	for i := 0; i < iterations; i++ {
		if _, err := node.Commander().Peers(ctx); err != nil {
			t.Fatalf("Peers failed: %v", err)
		}
	}
	t.Logf("Peers round-trip: %v/op", time.Since(start)/iterations)

	for _, size := range payloadSizes {
		payload := make([]byte, size)

		start := time.Now()
		for i := 0; i < iterations; i++ {
			node.Commander().Publish(benchTopic, payload)
		}
		// A Peers round-trip at the end drains the queue so the
		// measurement covers actual processing, not just enqueueing.
		if _, err := node.Commander().Peers(ctx); err != nil {
			t.Fatalf("Peers failed: %v", err)
		}
		perOp := time.Since(start) / iterations
		t.Logf("Publish %6d B: %v/op", size, perOp)
	}

	t.Log("")
	t.Log("=== Memory Profile ===")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	t.Logf("Alloc: %d MB | TotalAlloc: %d MB | Sys: %d MB | NumGC: %d",
		m.Alloc/1024/1024, m.TotalAlloc/1024/1024, m.Sys/1024/1024, m.NumGC)
}

// TestConcurrentLoadThroughput measures command throughput under
// concurrent load. All workers funnel into one bounded channel drained
// by one goroutine, so this shows where the actor loop saturates.
func TestConcurrentLoadThroughput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping throughput test in short mode")
	}

	node, err := meshwire.New(meshwire.NewConfig(
		meshwire.WithListenAddrs("/ip4/127.0.0.1/tcp/0"),
		meshwire.WithTopics(benchTopic),
	))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer node.Stop()

	if err := node.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	ctx := context.Background()
	concurrencyLevels := []int{1, 2, 4, 8}
	const opsPerWorker = 200

	t.Log("=== Concurrent Throughput Report (Command Loop) ===")
	t.Log("")

	for _, numWorkers := range concurrencyLevels {
		var ops atomic.Int64
		var wg sync.WaitGroup
		wg.Add(numWorkers)

		start := time.Now()

		for w := 0; w < numWorkers; w++ {
			go func(workerID int) {
				defer wg.Done()
				payload := []byte(fmt.Sprintf("worker-%d", workerID))
				for i := 0; i < opsPerWorker; i++ {
					if _, err := node.Commander().Peers(ctx); err != nil {
						return
					}
					ops.Add(1)
					node.Commander().Publish(benchTopic, payload)
					ops.Add(1)
				}
			}(w)
		}

		wg.Wait()
		duration := time.Since(start)

		opsPerSec := float64(ops.Load()) / duration.Seconds()
		t.Logf("Workers: %2d | Total ops: %6d | Duration: %v | Throughput: %.0f ops/sec",
			numWorkers, ops.Load(), duration, opsPerSec)
	}
}
