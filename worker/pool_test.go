package worker_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/firasghr/GoFingerprintEngine/worker"
)

func TestPool_ExecutesAllJobs(t *testing.T) {
	const jobs = 500
	p := worker.New(10)

	var counter int64
	for i := 0; i < jobs; i++ {
		p.Submit(func() {
			atomic.AddInt64(&counter, 1)
		})
	}
	p.Wait()

	if counter != jobs {
		t.Errorf("expected %d jobs executed, got %d", jobs, counter)
	}
}

func TestPool_ZeroWorkersFallsBackToOne(t *testing.T) {
	p := worker.New(0)
	var ran int64
	p.Submit(func() { atomic.AddInt64(&ran, 1) })
	p.Wait()
	if ran != 1 {
		t.Errorf("expected job to run, ran=%d", ran)
	}
}

// TestPool_WaitDrainsBeforeReturning writes each job's result into a shared
// slice and reads it immediately after Wait – the access pattern the batch
// analyzer relies on.  The test is designed to pass with -race.
func TestPool_WaitDrainsBeforeReturning(t *testing.T) {
	const jobs = 200
	p := worker.New(8)

	results := make([]int, jobs)
	for i := 0; i < jobs; i++ {
		i := i
		p.Submit(func() {
			results[i] = i + 1
		})
	}
	p.Wait()

	for i, v := range results {
		if v != i+1 {
			t.Fatalf("slot %d not written before Wait returned (got %d)", i, v)
		}
	}
}

// TestPool_HighConcurrency submits 50,000 jobs from many producer
// goroutines against a large pool.  An atomic counter verifies that exactly
// 50,000 executions occurred without deadlocks, channel blocking, or
// goroutine leaks when Wait is called.
func TestPool_HighConcurrency(t *testing.T) {
	const (
		numWorkers   = 2_000
		numProducers = 50
		jobsPer      = 1_000
	)

	p := worker.New(numWorkers)

	var counter int64
	var producers sync.WaitGroup
	producers.Add(numProducers)
	for g := 0; g < numProducers; g++ {
		go func() {
			defer producers.Done()
			for i := 0; i < jobsPer; i++ {
				p.Submit(func() {
					atomic.AddInt64(&counter, 1)
				})
			}
		}()
	}

	// All producers must finish submitting before the channel is closed, so
	// Wait never races with Submit.
	producers.Wait()
	p.Wait()

	if counter != numProducers*jobsPer {
		t.Errorf("expected %d jobs executed, got %d", numProducers*jobsPer, counter)
	}
}
