// Package observer is the self-learning side of the engine: a bounded,
// concurrency-safe store that counts recurrences of unknown-but-stable
// fingerprints and offers them for promotion into the fingerprint database
// once their stability score crosses the threshold.
//
// Concurrency model:
//   - The store is a striped hash map: a fixed array of shards, each holding
//     its own mutex and map.  An observation of one key locks exactly one
//     shard, so observations of different keys proceed in parallel with no
//     mutual serialisation.
//   - A record's mutable fields (observation count, last-seen, stability
//     score, version tag) are only ever written under the record's shard
//     lock, so readers never see a torn combination – the multi-field update
//     is atomic as a unit.  Taking independent locks per field is exactly
//     the failure mode this layout rules out.
//   - New-key insertion and capacity eviction serialise on one extra mutex.
//     Steady-state traffic is dominated by repeat observations of known
//     keys, which never touch it; first sightings are rare by definition.
//
// Bounds: memory is O(capacity); one Observe call is O(1) expected, with the
// O(shards + n) eviction scan (every record of every shard) amortised over
// the rare insert-at-
// capacity case.
package observer

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/firasghr/GoFingerprintEngine/fingerprint"
)

// Defaults for the observer's tunables.
const (
	// DefaultCapacity bounds the number of tracked unknown fingerprints.
	DefaultCapacity = 10_000

	// DefaultStabilityThreshold is the promotion threshold.  Deliberately
	// distinct from the database matcher's 0.80 similarity floor.
	DefaultStabilityThreshold = 0.70

	// DefaultMinObservations is the minimum recurrence count before a
	// fingerprint can be promoted regardless of its score.
	DefaultMinObservations = 10

	// shardCount is the number of map stripes.  Power of two, sized so that
	// even thousands of concurrent observers rarely collide on a shard.
	shardCount = 64
)

// Observation is the tracked state of one unknown fingerprint.  Values
// returned by the observer are snapshots; the live record stays internal.
type Observation struct {
	// Key is the database-form fingerprint key ("<kind>:<canonical>").
	Key string

	// Kind is the fingerprint algorithm that produced the key.
	Kind fingerprint.Kind

	// FirstSeen and LastSeen bracket the observation window.
	FirstSeen time.Time
	LastSeen  time.Time

	// ObservationCount is the number of times the fingerprint was observed.
	ObservationCount uint64

	// StabilityScore is the 0–1 recurrence-stability estimate, recomputed on
	// every observation from the post-update count and window.
	StabilityScore float64

	// VersionTag increments on every update; consumers comparing two
	// snapshots of the same key can order them by tag.
	VersionTag uint64

	// Decomposed is the decomposed-form snapshot taken on first observation,
	// carried along for promotion.
	Decomposed fingerprint.Decomposed

	ready   bool
	yielded bool
}

// Outcome reports the effect of one Observe call.
type Outcome struct {
	// FirstObservation is true when the key was not previously tracked.
	FirstObservation bool

	// ObservationCount and StabilityScore reflect the record after this
	// observation.
	ObservationCount uint64
	StabilityScore   float64

	// ReadyForPromotion is true once the record has crossed both the
	// stability threshold and the minimum count.
	ReadyForPromotion bool

	// Evicted reports that inserting this key pushed out the
	// least-recently-updated record; EvictedKey names it.  Informational,
	// not an error.
	Evicted    bool
	EvictedKey string
}

// Stats is a point-in-time summary of the store.
type Stats struct {
	// TotalUnique is the number of currently tracked fingerprints.
	TotalUnique int

	// TotalObservations counts every Observe call since construction.
	TotalObservations uint64

	// Learned counts confirmed promotions.
	Learned uint64
}

// Config carries the observer's tunables; zero values select the defaults.
type Config struct {
	Capacity           int
	StabilityThreshold float64
	MinObservations    uint64

	// Clock overrides the time source, for tests.  Nil means time.Now.
	Clock func() time.Time
}

// shard is one stripe of the store.
type shard struct {
	mu      sync.Mutex
	records map[string]*Observation
}

// Observer is the bounded self-learning store.  Construct with New; the zero
// value is not usable.
type Observer struct {
	shards             [shardCount]shard
	capacity           int
	stabilityThreshold float64
	minObservations    uint64
	now                func() time.Time

	// insertMu serialises new-key insertion with capacity eviction so the
	// record count never overshoots the bound.
	insertMu sync.Mutex

	count             atomic.Int64
	totalObservations atomic.Uint64
	learned           atomic.Uint64
}

// New creates an Observer with the given configuration.
func New(cfg Config) *Observer {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.StabilityThreshold <= 0 {
		cfg.StabilityThreshold = DefaultStabilityThreshold
	}
	if cfg.MinObservations == 0 {
		cfg.MinObservations = DefaultMinObservations
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	o := &Observer{
		capacity:           cfg.Capacity,
		stabilityThreshold: cfg.StabilityThreshold,
		minObservations:    cfg.MinObservations,
		now:                cfg.Clock,
	}
	for i := range o.shards {
		o.shards[i].records = make(map[string]*Observation)
	}
	return o
}

// shardFor picks the stripe responsible for key.
func (o *Observer) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &o.shards[h.Sum32()%shardCount]
}

// Observe records one sighting of an unknown fingerprint.  The caller has
// already established that the key misses the fingerprint database.
//
// The stability score is recomputed from the post-increment count: the
// observation being recorded takes part in its own score.
func (o *Observer) Observe(kind fingerprint.Kind, key string, decomposed fingerprint.Decomposed) Outcome {
	o.totalObservations.Add(1)
	now := o.now()
	s := o.shardFor(key)

	// Fast path: repeat observation of a tracked key.
	s.mu.Lock()
	if rec, ok := s.records[key]; ok {
		out := o.update(rec, now)
		s.mu.Unlock()
		return out
	}
	s.mu.Unlock()

	// Slow path: first sighting.  Serialise with other inserts so the
	// capacity check and the eviction stay consistent.
	o.insertMu.Lock()
	defer o.insertMu.Unlock()

	s.mu.Lock()
	if rec, ok := s.records[key]; ok {
		// Another goroutine inserted the key between our two lockings.
		out := o.update(rec, now)
		s.mu.Unlock()
		return out
	}
	s.mu.Unlock()

	var out Outcome
	if int(o.count.Load()) >= o.capacity {
		if evicted, ok := o.evictOldest(); ok {
			out.Evicted = true
			out.EvictedKey = evicted
		}
	}

	rec := &Observation{
		Key:              key,
		Kind:             kind,
		FirstSeen:        now,
		LastSeen:         now,
		ObservationCount: 1,
		StabilityScore:   o.stability(1, now, now),
		Decomposed:       decomposed,
	}
	o.markReady(rec)

	s.mu.Lock()
	s.records[key] = rec
	s.mu.Unlock()
	o.count.Add(1)

	out.FirstObservation = true
	out.ObservationCount = 1
	out.StabilityScore = rec.StabilityScore
	out.ReadyForPromotion = rec.ready
	return out
}

// update applies a repeat observation to rec.  Caller holds the shard lock,
// which is what makes the multi-field write atomic as a unit.
func (o *Observer) update(rec *Observation, now time.Time) Outcome {
	rec.ObservationCount++
	if now.After(rec.LastSeen) {
		rec.LastSeen = now
	}
	rec.StabilityScore = o.stability(rec.ObservationCount, rec.FirstSeen, rec.LastSeen)
	rec.VersionTag++
	o.markReady(rec)

	return Outcome{
		ObservationCount:  rec.ObservationCount,
		StabilityScore:    rec.StabilityScore,
		ReadyForPromotion: rec.ready,
	}
}

// markReady latches the promotion flag once both gates are crossed.
func (o *Observer) markReady(rec *Observation) {
	if rec.StabilityScore >= o.stabilityThreshold && rec.ObservationCount >= o.minObservations {
		rec.ready = true
	}
}

// stability computes the recurrence-stability score.
//
// base rewards raw recurrence up to the promotion minimum; the bonus grades
// the observation rate: a steady 1–100 sightings per hour is organic client
// traffic (full bonus), hundreds per hour is scripted load or replay (small
// bonus), and at or below one per hour the rate says nothing (none).
func (o *Observer) stability(count uint64, firstSeen, lastSeen time.Time) float64 {
	base := float64(count) / float64(o.minObservations)
	if base > 1 {
		base = 1
	}
	base *= 0.7

	hours := lastSeen.Sub(firstSeen).Seconds() / 3600
	if hours < 1 {
		hours = 1
	}
	perHour := float64(count) / hours

	var bonus float64
	switch {
	case perHour <= 1:
		bonus = 0
	case perHour < 100:
		bonus = 0.3
	default:
		bonus = 0.1
	}
	return base + bonus
}

// evictOldest removes the record with the smallest LastSeen across all
// shards.  Caller holds insertMu.
func (o *Observer) evictOldest() (string, bool) {
	var (
		oldestKey   string
		oldestShard *shard
		oldestSeen  time.Time
		found       bool
	)
	for i := range o.shards {
		s := &o.shards[i]
		s.mu.Lock()
		for key, rec := range s.records {
			if !found || rec.LastSeen.Before(oldestSeen) {
				found = true
				oldestKey = key
				oldestShard = s
				oldestSeen = rec.LastSeen
			}
		}
		s.mu.Unlock()
	}
	if !found {
		return "", false
	}
	oldestShard.mu.Lock()
	_, still := oldestShard.records[oldestKey]
	if still {
		delete(oldestShard.records, oldestKey)
	}
	oldestShard.mu.Unlock()
	if still {
		o.count.Add(-1)
		return oldestKey, true
	}
	return "", false
}

// Get returns a snapshot of the record for key.
func (o *Observer) Get(key string) (Observation, bool) {
	s := o.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return Observation{}, false
	}
	return snapshot(rec), true
}

// PromoteReady returns snapshots of the records that have crossed the
// promotion gates and have not been yielded before.  Records stay in the
// store until the caller confirms each promotion with ConfirmPromotion, and
// a record is never yielded twice – the two together keep a slow promoter
// and a second PromoteReady call from double-inserting downstream.
func (o *Observer) PromoteReady() []Observation {
	var ready []Observation
	for i := range o.shards {
		s := &o.shards[i]
		s.mu.Lock()
		for _, rec := range s.records {
			if rec.ready && !rec.yielded {
				rec.yielded = true
				ready = append(ready, snapshot(rec))
			}
		}
		s.mu.Unlock()
	}
	return ready
}

// ConfirmPromotion removes key from the store after the caller has inserted
// it into the fingerprint database.  Reports whether the key was present.
func (o *Observer) ConfirmPromotion(key string) bool {
	s := o.shardFor(key)
	s.mu.Lock()
	_, ok := s.records[key]
	if ok {
		delete(s.records, key)
	}
	s.mu.Unlock()
	if ok {
		o.count.Add(-1)
		o.learned.Add(1)
	}
	return ok
}

// Sweep removes records whose LastSeen is older than retention and returns
// the number removed.  Yielded-but-unconfirmed records are kept: the
// promoter still owns them.
func (o *Observer) Sweep(retention time.Duration) int {
	cutoff := o.now().Add(-retention)
	removed := 0
	for i := range o.shards {
		s := &o.shards[i]
		s.mu.Lock()
		for key, rec := range s.records {
			if rec.yielded {
				continue
			}
			if rec.LastSeen.Before(cutoff) {
				delete(s.records, key)
				removed++
			}
		}
		s.mu.Unlock()
	}
	if removed > 0 {
		o.count.Add(int64(-removed))
	}
	return removed
}

// GetStats returns a point-in-time summary.
func (o *Observer) GetStats() Stats {
	return Stats{
		TotalUnique:       int(o.count.Load()),
		TotalObservations: o.totalObservations.Load(),
		Learned:           o.learned.Load(),
	}
}

// snapshot copies rec for return to callers.  Caller holds the shard lock.
func snapshot(rec *Observation) Observation {
	out := *rec
	out.Decomposed = rec.Decomposed
	return out
}
