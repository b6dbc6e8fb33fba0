// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/forge/internal/broadcast"
	"github.com/luxfi/forge/log"
	"github.com/luxfi/forge/metrics"
	"github.com/luxfi/forge/scheduler"
)

// subscribeCapacity is the bounded broadcast channel capacity for
// ledger subscribers, per §5.
const subscribeCapacity = 512

// Config configures a Ledger, matching the "ledger block" named in §6.
type Config struct {
	RootPath             string        `json:"rootPath" yaml:"rootPath"`
	SegmentSizeBytes     int64         `json:"segmentSizeBytes" yaml:"segmentSizeBytes"`
	SegmentDurationSecs  int64         `json:"segmentDurationSecs" yaml:"segmentDurationSecs"`
	CheckpointIntervalSecs int64       `json:"checkpointIntervalSecs" yaml:"checkpointIntervalSecs"`
	RetainEpochs         int           `json:"retainEpochs" yaml:"retainEpochs"`
	RetainDays           int           `json:"retainDays" yaml:"retainDays"`
	CurrentEpoch         string        `json:"currentEpoch" yaml:"currentEpoch"`
}

// segmentDuration returns the configured segment age limit as a
// time.Duration.
func (c Config) segmentDuration() time.Duration {
	return time.Duration(c.SegmentDurationSecs) * time.Second
}

// DefaultConfig returns sane defaults for all fields left unset.
func DefaultConfig() Config {
	return Config{
		RootPath:               "./forge-ledger",
		SegmentSizeBytes:       8 << 20, // 8 MiB
		SegmentDurationSecs:    int64((10 * time.Minute).Seconds()),
		CheckpointIntervalSecs: int64((1 * time.Minute).Seconds()),
		RetainEpochs:           0,
		RetainDays:             0,
		CurrentEpoch:           "epoch-0001",
	}
}

// Ledger is the single-writer, hash-chained, epoch-segmented event log
// described in §4.2.
type Ledger struct {
	cfg       Config
	log       log.Logger
	metrics   *metrics.Registry
	scheduler *scheduler.Scheduler

	writeMu  sync.Mutex
	clock    hybridClock
	seg      *segmentWriter
	lastSeq  uint64
	prevHash string
	closed   bool

	hub *broadcast.Hub[Envelope]
}

// Open creates (or resumes appending to) the ledger rooted at
// cfg.RootPath for cfg.CurrentEpoch. Failure to open the initial
// segment is the fatal condition named in §7 — the caller must abort.
func Open(cfg Config, reg *metrics.Registry, sched *scheduler.Scheduler, logger log.Logger) (*Ledger, error) {
	if logger == nil {
		logger = log.NoOp()
	}
	segs, err := listSegments(cfg.RootPath, cfg.CurrentEpoch)
	index := 0
	if err == nil && len(segs) > 0 {
		// Resume: open a fresh segment after the highest existing one
		// rather than risk corrupting partial state of a prior run.
		index = len(segs)
	}

	seg, err := openSegmentWriter(cfg.RootPath, cfg.CurrentEpoch, index, cfg.SegmentSizeBytes, cfg.segmentDuration())
	if err != nil {
		return nil, err
	}

	l := &Ledger{
		cfg:       cfg,
		log:       logger,
		metrics:   reg,
		scheduler: sched,
		seg:       seg,
		prevHash:  genesisHash,
		hub:       broadcast.NewHub[Envelope](subscribeCapacity),
	}

	// Resuming an epoch with existing segments: replay them to recover
	// lastSeq/prevHash so sequence numbers stay gap-free across
	// restarts, per §8's monotonic-sequence invariant.
	if index > 0 {
		if err := l.recoverTail(); err != nil {
			seg.close()
			return nil, fmt.Errorf("%w: %v", ErrSegmentOpen, err)
		}
	}

	return l, nil
}

// CurrentEpoch returns the epoch this ledger is currently appending to.
func (l *Ledger) CurrentEpoch() string {
	return l.cfg.CurrentEpoch
}

func (l *Ledger) recoverTail() error {
	envs, err := l.readEpochLocked(l.cfg.CurrentEpoch)
	if err != nil {
		return err
	}
	if len(envs) == 0 {
		return nil
	}
	last := envs[len(envs)-1]
	l.lastSeq = last.Sequence
	l.prevHash = last.HashChain
	return nil
}

// Append atomically appends one event, advancing the hybrid clock,
// sequence number and hash chain, and publishes the result to
// subscribers (§4.2). It blocks on disk I/O and is safe to call
// directly from a blocking context.
func (l *Ledger) Append(evt Event, meta Metadata) (Envelope, error) {
	return l.appendAt(evt, meta, time.Now())
}

func (l *Ledger) appendAt(evt Event, meta Metadata, now time.Time) (Envelope, error) {
	start := time.Now()
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if l.closed {
		return Envelope{}, ErrClosed
	}

	if l.seg.shouldRotate(now) {
		if err := l.rotateLocked(now); err != nil {
			return Envelope{}, err
		}
	}

	lc := l.clock.tick(now)

	body, err := json.Marshal(evt)
	if err != nil {
		l.recordFailure()
		return Envelope{}, fmt.Errorf("ledger: marshal event: %w", err)
	}
	digest := sha256Hex(body)

	seq := l.lastSeq + 1
	env := Envelope{
		EpochID:       l.cfg.CurrentEpoch,
		Sequence:      seq,
		LogicalClock:  lc,
		Metadata:      meta,
		EventKind:     evt.Kind(),
		Event:         body,
		PayloadDigest: digest,
	}

	unhashed, err := env.withoutHashChain()
	if err != nil {
		l.recordFailure()
		return Envelope{}, fmt.Errorf("ledger: marshal envelope: %w", err)
	}
	env.HashChain = chainHash(l.prevHash, unhashed)

	line, err := json.Marshal(env)
	if err != nil {
		l.recordFailure()
		return Envelope{}, fmt.Errorf("ledger: marshal envelope: %w", err)
	}

	if err := l.seg.writeLine(line); err != nil {
		l.recordFailure()
		return Envelope{}, fmt.Errorf("ledger: write: %w", err)
	}

	l.lastSeq = seq
	l.prevHash = env.HashChain

	if l.metrics != nil {
		l.metrics.ObserveAppendLatency(time.Since(start))
	}
	l.hub.Publish(env)

	return env, nil
}

func (l *Ledger) recordFailure() {
	if l.metrics != nil {
		l.metrics.IncAppendFailures()
	}
}

// AppendAsync submits the append to the maintenance scheduler and
// returns a channel yielding the eventual result, for cooperative
// (non-blocking) call sites per §4.2/§5. With no scheduler attached it
// falls back to a blocking append.
func (l *Ledger) AppendAsync(ctx context.Context, evt Event, meta Metadata) <-chan AsyncResult {
	out := make(chan AsyncResult, 1)
	run := func(context.Context) {
		env, err := l.Append(evt, meta)
		out <- AsyncResult{Envelope: env, Err: err}
	}
	if l.scheduler != nil {
		l.scheduler.Submit(ctx, run)
	} else {
		run(ctx)
	}
	return out
}

// AsyncResult is the outcome of an AppendAsync call.
type AsyncResult struct {
	Envelope Envelope
	Err      error
}

func (l *Ledger) rotateLocked(now time.Time) error {
	if err := l.seg.close(); err != nil {
		return fmt.Errorf("ledger: rotate close: %w", err)
	}
	next, err := openSegmentWriter(l.cfg.RootPath, l.cfg.CurrentEpoch, l.seg.index+1, l.cfg.SegmentSizeBytes, l.cfg.segmentDuration())
	if err != nil {
		return err
	}
	l.seg = next
	return nil
}

// Flush is a no-op beyond what Append already guarantees (every append
// is flushed and fsynced before it returns); it exists to satisfy the
// §4.2 contract for callers that want an explicit durability barrier.
func (l *Ledger) Flush() error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return l.seg.buf.Flush()
}

// RecordCheckpoint appends a CheckpointEvent wrapping snap.
func (l *Ledger) RecordCheckpoint(snap StateCheckpoint) (Envelope, error) {
	return l.Append(CheckpointEvent{Checkpoint: snap}, Metadata{})
}

// Subscribe returns a channel of envelopes published from this point
// forward, and an unsubscribe function.
func (l *Ledger) Subscribe() (<-chan Envelope, func()) {
	return l.hub.Subscribe()
}

// Close flushes and closes the current segment. It does not affect
// previously rotated segments, which are already closed.
func (l *Ledger) Close() error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.seg.close()
}
