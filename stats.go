// SPDX-License-Identifier: EPL-2.0

package vorbisgo

import "sync"

// Stats is the single object a StreamDecoder exposes for cross-goroutine
// reads (every other piece of decoder state is single-consumer). It guards
// a small set of counters with one mutex, matching audio.Registry's use of
// a mutex-guarded map for its one piece of concurrently-read state.
type Stats struct {
	mu sync.Mutex

	packetsDecoded int64
	packetsDropped int64
	framesEmitted  int64
	resyncs        int64
	overheadBits   int64
}

// StatsSnapshot is a plain value copy of Stats, safe to read concurrently
// once returned.
type StatsSnapshot struct {
	PacketsDecoded int64
	PacketsDropped int64
	FramesEmitted  int64
	Resyncs        int64
	OverheadBits   int64
}

func (s *Stats) addDecoded(overheadBits int) {
	s.mu.Lock()
	s.packetsDecoded++
	s.overheadBits += int64(overheadBits)
	s.mu.Unlock()
}

func (s *Stats) addDropped() {
	s.mu.Lock()
	s.packetsDropped++
	s.mu.Unlock()
}

func (s *Stats) addFrames(n int64) {
	s.mu.Lock()
	s.framesEmitted += n
	s.mu.Unlock()
}

func (s *Stats) addResync() {
	s.mu.Lock()
	s.resyncs++
	s.mu.Unlock()
}

// Snapshot returns a consistent copy of the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		PacketsDecoded: s.packetsDecoded,
		PacketsDropped: s.packetsDropped,
		FramesEmitted:  s.framesEmitted,
		Resyncs:        s.resyncs,
		OverheadBits:   s.overheadBits,
	}
}
