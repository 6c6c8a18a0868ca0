package meshwire

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/libp2p/go-libp2p/core/peer"
)

// rttHistorySize bounds the per-peer round-trip history. Old peers are
// evicted least-recently-probed first.
const rttHistorySize = 128

// TopicStats contains statistics for a single topic.
type TopicStats struct {
	// Name is the topic name.
	Name string

	// Published is the number of messages published on this topic.
	Published int64

	// Received is the number of messages received on this topic.
	Received int64

	// BytesPublished is the total payload bytes published.
	BytesPublished int64

	// BytesReceived is the total payload bytes received.
	BytesReceived int64

	// LastPublishedAt is when a message was last published.
	LastPublishedAt time.Time

	// LastReceivedAt is when a message was last received.
	LastReceivedAt time.Time
}

// NodeStats is a point-in-time snapshot of node activity. All fields
// are safe to read without synchronization once returned from the API,
// as they are snapshot copies.
type NodeStats struct {
	// PeerID is the local peer identifier.
	PeerID peer.ID

	// ConnectedPeers is the number of peers with a live connection.
	ConnectedPeers int

	// RoutingTableSize is the number of peers in the routing table.
	RoutingTableSize int

	// PeersDiscovered is the total number of local-network sightings.
	PeersDiscovered int64

	// MessagesPublished and MessagesReceived count across all topics.
	MessagesPublished int64
	MessagesReceived  int64

	// BytesPublished and BytesReceived count payload bytes.
	BytesPublished int64
	BytesReceived  int64

	// DialsAttempted and DialsFailed count dial commands that parsed.
	DialsAttempted int64
	DialsFailed    int64

	// EventsDropped counts advisory events lost to a slow consumer.
	EventsDropped uint64

	// MessagesDropped counts messages lost to a full delivery buffer.
	MessagesDropped int64

	// TopicStats contains per-topic statistics.
	TopicStats map[string]*TopicStats

	// RTT holds the most recent round trip per probed peer, bounded to
	// the least-recently-probed few hundred.
	RTT map[peer.ID]time.Duration

	// CapturedAt is when the snapshot was taken.
	CapturedAt time.Time
}

// statsTracker is the internal mutable stats tracker.
type statsTracker struct {
	mu sync.RWMutex

	discovered int64

	messagesPublished int64
	messagesReceived  int64
	bytesPublished    int64
	bytesReceived     int64

	dialsAttempted int64
	dialsFailed    int64

	messagesDropped int64

	topicStats map[string]*topicStatsInternal

	rtt *lru.Cache[peer.ID, time.Duration]
}

type topicStatsInternal struct {
	published       int64
	received        int64
	bytesPublished  int64
	bytesReceived   int64
	lastPublishedAt time.Time
	lastReceivedAt  time.Time
}

func newStatsTracker() *statsTracker {
	// Constructor only fails on a non-positive size.
	cache, _ := lru.New[peer.ID, time.Duration](rttHistorySize)
	return &statsTracker{
		topicStats: make(map[string]*topicStatsInternal),
		rtt:        cache,
	}
}

// RecordDiscovered records local-network peer sightings.
func (s *statsTracker) RecordDiscovered(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discovered += int64(n)
}

// RecordDialAttempt records a dial command that parsed to an address.
func (s *statsTracker) RecordDialAttempt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialsAttempted++
}

// RecordDialFailure records a dial that did not produce a connection.
func (s *statsTracker) RecordDialFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialsFailed++
}

// RecordPublish records a message published on a topic.
func (s *statsTracker) RecordPublish(topic string, size int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.messagesPublished++
	s.bytesPublished += int64(size)

	ts := s.topicStats[topic]
	if ts == nil {
		ts = &topicStatsInternal{}
		s.topicStats[topic] = ts
	}
	ts.published++
	ts.bytesPublished += int64(size)
	ts.lastPublishedAt = now
}

// RecordReceive records a verified message arriving on a topic.
func (s *statsTracker) RecordReceive(topic string, size int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.messagesReceived++
	s.bytesReceived += int64(size)

	ts := s.topicStats[topic]
	if ts == nil {
		ts = &topicStatsInternal{}
		s.topicStats[topic] = ts
	}
	ts.received++
	ts.bytesReceived += int64(size)
	ts.lastReceivedAt = now
}

// RecordMessageDropped records a message lost to a full delivery buffer.
func (s *statsTracker) RecordMessageDropped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messagesDropped++
}

// RecordRTT records a probe round trip for a peer. The LRU cache is
// internally synchronized.
func (s *statsTracker) RecordRTT(p peer.ID, rtt time.Duration) {
	s.rtt.Add(p, rtt)
}

// Snapshot returns a copy of the stats for external consumption.
func (s *statsTracker) Snapshot() *NodeStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &NodeStats{
		PeersDiscovered:   s.discovered,
		MessagesPublished: s.messagesPublished,
		MessagesReceived:  s.messagesReceived,
		BytesPublished:    s.bytesPublished,
		BytesReceived:     s.bytesReceived,
		DialsAttempted:    s.dialsAttempted,
		DialsFailed:       s.dialsFailed,
		MessagesDropped:   s.messagesDropped,
		TopicStats:        make(map[string]*TopicStats, len(s.topicStats)),
		RTT:               make(map[peer.ID]time.Duration, s.rtt.Len()),
		CapturedAt:        time.Now(),
	}

	for name, ts := range s.topicStats {
		stats.TopicStats[name] = &TopicStats{
			Name:            name,
			Published:       ts.published,
			Received:        ts.received,
			BytesPublished:  ts.bytesPublished,
			BytesReceived:   ts.bytesReceived,
			LastPublishedAt: ts.lastPublishedAt,
			LastReceivedAt:  ts.lastReceivedAt,
		}
	}

	for _, p := range s.rtt.Keys() {
		if rtt, ok := s.rtt.Peek(p); ok {
			stats.RTT[p] = rtt
		}
	}

	return stats
}
