package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	TopicsProcessed      int64
	TopicsFailed         int64
	ItemsPosted          int64
	MessagesSent         int64
	HistoryDegradations  int64
	CitationDegradations int64

	// Timings
	LastRunDuration  time.Duration
	TotalRunDuration time.Duration
	RunCount         int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) IncrementTopicsProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TopicsProcessed++
}

func (m *Metrics) IncrementTopicsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TopicsFailed++
}

func (m *Metrics) AddItemsPosted(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsPosted += int64(n)
}

func (m *Metrics) IncrementMessagesSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MessagesSent++
}

func (m *Metrics) IncrementHistoryDegradations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HistoryDegradations++
}

func (m *Metrics) IncrementCitationDegradations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CitationDegradations++
}

func (m *Metrics) RecordRunDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunDuration = duration
	m.TotalRunDuration += duration
	m.RunCount++
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"topics_processed":      m.TopicsProcessed,
		"topics_failed":         m.TopicsFailed,
		"items_posted":          m.ItemsPosted,
		"messages_sent":         m.MessagesSent,
		"history_degradations":  m.HistoryDegradations,
		"citation_degradations": m.CitationDegradations,
		"last_run_duration_ms":  m.LastRunDuration.Milliseconds(),
		"last_run_time":         m.LastRunTime.Format(time.RFC3339),
		"last_error_time":       m.LastErrorTime.Format(time.RFC3339),
		"last_error":            m.LastError,
		"is_healthy":            m.IsHealthy,
	}
}
