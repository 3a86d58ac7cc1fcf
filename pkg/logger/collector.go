package logger

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

type CollectionConfig struct {
	MaxEntries int // max unique entries retained (oldest evicted first)
}

// AggregatedLogEntry groups repeated warn/error logs by (level, message,
// fields, caller) so the /api/logs view stays readable under repetition.
type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogCollector keeps an in-memory aggregate of recent warn/error entries.
type LogCollector struct {
	config CollectionConfig
	logMap map[string]*AggregatedLogEntry
	mutex  sync.RWMutex
}

func NewLogCollector(cfg *CollectionConfig) *LogCollector {
	c := CollectionConfig{MaxEntries: 200}
	if cfg != nil && cfg.MaxEntries > 0 {
		c.MaxEntries = cfg.MaxEntries
	}
	return &LogCollector{
		config: c,
		logMap: make(map[string]*AggregatedLogEntry),
	}
}

func (d *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := hashEntry(level, message, fields, caller)

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if e, ok := d.logMap[key]; ok {
		e.Count++
		e.LastSeen = now
		return
	}

	if len(d.logMap) >= d.config.MaxEntries {
		d.evictOldest()
	}

	d.logMap[key] = &AggregatedLogEntry{
		Level:     level,
		Message:   message,
		Fields:    fields,
		Caller:    caller,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	}
}

// Snapshot returns the aggregated entries, most recent first.
func (d *LogCollector) Snapshot() []AggregatedLogEntry {
	d.mutex.RLock()
	out := make([]AggregatedLogEntry, 0, len(d.logMap))
	for _, e := range d.logMap {
		out = append(out, *e)
	}
	d.mutex.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen.After(out[j].LastSeen) })
	return out
}

func (d *LogCollector) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, e := range d.logMap {
		if oldestKey == "" || e.LastSeen.Before(oldest) {
			oldestKey = key
			oldest = e.LastSeen
		}
	}
	if oldestKey != "" {
		delete(d.logMap, oldestKey)
	}
}

func hashEntry(level, message string, fields map[string]interface{}, caller string) string {
	b, _ := json.Marshal(fields)
	sum := sha256.Sum256([]byte(level + "|" + message + "|" + string(b) + "|" + caller))
	return fmt.Sprintf("%x", sum[:8])
}
