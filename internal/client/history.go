package client

import (
	"strconv"
	"sync"
	"time"
)

// HistoryCapacity is the number of downloads a session remembers
const HistoryCapacity = 5

// DownloadRecord is one completed download
type DownloadRecord struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Platform  string `json:"platform"`
	Timestamp string `json:"timestamp"`
	Format    string `json:"format"`
}

// NewDownloadRecord stamps a record with the current time
func NewDownloadRecord(title, platform, format string, now time.Time) DownloadRecord {
	return DownloadRecord{
		ID:        strconv.FormatInt(now.UnixMilli(), 10),
		Title:     title,
		Platform:  platform,
		Timestamp: now.Format("Jan 2, 2006 3:04 PM"),
		Format:    format,
	}
}

// History is a fixed-size ring of recent downloads. Adding to a full ring
// evicts the oldest record.
type History struct {
	mu      sync.Mutex
	records [HistoryCapacity]DownloadRecord
	next    int
	count   int
}

func NewHistory() *History {
	return &History{}
}

// Add pushes rec to the front
func (h *History) Add(rec DownloadRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records[h.next] = rec
	h.next = (h.next + 1) % HistoryCapacity
	if h.count < HistoryCapacity {
		h.count++
	}
}

// List returns the records, newest first
func (h *History) List() []DownloadRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]DownloadRecord, 0, h.count)
	for i := 1; i <= h.count; i++ {
		idx := (h.next - i + HistoryCapacity) % HistoryCapacity
		out = append(out, h.records[idx])
	}
	return out
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Clear forgets every record
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = [HistoryCapacity]DownloadRecord{}
	h.next = 0
	h.count = 0
}
