package client

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHistory_NewestFirst(t *testing.T) {
	h := NewHistory()
	assert.Empty(t, h.List())

	h.Add(DownloadRecord{ID: "1"})
	h.Add(DownloadRecord{ID: "2"})

	list := h.List()
	assert.Equal(t, []string{"2", "1"}, ids(list))
}

func TestHistory_EvictsOldest(t *testing.T) {
	h := NewHistory()
	for i := 1; i <= 6; i++ {
		h.Add(DownloadRecord{ID: fmt.Sprint(i)})
	}

	assert.Equal(t, HistoryCapacity, h.Len())
	assert.Equal(t, []string{"6", "5", "4", "3", "2"}, ids(h.List()))

	for i := 7; i <= 12; i++ {
		h.Add(DownloadRecord{ID: fmt.Sprint(i)})
	}
	assert.Equal(t, []string{"12", "11", "10", "9", "8"}, ids(h.List()))
}

func TestHistory_Clear(t *testing.T) {
	h := NewHistory()
	h.Add(DownloadRecord{ID: "1"})
	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.List())
}

func TestNewDownloadRecord(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	rec := NewDownloadRecord("Clip", "YouTube", "720p", now)

	assert.Equal(t, fmt.Sprint(now.UnixMilli()), rec.ID)
	assert.Equal(t, "Mar 9, 2024 2:05 PM", rec.Timestamp)
	assert.Equal(t, "Clip", rec.Title)
	assert.Equal(t, "YouTube", rec.Platform)
	assert.Equal(t, "720p", rec.Format)
}

func ids(records []DownloadRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
