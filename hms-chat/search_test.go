package hmschat

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tj/assert"
)

func TestSearchMessages(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var messages []ChatMessage
	for i := 0; i < 60; i++ {
		content := fmt.Sprintf("note %v", i)
		if i%2 == 0 {
			content = fmt.Sprintf("Blood Pressure reading %v", i)
		}
		messages = append(messages, ChatMessage{Content: content, Timestamp: start.Add(time.Duration(i) * time.Minute)})
	}

	t.Run("newest first, case ignored", func(t *testing.T) {
		got := SearchMessages(messages, "blood pressure", 3)
		assert.Len(t, got, 3)
		assert.Equal(t, "Blood Pressure reading 58", got[0].Content)
		assert.Equal(t, "Blood Pressure reading 54", got[2].Content)
	})

	t.Run("default limit", func(t *testing.T) {
		got := SearchMessages(messages, "e", 0)
		assert.Len(t, got, DefaultSearchLimit)
	})

	t.Run("no match", func(t *testing.T) {
		got := SearchMessages(messages, "x-ray", 0)
		assert.NotNil(t, got)
		assert.Len(t, got, 0)
	})
}

func TestSummarize(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2024, 5, d, h, 0, 0, 0, time.UTC) }

	t.Run("counts", func(t *testing.T) {
		stats := Summarize([]ChatMessage{
			{SenderType: RoleDoctor, Timestamp: day(1, 9)},
			{SenderType: RolePatient, Timestamp: day(2, 9)},
			{SenderType: RolePatient, Timestamp: day(2, 23)},
			{Timestamp: day(3, 1)},
		})
		assert.Equal(t, 4, stats.TotalMessages)
		assert.Equal(t, 1, stats.ByType.Doctor)
		assert.Equal(t, 2, stats.ByType.Patient)
		assert.Equal(t, &DayCount{Date: "2024-05-02", Count: 2}, stats.MostActiveDay)
	})

	t.Run("tie goes to the later day", func(t *testing.T) {
		stats := Summarize([]ChatMessage{{Timestamp: day(1, 9)}, {Timestamp: day(4, 9)}})
		assert.Equal(t, "2024-05-04", stats.MostActiveDay.Date)
	})

	t.Run("days are utc", func(t *testing.T) {
		local := time.FixedZone("PKT", 5*60*60)
		stats := Summarize([]ChatMessage{{Timestamp: time.Date(2024, 5, 2, 2, 0, 0, 0, local)}})
		assert.Equal(t, "2024-05-01", stats.MostActiveDay.Date)
	})

	t.Run("empty", func(t *testing.T) {
		stats := Summarize(nil)
		assert.Equal(t, 0, stats.TotalMessages)
		assert.Nil(t, stats.MostActiveDay)
	})
}

func TestMemoryStoreSearch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	assert.NoError(t, store.Append(ctx, ChatMessage{Sender: "d1", SenderType: RoleDoctor, Content: "Take the tablets"}))
	assert.NoError(t, store.Append(ctx, ChatMessage{Sender: "p1", SenderType: RolePatient, Content: "which tablets?"}))
	assert.NoError(t, store.Append(ctx, ChatMessage{Sender: "p1", SenderType: RolePatient, Content: "thanks"}))

	got, err := store.Search(ctx, "TABLETS", 0)
	assert.NoError(t, err)
	assert.Len(t, got, 2)

	stats, err := store.Stats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 3, stats.TotalMessages)
	assert.Equal(t, TypeCounts{Doctor: 1, Patient: 2}, stats.ByType)
	assert.Equal(t, 3, stats.MostActiveDay.Count)
}
