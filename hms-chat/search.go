package hmschat

import (
	"context"
	"sort"
	"strings"
)

// DefaultSearchLimit caps search results.
const DefaultSearchLimit = 50

// DayLayout formats the day buckets reported in Statistics.
const DayLayout = "2006-01-02"

// Searcher is implemented by stores that can search message content and
// summarize what they hold.
type Searcher interface {
	// Search returns up to limit messages whose content contains query,
	// ignoring case, newest first. A limit <= 0 means DefaultSearchLimit.
	Search(ctx context.Context, query string, limit int) ([]ChatMessage, error)
	// Stats counts the stored messages.
	Stats(ctx context.Context) (Statistics, error)
}

type Statistics struct {
	TotalMessages int        `json:"totalMessages"`
	ByType        TypeCounts `json:"byType"`
	MostActiveDay *DayCount  `json:"mostActiveDay"`
}

type TypeCounts struct {
	Doctor  int `json:"doctor"`
	Patient int `json:"patient"`
}

// DayCount is the number of messages sent on a UTC calendar day.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

func SearchLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	return limit
}

// Matches reports whether content contains query, ignoring case.
func Matches(content, query string) bool {
	return strings.Contains(strings.ToLower(content), strings.ToLower(query))
}

// SearchMessages filters chronological messages and returns the newest
// limit matches first.
func SearchMessages(messages []ChatMessage, query string, limit int) []ChatMessage {
	matches := []ChatMessage{}
	for i := len(messages) - 1; i >= 0; i-- {
		if Matches(messages[i].Content, query) {
			matches = append(matches, messages[i])
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Timestamp.After(matches[j].Timestamp)
	})
	if limit = SearchLimit(limit); len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Tally accumulates Statistics one message at a time.
type Tally struct {
	stats Statistics
	days  map[string]int
}

func (t *Tally) Add(m ChatMessage) {
	t.stats.TotalMessages++
	switch m.SenderType {
	case RoleDoctor:
		t.stats.ByType.Doctor++
	case RolePatient:
		t.stats.ByType.Patient++
	}
	if t.days == nil {
		t.days = map[string]int{}
	}
	t.days[m.Timestamp.UTC().Format(DayLayout)]++
}

// Statistics returns the totals so far. Ties for the most active day go to
// the later day.
func (t *Tally) Statistics() Statistics {
	stats := t.stats
	for day, count := range t.days {
		best := stats.MostActiveDay
		if best == nil || count > best.Count || (count == best.Count && day > best.Date) {
			stats.MostActiveDay = &DayCount{Date: day, Count: count}
		}
	}
	return stats
}

// Summarize computes Statistics over messages.
func Summarize(messages []ChatMessage) Statistics {
	var t Tally
	for _, m := range messages {
		t.Add(m)
	}
	return t.Statistics()
}
