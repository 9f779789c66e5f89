package hmsreport

import (
	"context"
	"sort"
	"time"

	hmschat "github.com/ahmadijaz02/hms-go-chat/hms-chat"
)

type Participant struct {
	Sender     string       `json:"sender"`
	SenderName string       `json:"senderName,omitempty"`
	SenderType hmschat.Role `json:"senderType,omitempty"`
	Messages   int          `json:"messages"`
}

type Transcript struct {
	GeneratedAt  time.Time             `json:"generatedAt"`
	From         *time.Time            `json:"from,omitempty"`
	To           *time.Time            `json:"to,omitempty"`
	Participants []Participant         `json:"participants"`
	Messages     []hmschat.ChatMessage `json:"messages"`
}

// NewTranscript summarizes messages, which must be oldest first.
func NewTranscript(messages []hmschat.ChatMessage, now time.Time) Transcript {
	t := Transcript{
		GeneratedAt:  now,
		Participants: []Participant{},
		Messages:     messages,
	}
	if t.Messages == nil {
		t.Messages = []hmschat.ChatMessage{}
	}
	if len(messages) == 0 {
		return t
	}

	from, to := messages[0].Timestamp, messages[len(messages)-1].Timestamp
	t.From, t.To = &from, &to

	index := map[string]int{}
	for _, m := range messages {
		i, ok := index[m.Sender]
		if !ok {
			i = len(t.Participants)
			index[m.Sender] = i
			t.Participants = append(t.Participants, Participant{Sender: m.Sender})
		}
		p := &t.Participants[i]
		p.Messages++
		if m.SenderName != "" {
			p.SenderName = m.SenderName
		}
		if m.SenderType != "" {
			p.SenderType = m.SenderType
		}
	}
	sort.SliceStable(t.Participants, func(i, j int) bool {
		return t.Participants[i].Sender < t.Participants[j].Sender
	})
	return t
}

// TranscriptGenerator reports the latest limit messages of store.
func TranscriptGenerator(store hmschat.Store, limit int) GenerateCallback {
	return func(ctx context.Context) (interface{}, error) {
		messages, err := store.ListChronological(ctx, limit)
		if err != nil {
			return nil, err
		}
		return NewTranscript(messages, time.Now().UTC()), nil
	}
}
