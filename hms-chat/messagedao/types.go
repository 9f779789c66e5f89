package messagedao

import (
	"fmt"
	"time"

	hmschat "github.com/ahmadijaz02/hms-go-chat/hms-chat"
)

// Record is a chat message stored in DynamoDB. All messages of a channel
// share a partition; the sort key orders them by time.
type Record struct {
	Channel    string `dynamodbav:"pk" ddb:"hash"`
	SortKey    string `dynamodbav:"sk" ddb:"range"`
	ID         string `dynamodbav:"id"`
	Sender     string `dynamodbav:"sender"`
	SenderName string `dynamodbav:"sender_name"`
	SenderType string `dynamodbav:"sender_type"`
	Content    string `dynamodbav:"content"`
	Timestamp  int64  `dynamodbav:"ts"`
	TTL        int64  `dynamodbav:"ttl,omitempty"`
}

func sortKey(ts time.Time, id string) string {
	return fmt.Sprintf("%020d#%v", ts.UnixNano(), id)
}

func toRecord(channel string, m hmschat.ChatMessage, retention time.Duration) Record {
	r := Record{
		Channel:    channel,
		SortKey:    sortKey(m.Timestamp, m.ID),
		ID:         m.ID,
		Sender:     m.Sender,
		SenderName: m.SenderName,
		SenderType: string(m.SenderType),
		Content:    m.Content,
		Timestamp:  m.Timestamp.UnixMilli(),
	}
	if retention > 0 {
		r.TTL = m.Timestamp.Add(retention).Unix()
	}
	return r
}

func (r Record) Message() hmschat.ChatMessage {
	return hmschat.ChatMessage{
		ID:         r.ID,
		Sender:     r.Sender,
		SenderName: r.SenderName,
		SenderType: hmschat.Role(r.SenderType),
		Content:    r.Content,
		Timestamp:  time.UnixMilli(r.Timestamp).UTC(),
	}
}
