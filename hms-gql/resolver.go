package hmsgql

import (
	"context"
	_ "embed"

	hmschat "github.com/ahmadijaz02/hms-go-chat/hms-chat"
	hmsws "github.com/ahmadijaz02/hms-go-chat/hms-ws"
	"github.com/graph-gophers/graphql-go"
)

//go:embed schema.gql
var schema string

// ChatResolver answers the chat schema. A nil registry reports nobody
// online, as in the standalone history service.
type ChatResolver struct {
	store    hmschat.Store
	registry *hmsws.Registry
	limit    int
}

func NewResolver(store hmschat.Store, registry *hmsws.Registry, limit int) *ChatResolver {
	return &ChatResolver{
		store:    store,
		registry: registry,
		limit:    hmschat.Limit(limit),
	}
}

func (r *ChatResolver) Schema() string {
	return schema
}

func (r *ChatResolver) Messages(ctx context.Context, args struct{ Limit *int32 }) ([]*MessageResolver, error) {
	limit := r.limit
	if args.Limit != nil && *args.Limit > 0 && int(*args.Limit) < limit {
		limit = int(*args.Limit)
	}

	messages, err := r.store.ListChronological(ctx, limit)
	if err != nil {
		return nil, err
	}
	resolvers := make([]*MessageResolver, 0, len(messages))
	for _, m := range messages {
		resolvers = append(resolvers, &MessageResolver{message: m})
	}
	return resolvers, nil
}

func (r *ChatResolver) OnlineUsers() ([]*UserResolver, error) {
	if r.registry == nil {
		return []*UserResolver{}, nil
	}
	users := r.registry.SnapshotOnlineUsers()
	resolvers := make([]*UserResolver, 0, len(users))
	for _, u := range users {
		resolvers = append(resolvers, &UserResolver{record: u})
	}
	return resolvers, nil
}

type MessageResolver struct {
	message hmschat.ChatMessage
}

func (m *MessageResolver) ID() graphql.ID     { return graphql.ID(m.message.ID) }
func (m *MessageResolver) Sender() graphql.ID { return graphql.ID(m.message.Sender) }
func (m *MessageResolver) Content() string    { return m.message.Content }

func (m *MessageResolver) SenderName() *string {
	return optional(m.message.SenderName)
}

func (m *MessageResolver) SenderType() *string {
	return optional(string(m.message.SenderType))
}

func (m *MessageResolver) Timestamp() graphql.Time {
	return graphql.Time{Time: m.message.Timestamp}
}

type UserResolver struct {
	record hmsws.PresenceRecord
}

func (u *UserResolver) ID() graphql.ID { return graphql.ID(u.record.UserID) }
func (u *UserResolver) Name() *string  { return optional(u.record.Name()) }
func (u *UserResolver) Role() *string  { return optional(string(u.record.Role())) }

func (u *UserResolver) Presence() (JSON, error) {
	raw, err := u.record.MarshalJSON()
	if err != nil {
		return JSON{}, err
	}
	return FromRaw(raw)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
