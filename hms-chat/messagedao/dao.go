package messagedao

import (
	"context"
	"fmt"
	"time"

	hmschat "github.com/ahmadijaz02/hms-go-chat/hms-chat"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/savaki/ddb"
)

var _ hmschat.Searcher = (*DAO)(nil)

// DAO provides access to the chat messages table.
type DAO struct {
	table     *ddb.Table
	api       dynamodbiface.DynamoDBAPI
	tableName string
	channel   string
	retention time.Duration
}

// New creates a new messages DAO.
func New(api dynamodbiface.DynamoDBAPI, tableName string) *DAO {
	return &DAO{
		table:     ddb.New(api).MustTable(tableName, Record{}),
		api:       api,
		tableName: tableName,
		channel:   DefaultChannel,
	}
}

// WithRetention expires stored messages after d using the table's ttl
// attribute.
func (d *DAO) WithRetention(retention time.Duration) *DAO {
	d.retention = retention
	return d
}

// CreateTableIfNotExists bootstraps the table, used for local development.
func (d *DAO) CreateTableIfNotExists(ctx context.Context) error {
	return d.table.CreateTableIfNotExists(ctx)
}

// Append stores a message.
func (d *DAO) Append(ctx context.Context, message hmschat.ChatMessage) error {
	message = hmschat.Prepare(message, time.Now())
	if err := d.table.Put(toRecord(d.channel, message, d.retention)).RunWithContext(ctx); err != nil {
		return fmt.Errorf("failed to put message %v: %w", message.ID, err)
	}
	return nil
}

// ListChronological reads the newest messages of the channel and returns
// them oldest first.
func (d *DAO) ListChronological(ctx context.Context, limit int) ([]hmschat.ChatMessage, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(d.tableName),
		KeyConditionExpression: aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":pk": {S: aws.String(d.channel)},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int64(int64(hmschat.Limit(limit))),
	}

	output, err := d.api.QueryWithContext(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages for channel %v: %w", d.channel, err)
	}

	var records []Record
	if err := dynamodbattribute.UnmarshalListOfMaps(output.Items, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}

	messages := make([]hmschat.ChatMessage, 0, len(records))
	for _, r := range records {
		messages = append(messages, r.Message())
	}
	return hmschat.Reverse(messages), nil
}

// Search pages through the channel newest first until limit messages
// match.
func (d *DAO) Search(ctx context.Context, query string, limit int) ([]hmschat.ChatMessage, error) {
	limit = hmschat.SearchLimit(limit)
	matches := []hmschat.ChatMessage{}
	err := d.each(ctx, func(r Record) bool {
		if hmschat.Matches(r.Content, query) {
			matches = append(matches, r.Message())
		}
		return len(matches) < limit
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// Stats reads the whole channel.
func (d *DAO) Stats(ctx context.Context) (hmschat.Statistics, error) {
	var tally hmschat.Tally
	err := d.each(ctx, func(r Record) bool {
		tally.Add(r.Message())
		return true
	})
	if err != nil {
		return hmschat.Statistics{}, err
	}
	return tally.Statistics(), nil
}

// each calls fn for every record of the channel, newest first, until fn
// returns false.
func (d *DAO) each(ctx context.Context, fn func(r Record) bool) error {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(d.tableName),
		KeyConditionExpression: aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":pk": {S: aws.String(d.channel)},
		},
		ScanIndexForward: aws.Bool(false),
	}

	var decodeErr error
	err := d.api.QueryPagesWithContext(ctx, input, func(page *dynamodb.QueryOutput, _ bool) bool {
		var records []Record
		if decodeErr = dynamodbattribute.UnmarshalListOfMaps(page.Items, &records); decodeErr != nil {
			return false
		}
		for _, r := range records {
			if !fn(r) {
				return false
			}
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("failed to query messages for channel %v: %w", d.channel, err)
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to unmarshal messages: %w", decodeErr)
	}
	return nil
}
