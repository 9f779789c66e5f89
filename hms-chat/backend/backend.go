// Package backend selects and opens the chat message store from flags.
package backend

import (
	"context"
	"fmt"
	"time"

	hmschat "github.com/ahmadijaz02/hms-go-chat/hms-chat"
	"github.com/ahmadijaz02/hms-go-chat/hms-chat/messagedao"
	"github.com/ahmadijaz02/hms-go-chat/hms-chat/mongostore"
	"github.com/ahmadijaz02/hms-go-chat/hms-chat/pgstore"
	"github.com/ahmadijaz02/hms-go-chat/hms-chat/redisstore"
	hmscli "github.com/ahmadijaz02/hms-go-chat/hms-cli"
	hmsddb "github.com/ahmadijaz02/hms-go-chat/hms-ddb"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

const (
	Memory   = "memory"
	DynamoDB = "dynamodb"
	Postgres = "postgres"
	Mongo    = "mongo"
	Redis    = "redis"
)

var StoreOpts struct {
	Backend        string
	PostgresURL    string
	MongoURI       string
	MongoDatabase  string
	RedisURL       string
	RedisKey       string
	Capacity       int
	Retention      time.Duration
	HistoryLimit   int
	ConnectTimeout time.Duration
	Bootstrap      bool
}

var Flags = []cli.Flag{
	hmscli.StringFlag("store-backend", "message store: memory, dynamodb, postgres, mongo or redis", &StoreOpts.Backend, Memory),
	hmscli.StringFlag("postgres-url", "postgres connection url", &StoreOpts.PostgresURL),
	hmscli.StringFlag("mongo-uri", "mongo connection uri", &StoreOpts.MongoURI),
	hmscli.StringFlag("mongo-database", "mongo database name", &StoreOpts.MongoDatabase, "hms_chat"),
	hmscli.StringFlag("redis-url", "redis connection url", &StoreOpts.RedisURL),
	hmscli.StringFlag("redis-key", "redis list holding messages", &StoreOpts.RedisKey, redisstore.DefaultKey),
	hmscli.IntFlag("store-capacity", "messages kept by the memory and redis stores, 0 for the default", &StoreOpts.Capacity),
	hmscli.DurationFlag("store-retention", "dynamodb message ttl, 0 keeps messages forever", &StoreOpts.Retention),
	hmscli.IntFlag("history-limit", "messages returned by GET /messages", &StoreOpts.HistoryLimit, hmschat.DefaultHistoryLimit),
	hmscli.DurationFlag("store-connect-timeout", "timeout for connecting to the store", &StoreOpts.ConnectTimeout, 10*time.Second),
	hmscli.BoolFlag("store-bootstrap", "create tables and indexes on startup", &StoreOpts.Bootstrap, true),
}

// Store is what every backend provides: history reads and writes plus
// search and statistics.
type Store interface {
	hmschat.Store
	hmschat.Searcher
}

// Open returns the store selected by StoreOpts and a function releasing its
// connections.
func Open(ctx context.Context, env string, newSession func() *session.Session) (Store, func(), error) {
	logger := zerolog.Ctx(ctx).With().Str("store", StoreOpts.Backend).Logger()
	noop := func() {}

	connectCtx, cancel := context.WithTimeout(ctx, StoreOpts.ConnectTimeout)
	defer cancel()

	switch StoreOpts.Backend {
	case "", Memory:
		return hmschat.NewMemoryStore(StoreOpts.Capacity), noop, nil

	case DynamoDB:
		api, err := hmsddb.DynamoDBAPI(newSession())
		if err != nil {
			return nil, nil, err
		}
		tableName := messagedao.TableName(env)
		if hmsddb.DDBOpts.TableName != "" {
			tableName = hmsddb.DDBOpts.TableName
		}
		dao := messagedao.New(api, tableName).WithRetention(StoreOpts.Retention)
		if StoreOpts.Bootstrap {
			if err := dao.CreateTableIfNotExists(connectCtx); err != nil {
				return nil, nil, fmt.Errorf("unable to create table %v: %w", tableName, err)
			}
		}
		logger.Info().Str("table", tableName).Msg("using dynamodb message store")
		return dao, noop, nil

	case Postgres:
		pool, err := pgstore.Connect(connectCtx, StoreOpts.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		store := pgstore.New(pool)
		if StoreOpts.Bootstrap {
			if err := store.InitTable(connectCtx); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		logger.Info().Msg("using postgres message store")
		return store, pool.Close, nil

	case Mongo:
		client, err := mongostore.Connect(ctx, StoreOpts.MongoURI, StoreOpts.ConnectTimeout)
		if err != nil {
			return nil, nil, err
		}
		store := mongostore.New(client.Database(StoreOpts.MongoDatabase))
		if StoreOpts.Bootstrap {
			if err := store.EnsureIndexes(connectCtx); err != nil {
				_ = client.Disconnect(context.Background())
				return nil, nil, err
			}
		}
		logger.Info().Str("database", StoreOpts.MongoDatabase).Msg("using mongo message store")
		return store, func() { _ = client.Disconnect(context.Background()) }, nil

	case Redis:
		rdb, err := redisstore.Connect(connectCtx, StoreOpts.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("key", StoreOpts.RedisKey).Msg("using redis message store")
		return redisstore.New(rdb, StoreOpts.RedisKey, StoreOpts.Capacity), func() { _ = rdb.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", StoreOpts.Backend)
	}
}
