package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/thrasher-corp/blotter/order"
)

var (
	// ErrNotFound is returned when no checkpoint exists for a run
	ErrNotFound = errors.New("checkpoint not found")

	errEmptyRunID        = errors.New("run id is empty")
	errUnsupportedDriver = errors.New("unsupported sql driver")
	errPolicyMismatch    = errors.New("checkpoint carries policy state but the policy is stateless")
)

// Driver names accepted by OpenSQL
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// DefaultConnectTimeout bounds the connect retry loop of the network stores
const DefaultConnectTimeout = 30 * time.Second

// State is everything needed to resume a run
type State struct {
	RunID        string              `json:"run-id"`
	Time         time.Time           `json:"time"`
	NextID       int64               `json:"next-id"`
	Orders       []order.Order       `json:"orders"`
	Transactions []order.Transaction `json:"transactions"`
	Policy       map[string]int64    `json:"policy,omitempty"`
}

// Store persists and loads checkpoints keyed by run id
type Store interface {
	Save(ctx context.Context, s *State) error
	Load(ctx context.Context, runID string) (*State, error)
	Close() error
}

// FileStore keeps one JSON document per run in a directory
type FileStore struct {
	Dir string
}

// SQLStore keeps checkpoints in sqlite or postgres tables
type SQLStore struct {
	db     *sql.DB
	driver string
	q      *sqlQueries
}

// RedisStore keeps one JSON document per run under a key prefix
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}
