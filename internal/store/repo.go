package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/zonedash/internal/record"
)

// ErrNotFound is returned by KVRepo.Get for a missing key.
var ErrNotFound = errors.New("store: not found")

// Keys used for the persisted session.
const (
	KeyAuthToken   = "authToken"
	KeyCurrentUser = "currentUser"
)

// KVRepo is a string key-value table.
type KVRepo interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set inserts or replaces the value for key.
	Set(ctx context.Context, key, value string) error

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// Snapshot is the raw dataset of one successful dashboard load.
type Snapshot struct {
	ID        string
	Sequence  int64
	UserID    int
	Timestamp time.Time
	Data      record.Dataset
}

// SnapshotRepo manages raw dataset snapshots.
type SnapshotRepo interface {
	// Save stores a new snapshot. ID, Sequence and Timestamp are filled in
	// when zero.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the most recent snapshot for userID, or nil if none
	// exist. A zero userID matches any user.
	Latest(ctx context.Context, userID int) (*Snapshot, error)

	// Prune deletes all but the N most recent snapshots.
	Prune(ctx context.Context, keep int) error
}

// LoadEventData captures the outcome of one dashboard load.
type LoadEventData struct {
	UserID       int
	Generation   uint64
	Success      bool
	Stale        bool
	DurationMs   int64
	Dropped      int
	ErrorMessage string
}

// LoadEvent is a stored LoadEventData with its ordering fields.
type LoadEvent struct {
	LoadEventData
	ID        string
	Sequence  int64
	Timestamp time.Time
}

// EventRepo provides append and query access to the load log.
type EventRepo interface {
	// AppendLoad records a dashboard load event.
	AppendLoad(ctx context.Context, data LoadEventData) error

	// QueryLoads returns load events newest first.
	QueryLoads(ctx context.Context, opts QueryOpts) ([]LoadEvent, error)
}
