package ports

import (
	"context"
	"encoding/json"
	"strconv"
)

// Attribute names shared by every backend.
const (
	AttrPK        = "PK"
	AttrSK        = "SK"
	AttrGSI1PK    = "GSI1PK"
	AttrGSI1SK    = "GSI1SK"
	AttrID        = "id"
	AttrProjectID = "projectId"
	AttrTenantID  = "tenantId"
	AttrCreatedAt = "createdAt"
	AttrUpdatedAt = "updatedAt"
	AttrVersion   = "version"

	// IndexGSI1 is the only secondary index of the table.
	IndexGSI1 = "GSI1"
)

// Immutable lists the attributes UpdateItem never writes through Set.
var Immutable = []string{AttrPK, AttrSK, AttrID, AttrProjectID, AttrTenantID, AttrCreatedAt, AttrVersion}

// Key is the primary key of one item.
type Key struct {
	PK string
	SK string
}

// Item is a raw table row: domain attributes plus PK/SK/GSI1 attributes.
// Values are JSON-like: string, bool, float64, []any and map[string]any.
type Item map[string]any

func (i Item) Key() Key {
	return Key{PK: i.String(AttrPK), SK: i.String(AttrSK)}
}

// String returns the string attribute name, or "".
func (i Item) String(name string) string {
	s, _ := i[name].(string)
	return s
}

// Int64 returns the numeric attribute name, or 0. Backends disagree on the
// concrete number type, so every common representation is accepted.
func (i Item) Int64(name string) int64 {
	switch v := i[name].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

// QueryInput selects items of one partition. At most one of SKPrefix and the
// SKFrom/SKTo range applies; an empty SKTo leaves the range open-ended.
type QueryInput struct {
	PK         string
	SKPrefix   string
	SKFrom     string
	SKTo       string
	Limit      int
	Descending bool
}

// PutOptions tunes PutItem.
type PutOptions struct {
	// IfNotExists makes the put fail with ErrAlreadyExists when the key is taken.
	IfNotExists bool
}

// UpdateInput is a partial update. Attributes in Set are written, attributes
// in Remove are deleted, everything else is left untouched.
type UpdateInput struct {
	Set    map[string]any
	Remove []string
	// ExpectedVersion, when positive, makes the update conditional on the
	// stored version. A mismatch fails with ErrConflict.
	ExpectedVersion int64
}

// Store is the key-value capability every entity service is built on.
//
// GetItem returns a nil item and a nil error when the key is absent.
// UpdateItem requires the item to exist, increments its version, stamps
// updatedAt unless the caller set it, and returns the full new item.
// DeleteItem is idempotent. Query and QueryIndex return items in sort-key
// order; QueryIndex only sees items carrying both GSI1 attributes.
type Store interface {
	GetItem(ctx context.Context, key Key) (Item, error)
	PutItem(ctx context.Context, item Item, opts PutOptions) error
	UpdateItem(ctx context.Context, key Key, in UpdateInput) (Item, error)
	DeleteItem(ctx context.Context, key Key) error
	Query(ctx context.Context, in QueryInput) ([]Item, error)
	QueryIndex(ctx context.Context, index string, in QueryInput) ([]Item, error)
}

// HealthChecker is implemented by stores backed by a remote service.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// IdempotencyStore remembers which entity a client-supplied idempotency key
// produced.
type IdempotencyStore interface {
	// Claim binds key to value unless key is already bound, in which case it
	// returns the existing value and claimed=false.
	Claim(ctx context.Context, key, value string) (existing string, claimed bool, err error)
	// Release forgets key so a failed request can be retried.
	Release(ctx context.Context, key string) error
}
