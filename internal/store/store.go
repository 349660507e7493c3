// Package store defines the transactional document store contract the
// lifecycle engine is written against. Backends must provide atomic,
// snapshot-isolated transactions with validation on commit; the transaction
// body may be invoked more than once on contention, so callers keep bodies
// free of external side effects.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrContention is returned by RunTransaction when optimistic retries are
// exhausted. Callers surface it as an external-service failure.
var ErrContention = errors.New("store: transaction contention")

// ServerTimestamp is a write value resolved to the commit time by the
// backend, never to client wall-clock time.
var ServerTimestamp = serverTimestamp{}

type serverTimestamp struct{}

// ArrayUnion is a write value that unions elems into an existing array
// field without duplicating entries already present.
func ArrayUnion(elems ...interface{}) interface{} {
	return arrayUnion{Elems: elems}
}

type arrayUnion struct{ Elems []interface{} }

// IsServerTimestamp reports whether v is the ServerTimestamp sentinel, for
// backends that translate it to a native marker.
func IsServerTimestamp(v interface{}) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// ArrayUnionElems unpacks an ArrayUnion sentinel, if v is one.
func ArrayUnionElems(v interface{}) ([]interface{}, bool) {
	au, ok := v.(arrayUnion)
	if !ok {
		return nil, false
	}
	return au.Elems, true
}

// ResolveSentinel materializes sentinel write values for backends without
// native support. current is the field's existing value, now the commit time.
func ResolveSentinel(v, current interface{}, now time.Time) interface{} {
	switch tv := v.(type) {
	case serverTimestamp:
		return now
	case arrayUnion:
		return unionInto(current, tv.Elems)
	default:
		return v
	}
}

func unionInto(current interface{}, elems []interface{}) interface{} {
	var out []interface{}
	switch cur := current.(type) {
	case []interface{}:
		out = append(out, cur...)
	case []string:
		for _, s := range cur {
			out = append(out, s)
		}
	}
	for _, e := range elems {
		dup := false
		for _, existing := range out {
			if existing == e {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	return out
}

// Filter is a single field comparison for Query. Only the operators the
// engine needs are required of a backend: "==".
type Filter struct {
	Field string
	Op    string
	Value interface{}
}

func Where(field, op string, value interface{}) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Snapshot is one read document. DataTo decodes into a schema struct using
// `firestore` tags and fails on malformed documents.
type Snapshot interface {
	Exists() bool
	ID() string
	DataTo(v interface{}) error
}

// Tx is the handle passed to a transaction body. Reads observe a consistent
// snapshot; writes are buffered and applied atomically at commit.
type Tx interface {
	Get(collection, id string) (Snapshot, error)
	Query(collection string, filters ...Filter) ([]Snapshot, error)
	// Set replaces the document.
	Set(collection, id string, data map[string]interface{}) error
	// Merge upserts only the given fields, creating the document if absent.
	Merge(collection, id string, data map[string]interface{}) error
	// Update modifies fields of an existing document; the commit fails if
	// the document does not exist.
	Update(collection, id string, fields map[string]interface{}) error
}

// Store is the document store. Collection arguments are slash-separated
// paths, e.g. "requests" or "requests/<id>/deliveries".
type Store interface {
	Get(ctx context.Context, collection, id string) (Snapshot, error)
	Query(ctx context.Context, collection string, filters ...Filter) ([]Snapshot, error)
	// NewID mints a fresh document id for the collection.
	NewID(collection string) string
	// RunTransaction executes body atomically. The body may run multiple
	// times; a non-nil body error aborts the transaction and is returned
	// unchanged.
	RunTransaction(ctx context.Context, body func(tx Tx) error) error
}
