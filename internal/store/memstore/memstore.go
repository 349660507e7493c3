// Package memstore is an in-memory store backend with the same optimistic
// transaction contract as the Firestore backend: snapshot-isolated reads,
// buffered writes validated on commit, and transaction bodies re-invoked on
// conflict. It backs tests and local development.
package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"beckon/internal/store"
)

const maxAttempts = 5

type document struct {
	data    map[string]interface{}
	version int64
}

type Store struct {
	mu sync.Mutex
	// docs is keyed by "<collection>/<id>".
	docs map[string]*document
	// collVersions guards queries against phantom inserts.
	collVersions map[string]int64
}

func New() *Store {
	return &Store{
		docs:         make(map[string]*document),
		collVersions: make(map[string]int64),
	}
}

func key(collection, id string) string { return collection + "/" + id }

func (s *Store) Get(ctx context.Context, collection, id string) (store.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(collection, id), nil
}

func (s *Store) Query(ctx context.Context, collection string, filters ...store.Filter) ([]store.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryLocked(collection, filters), nil
}

func (s *Store) NewID(collection string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}

func (s *Store) RunTransaction(ctx context.Context, body func(tx store.Tx) error) error {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		tx := &transaction{
			s:         s,
			readDocs:  make(map[string]int64),
			readColls: make(map[string]int64),
		}
		if err := body(tx); err != nil {
			return err
		}
		ok, err := s.commit(tx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return store.ErrContention
}

func (s *Store) commit(tx *transaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range tx.readDocs {
		cur := int64(0)
		if d, ok := s.docs[k]; ok {
			cur = d.version
		}
		if cur != v {
			return false, nil
		}
	}
	for c, v := range tx.readColls {
		if s.collVersions[c] != v {
			return false, nil
		}
	}
	now := time.Now()
	for _, w := range tx.writes {
		if err := s.applyLocked(w, now); err != nil {
			return false, err
		}
	}
	return true, nil
}

type writeOp struct {
	kind       string // "set", "merge", "update"
	collection string
	id         string
	data       map[string]interface{}
}

func (s *Store) applyLocked(w writeOp, now time.Time) error {
	k := key(w.collection, w.id)
	cur, exists := s.docs[k]
	if w.kind == "update" && !exists {
		return fmt.Errorf("memstore: update of missing document %s", k)
	}
	next := &document{data: make(map[string]interface{})}
	if exists {
		next.version = cur.version
		if w.kind != "set" {
			next.data = deepCopy(cur.data)
		}
	}
	for f, v := range resolveValues(w.data, next.data, now) {
		next.data[f] = v
	}
	next.version++
	if !exists {
		s.collVersions[w.collection]++
	}
	s.docs[k] = next
	return nil
}

// resolveValues materializes write sentinels against the current field values.
func resolveValues(in map[string]interface{}, current map[string]interface{}, now time.Time) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for f, v := range in {
		out[f] = store.ResolveSentinel(v, current[f], now)
	}
	return out
}

func (s *Store) snapshotLocked(collection, id string) *snapshot {
	d, ok := s.docs[key(collection, id)]
	if !ok {
		return &snapshot{id: id}
	}
	return &snapshot{id: id, exists: true, data: deepCopy(d.data)}
}

func (s *Store) queryLocked(collection string, filters []store.Filter) []store.Snapshot {
	var out []store.Snapshot
	prefix := collection + "/"
	for k, d := range s.docs {
		if !strings.HasPrefix(k, prefix) || strings.Contains(k[len(prefix):], "/") {
			continue
		}
		if !matches(d.data, filters) {
			continue
		}
		out = append(out, &snapshot{id: k[len(prefix):], exists: true, data: deepCopy(d.data)})
	}
	return out
}

func matches(data map[string]interface{}, filters []store.Filter) bool {
	for _, f := range filters {
		if f.Op != "==" {
			return false
		}
		if data[f.Field] != f.Value {
			return false
		}
	}
	return true
}

type transaction struct {
	s         *Store
	readDocs  map[string]int64
	readColls map[string]int64
	writes    []writeOp
	wrote     bool
}

func (t *transaction) Get(collection, id string) (store.Snapshot, error) {
	if t.wrote {
		return nil, fmt.Errorf("memstore: read after write in transaction")
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	k := key(collection, id)
	if d, ok := t.s.docs[k]; ok {
		t.readDocs[k] = d.version
	} else {
		t.readDocs[k] = 0
	}
	return t.s.snapshotLocked(collection, id), nil
}

func (t *transaction) Query(collection string, filters ...store.Filter) ([]store.Snapshot, error) {
	if t.wrote {
		return nil, fmt.Errorf("memstore: read after write in transaction")
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.readColls[collection] = t.s.collVersions[collection]
	snaps := t.s.queryLocked(collection, filters)
	for _, sn := range snaps {
		k := key(collection, sn.ID())
		t.readDocs[k] = t.s.docs[k].version
	}
	return snaps, nil
}

func (t *transaction) Set(collection, id string, data map[string]interface{}) error {
	t.wrote = true
	t.writes = append(t.writes, writeOp{kind: "set", collection: collection, id: id, data: deepCopy(data)})
	return nil
}

func (t *transaction) Merge(collection, id string, data map[string]interface{}) error {
	t.wrote = true
	t.writes = append(t.writes, writeOp{kind: "merge", collection: collection, id: id, data: deepCopy(data)})
	return nil
}

func (t *transaction) Update(collection, id string, fields map[string]interface{}) error {
	t.wrote = true
	t.writes = append(t.writes, writeOp{kind: "update", collection: collection, id: id, data: deepCopy(fields)})
	return nil
}

func deepCopy(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		switch tv := v.(type) {
		case map[string]interface{}:
			out[k] = deepCopy(tv)
		case []string:
			out[k] = append([]string(nil), tv...)
		case []interface{}:
			out[k] = append([]interface{}(nil), tv...)
		default:
			out[k] = v
		}
	}
	return out
}
