package memory

import (
	"github.com/google/uuid"
)

// rows is one in-memory table keyed by K. refs reads the parent id out of a
// foreign key column; unset clears a nullable one. Association tables have no
// primary key of their own and leave toPK/fromPK nil.
//
// A clone shares data with its source until its first write, so a unit of
// work only copies the tables it touches.
type rows[K comparable, V any] struct {
	data   map[K]V
	owned  bool
	toPK   func(K) uuid.UUID
	fromPK func(uuid.UUID) K
	refs   map[string]func(V) (uuid.UUID, bool)
	unset  map[string]func(*V)
}

type columns[V any] struct {
	refs  map[string]func(V) (uuid.UUID, bool)
	unset map[string]func(*V)
}

func entityRows[K ~[16]byte, V any](cols columns[V]) *rows[K, V] {
	return &rows[K, V]{
		data:   map[K]V{},
		owned:  true,
		toPK:   func(k K) uuid.UUID { return uuid.UUID(k) },
		fromPK: func(u uuid.UUID) K { return K(u) },
		refs:   cols.refs,
		unset:  cols.unset,
	}
}

func assocRows[K comparable, V any](cols columns[V]) *rows[K, V] {
	return &rows[K, V]{data: map[K]V{}, owned: true, refs: cols.refs, unset: cols.unset}
}

// fk adapts a non-nullable foreign key accessor.
func fk[V any, P ~[16]byte](get func(V) P) func(V) (uuid.UUID, bool) {
	return func(v V) (uuid.UUID, bool) { return uuid.UUID(get(v)), true }
}

// nullableFK adapts an optional foreign key accessor.
func nullableFK[V any, P ~[16]byte](get func(V) *P) func(V) (uuid.UUID, bool) {
	return func(v V) (uuid.UUID, bool) {
		p := get(v)
		if p == nil {
			return uuid.Nil, false
		}
		return uuid.UUID(*p), true
	}
}

func (r *rows[K, V]) clone() *rows[K, V] {
	return &rows[K, V]{data: r.data, toPK: r.toPK, fromPK: r.fromPK, refs: r.refs, unset: r.unset}
}

// own gives r a private copy of its data before the first write.
func (r *rows[K, V]) own() {
	if r.owned {
		return
	}
	data := make(map[K]V, len(r.data)+1)
	for k, v := range r.data {
		data[k] = v
	}
	r.data = data
	r.owned = true
}

func (r *rows[K, V]) len() int {
	return len(r.data)
}

func (r *rows[K, V]) get(k K) (V, bool) {
	v, ok := r.data[k]
	return v, ok
}

func (r *rows[K, V]) has(k K) bool {
	_, ok := r.data[k]
	return ok
}

func (r *rows[K, V]) put(k K, v V) {
	r.own()
	r.data[k] = v
}

func (r *rows[K, V]) filter(keep func(V) bool) []V {
	var out []V
	for _, v := range r.data {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// relation is the untyped view of a table that cascading deletes walk.
type relation interface {
	childKeys(column string, parent uuid.UUID) []any
	primaryKey(key any) (uuid.UUID, bool)
	hasPK(pk uuid.UUID) bool
	removeKey(key any)
	removePK(pk uuid.UUID)
	detachKey(key any, column string)
}

func (r *rows[K, V]) childKeys(column string, parent uuid.UUID) []any {
	ref, ok := r.refs[column]
	if !ok {
		return nil
	}
	var keys []any
	for k, v := range r.data {
		if p, set := ref(v); set && p == parent {
			keys = append(keys, k)
		}
	}
	return keys
}

func (r *rows[K, V]) primaryKey(key any) (uuid.UUID, bool) {
	if r.toPK == nil {
		return uuid.Nil, false
	}
	return r.toPK(key.(K)), true
}

func (r *rows[K, V]) hasPK(pk uuid.UUID) bool {
	if r.fromPK == nil {
		return false
	}
	return r.has(r.fromPK(pk))
}

func (r *rows[K, V]) removeKey(key any) {
	r.own()
	delete(r.data, key.(K))
}

func (r *rows[K, V]) removePK(pk uuid.UUID) {
	if r.fromPK != nil {
		r.own()
		delete(r.data, r.fromPK(pk))
	}
}

func (r *rows[K, V]) detachKey(key any, column string) {
	unsetFn, ok := r.unset[column]
	if !ok {
		return
	}
	r.own()
	k := key.(K)
	v := r.data[k]
	unsetFn(&v)
	r.data[k] = v
}
