package store

import (
	"cmp"
	"slices"

	"github.com/zhangyunhao116/skipmap"
	"github.com/zhangyunhao116/skipset"
)

// entry locates the latest live record for one key.
type entry struct {
	off  int64
	size int64
	seq  uint64
	// rank is the offset of the record that introduced the key into the
	// live set. Overwrites keep it, delete followed by re-put renews it,
	// so ranking live keys by it yields insertion order.
	rank uint64
}

// rankedKey is an element of the insertion-order set.
type rankedKey struct {
	rank uint64
	key  string
}

// keyEntry pairs a key with its index entry for compaction snapshots.
type keyEntry struct {
	key string
	ent entry
}

// keydir is the in-memory index: a concurrent map from key to latest
// record location, plus a rank-ordered set of the live keys. Both
// structures tolerate concurrent readers; writers are serialized by the
// Store.
type keydir struct {
	entries *skipmap.FuncMap[string, entry]
	order   *skipset.FuncSet[rankedKey]
}

func newKeydir() *keydir {
	return &keydir{
		entries: skipmap.NewFunc[string, entry](func(a, b string) bool {
			return a < b
		}),
		order: skipset.NewFunc[rankedKey](func(a, b rankedKey) bool {
			return a.rank < b.rank
		}),
	}
}

// put records the latest location for key. rank only matters when the key
// is not currently live; an overwrite keeps the original rank.
func (kd *keydir) put(key string, ent entry, rank uint64) {
	if prev, ok := kd.entries.Load(key); ok {
		ent.rank = prev.rank
		kd.entries.Store(key, ent)
		return
	}
	ent.rank = rank
	kd.entries.Store(key, ent)
	kd.order.Add(rankedKey{rank: rank, key: key})
}

// delete drops key from the live set and reports whether it was present.
func (kd *keydir) delete(key string) bool {
	prev, ok := kd.entries.Load(key)
	if !ok {
		return false
	}
	kd.entries.Delete(key)
	kd.order.Remove(rankedKey{rank: prev.rank, key: key})
	return true
}

func (kd *keydir) get(key string) (entry, bool) {
	return kd.entries.Load(key)
}

func (kd *keydir) len() int {
	return kd.entries.Len()
}

// keysByRank snapshots the live keys in insertion order.
func (kd *keydir) keysByRank() []string {
	keys := make([]string, 0, kd.entries.Len())
	kd.order.Range(func(rk rankedKey) bool {
		keys = append(keys, rk.key)
		return true
	})
	return keys
}

// entriesBySeq snapshots the live entries in ascending sequence order, the
// order compaction writes them back so that replay's monotonicity check
// holds for the rewritten log.
func (kd *keydir) entriesBySeq() []keyEntry {
	live := make([]keyEntry, 0, kd.entries.Len())
	kd.entries.Range(func(key string, ent entry) bool {
		live = append(live, keyEntry{key: key, ent: ent})
		return true
	})
	slices.SortFunc(live, func(a, b keyEntry) int {
		return cmp.Compare(a.ent.seq, b.ent.seq)
	})
	return live
}
