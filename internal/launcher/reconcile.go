package launcher

// Sequence is a read-only ordered collection.
type Sequence[T any] interface {
	Len() int
	At(i int) T
}

// MutableSequence is a Sequence that supports positional edits.
type MutableSequence[T any] interface {
	Sequence[T]
	Insert(i int, v T)
	Remove(i int)
}

// Slice adapts a plain slice to Sequence.
type Slice[T any] []T

func (s Slice[T]) Len() int   { return len(s) }
func (s Slice[T]) At(i int) T { return s[i] }

// Reconcile edits target so that it holds exactly the elements of source for
// which keep returns true, in source order.
//
// Entries of target that already sit at the right position are left alone,
// so anything keyed to them (widgets, selection) survives. Entries are only
// inserted or removed where the two sequences disagree. When source only
// changed by the predicate, target is a subsequence of source and every edit
// is necessary. Elements removed from or reordered in source are handled too:
// an element that moved earlier is removed from its old position before it is
// inserted at the new one, so an element is never inserted while target still
// holds it (unless source itself repeats it).
func Reconcile[T comparable](source Sequence[T], target MutableSequence[T], keep func(T) bool) {
	n := source.Len()

	// Last position in source of every element that belongs in target.
	wanted := make(map[T]int)
	for i := 0; i < n; i++ {
		if v := source.At(i); keep(v) {
			wanted[v] = i
		}
	}

	j := 0
	for i := 0; i < n; i++ {
		v := source.At(i)
		if _, ok := wanted[v]; !ok {
			continue
		}

		// Drop entries at j that no remaining source position accounts for.
		for j < target.Len() {
			t := target.At(j)
			if t == v {
				break
			}
			if pos, ok := wanted[t]; ok && pos > i {
				break
			}
			target.Remove(j)
		}

		if j >= target.Len() || target.At(j) != v {
			if k := indexFrom(target, j+1, v); k >= 0 {
				target.Remove(k)
			}
			target.Insert(j, v)
		}
		j++
	}

	for target.Len() > j {
		target.Remove(target.Len() - 1)
	}
}

func indexFrom[T comparable](s Sequence[T], start int, v T) int {
	for i := start; i < s.Len(); i++ {
		if s.At(i) == v {
			return i
		}
	}
	return -1
}
