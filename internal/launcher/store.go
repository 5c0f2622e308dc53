package launcher

// ChangeKind tells subscribers what happened at Change.Index.
type ChangeKind int

const (
	Inserted ChangeKind = iota
	Removed
)

func (k ChangeKind) String() string {
	switch k {
	case Inserted:
		return "inserted"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// Change describes a single positional edit of a Store.
type Change[T any] struct {
	Kind  ChangeKind
	Index int
	Item  T
}

// Store is an ordered list that reports every edit to its subscribers, so a
// view can mirror it one child at a time. It is not safe for concurrent use;
// the UI owns it.
type Store[T any] struct {
	items       []T
	subscribers []func(Change[T])
}

func NewStore[T any](items ...T) *Store[T] {
	return &Store[T]{items: append([]T(nil), items...)}
}

func (s *Store[T]) Len() int   { return len(s.items) }
func (s *Store[T]) At(i int) T { return s.items[i] }

// Get is At with a bounds check.
func (s *Store[T]) Get(i int) (T, bool) {
	if i < 0 || i >= len(s.items) {
		var zero T
		return zero, false
	}
	return s.items[i], true
}

// Items returns a copy of the contents.
func (s *Store[T]) Items() []T {
	return append([]T(nil), s.items...)
}

func (s *Store[T]) Insert(i int, v T) {
	s.items = append(s.items, v)
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = v
	s.notify(Change[T]{Kind: Inserted, Index: i, Item: v})
}

func (s *Store[T]) Append(v T) {
	s.Insert(len(s.items), v)
}

func (s *Store[T]) Remove(i int) {
	v := s.items[i]
	copy(s.items[i:], s.items[i+1:])
	var zero T
	s.items[len(s.items)-1] = zero
	s.items = s.items[:len(s.items)-1]
	s.notify(Change[T]{Kind: Removed, Index: i, Item: v})
}

// Subscribe registers fn for every subsequent edit.
func (s *Store[T]) Subscribe(fn func(Change[T])) {
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store[T]) notify(c Change[T]) {
	for _, fn := range s.subscribers {
		fn(c)
	}
}
