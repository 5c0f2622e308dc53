package launcher

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type recorded struct {
	kind  ChangeKind
	index int
	item  string
}

func recordChanges(s *Store[string]) *[]recorded {
	var changes []recorded
	s.Subscribe(func(c Change[string]) {
		changes = append(changes, recorded{c.Kind, c.Index, c.Item})
	})
	return &changes
}

// mirror follows the changes of s the way a bound widget container does: an
// item can only be inserted while it is absent and only removed where it is.
func mirror[T comparable](t *testing.T, s *Store[T]) *[]T {
	t.Helper()
	items := append([]T(nil), s.Items()...)
	s.Subscribe(func(c Change[T]) {
		switch c.Kind {
		case Inserted:
			for _, v := range items {
				if v == c.Item {
					t.Errorf("inserted %v at %d while still present", c.Item, c.Index)
					return
				}
			}
			if c.Index > len(items) {
				t.Errorf("insert of %v at %d past end %d", c.Item, c.Index, len(items))
				return
			}
			items = append(items[:c.Index], append([]T{c.Item}, items[c.Index:]...)...)
		case Removed:
			if c.Index >= len(items) || items[c.Index] != c.Item {
				t.Errorf("remove of %v at %d does not match mirror %v", c.Item, c.Index, items)
				return
			}
			items = append(items[:c.Index], items[c.Index+1:]...)
		}
	})
	return &items
}

func keepAll(string) bool { return true }

func hasPrefix(prefix string) func(string) bool {
	return func(s string) bool { return strings.HasPrefix(s, prefix) }
}

func TestReconcileFromEmpty(t *testing.T) {
	source := Slice[string]{"a", "b", "c"}
	target := NewStore[string]()
	changes := recordChanges(target)

	Reconcile[string](source, target, keepAll)

	if diff := cmp.Diff([]string{"a", "b", "c"}, target.Items()); diff != "" {
		t.Errorf("target mismatch (-want +got):\n%s", diff)
	}
	want := []recorded{{Inserted, 0, "a"}, {Inserted, 1, "b"}, {Inserted, 2, "c"}}
	if diff := cmp.Diff(want, *changes, cmp.AllowUnexported(recorded{})); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileNarrowAndWiden(t *testing.T) {
	source := Slice[string]{"fa", "fb", "ga", "fc", "gb"}
	target := NewStore[string]()
	Reconcile[string](source, target, keepAll)

	changes := recordChanges(target)
	Reconcile[string](source, target, hasPrefix("f"))

	if diff := cmp.Diff([]string{"fa", "fb", "fc"}, target.Items()); diff != "" {
		t.Errorf("narrowed target mismatch (-want +got):\n%s", diff)
	}
	want := []recorded{{Removed, 2, "ga"}, {Removed, 3, "gb"}}
	if diff := cmp.Diff(want, *changes, cmp.AllowUnexported(recorded{})); diff != "" {
		t.Errorf("narrow changes mismatch (-want +got):\n%s", diff)
	}

	*changes = nil
	Reconcile[string](source, target, keepAll)

	if diff := cmp.Diff([]string(source), target.Items()); diff != "" {
		t.Errorf("widened target mismatch (-want +got):\n%s", diff)
	}
	want = []recorded{{Inserted, 2, "ga"}, {Inserted, 4, "gb"}}
	if diff := cmp.Diff(want, *changes, cmp.AllowUnexported(recorded{})); diff != "" {
		t.Errorf("widen changes mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileUnchangedIsNoop(t *testing.T) {
	source := Slice[string]{"a", "b", "c", "d"}
	target := NewStore[string]("b", "d")
	changes := recordChanges(target)

	Reconcile[string](source, target, func(s string) bool { return s == "b" || s == "d" })

	if len(*changes) != 0 {
		t.Errorf("expected no edits, got %v", *changes)
	}
}

func TestReconcileEmptiesTarget(t *testing.T) {
	source := Slice[string]{"a", "b"}
	target := NewStore[string]("a", "b")

	Reconcile[string](source, target, func(string) bool { return false })

	if target.Len() != 0 {
		t.Errorf("expected empty target, got %v", target.Items())
	}
}

func TestReconcileSourceEdits(t *testing.T) {
	tests := []struct {
		name   string
		target []string
		source []string
	}{
		{"removed from source", []string{"a", "b", "c"}, []string{"a", "c"}},
		{"added to source", []string{"a", "c"}, []string{"a", "b", "c", "d"}},
		{"reordered", []string{"a", "b", "c", "d"}, []string{"d", "b", "a", "c"}},
		{"reversed", []string{"a", "b", "c"}, []string{"c", "b", "a"}},
		{"replaced", []string{"a", "b"}, []string{"x", "y"}},
		{"stale target entries", []string{"x", "a", "y", "b"}, []string{"a", "b"}},
		{"swapped", []string{"a", "b"}, []string{"b", "a"}},
		{"moved to front", []string{"a", "b", "c", "d"}, []string{"d", "a", "b", "c"}},
		{"moved to back", []string{"a", "b", "c", "d"}, []string{"b", "c", "d", "a"}},
		{"reordered with edits", []string{"a", "b", "c"}, []string{"c", "x", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := NewStore[string](tt.target...)
			view := mirror(t, target)
			Reconcile[string](Slice[string](tt.source), target, keepAll)
			if diff := cmp.Diff(tt.source, target.Items()); diff != "" {
				t.Errorf("target mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.source, *view); diff != "" {
				t.Errorf("mirrored view mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReconcileMoveEdits(t *testing.T) {
	target := NewStore[string]("a", "b", "c")
	changes := recordChanges(target)

	Reconcile[string](Slice[string]{"c", "b", "a"}, target, keepAll)

	want := []recorded{
		{Removed, 2, "c"}, {Inserted, 0, "c"},
		{Removed, 2, "b"}, {Inserted, 1, "b"},
	}
	if diff := cmp.Diff(want, *changes, cmp.AllowUnexported(recorded{})); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileReorderWhileFiltered(t *testing.T) {
	target := NewStore[string]()
	Reconcile[string](Slice[string]{"fa", "ga", "fb", "fc"}, target, hasPrefix("f"))

	view := mirror(t, target)
	source := Slice[string]{"fc", "ga", "fa", "fb"}
	Reconcile[string](source, target, hasPrefix("f"))

	if diff := cmp.Diff([]string{"fc", "fa", "fb"}, *view); diff != "" {
		t.Errorf("mirrored view mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileKeepsIdentity(t *testing.T) {
	type entry struct{ name string }
	a, b, c := &entry{"a"}, &entry{"b"}, &entry{"c"}

	target := NewStore[*entry](a, c)
	var inserted []*entry
	target.Subscribe(func(ch Change[*entry]) {
		if ch.Kind == Removed {
			t.Errorf("unexpected removal of %s", ch.Item.name)
		}
		inserted = append(inserted, ch.Item)
	})

	Reconcile[*entry](Slice[*entry]{a, b, c}, target, func(*entry) bool { return true })

	if len(inserted) != 1 || inserted[0] != b {
		t.Fatalf("expected only b inserted, got %v", inserted)
	}
	if target.At(0) != a || target.At(2) != c {
		t.Error("existing entries were replaced")
	}
}

func TestReconcileDuplicates(t *testing.T) {
	source := Slice[string]{"a", "b", "a"}
	target := NewStore[string]()

	Reconcile[string](source, target, keepAll)

	if diff := cmp.Diff([]string{"a", "b", "a"}, target.Items()); diff != "" {
		t.Errorf("target mismatch (-want +got):\n%s", diff)
	}
}
