package session_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jrife/session/storage/kv"
	"github.com/jrife/session/storage/kv/memstore"
	"github.com/jrife/session/storage/session"
)

func mustRead(t *testing.T, store kv.Store, key kv.Key) kv.Value {
	t.Helper()

	v, err := store.Read(key)
	if err != nil {
		t.Fatalf("Read(%s) returned error: %s", key, err)
	}

	return v
}

func TestWriteThenRead(t *testing.T) {
	s := session.New()

	if err := s.Write(kv.Key("a"), kv.Value("1")); err != nil {
		t.Fatalf("Write returned error: %s", err)
	}

	if diff := cmp.Diff(kv.Value("1"), mustRead(t, s, kv.Key("a"))); diff != "" {
		t.Fatalf("unexpected value (-want +got):\n%s", diff)
	}
}

func TestEraseHidesParentValue(t *testing.T) {
	parent := memstore.New()
	parent.Write(kv.Key("a"), kv.Value("1"))

	s, err := session.NewChild(parent)
	if err != nil {
		t.Fatalf("NewChild returned error: %s", err)
	}

	if diff := cmp.Diff(kv.Value("1"), mustRead(t, s, kv.Key("a"))); diff != "" {
		t.Fatalf("unexpected value before erase (-want +got):\n%s", diff)
	}

	if err := s.Erase(kv.Key("a")); err != nil {
		t.Fatalf("Erase returned error: %s", err)
	}

	if diff := cmp.Diff(kv.ValueInvalid, mustRead(t, s, kv.Key("a"))); diff != "" {
		t.Fatalf("expected erased key to be hidden (-want +got):\n%s", diff)
	}

	if deleted, err := s.IsDeleted(kv.Key("a")); err != nil || !deleted {
		t.Fatalf("expected IsDeleted=true, got %v, %s", deleted, err)
	}

	// Parent is untouched until Commit.
	if diff := cmp.Diff(kv.Value("1"), mustRead(t, parent, kv.Key("a"))); diff != "" {
		t.Fatalf("expected parent to be untouched before commit (-want +got):\n%s", diff)
	}
}

func TestWriteAfterEraseResurrects(t *testing.T) {
	parent := memstore.New()
	parent.Write(kv.Key("a"), kv.Value("1"))

	s, err := session.NewChild(parent)
	if err != nil {
		t.Fatalf("NewChild returned error: %s", err)
	}

	if err := s.Erase(kv.Key("a")); err != nil {
		t.Fatalf("Erase returned error: %s", err)
	}

	if err := s.Write(kv.Key("a"), kv.Value("2")); err != nil {
		t.Fatalf("Write returned error: %s", err)
	}

	if diff := cmp.Diff(kv.Value("2"), mustRead(t, s, kv.Key("a"))); diff != "" {
		t.Fatalf("unexpected value (-want +got):\n%s", diff)
	}

	if deleted, err := s.IsDeleted(kv.Key("a")); err != nil || deleted {
		t.Fatalf("expected IsDeleted=false after rewrite, got %v, %s", deleted, err)
	}
}

func TestEraseAfterWriteRemovesLocalEntry(t *testing.T) {
	s := session.New()

	if err := s.Write(kv.Key("a"), kv.Value("1")); err != nil {
		t.Fatalf("Write returned error: %s", err)
	}

	if err := s.Erase(kv.Key("a")); err != nil {
		t.Fatalf("Erase returned error: %s", err)
	}

	if diff := cmp.Diff(kv.ValueInvalid, mustRead(t, s, kv.Key("a"))); diff != "" {
		t.Fatalf("unexpected value (-want +got):\n%s", diff)
	}
}

func TestCommitPushesChangesToParentAndClears(t *testing.T) {
	parent := memstore.New()
	parent.Write(kv.Key("a"), kv.Value("1"))

	s, err := session.NewChild(parent)
	if err != nil {
		t.Fatalf("NewChild returned error: %s", err)
	}

	if err := s.Erase(kv.Key("a")); err != nil {
		t.Fatalf("Erase returned error: %s", err)
	}

	if err := s.Write(kv.Key("b"), kv.Value("2")); err != nil {
		t.Fatalf("Write returned error: %s", err)
	}

	if err := s.Commit(); err != nil {
		t.Fatalf("Commit returned error: %s", err)
	}

	if diff := cmp.Diff(kv.ValueInvalid, mustRead(t, parent, kv.Key("a"))); diff != "" {
		t.Fatalf("expected erase to reach parent (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(kv.Value("2"), mustRead(t, parent, kv.Key("b"))); diff != "" {
		t.Fatalf("expected write to reach parent (-want +got):\n%s", diff)
	}

	// Committing an already-clear session is a no-op, not an error.
	if err := s.Commit(); err != nil {
		t.Fatalf("second Commit returned error: %s", err)
	}
}

func TestCommitThenReadMatchesParent(t *testing.T) {
	parent := memstore.New()

	s, err := session.NewChild(parent)
	if err != nil {
		t.Fatalf("NewChild returned error: %s", err)
	}

	if err := s.Write(kv.Key("a"), kv.Value("1")); err != nil {
		t.Fatalf("Write returned error: %s", err)
	}

	before := mustRead(t, s, kv.Key("a"))

	if err := s.Commit(); err != nil {
		t.Fatalf("Commit returned error: %s", err)
	}

	after := mustRead(t, s, kv.Key("a"))

	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("expected read to be unchanged across commit (-want +got):\n%s", diff)
	}
}

func TestUndoDiscardsChanges(t *testing.T) {
	parent := memstore.New()
	parent.Write(kv.Key("a"), kv.Value("1"))

	s, err := session.NewChild(parent)
	if err != nil {
		t.Fatalf("NewChild returned error: %s", err)
	}

	if err := s.Write(kv.Key("a"), kv.Value("2")); err != nil {
		t.Fatalf("Write returned error: %s", err)
	}

	if err := s.Write(kv.Key("b"), kv.Value("3")); err != nil {
		t.Fatalf("Write returned error: %s", err)
	}

	s.Undo()

	if diff := cmp.Diff(kv.ValueInvalid, mustRead(t, s, kv.Key("a"))); diff != "" {
		t.Fatalf("expected detached session to see nothing for a (-want +got):\n%s", diff)
	}

	// Parent is untouched: the write to "a" never reached it.
	if diff := cmp.Diff(kv.Value("1"), mustRead(t, parent, kv.Key("a"))); diff != "" {
		t.Fatalf("expected parent untouched by undo (-want +got):\n%s", diff)
	}
}

// TestNestedSessions exercises a three-level chain: persistent store, a
// middle session, and a leaf session layered above it.
func TestNestedSessions(t *testing.T) {
	store := memstore.New()
	store.Write(kv.Key("a"), kv.Value("store"))

	middle, err := session.NewChild(store)
	if err != nil {
		t.Fatalf("NewChild returned error: %s", err)
	}

	if err := middle.Write(kv.Key("b"), kv.Value("middle")); err != nil {
		t.Fatalf("Write returned error: %s", err)
	}

	leaf, err := session.NewChild(middle)
	if err != nil {
		t.Fatalf("NewChild returned error: %s", err)
	}

	if err := leaf.Write(kv.Key("c"), kv.Value("leaf")); err != nil {
		t.Fatalf("Write returned error: %s", err)
	}

	if err := leaf.Erase(kv.Key("a")); err != nil {
		t.Fatalf("Erase returned error: %s", err)
	}

	if diff := cmp.Diff(kv.ValueInvalid, mustRead(t, leaf, kv.Key("a"))); diff != "" {
		t.Fatalf("expected leaf erase to hide store value (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(kv.Value("middle"), mustRead(t, leaf, kv.Key("b"))); diff != "" {
		t.Fatalf("expected leaf to see middle's write (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(kv.Value("leaf"), mustRead(t, leaf, kv.Key("c"))); diff != "" {
		t.Fatalf("expected leaf to see its own write (-want +got):\n%s", diff)
	}

	// Nothing has reached the store yet.
	if diff := cmp.Diff(kv.Value("store"), mustRead(t, store, kv.Key("a"))); diff != "" {
		t.Fatalf("expected store untouched before commit (-want +got):\n%s", diff)
	}

	if err := leaf.Commit(); err != nil {
		t.Fatalf("leaf Commit returned error: %s", err)
	}

	if err := middle.Commit(); err != nil {
		t.Fatalf("middle Commit returned error: %s", err)
	}

	if diff := cmp.Diff(kv.ValueInvalid, mustRead(t, store, kv.Key("a"))); diff != "" {
		t.Fatalf("expected erase to reach store after both commits (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(kv.Value("leaf"), mustRead(t, store, kv.Key("c"))); diff != "" {
		t.Fatalf("expected leaf's write to reach store after both commits (-want +got):\n%s", diff)
	}
}

func TestOrderedTraversalOverComposedView(t *testing.T) {
	parent := memstore.New()
	parent.Write(kv.Key("a"), kv.Value("parent-a"))
	parent.Write(kv.Key("c"), kv.Value("parent-c"))
	parent.Write(kv.Key("e"), kv.Value("parent-e"))

	s, err := session.NewChild(parent)
	if err != nil {
		t.Fatalf("NewChild returned error: %s", err)
	}

	if err := s.Write(kv.Key("b"), kv.Value("local-b")); err != nil {
		t.Fatalf("Write returned error: %s", err)
	}

	if err := s.Erase(kv.Key("c")); err != nil {
		t.Fatalf("Erase returned error: %s", err)
	}

	if err := s.Write(kv.Key("d"), kv.Value("local-d")); err != nil {
		t.Fatalf("Write returned error: %s", err)
	}

	var got []string
	cur := s.Begin()
	first := cur.Key()

	// The cursor is cyclical: Next past the last key wraps to the first, so
	// one full pass ends when the cursor is back where it started.
	for cur.Key().Valid() {
		got = append(got, string(cur.Key()))
		cur.Next()

		if kv.Compare(cur.Key(), first) == 0 {
			break
		}
	}

	want := []string{"a", "b", "d", "e"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected composed traversal (-want +got):\n%s", diff)
	}
}

func TestCursorWraparound(t *testing.T) {
	s := session.New()

	for _, k := range []string{"a", "b", "c"} {
		if err := s.Write(kv.Key(k), kv.Value(k)); err != nil {
			t.Fatalf("Write returned error: %s", err)
		}
	}

	cur := s.Begin()

	var forward []string
	for i := 0; i < 6; i++ {
		forward = append(forward, string(cur.Key()))
		cur.Next()
	}

	want := []string{"a", "b", "c", "a", "b", "c"}
	if diff := cmp.Diff(want, forward); diff != "" {
		t.Fatalf("expected cursor to wrap around going forward (-want +got):\n%s", diff)
	}
}

func TestCursorReverseWraparound(t *testing.T) {
	s := session.New()

	for _, k := range []string{"a", "b", "c"} {
		if err := s.Write(kv.Key(k), kv.Value(k)); err != nil {
			t.Fatalf("Write returned error: %s", err)
		}
	}

	cur := s.Begin()
	if diff := cmp.Diff(kv.Key("a"), cur.Key()); diff != "" {
		t.Fatalf("unexpected starting key (-want +got):\n%s", diff)
	}

	var backward []string
	for i := 0; i < 6; i++ {
		cur.Prev()
		backward = append(backward, string(cur.Key()))
	}

	want := []string{"c", "b", "a", "c", "b", "a"}
	if diff := cmp.Diff(want, backward); diff != "" {
		t.Fatalf("expected cursor to wrap around going backward (-want +got):\n%s", diff)
	}
}

func TestCursorBidirectionalSymmetry(t *testing.T) {
	s := session.New()

	for _, k := range []string{"a", "b", "c"} {
		if err := s.Write(kv.Key(k), kv.Value(k)); err != nil {
			t.Fatalf("Write returned error: %s", err)
		}
	}

	cur := s.Find(kv.Key("b"))
	if diff := cmp.Diff(kv.Key("b"), cur.Key()); diff != "" {
		t.Fatalf("unexpected key (-want +got):\n%s", diff)
	}

	cur.Next()
	cur.Prev()

	if diff := cmp.Diff(kv.Key("b"), cur.Key()); diff != "" {
		t.Fatalf("expected Next then Prev to return to the start (-want +got):\n%s", diff)
	}
}

func TestReadBatchPartition(t *testing.T) {
	parent := memstore.New()
	parent.Write(kv.Key("a"), kv.Value("1"))

	s, err := session.NewChild(parent)
	if err != nil {
		t.Fatalf("NewChild returned error: %s", err)
	}

	if err := s.Write(kv.Key("b"), kv.Value("2")); err != nil {
		t.Fatalf("Write returned error: %s", err)
	}

	found, notFound, err := s.ReadBatch([]kv.Key{kv.Key("a"), kv.Key("b"), kv.Key("missing")})
	if err != nil {
		t.Fatalf("ReadBatch returned error: %s", err)
	}

	wantFound := []kv.Pair{{Key: kv.Key("a"), Value: kv.Value("1")}, {Key: kv.Key("b"), Value: kv.Value("2")}}
	if diff := cmp.Diff(wantFound, found); diff != "" {
		t.Fatalf("unexpected found set (-want +got):\n%s", diff)
	}

	wantNotFound := []kv.Key{kv.Key("missing")}
	if diff := cmp.Diff(wantNotFound, notFound); diff != "" {
		t.Fatalf("unexpected not-found set (-want +got):\n%s", diff)
	}
}

func TestFindAgreesWithLowerBoundOnExactMatch(t *testing.T) {
	parent := memstore.New()
	parent.Write(kv.Key("a"), kv.Value("1"))
	parent.Write(kv.Key("c"), kv.Value("2"))

	s, err := session.NewChild(parent)
	if err != nil {
		t.Fatalf("NewChild returned error: %s", err)
	}

	found := s.Find(kv.Key("c"))
	lower := s.LowerBound(kv.Key("c"))

	if diff := cmp.Diff(lower.Key(), found.Key()); diff != "" {
		t.Fatalf("expected Find and LowerBound to agree on an exact match (-want +got):\n%s", diff)
	}
}

func TestFindMissingKeyIsAtEnd(t *testing.T) {
	s := session.New()

	if err := s.Write(kv.Key("a"), kv.Value("1")); err != nil {
		t.Fatalf("Write returned error: %s", err)
	}

	cur := s.Find(kv.Key("missing"))

	if diff := cmp.Diff(kv.KeyInvalid, cur.Key()); diff != "" {
		t.Fatalf("expected missing key to be at End (-want +got):\n%s", diff)
	}
}
