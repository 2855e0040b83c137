package walker

import (
	"context"
	"errors"
	"testing"

	"github.com/Ning0612/pikpakcli/internal/domain"
	"github.com/Ning0612/pikpakcli/internal/testutil"
)

func names(nodes []domain.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func assertNames(t *testing.T, nodes []domain.Node, expected ...string) {
	t.Helper()

	got := names(nodes)
	if len(got) != len(expected) {
		t.Fatalf("got %v, want %v", got, expected)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("got %v, want %v", got, expected)
		}
	}
}

func TestWalk_NonRecursive(t *testing.T) {
	fake := testutil.NewFakeDrive()
	root := domain.Root()
	fake.AddFile(root.ID, "f1", "a.txt", []byte("a"))
	sub := fake.AddDir(root.ID, "d1", "sub")
	fake.AddFile(sub.ID, "f2", "nested.txt", []byte("n"))

	nodes, err := Collect(Walk(context.Background(), fake, root, Options{}))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	assertNames(t, nodes, "a.txt", "sub")
}

func TestWalk_RecursiveDepthFirst(t *testing.T) {
	fake := testutil.NewFakeDrive()
	root := domain.Root()
	season1 := fake.AddDir(root.ID, "d1", "season1")
	fake.AddFile(season1.ID, "f1", "e01.mkv", []byte("1"))
	fake.AddFile(season1.ID, "f2", "e02.mkv", []byte("2"))
	season2 := fake.AddDir(root.ID, "d2", "season2")
	fake.AddFile(season2.ID, "f3", "e01.mkv", []byte("3"))

	nodes, err := Collect(Walk(context.Background(), fake, root, Options{Recursive: true}))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	// a directory's contents follow it before the next sibling
	assertNames(t, nodes, "season1", "e01.mkv", "e02.mkv", "season2", "e01.mkv")
}

func TestWalk_Pagination(t *testing.T) {
	fake := testutil.NewFakeDrive()
	root := domain.Root()
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		fake.AddFile(root.ID, "f-"+name, name, []byte(name))
	}
	fake.SetPageSize(2)

	nodes, err := Collect(Walk(context.Background(), fake, root, Options{}))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	assertNames(t, nodes, "a", "b", "c", "d", "e")
}

func TestWalk_TrashedAndAuditFilters(t *testing.T) {
	fake := testutil.NewFakeDrive()
	root := domain.Root()
	fake.AddFile(root.ID, "f1", "keep.mp4", []byte("k"))
	fake.AddNode(domain.Node{
		ID: "f2", Name: "deleted.mp4", Kind: domain.KindFile, ParentID: root.ID, Trashed: true,
	}, []byte("t"))
	fake.AddNode(domain.Node{
		ID: "f3", Name: "flagged.mp4", Kind: domain.KindFile, ParentID: root.ID, PendingAudit: true,
	}, []byte("a"))

	nodes, _ := Collect(Walk(context.Background(), fake, root, Options{}))
	assertNames(t, nodes, "keep.mp4")

	nodes, _ = Collect(Walk(context.Background(), fake, root, Options{IncludeTrashed: true}))
	assertNames(t, nodes, "keep.mp4", "deleted.mp4")

	nodes, _ = Collect(Walk(context.Background(), fake, root, Options{IncludeTrashed: true, IncludeAudit: true}))
	assertNames(t, nodes, "keep.mp4", "deleted.mp4", "flagged.mp4")
}

func TestWalk_ListErrorIsolatesSubtree(t *testing.T) {
	fake := testutil.NewFakeDrive()
	root := domain.Root()
	broken := fake.AddDir(root.ID, "d1", "broken")
	fake.AddFile(broken.ID, "f1", "unreachable.mkv", []byte("x"))
	healthy := fake.AddDir(root.ID, "d2", "healthy")
	fake.AddFile(healthy.ID, "f2", "reachable.mkv", []byte("y"))

	cause := errors.New("backend unavailable")
	fake.FailList(broken.ID, cause)

	nodes, err := Collect(Walk(context.Background(), fake, root, Options{Recursive: true}))

	// the broken subtree is abandoned, its siblings still enumerate
	assertNames(t, nodes, "broken", "healthy", "reachable.mkv")

	var le *domain.ListError
	if !errors.As(err, &le) {
		t.Fatalf("expected a ListError, got %v", err)
	}
	if le.DirID != broken.ID {
		t.Errorf("ListError.DirID = %s, want %s", le.DirID, broken.ID)
	}
	if !errors.Is(err, cause) {
		t.Error("ListError should wrap the backend error")
	}
}

func TestWalk_Cancellation(t *testing.T) {
	fake := testutil.NewFakeDrive()
	root := domain.Root()
	for i := 0; i < 100; i++ {
		fake.AddFile(root.ID, string(rune('a'+i)), "file", []byte("x"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	items := Walk(ctx, fake, root, Options{})

	// take one item, then cancel; the channel must close
	<-items
	cancel()

	count := 0
	for range items {
		count++
	}
	if count >= 99 {
		t.Fatalf("cancellation did not stop the walk, drained %d items", count)
	}
}
