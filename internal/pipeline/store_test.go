package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/lucasnoah/portforge/internal/errs"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func newPipeline(id, name string, stageNames ...string) *Pipeline {
	p := &Pipeline{ID: id, Name: name, Status: StatusIdle}
	for _, n := range stageNames {
		p.Stages = append(p.Stages, Stage{Name: n, Status: StagePending})
	}
	return p
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)

	created, err := s.Create(newPipeline("abc123", "convert legacy", "inventory", "plan"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.CreatedAt == "" {
		t.Error("CreatedAt should not be empty")
	}
	if created.UpdatedAt == "" {
		t.Error("UpdatedAt should not be empty")
	}

	// Round-trip through disk.
	got, err := s.Get("abc123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "convert legacy" {
		t.Errorf("Name = %q, want %q", got.Name, "convert legacy")
	}
	if len(got.Stages) != 2 {
		t.Fatalf("Stages has %d entries, want 2", len(got.Stages))
	}
	if got.Stages[0].Status != StagePending {
		t.Errorf("stage status = %q, want pending", got.Stages[0].Status)
	}
}

func TestCreateDuplicate(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Create(newPipeline("p1", "first")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := s.Create(newPipeline("p1", "duplicate"))
	if err == nil {
		t.Fatal("expected error creating duplicate pipeline")
	}
	if !errs.IsValidation(err) {
		t.Errorf("error = %v, want ValidationError", err)
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get("nope")
	if !errs.IsNotFound(err) {
		t.Errorf("error = %v, want NotFoundError", err)
	}
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Create(newPipeline("p1", "one", "inventory")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := s.Update("p1", func(p *Pipeline) error {
		p.Stages[0].Status = StageRunning
		p.ActiveStage = "inventory"
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ActiveStage != "inventory" {
		t.Errorf("ActiveStage = %q, want inventory", updated.ActiveStage)
	}

	got, err := s.Get("p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Stages[0].Status != StageRunning {
		t.Errorf("stage status = %q, want running", got.Stages[0].Status)
	}
}

func TestUpdateErrorWritesNothing(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Create(newPipeline("p1", "one", "inventory")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := s.Update("p1", func(p *Pipeline) error {
		p.Stages[0].Status = StageRunning
		return errs.Validation("nope")
	})
	if err == nil {
		t.Fatal("expected error from Update")
	}

	got, err := s.Get("p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Stages[0].Status != StagePending {
		t.Errorf("stage status = %q, want pending after failed update", got.Stages[0].Status)
	}
}

func TestConcurrentUpdates(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Create(newPipeline("p1", "one", "inventory")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update("p1", func(p *Pipeline) error {
				p.Stages[0].Details.Artifacts = append(p.Stages[0].Details.Artifacts, "a")
				return nil
			})
			if err != nil {
				t.Errorf("Update: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.Get("p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Stages[0].Details.Artifacts) != n {
		t.Errorf("artifacts = %d, want %d (lost updates)", len(got.Stages[0].Details.Artifacts), n)
	}
}

func TestListSorted(t *testing.T) {
	s := newTestStore(t)

	for _, id := range []string{"b", "a", "c"} {
		if _, err := s.Create(newPipeline(id, "p-"+id)); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	pipelines, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pipelines) != 3 {
		t.Fatalf("List returned %d pipelines, want 3", len(pipelines))
	}
}

func TestListEmptyDir(t *testing.T) {
	s := NewStore(t.TempDir() + "/missing")

	pipelines, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pipelines) != 0 {
		t.Errorf("List returned %d pipelines, want 0", len(pipelines))
	}
}

func TestLatest(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Create(newPipeline("old", "old")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(newPipeline("new", "new")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Touch the older document so it becomes the most recent.
	time.Sleep(10 * time.Millisecond)
	if _, err := s.Update("old", func(p *Pipeline) error { return nil }); err != nil {
		t.Fatalf("Update: %v", err)
	}

	latest, err := s.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.ID != "old" {
		t.Errorf("Latest = %q, want old", latest.ID)
	}
}

func TestLatestEmpty(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Latest()
	if !errs.IsNotFound(err) {
		t.Errorf("error = %v, want NotFoundError", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Create(newPipeline("p1", "one")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete("p1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get("p1"); !errs.IsNotFound(err) {
		t.Errorf("Get after delete = %v, want NotFoundError", err)
	}
	if err := s.Delete("p1"); !errs.IsNotFound(err) {
		t.Errorf("second Delete = %v, want NotFoundError", err)
	}
}
