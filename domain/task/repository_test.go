package task

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"
)

// setupTestDB opens a migrated SQLite database in a per-test directory.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "tasks.db"), false)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })

	if _, err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// stepClock returns a clock that advances by one minute on every call.
func stepClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		now := current
		current = current.Add(time.Minute)
		return now
	}
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo := NewRepository(setupTestDB(t))
	repo.SetClock(stepClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)))
	return repo
}

func mustCreate(t *testing.T, repo *Repository, title string) *Task {
	t.Helper()
	created, err := repo.Create(context.Background(), NewTask{
		Title:            title,
		DeveloperID:      "U1",
		ProjectManagerID: "U2",
		ChannelID:        "C1",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return created
}

func TestRepository_Create(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	t.Run("initial state", func(t *testing.T) {
		created, err := repo.Create(ctx, NewTask{
			Title:            "Implement feature",
			Description:      "behind a flag",
			DeveloperID:      "U1",
			ProjectManagerID: "U2",
			ChannelID:        "C1",
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if created.ID != 1 {
			t.Errorf("expected id 1, got %d", created.ID)
		}
		if created.Title != "Implement feature" {
			t.Errorf("expected title %q, got %q", "Implement feature", created.Title)
		}
		if created.CompletedAt != nil {
			t.Errorf("expected completed_at absent, got %v", created.CompletedAt)
		}
		if created.DeveloperChecked || created.ProjectManagerChecked {
			t.Error("expected both flags false")
		}
		if created.HasMessage() {
			t.Error("expected no message reference")
		}
		if want := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC); !created.CreatedAt.Equal(want) {
			t.Errorf("expected created_at %v, got %v", want, created.CreatedAt)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		created, err := repo.Create(ctx, NewTask{DeveloperID: "U3", ChannelID: "C1"})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if created.Title != DefaultTitle {
			t.Errorf("expected placeholder title, got %q", created.Title)
		}
		if created.ProjectManagerID != "U3" {
			t.Errorf("expected project manager to default to developer, got %q", created.ProjectManagerID)
		}
	})
}

func TestRepository_Get(t *testing.T) {
	repo := newTestRepository(t)
	created := mustCreate(t, repo, "Get me")

	t.Run("existing task", func(t *testing.T) {
		found, err := repo.Get(context.Background(), created.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if found.Title != "Get me" {
			t.Errorf("expected title %q, got %q", "Get me", found.Title)
		}
		if !found.CreatedAt.Equal(created.CreatedAt) {
			t.Errorf("expected created_at %v, got %v", created.CreatedAt, found.CreatedAt)
		}
	})

	t.Run("non-existent task", func(t *testing.T) {
		_, err := repo.Get(context.Background(), 999)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRepository_UpdateMessageReference(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	created := mustCreate(t, repo, "Render me")

	if err := repo.UpdateMessageReference(ctx, created.ID, "C9", "1700000000.000100"); err != nil {
		t.Fatalf("UpdateMessageReference() error = %v", err)
	}

	found, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found.ChannelID != "C9" {
		t.Errorf("expected channel %q, got %q", "C9", found.ChannelID)
	}
	if !found.HasMessage() || *found.MessageTS != "1700000000.000100" {
		t.Errorf("expected message ts to be bound, got %v", found.MessageTS)
	}

	if err := repo.UpdateMessageReference(ctx, 999, "C9", "1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_UpdateCheckmarks(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	created := mustCreate(t, repo, "Implement feature")

	// developer signs off
	updated, err := repo.UpdateCheckmarks(ctx, created.ID, true, false)
	if err != nil {
		t.Fatalf("UpdateCheckmarks() error = %v", err)
	}
	if !updated.DeveloperChecked || updated.ProjectManagerChecked {
		t.Errorf("unexpected flags: dev=%v pm=%v", updated.DeveloperChecked, updated.ProjectManagerChecked)
	}
	if updated.CompletedAt != nil {
		t.Errorf("expected completed_at absent, got %v", updated.CompletedAt)
	}

	// project manager approves
	completed, err := repo.UpdateCheckmarks(ctx, created.ID, true, true)
	if err != nil {
		t.Fatalf("UpdateCheckmarks() error = %v", err)
	}
	if completed.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}
	first := *completed.CompletedAt

	// repeated call keeps the timestamp
	again, err := repo.UpdateCheckmarks(ctx, created.ID, true, true)
	if err != nil {
		t.Fatalf("UpdateCheckmarks() error = %v", err)
	}
	if again.CompletedAt == nil || !again.CompletedAt.Equal(first) {
		t.Errorf("expected completed_at %v to be preserved, got %v", first, again.CompletedAt)
	}

	// developer unchecks: cleared, pm flag stays
	reopened, err := repo.UpdateCheckmarks(ctx, created.ID, false, true)
	if err != nil {
		t.Fatalf("UpdateCheckmarks() error = %v", err)
	}
	if reopened.CompletedAt != nil {
		t.Errorf("expected completed_at cleared, got %v", reopened.CompletedAt)
	}
	if !reopened.ProjectManagerChecked {
		t.Error("expected project manager flag to remain set")
	}

	// completing again yields a fresh, later timestamp
	recompleted, err := repo.UpdateCheckmarks(ctx, created.ID, true, true)
	if err != nil {
		t.Fatalf("UpdateCheckmarks() error = %v", err)
	}
	if recompleted.CompletedAt == nil || recompleted.CompletedAt.Before(first) {
		t.Errorf("expected completed_at >= %v, got %v", first, recompleted.CompletedAt)
	}

	if _, err := repo.UpdateCheckmarks(ctx, 999, true, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_ListAndCount(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	// seven tasks created one minute apart; tasks 2, 4 and 6 get completed
	var ids []int64
	for i := 0; i < 7; i++ {
		created := mustCreate(t, repo, "Task "+string(rune('A'+i)))
		ids = append(ids, created.ID)
	}
	for _, id := range []int64{ids[1], ids[3], ids[5]} {
		if _, err := repo.UpdateCheckmarks(ctx, id, true, true); err != nil {
			t.Fatalf("UpdateCheckmarks() error = %v", err)
		}
	}
	// a half-signed task is still pending
	if _, err := repo.UpdateCheckmarks(ctx, ids[0], true, false); err != nil {
		t.Fatalf("UpdateCheckmarks() error = %v", err)
	}

	t.Run("newest first", func(t *testing.T) {
		tasks, err := repo.List(ctx, Filter{})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(tasks) != 7 {
			t.Fatalf("expected 7 tasks, got %d", len(tasks))
		}
		for i := 1; i < len(tasks); i++ {
			if tasks[i].CreatedAt.After(tasks[i-1].CreatedAt) {
				t.Errorf("tasks not ordered by created_at desc at index %d", i)
			}
		}
		if tasks[0].ID != ids[6] {
			t.Errorf("expected newest task %d first, got %d", ids[6], tasks[0].ID)
		}
	})

	t.Run("status partitions", func(t *testing.T) {
		completed, err := repo.List(ctx, Filter{Status: StatusCompleted})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		pending, err := repo.List(ctx, Filter{Status: StatusPending})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(completed) != 3 || len(pending) != 4 {
			t.Fatalf("expected 3 completed and 4 pending, got %d and %d", len(completed), len(pending))
		}
		seen := make(map[int64]bool)
		for _, task := range completed {
			if !task.Completed() || task.CompletedAt == nil {
				t.Errorf("task %d listed as completed but flags are dev=%v pm=%v", task.ID, task.DeveloperChecked, task.ProjectManagerChecked)
			}
			seen[task.ID] = true
		}
		for _, task := range pending {
			if task.Completed() {
				t.Errorf("task %d listed as pending but is completed", task.ID)
			}
			if seen[task.ID] {
				t.Errorf("task %d appears in both partitions", task.ID)
			}
		}
	})

	t.Run("created range", func(t *testing.T) {
		// tasks were created at 09:00, 09:01, ... 09:06
		from := time.Date(2024, 5, 1, 9, 2, 0, 0, time.UTC)
		to := time.Date(2024, 5, 1, 9, 5, 0, 0, time.UTC)
		tasks, err := repo.List(ctx, Filter{From: &from, To: &to})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(tasks) != 3 {
			t.Fatalf("expected 3 tasks in [09:02, 09:05), got %d", len(tasks))
		}
		if tasks[0].ID != ids[4] || tasks[2].ID != ids[2] {
			t.Errorf("unexpected range result: first=%d last=%d", tasks[0].ID, tasks[2].ID)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		all, err := repo.List(ctx, Filter{Status: StatusPending})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		total, err := repo.Count(ctx, Filter{Status: StatusPending, Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("Count() error = %v", err)
		}
		if int(total) != len(all) {
			t.Fatalf("expected count %d, got %d", len(all), total)
		}

		var paged []Task
		for offset := 0; offset < int(total); offset += 3 {
			page, err := repo.List(ctx, Filter{Status: StatusPending, Limit: 3, Offset: offset})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			paged = append(paged, page...)
		}
		if len(paged) != len(all) {
			t.Fatalf("expected %d paged tasks, got %d", len(all), len(paged))
		}
		for i := range all {
			if paged[i].ID != all[i].ID {
				t.Errorf("page sequence differs at %d: %d != %d", i, paged[i].ID, all[i].ID)
			}
		}
	})

	t.Run("offset without limit", func(t *testing.T) {
		tasks, err := repo.List(ctx, Filter{Offset: 5})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(tasks) != 2 {
			t.Errorf("expected 2 tasks, got %d", len(tasks))
		}
	})

	t.Run("invalid filter", func(t *testing.T) {
		from := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		if _, err := repo.List(ctx, Filter{From: &from, To: &to}); !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if _, err := repo.Count(ctx, Filter{Status: "archived"}); !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestRepository_Delete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	created := mustCreate(t, repo, "To be deleted")

	t.Run("delete existing task", func(t *testing.T) {
		if err := repo.Delete(ctx, created.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := repo.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		total, err := repo.Count(ctx, Filter{})
		if err != nil {
			t.Fatalf("Count() error = %v", err)
		}
		if total != 0 {
			t.Errorf("expected hard delete, %d rows remain", total)
		}
	})

	t.Run("delete non-existent task", func(t *testing.T) {
		if err := repo.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
