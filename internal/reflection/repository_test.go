package reflection

import (
	"errors"
	"testing"
)

func TestInMemoryRepository_Create(t *testing.T) {
	repo := NewInMemoryRepository()

	created, err := repo.Create(Reflection{UserID: "u1", BookTitle: "Dune", Text: "loved it"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Error("expected an assigned ID")
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected an assigned creation time")
	}
	if created.UserID != "u1" || created.BookTitle != "Dune" || created.Text != "loved it" {
		t.Errorf("created = %+v, want submitted fields kept", created)
	}
}

func TestInMemoryRepository_Create_rejects_invalid(t *testing.T) {
	repo := NewInMemoryRepository()

	if _, err := repo.Create(Reflection{UserID: "u1", BookTitle: "Dune"}); !errors.Is(err, ErrEmptyReflection) {
		t.Errorf("expected ErrEmptyReflection, got %v", err)
	}
	if got := repo.List(); len(got) != 0 {
		t.Errorf("rejected reflection was stored: %+v", got)
	}
}

func TestInMemoryRepository_List_newest_first(t *testing.T) {
	repo := NewInMemoryRepository()

	for _, title := range []string{"first", "second", "third"} {
		if _, err := repo.Create(Reflection{UserID: "u1", BookTitle: title, Text: "t"}); err != nil {
			t.Fatalf("create %q: %v", title, err)
		}
	}

	got := repo.List()
	if len(got) != 3 {
		t.Fatalf("list returned %d reflections, want 3", len(got))
	}
	for i, want := range []string{"third", "second", "first"} {
		if got[i].BookTitle != want {
			t.Errorf("list[%d].BookTitle = %q, want %q", i, got[i].BookTitle, want)
		}
	}
}

func TestInMemoryRepository_AttachAudio(t *testing.T) {
	repo := NewInMemoryRepository()
	created, err := repo.Create(Reflection{UserID: "u1", BookTitle: "Dune", Text: "loved it"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := repo.AttachAudio(created.ID, "/uploads/a.webm")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if updated.AudioURL != "/uploads/a.webm" {
		t.Errorf("audio URL = %q", updated.AudioURL)
	}

	// Re-recording replaces the earlier URL.
	updated, err = repo.AttachAudio(created.ID, "/uploads/b.webm")
	if err != nil {
		t.Fatalf("re-attach: %v", err)
	}
	if updated.AudioURL != "/uploads/b.webm" {
		t.Errorf("audio URL after re-attach = %q", updated.AudioURL)
	}

	got := repo.List()
	if len(got) != 1 || got[0].AudioURL != "/uploads/b.webm" {
		t.Errorf("list = %+v, want the updated URL persisted", got)
	}
}

func TestInMemoryRepository_AttachAudio_unknown_id(t *testing.T) {
	repo := NewInMemoryRepository()

	if _, err := repo.AttachAudio("nope", "/uploads/a.webm"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
