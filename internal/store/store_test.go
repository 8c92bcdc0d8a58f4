package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"

	"github.com/kairosci/ai-crm/internal/crm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "crm.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func strptr(s string) *string { return &s }

func TestContactCreateGetRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateContact(ctx, crm.ContactCreate{
		FirstName: "John", LastName: "Doe", Email: "john@example.com", Company: "Acme",
	})
	if err != nil {
		t.Fatalf("CreateContact failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	got, err := s.GetContact(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetContact failed: %v", err)
	}
	if diff := cmp.Diff(created, got, cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
		t.Errorf("roundtrip mismatch (-created +got):\n%s", diff)
	}
}

func TestContactPartialUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateContact(ctx, crm.ContactCreate{
		FirstName: "John", LastName: "Doe", Email: "john@example.com", Phone: "555-0100",
	})
	if err != nil {
		t.Fatalf("CreateContact failed: %v", err)
	}

	updated, err := s.UpdateContact(ctx, created.ID, crm.ContactUpdate{Company: strptr("Acme Corp")})
	if err != nil {
		t.Fatalf("UpdateContact failed: %v", err)
	}
	if updated.Company != "Acme Corp" {
		t.Errorf("got company %q, want %q", updated.Company, "Acme Corp")
	}
	// Untouched fields survive.
	if updated.FirstName != "John" || updated.Phone != "555-0100" {
		t.Errorf("unrelated fields changed: %+v", updated)
	}
}

func TestEmptyUpdateRefreshesUpdatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateContact(ctx, crm.ContactCreate{
		FirstName: "John", LastName: "Doe", Email: "john@example.com",
	})
	if err != nil {
		t.Fatalf("CreateContact failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	updated, err := s.UpdateContact(ctx, created.ID, crm.ContactUpdate{})
	if err != nil {
		t.Fatalf("UpdateContact failed: %v", err)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("updated_at not refreshed: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}
	if updated.FirstName != created.FirstName || updated.Email != created.Email {
		t.Errorf("empty update changed fields: %+v", updated)
	}
}

func TestDeleteThenGetNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateContact(ctx, crm.ContactCreate{
		FirstName: "John", LastName: "Doe", Email: "john@example.com",
	})
	if err != nil {
		t.Fatalf("CreateContact failed: %v", err)
	}

	deleted, err := s.DeleteContact(ctx, created.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteContact = (%v, %v), want (true, nil)", deleted, err)
	}

	if _, err := s.GetContact(ctx, created.ID); !errors.Is(err, crm.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again reports false, never an error.
	deleted, err = s.DeleteContact(ctx, created.ID)
	if err != nil || deleted {
		t.Errorf("second DeleteContact = (%v, %v), want (false, nil)", deleted, err)
	}
}

func TestIDsNeverReused(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateContact(ctx, crm.ContactCreate{FirstName: "A", LastName: "B", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("CreateContact failed: %v", err)
	}
	if _, err := s.DeleteContact(ctx, first.ID); err != nil {
		t.Fatalf("DeleteContact failed: %v", err)
	}
	second, err := s.CreateContact(ctx, crm.ContactCreate{FirstName: "C", LastName: "D", Email: "c@example.com"})
	if err != nil {
		t.Fatalf("CreateContact failed: %v", err)
	}
	if second.ID <= first.ID {
		t.Errorf("id %d reused or regressed after deleting %d", second.ID, first.ID)
	}
}

func TestListPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.CreatePipeline(ctx, crm.PipelineCreate{Name: "p"}); err != nil {
			t.Fatalf("CreatePipeline failed: %v", err)
		}
	}

	page, err := s.ListPipelines(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListPipelines failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("got %d pipelines, want 2", len(page))
	}
	if page[0].ID != 2 || page[1].ID != 3 {
		t.Errorf("got ids [%d, %d], want [2, 3]", page[0].ID, page[1].ID)
	}
}

func TestTaskCompletionIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, crm.TaskCreate{
		Title: "Follow up call", Priority: crm.PriorityHigh, Status: crm.TaskTodo, ContactID: 1,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.IsCompleted || task.CompletedAt != nil {
		t.Fatal("new task should not be completed")
	}

	completed := crm.TaskCompleted
	first, err := s.UpdateTask(ctx, task.ID, crm.TaskUpdate{Status: &completed})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if !first.IsCompleted || first.CompletedAt == nil {
		t.Fatal("completion transition did not stamp completed_at")
	}

	time.Sleep(5 * time.Millisecond)
	second, err := s.UpdateTask(ctx, task.ID, crm.TaskUpdate{Status: &completed})
	if err != nil {
		t.Fatalf("second UpdateTask failed: %v", err)
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Errorf("completed_at changed on repeated transition: %v -> %v", first.CompletedAt, second.CompletedAt)
	}
}

func TestDealClosedAtStampedOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	deal, err := s.CreateDeal(ctx, crm.DealCreate{
		Title: "Enterprise Deal", Value: 50000, Status: crm.DealLead, PipelineID: 1, ContactID: 1,
	})
	if err != nil {
		t.Fatalf("CreateDeal failed: %v", err)
	}
	if deal.ClosedAt != nil {
		t.Fatal("open deal should have nil closed_at")
	}

	won := crm.DealWon
	closed, err := s.UpdateDeal(ctx, deal.ID, crm.DealUpdate{Status: &won})
	if err != nil {
		t.Fatalf("UpdateDeal failed: %v", err)
	}
	if closed.ClosedAt == nil {
		t.Fatal("terminal transition did not stamp closed_at")
	}

	time.Sleep(5 * time.Millisecond)
	lost := crm.DealLost
	again, err := s.UpdateDeal(ctx, deal.ID, crm.DealUpdate{Status: &lost})
	if err != nil {
		t.Fatalf("second UpdateDeal failed: %v", err)
	}
	if !again.ClosedAt.Equal(*closed.ClosedAt) {
		t.Errorf("closed_at changed on repeated terminal transition: %v -> %v", closed.ClosedAt, again.ClosedAt)
	}
}

func TestUpdateMissingEntity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.UpdateContact(ctx, 999, crm.ContactUpdate{}); !errors.Is(err, crm.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpdateDeal(ctx, 999, crm.DealUpdate{}); !errors.Is(err, crm.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
