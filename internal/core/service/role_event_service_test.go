package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/leadflow/role-service/internal/core/domain"
	"github.com/leadflow/role-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubRoleEventRepo struct {
	insertErr error
	inserted  []*domain.RoleChangeEvent
}

func (r *stubRoleEventRepo) InsertRoleChange(_ context.Context, e *domain.RoleChangeEvent) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, e)
	return nil
}

type stubDedup struct {
	dupResult bool
	dupErr    error
	markErr   error
	marked    []string
}

func (d *stubDedup) IsDuplicate(_ context.Context, target string, role domain.Role, _ time.Time) (bool, error) {
	return d.dupResult, d.dupErr
}

func (d *stubDedup) Mark(_ context.Context, target string, role domain.Role, _ time.Time) error {
	if d.markErr != nil {
		return d.markErr
	}
	d.marked = append(d.marked, target+":"+string(role))
	return nil
}

func newRoleEventSvc(repo *stubRoleEventRepo, dedup *stubDedup) ports.RoleEventProcessor {
	return NewRoleEventService(repo, dedup, zerolog.Nop())
}

func sampleEvent() domain.RoleChangeEvent {
	return domain.RoleChangeEvent{
		TargetUID:    "U1",
		RequesterUID: "admin-1",
		PreviousRole: "Executive",
		NewRole:      domain.RoleMaster,
		ClaimsSynced: true,
		At:           time.Now().UTC(),
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestRoleEventService_Process_HappyPath(t *testing.T) {
	repo := &stubRoleEventRepo{}
	dedup := &stubDedup{}

	if err := newRoleEventSvc(repo, dedup).Process(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(repo.inserted) != 1 || repo.inserted[0].TargetUID != "U1" {
		t.Errorf("expected role change inserted, got: %v", repo.inserted)
	}
	if len(dedup.marked) != 1 || dedup.marked[0] != "U1:Master" {
		t.Errorf("expected dedup key marked, got: %v", dedup.marked)
	}
}

func TestRoleEventService_Process_DuplicateSkipped(t *testing.T) {
	repo := &stubRoleEventRepo{}
	dedup := &stubDedup{dupResult: true}

	if err := newRoleEventSvc(repo, dedup).Process(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("expected no error for duplicate, got: %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Errorf("expected no insert for duplicate event")
	}
}

func TestRoleEventService_Process_DedupCheckError_RecordsAnyway(t *testing.T) {
	repo := &stubRoleEventRepo{}
	dedup := &stubDedup{dupErr: errors.New("redis timeout")}

	if err := newRoleEventSvc(repo, dedup).Process(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(repo.inserted) != 1 {
		t.Errorf("expected event recorded despite dedup error")
	}
}

func TestRoleEventService_Process_InsertFails(t *testing.T) {
	repo := &stubRoleEventRepo{insertErr: errors.New("mongo down")}
	dedup := &stubDedup{}

	if err := newRoleEventSvc(repo, dedup).Process(context.Background(), sampleEvent()); err == nil {
		t.Fatal("expected error")
	}
	if len(dedup.marked) != 0 {
		t.Errorf("expected no dedup mark when insert fails")
	}
}

func TestRoleEventService_Process_UnsyncedClaimsStillRecorded(t *testing.T) {
	repo := &stubRoleEventRepo{}
	e := sampleEvent()
	e.ClaimsSynced = false

	if err := newRoleEventSvc(repo, &stubDedup{}).Process(context.Background(), e); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(repo.inserted) != 1 || repo.inserted[0].ClaimsSynced {
		t.Errorf("expected unsynced event recorded, got: %v", repo.inserted)
	}
}

func TestRoleEventService_Process_NilDedup(t *testing.T) {
	repo := &stubRoleEventRepo{}

	svc := NewRoleEventService(repo, nil, zerolog.Nop())
	if err := svc.Process(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(repo.inserted) != 1 {
		t.Errorf("expected event recorded")
	}
}
