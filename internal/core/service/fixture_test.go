package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
	"github.com/wolvesgale/ToDo-Appli/internal/infrastructure/db/memory"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

// fakeClock advances one second per reading so consecutive stamps differ.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.NotifyInput
}

func (p *recordingPublisher) Publish(_ context.Context, in ports.NotifyInput) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, in)
}

func (p *recordingPublisher) byType(t domain.NotificationType) []ports.NotifyInput {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []ports.NotifyInput
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Fixture: every service wired over one memory store and one clock.
// ---------------------------------------------------------------------------

type fixture struct {
	store         *memory.Store
	clock         *fakeClock
	pub           *recordingPublisher
	users         *UserService
	projects      *ProjectService
	members       *MemberService
	tasks         *TaskService
	stages        *StageService
	targets       *TargetService
	matrix        *MatrixService
	invitations   *InvitationService
	notifications *NotificationService
	tenants       *TenantService
	catalog       *ActionCatalogService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zerolog.Nop()
	store := memory.NewStore()
	idem := memory.NewIdempotencyStore(time.Hour)
	clock := newFakeClock()
	pub := &recordingPublisher{}

	f := &fixture{store: store, clock: clock, pub: pub}
	f.users = NewUserService(store, log)
	f.projects = NewProjectService(store, idem, log)
	f.members = NewMemberService(store, log)
	f.tasks = NewTaskService(store, idem, pub, log)
	f.stages = NewStageService(store, log)
	f.targets = NewTargetService(store, log)
	f.tenants = NewTenantService(store, log)
	f.catalog = NewActionCatalogService(store, log)
	f.matrix = NewMatrixService(store, f.stages, f.targets, f.members, f.catalog, pub, log)
	f.invitations = NewInvitationService(store, f.members, f.users, pub, 48*time.Hour, log)
	f.notifications = NewNotificationService(store, log)

	f.users.now = clock.Now
	f.projects.now = clock.Now
	f.members.now = clock.Now
	f.tasks.now = clock.Now
	f.stages.now = clock.Now
	f.targets.now = clock.Now
	f.matrix.now = clock.Now
	f.invitations.now = clock.Now
	f.notifications.now = clock.Now
	f.tenants.now = clock.Now
	f.catalog.now = clock.Now
	return f
}

func (f *fixture) mustUser(t *testing.T, id, email, name string) *domain.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), ports.CreateUserInput{ID: id, Email: email, Name: name})
	if err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
	return u
}

func (f *fixture) mustProject(t *testing.T, owner, name string) *domain.Project {
	t.Helper()
	p, err := f.projects.Create(context.Background(), ports.CreateProjectInput{Name: name, OwnerID: owner})
	if err != nil {
		t.Fatalf("create project %s: %v", name, err)
	}
	return p
}

func (f *fixture) mustTask(t *testing.T, projectID, title string) *domain.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), ports.CreateTaskInput{ProjectID: projectID, Title: title, CreatedBy: "u1"})
	if err != nil {
		t.Fatalf("create task %s: %v", title, err)
	}
	return task
}

func ptr[T any](v T) *T { return &v }
