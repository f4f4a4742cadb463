package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/edgard/vipdesk/internal/config"
	"github.com/edgard/vipdesk/internal/database"
	"github.com/edgard/vipdesk/internal/helpdesk"
	"github.com/edgard/vipdesk/internal/routing"
)

type fakeStore struct {
	database.Store
	maintenanceErr error
	vacuums        int
	cutoffs        []time.Time
}

func (s *fakeStore) RunSQLMaintenance(context.Context) error {
	s.vacuums++
	return s.maintenanceErr
}

func (s *fakeStore) DeleteRunsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoffs = append(s.cutoffs, cutoff)
	return 3, nil
}

type fakeSweeper struct {
	tokens  []string
	summary routing.SweepSummary
	err     error
}

func (f *fakeSweeper) SweepRequests(ctx context.Context, creds helpdesk.Credentials) (routing.SweepSummary, error) {
	f.tokens = append(f.tokens, creds.Token)
	if _, ok := ctx.Deadline(); !ok {
		return f.summary, errors.New("sweep must run with a deadline")
	}
	return f.summary, f.err
}

func newDeps(store *fakeStore, sweeper *fakeSweeper, token string) TaskDeps {
	return TaskDeps{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:   store,
		Sweeper: sweeper,
		Config: &config.Config{
			Helpdesk: config.HelpdeskConfig{Token: token},
			Workflow: config.WorkflowConfig{Timeout: time.Minute},
			Database: config.DatabaseConfig{RetentionDays: 30},
		},
	}
}

func TestRegisterAllTasksMatchesDefaults(t *testing.T) {
	t.Parallel()
	tasks := RegisterAllTasks(newDeps(&fakeStore{}, &fakeSweeper{}, ""))

	if len(tasks) != len(config.DefaultTasks) {
		t.Fatalf("registered %d tasks, defaults list %d", len(tasks), len(config.DefaultTasks))
	}
	for name := range config.DefaultTasks {
		if tasks[name] == nil {
			t.Errorf("default task %q has no implementation", name)
		}
	}
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	task := RegisterAllTasks(newDeps(store, &fakeSweeper{}, ""))[SQLMaintenance]

	if err := task(context.Background()); err != nil {
		t.Fatalf("task: %v", err)
	}
	store.maintenanceErr = errors.New("disk full")
	if err := task(context.Background()); !errors.Is(err, store.maintenanceErr) {
		t.Errorf("err = %v, want wrapped maintenance error", err)
	}
	if store.vacuums != 2 {
		t.Errorf("vacuums = %d", store.vacuums)
	}
}

func TestAuditRetentionTask(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	task := RegisterAllTasks(newDeps(store, &fakeSweeper{}, ""))[AuditRetention]

	before := time.Now().UTC().AddDate(0, 0, -30)
	if err := task(context.Background()); err != nil {
		t.Fatalf("task: %v", err)
	}
	after := time.Now().UTC().AddDate(0, 0, -30)

	if len(store.cutoffs) != 1 {
		t.Fatalf("cutoffs = %v", store.cutoffs)
	}
	if c := store.cutoffs[0]; c.Before(before) || c.After(after) {
		t.Errorf("cutoff %v not within [%v, %v]", c, before, after)
	}
}

func TestRequestSweepTask(t *testing.T) {
	t.Parallel()

	sweeper := &fakeSweeper{summary: routing.SweepSummary{Seen: 2, Routed: 1, Failed: 1}}
	task := RegisterAllTasks(newDeps(&fakeStore{}, sweeper, "desk-token"))[RequestSweep]
	if err := task(context.Background()); err != nil {
		t.Fatalf("task: %v", err)
	}
	if len(sweeper.tokens) != 1 || sweeper.tokens[0] != "desk-token" {
		t.Errorf("tokens = %v", sweeper.tokens)
	}

	sweeper.err = errors.New("list messages: 502")
	if err := task(context.Background()); !errors.Is(err, sweeper.err) {
		t.Errorf("err = %v, want wrapped sweep error", err)
	}
}

func TestRequestSweepTaskRequiresToken(t *testing.T) {
	t.Parallel()
	sweeper := &fakeSweeper{}
	task := RegisterAllTasks(newDeps(&fakeStore{}, sweeper, "  "))[RequestSweep]

	if err := task(context.Background()); !errors.Is(err, errNoToken) {
		t.Errorf("err = %v, want errNoToken", err)
	}
	if len(sweeper.tokens) != 0 {
		t.Errorf("sweep must not run without a token")
	}
}
