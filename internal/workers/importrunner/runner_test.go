package importrunner

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"preupgrade/internal/domain"
	"preupgrade/internal/ports"
)

const sampleReport = `{"leapp_run_id":"run-1","entries":[
 {"title":"Old kernel driver","severity":"high","actor":"a","audience":"sysadmin","groups":["inhibitor"]},
 {"title":"Info only","severity":"info","actor":"b","audience":"sysadmin"}]}`

type memRepo struct {
	mu       sync.Mutex
	payloads map[int64]ports.ImportPayload
	status   map[int64]domain.ReportImport
	stored   map[int64][]domain.ReportEntry
	reports  map[int64]domain.Report
	nextID   int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		payloads: map[int64]ports.ImportPayload{},
		status:   map[int64]domain.ReportImport{},
		stored:   map[int64][]domain.ReportEntry{},
		reports:  map[int64]domain.Report{},
	}
}

func (m *memRepo) EnqueueImport(_ context.Context, p ports.ImportPayload) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.payloads[m.nextID] = p
	m.status[m.nextID] = domain.ReportImport{ID: m.nextID, JobInvocationID: p.JobInvocationID, Status: "queued"}
	return m.nextID, nil
}

func (m *memRepo) ClaimNext(context.Context) (ports.ImportJob, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := int64(1); id <= m.nextID; id++ {
		st := m.status[id]
		if st.Status == "queued" {
			st.Status = "running"
			m.status[id] = st
			return ports.ImportJob{ID: id, JobInvocationID: st.JobInvocationID}, true, nil
		}
	}
	return ports.ImportJob{}, false, nil
}

func (m *memRepo) StartImport(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.status[id]
	if !ok {
		return ports.ErrNotFound
	}
	if st.Status != "queued" {
		return ports.ErrAlreadyStarted
	}
	st.Status = "running"
	m.status[id] = st
	return nil
}

func (m *memRepo) ReleaseImport(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st := m.status[id]; st.Status == "running" {
		st.Status = "queued"
		m.status[id] = st
	}
	return nil
}

func (m *memRepo) LoadPayload(_ context.Context, id int64) (ports.ImportPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payloads[id]
	if !ok {
		return p, ports.ErrNotFound
	}
	return p, nil
}

func (m *memRepo) StoreReport(_ context.Context, id int64, r domain.Report, entries []domain.ReportEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reportID := 100 + id
	r.ID = reportID
	m.reports[reportID] = r
	m.stored[reportID] = entries
	st := m.status[id]
	st.Status = "completed"
	st.ReportID = &reportID
	m.status[id] = st
	return reportID, nil
}

func (m *memRepo) MarkFailed(_ context.Context, id int64, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.status[id]
	st.Status = "failed"
	st.Error = reason
	m.status[id] = st
	return nil
}

func (m *memRepo) ImportStatus(_ context.Context, id int64) (domain.ReportImport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.status[id]
	if !ok {
		return st, ports.ErrNotFound
	}
	return st, nil
}

func TestProcessInline(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()
	id, _ := repo.EnqueueImport(ctx, ports.ImportPayload{JobInvocationID: 7, HostID: 3, Hostname: "Web01.Example.com", Report: []byte(sampleReport)})

	reportID, err := ProcessInline(ctx, repo, LeappProcessor{Repo: repo}, id)
	if err != nil {
		t.Fatalf("ProcessInline() error = %v", err)
	}

	rep := repo.reports[reportID]
	if rep.Status != domain.ReportInhibited {
		t.Errorf("Status = %q, want %q", rep.Status, domain.ReportInhibited)
	}
	if rep.HostID == nil || *rep.HostID != 3 || rep.Hostname != "web01.example.com" {
		t.Errorf("report host = %v/%q", rep.HostID, rep.Hostname)
	}
	if n := len(repo.stored[reportID]); n != 2 {
		t.Errorf("stored %d entries, want 2", n)
	}
	if st, _ := repo.ImportStatus(ctx, id); st.Status != "completed" {
		t.Errorf("import status = %q, want completed", st.Status)
	}

	if _, err := ProcessInline(ctx, repo, LeappProcessor{Repo: repo}, id); err != ports.ErrAlreadyStarted {
		t.Errorf("second ProcessInline() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestProcessInline_InvalidReport(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()
	id, _ := repo.EnqueueImport(ctx, ports.ImportPayload{JobInvocationID: 7, Report: []byte(`{"entries":[{"title":"x"}]}`)})

	if _, err := ProcessInline(ctx, repo, LeappProcessor{Repo: repo}, id); err == nil {
		t.Fatal("ProcessInline() error = nil, want parse failure")
	}
	st, _ := repo.ImportStatus(ctx, id)
	if st.Status != "failed" || st.Error == "" {
		t.Errorf("import = %+v, want failed with reason", st)
	}
}

func TestRun(t *testing.T) {
	repo := newMemRepo()
	ctx, cancel := context.WithCancel(context.Background())
	good, _ := repo.EnqueueImport(ctx, ports.ImportPayload{JobInvocationID: 1, Hostname: "a", Report: []byte(sampleReport)})
	bad, _ := repo.EnqueueImport(ctx, ports.ImportPayload{JobInvocationID: 2, Report: []byte(`not json`)})

	done := make(chan struct{})
	go func() {
		Run(ctx, repo, LeappProcessor{Repo: repo}, 2, 5*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for {
		g, _ := repo.ImportStatus(ctx, good)
		b, _ := repo.ImportStatus(ctx, bad)
		if g.Status == "completed" && b.Status == "failed" {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("imports not processed: %+v %+v", g, b)
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

// stalledProcessor holds every import until ctx is cancelled.
type stalledProcessor struct{}

func (stalledProcessor) Process(ctx context.Context, _ int64) (int64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestRun_ShutdownRequeuesClaimed(t *testing.T) {
	repo := newMemRepo()
	ctx, cancel := context.WithCancel(context.Background())
	for i := 1; i <= 3; i++ {
		repo.EnqueueImport(ctx, ports.ImportPayload{JobInvocationID: int64(i), Report: []byte(sampleReport)})
	}

	done := make(chan struct{})
	go func() {
		Run(ctx, repo, stalledProcessor{}, 1, 5*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
		close(done)
	}()

	// One import in the worker, one buffered, one held by the dispatcher.
	deadline := time.After(5 * time.Second)
	for {
		st, _ := repo.ImportStatus(ctx, 3)
		if st.Status == "running" {
			break
		}
		select {
		case <-deadline:
			t.Fatal("third import never claimed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	for id := int64(1); id <= 3; id++ {
		if st, _ := repo.ImportStatus(context.Background(), id); st.Status != "queued" {
			t.Errorf("import %d status = %q, want queued", id, st.Status)
		}
	}
}
