package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/domain/model"
)

type mockQueryGenerator struct{ mock.Mock }

func (m *mockQueryGenerator) GenerateQueries(ctx context.Context, desc string) (string, error) {
	args := m.Called(ctx, desc)
	return args.String(0), args.Error(1)
}

type mockSearcher struct{ mock.Mock }

func (m *mockSearcher) Search(ctx context.Context, p core.SearchParams) ([]model.SearchHit, error) {
	args := m.Called(ctx, p)
	hits, _ := args.Get(0).([]model.SearchHit)
	return hits, args.Error(1)
}

type mockDownloader struct{ mock.Mock }

func (m *mockDownloader) Download(ctx context.Context, hit model.SearchHit) (*core.Media, error) {
	args := m.Called(ctx, hit)
	media, _ := args.Get(0).(*core.Media)
	return media, args.Error(1)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) Upload(ctx context.Context, p core.UploadParams) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, names []string) (int, error) {
	args := m.Called(ctx, names)
	return args.Int(0), args.Error(1)
}

type mockAnalyzer struct{ mock.Mock }

func (m *mockAnalyzer) Analyze(ctx context.Context, req core.AnalyzeRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockAnalyzer) AnalyzeStream(ctx context.Context, req core.AnalyzeRequest) (core.FrameStream, error) {
	args := m.Called(ctx, req)
	stream, _ := args.Get(0).(core.FrameStream)
	return stream, args.Error(1)
}

type mockSummarizer struct{ mock.Mock }

func (m *mockSummarizer) Summarize(ctx context.Context, req core.SummarizeRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type mockVideoRepo struct{ mock.Mock }

func (m *mockVideoRepo) Create(ctx context.Context, v *model.VideoRecord) (string, error) {
	args := m.Called(ctx, v)
	return args.String(0), args.Error(1)
}

func (m *mockVideoRepo) SaveAnalysis(ctx context.Context, id string, a model.VideoAnalysis) error {
	return m.Called(ctx, id, a).Error(0)
}

func (m *mockVideoRepo) ClearMedia(ctx context.Context, ids []string) ([]string, error) {
	args := m.Called(ctx, ids)
	out, _ := args.Get(0).([]string)
	return out, args.Error(1)
}

type mockTrendQueryRepo struct{ mock.Mock }

func (m *mockTrendQueryRepo) Create(ctx context.Context, userID, query string) (*model.TrendQuery, error) {
	args := m.Called(ctx, userID, query)
	tq, _ := args.Get(0).(*model.TrendQuery)
	return tq, args.Error(1)
}

type mockRunRepo struct{ mock.Mock }

func (m *mockRunRepo) Save(ctx context.Context, run *model.WorkflowRun) error {
	return m.Called(ctx, run).Error(0)
}

func (m *mockRunRepo) GetByID(ctx context.Context, id string) (*model.WorkflowRun, error) {
	args := m.Called(ctx, id)
	run, _ := args.Get(0).(*model.WorkflowRun)
	return run, args.Error(1)
}

type mockRunner struct{ mock.Mock }

func (m *mockRunner) RunWorkflow(ctx context.Context, req model.RunWorkflowRequest) (*model.WorkflowRun, error) {
	args := m.Called(ctx, req)
	run, _ := args.Get(0).(*model.WorkflowRun)
	return run, args.Error(1)
}

type mockEmailSender struct{ mock.Mock }

func (m *mockEmailSender) Send(ctx context.Context, email core.Email) error {
	return m.Called(ctx, email).Error(0)
}

type mockTickLease struct{ mock.Mock }

func (m *mockTickLease) TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockTickLease) Release(ctx context.Context, key, token string) error {
	return m.Called(ctx, key, token).Error(0)
}

// memoryUserRepo keeps schedule state in memory so consecutive ticks observe earlier writes.
type memoryUserRepo struct {
	mu      sync.Mutex
	users   []model.ScheduledUser
	listErr error
	saves   int
}

func (r *memoryUserRepo) ListSubscribed(context.Context) ([]model.ScheduledUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]model.ScheduledUser, len(r.users))
	copy(out, r.users)
	return out, nil
}

func (r *memoryUserRepo) SaveRunSnapshot(_ context.Context, p core.SaveRunSnapshotParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].Preference.UserID == p.UserID {
			at := p.At
			r.users[i].State.LastRunAt = &at
			r.users[i].State.LastResultsSnapshot = p.Snapshot
			r.users[i].State.PendingResultsReadyForEmail = true
			r.saves++
			return nil
		}
	}
	return errors.New("user not found")
}

func (r *memoryUserRepo) MarkEmailSent(_ context.Context, p core.MarkEmailSentParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].Preference.UserID != p.UserID {
			continue
		}
		if !r.users[i].State.PendingResultsReadyForEmail {
			return false, nil
		}
		at := p.At
		r.users[i].State.PendingResultsReadyForEmail = false
		r.users[i].State.LastEmailSentAt = &at
		return true, nil
	}
	return false, errors.New("user not found")
}

func (r *memoryUserRepo) get(id string) model.ScheduledUser {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Preference.UserID == id {
			return u
		}
	}
	return model.ScheduledUser{}
}

// sliceStream replays frames then ends with end (io.EOF when nil).
type sliceStream struct {
	frames []string
	end    error
	closed bool
}

func (s *sliceStream) Next() ([]byte, error) {
	if len(s.frames) == 0 {
		if s.end != nil {
			return nil, s.end
		}
		return nil, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return []byte(f), nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}
