package jobsvc

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	basemodels "servicehub/internal/api/base/models"
	jobmodels "servicehub/internal/api/job/models"
	visitmodels "servicehub/internal/api/visit/models"
	visitsvc "servicehub/internal/api/visit/service"
	"servicehub/internal/common"
	"servicehub/internal/database"
	"servicehub/internal/mailer"
	"servicehub/internal/notification"
	"servicehub/internal/statushistory"
	"servicehub/internal/storage"
)

var errInjected = errors.New("injected failure")

// memJobs is an in-memory Store enforcing the per-organization refCode uniqueness.
type memJobs struct {
	mu   sync.Mutex
	jobs map[primitive.ObjectID]jobmodels.Job
	fail map[string]error
	// taken refCodes fail the next insert with a duplicate key.
	taken map[string]bool
}

func newMemJobs() *memJobs {
	return &memJobs{jobs: map[primitive.ObjectID]jobmodels.Job{}, fail: map[string]error{}, taken: map[string]bool{}}
}

func (m *memJobs) live(org, id primitive.ObjectID) (jobmodels.Job, error) {
	j, ok := m.jobs[id]
	if !ok || j.IsDeleted || j.OwnerOrganizationID != org {
		return jobmodels.Job{}, common.NotFoundError(entityJob, id.Hex())
	}
	return j, nil
}

func (m *memJobs) Insert(_ context.Context, j jobmodels.Job) (jobmodels.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["Insert"]; err != nil {
		return jobmodels.Job{}, err
	}
	if m.taken[j.RefCode] {
		delete(m.taken, j.RefCode)
		return jobmodels.Job{}, common.ConvertMongoError(mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}})
	}
	if j.ID.IsZero() {
		j.ID = primitive.NewObjectID()
	}
	m.jobs[j.ID] = j
	return j, nil
}

func (m *memJobs) Get(_ context.Context, org, id primitive.ObjectID) (jobmodels.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live(org, id)
}

func (m *memJobs) List(_ context.Context, org primitive.ObjectID, f ListFilter) ([]jobmodels.Job, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []jobmodels.Job{}
	for _, j := range m.jobs {
		if j.IsDeleted || j.OwnerOrganizationID != org {
			continue
		}
		if f.Status != "" && j.Status.Status != f.Status {
			continue
		}
		if f.Client != "" && !strings.HasPrefix(strings.ToLower(j.Client.FullName), strings.ToLower(f.Client)) {
			continue
		}
		out = append(out, j)
	}
	return out, int64(len(out)), nil
}

func (m *memJobs) SetSchedule(_ context.Context, org, id, primaryVisit primitive.ObjectID, startDate string) (jobmodels.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["SetSchedule"]; err != nil {
		return jobmodels.Job{}, err
	}
	j, err := m.live(org, id)
	if err != nil {
		return jobmodels.Job{}, err
	}
	j.PrimaryVisit, j.StartDate, j.Type = primaryVisit, startDate, jobmodels.TypeRecurring
	m.jobs[id] = j
	return j, nil
}

func (m *memJobs) transition(j jobmodels.Job, next statushistory.Entry[jobmodels.Status]) jobmodels.Job {
	j.StatusRevision = append(slices.Clone(j.StatusRevision), j.Status)
	j.Status = next
	return j
}

func (m *memJobs) Transition(_ context.Context, org, id primitive.ObjectID, next statushistory.Entry[jobmodels.Status]) (jobmodels.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, err := m.live(org, id)
	if err != nil {
		return jobmodels.Job{}, err
	}
	j = m.transition(j, next)
	m.jobs[id] = j
	return j, nil
}

func (m *memJobs) Complete(_ context.Context, org, id primitive.ObjectID, next statushistory.Entry[jobmodels.Status], c basemodels.Completion) (jobmodels.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["Complete"]; err != nil {
		return jobmodels.Job{}, err
	}
	j, err := m.live(org, id)
	if err != nil {
		return jobmodels.Job{}, err
	}
	if j.IsCompleted {
		return jobmodels.Job{}, common.AlreadyCompletedError(entityJob, id.Hex())
	}
	j = m.transition(j, next)
	j.IsCompleted = true
	j.Completion = &c
	m.jobs[id] = j
	return j, nil
}

func (m *memJobs) SetFeedback(_ context.Context, org, id primitive.ObjectID, fb basemodels.Feedback) (jobmodels.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, err := m.live(org, id)
	if err != nil {
		return jobmodels.Job{}, err
	}
	j.Feedback = &fb
	m.jobs[id] = j
	return j, nil
}

func (m *memJobs) SoftDelete(_ context.Context, org, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, err := m.live(org, id)
	if err != nil {
		return err
	}
	j.IsDeleted = true
	m.jobs[id] = j
	return nil
}

// memVisits covers the visit methods the job service calls. The embedded nil Store
// panics on anything else.
type memVisits struct {
	visitsvc.Store
	mu     sync.Mutex
	visits map[primitive.ObjectID]visitmodels.Visit
	fail   map[string]error
}

func newMemVisits() *memVisits {
	return &memVisits{visits: map[primitive.ObjectID]visitmodels.Visit{}, fail: map[string]error{}}
}

func (m *memVisits) Insert(_ context.Context, v visitmodels.Visit) (visitmodels.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["Insert"]; err != nil {
		return visitmodels.Visit{}, err
	}
	v.ID = primitive.NewObjectID()
	m.visits[v.ID] = v
	return v, nil
}

func (m *memVisits) Get(_ context.Context, org, id primitive.ObjectID) (visitmodels.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok || v.OwnerOrganizationID != org {
		return visitmodels.Visit{}, common.NotFoundError("visit", id.Hex())
	}
	return v, nil
}

func (m *memVisits) Save(_ context.Context, v visitmodels.Visit) (visitmodels.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["Save"]; err != nil {
		return visitmodels.Visit{}, err
	}
	m.visits[v.ID] = v
	return v, nil
}

// memTx restores both stores when fn fails.
type memTx struct {
	jobs   *memJobs
	visits *memVisits
}

func (t *memTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.jobs.mu.Lock()
	jobs := maps.Clone(t.jobs.jobs)
	t.jobs.mu.Unlock()
	t.visits.mu.Lock()
	visits := maps.Clone(t.visits.visits)
	t.visits.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.jobs.mu.Lock()
		t.jobs.jobs = jobs
		t.jobs.mu.Unlock()
		t.visits.mu.Lock()
		t.visits.visits = visits
		t.visits.mu.Unlock()
		return database.WrapTransactionError(err)
	}
	return nil
}

type memStorage struct {
	mu      sync.Mutex
	keys    []string
	deleted []string
}

func (s *memStorage) Upload(_ context.Context, _ []byte, filename string) (storage.StoredFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := primitive.NewObjectID().Hex() + "-" + filename
	s.keys = append(s.keys, key)
	return storage.StoredFile{Key: key, URL: "mem://" + key, Name: filename}, nil
}

func (s *memStorage) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return true, nil
}

type sentMail struct {
	Subject string
	From    string
	To      []string
	mailer.Template
}

// chanMailer hands every message to sent; mail goes out in the background.
type chanMailer struct {
	sent chan sentMail
}

func newChanMailer() *chanMailer {
	return &chanMailer{sent: make(chan sentMail, 4)}
}

func (m *chanMailer) SendEmail(_ context.Context, subject, from string, to []string, t mailer.Template) error {
	m.sent <- sentMail{Subject: subject, From: from, To: to, Template: t}
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
	users  [][]string
}

func (n *recordingNotifier) Notify(_ context.Context, userIDs []string, p notification.Payload) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, p.Data[notification.KeyEvent])
	n.users = append(n.users, userIDs)
}
