package visitsvc

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	basemodels "servicehub/internal/api/base/models"
	visitmodels "servicehub/internal/api/visit/models"
	"servicehub/internal/common"
	"servicehub/internal/database"
	"servicehub/internal/notification"
	"servicehub/internal/statushistory"
	"servicehub/internal/storage"
)

var errInjected = errors.New("injected failure")

// memStore is an in-memory Store. fail makes the named method return an error.
type memStore struct {
	mu         sync.Mutex
	visits     map[primitive.ObjectID]visitmodels.Visit
	jobs       map[primitive.ObjectID]bool
	referenced map[primitive.ObjectID]bool
	fail       map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		visits:     map[primitive.ObjectID]visitmodels.Visit{},
		jobs:       map[primitive.ObjectID]bool{},
		referenced: map[primitive.ObjectID]bool{},
		fail:       map[string]error{},
	}
}

func cloneVisit(v visitmodels.Visit) visitmodels.Visit {
	v.ExcRRule = slices.Clone(v.ExcRRule)
	v.Team = slices.Clone(v.Team)
	v.LineItems = slices.Clone(v.LineItems)
	v.StatusRevision = slices.Clone(v.StatusRevision)
	return v
}

func (m *memStore) snapshot() map[primitive.ObjectID]visitmodels.Visit {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[primitive.ObjectID]visitmodels.Visit, len(m.visits))
	for id, v := range m.visits {
		out[id] = cloneVisit(v)
	}
	return out
}

func (m *memStore) restore(s map[primitive.ObjectID]visitmodels.Visit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits = s
}

func (m *memStore) live(org, id primitive.ObjectID) (visitmodels.Visit, error) {
	v, ok := m.visits[id]
	if !ok || v.IsDeleted || v.OwnerOrganizationID != org {
		return visitmodels.Visit{}, common.NotFoundError(entityVisit, id.Hex())
	}
	return v, nil
}

func (m *memStore) Insert(_ context.Context, v visitmodels.Visit) (visitmodels.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["Insert"]; err != nil {
		return visitmodels.Visit{}, err
	}
	v.ID = primitive.NewObjectID()
	m.visits[v.ID] = cloneVisit(v)
	return cloneVisit(v), nil
}

func (m *memStore) Get(_ context.Context, org, id primitive.ObjectID) (visitmodels.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.live(org, id)
	return cloneVisit(v), err
}

func (m *memStore) List(_ context.Context, org primitive.ObjectID, f ListFilter) ([]visitmodels.Visit, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []visitmodels.Visit{}
	for _, v := range m.visits {
		if v.IsDeleted || v.OwnerOrganizationID != org {
			continue
		}
		if !f.Job.IsZero() && v.Job != f.Job {
			continue
		}
		if InRange(v, f.From, f.To) {
			out = append(out, cloneVisit(v))
		}
	}
	slices.SortFunc(out, func(a, b visitmodels.Visit) int {
		if a.StartDate != b.StartDate {
			if a.StartDate < b.StartDate {
				return -1
			}
			return 1
		}
		return a.ID.Timestamp().Compare(b.ID.Timestamp())
	})
	return out, int64(len(out)), nil
}

func (m *memStore) Save(_ context.Context, v visitmodels.Visit) (visitmodels.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["Save"]; err != nil {
		return visitmodels.Visit{}, err
	}
	cur, err := m.live(v.OwnerOrganizationID, v.ID)
	if err != nil {
		return visitmodels.Visit{}, err
	}
	next := cloneVisit(v)
	next.Status = cur.Status
	next.StatusRevision = cur.StatusRevision
	next.IsCompleted = cur.IsCompleted
	next.Completion = cur.Completion
	next.Feedback = cur.Feedback
	next.IsDeleted = cur.IsDeleted
	next.Series = cur.Series
	m.visits[v.ID] = next
	return cloneVisit(next), nil
}

func (m *memStore) AddExclusion(_ context.Context, org, id primitive.ObjectID, rule string) (visitmodels.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["AddExclusion"]; err != nil {
		return visitmodels.Visit{}, err
	}
	v, err := m.live(org, id)
	if err != nil {
		return visitmodels.Visit{}, err
	}
	if !slices.Contains(v.ExcRRule, rule) {
		v.ExcRRule = append(slices.Clone(v.ExcRRule), rule)
	}
	m.visits[id] = v
	return cloneVisit(v), nil
}

func (m *memStore) transition(v visitmodels.Visit, next statushistory.Entry[visitmodels.Status]) visitmodels.Visit {
	v.StatusRevision = append(slices.Clone(v.StatusRevision), v.Status)
	v.Status = next
	return v
}

func (m *memStore) Transition(_ context.Context, org, id primitive.ObjectID, next statushistory.Entry[visitmodels.Status]) (visitmodels.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["Transition"]; err != nil {
		return visitmodels.Visit{}, err
	}
	v, err := m.live(org, id)
	if err != nil {
		return visitmodels.Visit{}, err
	}
	v = m.transition(v, next)
	m.visits[id] = v
	return cloneVisit(v), nil
}

func (m *memStore) Complete(_ context.Context, org, id primitive.ObjectID, next statushistory.Entry[visitmodels.Status], c basemodels.Completion) (visitmodels.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["Complete"]; err != nil {
		return visitmodels.Visit{}, err
	}
	v, err := m.live(org, id)
	if err != nil {
		return visitmodels.Visit{}, err
	}
	if v.IsCompleted {
		return visitmodels.Visit{}, common.AlreadyCompletedError(entityVisit, id.Hex())
	}
	v = m.transition(v, next)
	v.IsCompleted = true
	v.Completion = &c
	m.visits[id] = v
	return cloneVisit(v), nil
}

func (m *memStore) SetFeedback(_ context.Context, org, id primitive.ObjectID, fb basemodels.Feedback) (visitmodels.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.live(org, id)
	if err != nil {
		return visitmodels.Visit{}, err
	}
	v.Feedback = &fb
	m.visits[id] = v
	return cloneVisit(v), nil
}

func (m *memStore) Exceptions(_ context.Context, org, series primitive.ObjectID, from string) ([]visitmodels.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []visitmodels.Visit{}
	for _, v := range m.visits {
		if v.IsDeleted || v.OwnerOrganizationID != org || v.Series == nil || *v.Series != series {
			continue
		}
		if v.IsRecurring() || v.StartDate < from {
			continue
		}
		out = append(out, cloneVisit(v))
	}
	return out, nil
}

func (m *memStore) Reparent(_ context.Context, org primitive.ObjectID, ids []primitive.ObjectID, series primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["Reparent"]; err != nil {
		return err
	}
	for _, id := range ids {
		if v, ok := m.visits[id]; ok && v.OwnerOrganizationID == org {
			s := series
			v.Series = &s
			m.visits[id] = v
		}
	}
	return nil
}

func (m *memStore) DeleteIDs(_ context.Context, org primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["DeleteIDs"]; err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		if v, ok := m.visits[id]; ok && v.OwnerOrganizationID == org {
			delete(m.visits, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) SoftDelete(_ context.Context, org, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.live(org, id)
	if err != nil {
		return err
	}
	v.IsDeleted = true
	m.visits[id] = v
	return nil
}

func (m *memStore) EnsureUnreferenced(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.referenced[id] {
		return common.NewError(common.ErrCodeBusinessOperation, "Visit is the primary visit of 1 job(s)", common.StatusConflict, nil)
	}
	return nil
}

func (m *memStore) JobExists(_ context.Context, _, job primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[job], nil
}

// memTx restores the store when fn fails.
type memTx struct {
	store *memStore
}

func (t *memTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	before := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(before)
		return database.WrapTransactionError(err)
	}
	return nil
}

// memStorage records uploads. failOn fails the upload with that index.
type memStorage struct {
	mu      sync.Mutex
	stored  map[string][]byte
	deleted []string
	uploads int
	failOn  int
}

func newMemStorage() *memStorage {
	return &memStorage{stored: map[string][]byte{}, failOn: -1}
}

func (s *memStorage) Upload(_ context.Context, data []byte, filename string) (storage.StoredFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.uploads
	s.uploads++
	if i == s.failOn {
		return storage.StoredFile{}, errInjected
	}
	key := primitive.NewObjectID().Hex() + "-" + filename
	s.stored[key] = data
	return storage.StoredFile{Key: key, URL: "mem://" + key, Name: filename}, nil
}

func (s *memStorage) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	_, ok := s.stored[key]
	delete(s.stored, key)
	return ok, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notification.Payload
	users [][]string
}

func (n *recordingNotifier) Notify(_ context.Context, userIDs []string, p notification.Payload) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, p)
	n.users = append(n.users, userIDs)
}

type panickingNotifier struct{}

func (panickingNotifier) Notify(context.Context, []string, notification.Payload) {
	panic("push backend down")
}
