package visitsvc

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"servicehub/internal/api/auth"
	basedto "servicehub/internal/api/base/dto"
	basemodels "servicehub/internal/api/base/models"
	basesvc "servicehub/internal/api/base/service"
	visitdto "servicehub/internal/api/visit/dto"
	visitmodels "servicehub/internal/api/visit/models"
	"servicehub/internal/common"
	"servicehub/internal/notification"
	"servicehub/internal/recurrence"
	"servicehub/internal/statushistory"
	"servicehub/internal/utility"
)

const tenMondays = "DTSTART:20240101T000000Z\nRRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=10"

var (
	fixedNow = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	manager  = auth.Actor{ID: "manager-1", Roles: []string{auth.RoleManager}}
)

type fixture struct {
	svc      *VisitService
	store    *memStore
	tx       *memTx
	files    *memStorage
	notifier *recordingNotifier
	org      primitive.ObjectID
	job      primitive.ObjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    newMemStore(),
		files:    newMemStorage(),
		notifier: &recordingNotifier{},
		org:      primitive.NewObjectID(),
		job:      primitive.NewObjectID(),
	}
	f.store.jobs[f.job] = true
	f.tx = &memTx{store: f.store}
	f.svc = NewVisitService(Deps{
		Store:      f.store,
		Transactor: f.tx,
		Storage:    f.files,
		Effects:    basesvc.Effects{Notifier: f.notifier},
		Now:        func() time.Time { return fixedNow },
	})
	return f
}

func (f *fixture) seed(t *testing.T, sp Spec, completed bool) visitmodels.Visit {
	t.Helper()
	sp.Organization = f.org
	sp.Job = f.job
	v := NewVisit(sp, manager.ID, fixedNow)
	if completed {
		v.IsCompleted = true
		v.Status = statushistory.Initial(visitmodels.StatusCompleted, manager.ID, fixedNow)
	}
	saved, err := f.store.Insert(context.Background(), v)
	require.NoError(t, err)
	return saved
}

// calendar is every day produced by the live visits of the organization, failing on a day
// produced twice.
func (f *fixture) calendar(t *testing.T, from, to string) []string {
	t.Helper()
	visits, _, err := f.store.List(context.Background(), f.org, ListFilter{})
	require.NoError(t, err)

	days := map[string]bool{}
	add := func(d string) {
		require.False(t, days[d], "day %s produced twice", d)
		days[d] = true
	}
	for _, v := range visits {
		if !v.IsRecurring() {
			add(v.StartDate)
			continue
		}
		seq, err := recurrence.ExpandOccurrences(v.RRuleSet, v.ExcRRule, mustDate(t, from), mustDate(t, to))
		require.NoError(t, err)
		for d := range seq {
			add(utility.FormatDate(d))
		}
	}
	out := make([]string, 0, len(days))
	for d := range days {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := utility.ParseDate(s)
	require.NoError(t, err)
	return d
}

func ptr[T any](v T) *T { return &v }

func exclusions(t *testing.T, days ...string) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = recurrence.ExclusionFor(mustDate(t, d))
	}
	return out
}

// seedSplitScenario builds a ten-Monday series with three materialized exceptions:
// a completed one before the split, an open one and a completed one after it.
func seedSplitScenario(t *testing.T, f *fixture) (series, open, done visitmodels.Visit) {
	series = f.seed(t, Spec{
		IsPrimary:  true,
		StartDate:  "2024-01-01",
		StartTime:  "09:00",
		RRuleSet:   tenMondays,
		Exclusions: exclusions(t, "2024-01-22", "2024-02-05", "2024-02-12"),
		Team:       []primitive.ObjectID{primitive.NewObjectID()},
	}, false)
	f.seed(t, Spec{Series: &series.ID, StartDate: "2024-01-22", StartTime: "09:00"}, true)
	open = f.seed(t, Spec{Series: &series.ID, StartDate: "2024-02-05", StartTime: "11:00"}, false)
	done = f.seed(t, Spec{Series: &series.ID, StartDate: "2024-02-12", StartTime: "09:00"}, true)
	return series, open, done
}

func TestSplitFollowing_PreservesCoverage(t *testing.T) {
	f := newFixture(t)
	series, open, done := seedSplitScenario(t, f)
	before := f.calendar(t, "2023-12-01", "2024-06-30")
	require.Len(t, before, 10)

	successor, err := f.svc.SplitFollowing(context.Background(), manager, f.org, series.ID, visitdto.OccurrenceEditInput{
		Date:             "2024-01-29",
		VisitUpdateInput: visitdto.VisitUpdateInput{StartTime: ptr("10:00")},
	})
	require.NoError(t, err)

	assert.Equal(t, before, f.calendar(t, "2023-12-01", "2024-06-30"))

	assert.False(t, successor.IsPrimary)
	assert.Equal(t, "2024-01-29", successor.StartDate)
	assert.Equal(t, "2024-03-04", successor.EndDate)
	assert.Equal(t, "10:00", successor.StartTime)
	assert.Equal(t, series.Team, successor.Team)
	assert.Equal(t, exclusions(t, "2024-02-12"), successor.ExcRRule)
	assert.Equal(t, visitmodels.StatusNotCompleted, successor.Status.Status)

	truncated, err := f.svc.Get(context.Background(), f.org, series.ID)
	require.NoError(t, err)
	assert.True(t, truncated.IsPrimary)
	assert.Equal(t, "2024-01-28", truncated.EndDate)
	assert.Equal(t, "09:00", truncated.StartTime)

	_, err = f.svc.Get(context.Background(), f.org, open.ID)
	assert.True(t, errors.Is(err, common.ErrNotFound), "open exception is removed")
	kept, err := f.svc.Get(context.Background(), f.org, done.ID)
	require.NoError(t, err, "completed exception is kept")
	require.NotNil(t, kept.Series)
	assert.Equal(t, successor.ID, *kept.Series, "completed exception moves to the successor")
}

func TestSplitFollowing_LeavesAdHocVisits(t *testing.T) {
	f := newFixture(t)
	series := f.seed(t, Spec{IsPrimary: true, StartDate: "2024-01-01", StartTime: "09:00", RRuleSet: tenMondays}, false)
	adHoc := f.seed(t, Spec{StartDate: "2024-02-07", StartTime: "15:00"}, false)
	before := f.calendar(t, "2023-12-01", "2024-06-30")
	require.Len(t, before, 11)

	_, err := f.svc.SplitFollowing(context.Background(), manager, f.org, series.ID, visitdto.OccurrenceEditInput{Date: "2024-01-29"})
	require.NoError(t, err)

	assert.Equal(t, before, f.calendar(t, "2023-12-01", "2024-06-30"))
	_, err = f.svc.Get(context.Background(), f.org, adHoc.ID)
	assert.NoError(t, err)
}

func TestSplitFollowing_LeavesExceptionsOfOtherSeries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.seed(t, Spec{IsPrimary: true, StartDate: "2024-01-01", StartTime: "09:00", RRuleSet: tenMondays}, false)
	before := f.calendar(t, "2023-12-01", "2024-06-30")
	require.Len(t, before, 10)

	second, err := f.svc.SplitFollowing(ctx, manager, f.org, first.ID, visitdto.OccurrenceEditInput{Date: "2024-02-05"})
	require.NoError(t, err)
	detached, err := f.svc.EditOccurrence(ctx, manager, f.org, second.ID, visitdto.OccurrenceEditInput{
		Date:             "2024-02-12",
		VisitUpdateInput: visitdto.VisitUpdateInput{StartTime: ptr("13:00")},
	})
	require.NoError(t, err)
	require.NotNil(t, detached.Series)
	assert.Equal(t, second.ID, *detached.Series)

	_, err = f.svc.SplitFollowing(ctx, manager, f.org, first.ID, visitdto.OccurrenceEditInput{Date: "2024-01-15"})
	require.NoError(t, err)

	assert.Equal(t, before, f.calendar(t, "2023-12-01", "2024-06-30"))
	got, err := f.svc.Get(ctx, f.org, detached.ID)
	require.NoError(t, err)
	assert.Equal(t, "13:00", got.StartTime)
}

func TestSplitFollowing_RollsBackOnFailure(t *testing.T) {
	for _, step := range []string{"Save", "DeleteIDs", "Insert", "Reparent"} {
		t.Run(step, func(t *testing.T) {
			f := newFixture(t)
			series, _, _ := seedSplitScenario(t, f)
			before := f.store.snapshot()

			f.store.fail[step] = errInjected
			_, err := f.svc.SplitFollowing(context.Background(), manager, f.org, series.ID, visitdto.OccurrenceEditInput{Date: "2024-01-29"})

			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrTransaction))
			assert.True(t, errors.Is(err, errInjected))
			assert.Equal(t, before, f.store.snapshot())
		})
	}
}

func TestSplitFollowing_Rejects(t *testing.T) {
	f := newFixture(t)
	series, _, _ := seedSplitScenario(t, f)
	single := f.seed(t, Spec{StartDate: "2024-03-01"}, false)
	ctx := context.Background()

	_, err := f.svc.SplitFollowing(ctx, manager, f.org, primitive.NewObjectID(), visitdto.OccurrenceEditInput{Date: "2024-01-29"})
	assert.True(t, errors.Is(err, common.ErrNotFound))

	_, err = f.svc.SplitFollowing(ctx, manager, f.org, series.ID, visitdto.OccurrenceEditInput{Date: "2024-01-30"})
	assert.True(t, errors.Is(err, common.ErrValidation), "not an occurrence day")

	_, err = f.svc.SplitFollowing(ctx, manager, f.org, single.ID, visitdto.OccurrenceEditInput{Date: "2024-03-01"})
	assert.True(t, errors.Is(err, common.ErrValidation), "not a series")

	_, err = f.svc.SplitFollowing(ctx, manager, f.org, series.ID, visitdto.OccurrenceEditInput{
		Date:             "2024-01-29",
		VisitUpdateInput: visitdto.VisitUpdateInput{StartDate: ptr("2024-01-30")},
	})
	assert.True(t, errors.Is(err, common.ErrValidation), "moved start date")
}

func TestEditOccurrence_DetachesOneDay(t *testing.T) {
	f := newFixture(t)
	series := f.seed(t, Spec{IsPrimary: true, StartDate: "2024-01-01", StartTime: "09:00", RRuleSet: tenMondays}, false)
	before := f.calendar(t, "2023-12-01", "2024-06-30")

	single, err := f.svc.EditOccurrence(context.Background(), manager, f.org, series.ID, visitdto.OccurrenceEditInput{
		Date:             "2024-01-08",
		VisitUpdateInput: visitdto.VisitUpdateInput{Title: ptr("Bring the ladder"), StartTime: ptr("14:00")},
	})
	require.NoError(t, err)

	assert.Equal(t, before, f.calendar(t, "2023-12-01", "2024-06-30"))
	assert.Equal(t, "2024-01-08", single.StartDate)
	assert.Equal(t, "14:00", single.StartTime)
	assert.Equal(t, "Bring the ladder", single.Title)
	assert.False(t, single.IsRecurring())
	assert.False(t, single.IsPrimary)
	require.NotNil(t, single.Series)
	assert.Equal(t, series.ID, *single.Series)

	got, err := f.svc.Get(context.Background(), f.org, series.ID)
	require.NoError(t, err)
	assert.Equal(t, exclusions(t, "2024-01-08"), got.ExcRRule)

	_, err = f.svc.EditOccurrence(context.Background(), manager, f.org, series.ID, visitdto.OccurrenceEditInput{Date: "2024-01-08"})
	assert.True(t, errors.Is(err, common.ErrValidation), "already detached")
}

func TestEditOccurrence_RollsBack(t *testing.T) {
	f := newFixture(t)
	series := f.seed(t, Spec{StartDate: "2024-01-01", RRuleSet: tenMondays}, false)
	before := f.store.snapshot()
	f.store.fail["Insert"] = errInjected

	_, err := f.svc.EditOccurrence(context.Background(), manager, f.org, series.ID, visitdto.OccurrenceEditInput{Date: "2024-01-15"})
	assert.True(t, errors.Is(err, common.ErrTransaction))
	assert.Equal(t, before, f.store.snapshot())
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := visitdto.VisitCreateInput{
		Job:       f.job.Hex(),
		StartDate: "2024-02-01",
		RRuleSet:  "DTSTART:20240201T000000Z\nRRULE:FREQ=DAILY;COUNT=3",
		LineItems: []basedto.LineItemInput{{Name: "Mowing", Quantity: 2, UnitPrice: 12.5}},
	}

	v, err := f.svc.Create(ctx, manager, f.org, in)
	require.NoError(t, err)
	assert.False(t, v.ID.IsZero())
	assert.False(t, v.IsPrimary)
	assert.Equal(t, visitmodels.StatusNotCompleted, v.Status.Status)
	assert.Equal(t, manager.ID, v.Status.UpdatedBy)
	assert.Empty(t, v.StatusRevision)
	assert.NotNil(t, v.Team)

	missing := in
	missing.Job = primitive.NewObjectID().Hex()
	_, err = f.svc.Create(ctx, manager, f.org, missing)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	bad := in
	bad.RRuleSet = "RRULE:FREQ=DAILY"
	_, err = f.svc.Create(ctx, manager, f.org, bad)
	assert.True(t, errors.Is(err, common.ErrMalformedRule))

	backwards := in
	backwards.EndDate = "2024-01-01"
	_, err = f.svc.Create(ctx, manager, f.org, backwards)
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestCheckSchedule_StartDateFollowsRule(t *testing.T) {
	f := newFixture(t)
	v := NewVisit(Spec{Organization: f.org, Job: f.job, StartDate: "2024-01-01", RRuleSet: tenMondays}, manager.ID, fixedNow)
	require.NoError(t, f.svc.CheckSchedule(v))

	for _, startDate := range []string{"2024-01-15", "2023-12-25"} {
		late := v
		late.StartDate = startDate
		err := f.svc.CheckSchedule(late)
		assert.True(t, errors.Is(err, common.ErrValidation), startDate)
	}

	series := f.seed(t, Spec{StartDate: "2024-01-01", RRuleSet: tenMondays}, false)
	_, err := f.svc.Update(context.Background(), manager, f.org, series.ID, visitdto.VisitUpdateInput{StartDate: ptr("2024-01-08")})
	assert.True(t, errors.Is(err, common.ErrValidation))

	summaries, err := f.svc.Summaries(context.Background(), f.org, mustDate(t, "2024-01-01"), mustDate(t, "2024-01-07"))
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "2024-01-01", summaries[0].OccurrenceDate)
}

func TestUpdate_EditsOnlyThisRecord(t *testing.T) {
	f := newFixture(t)
	v := f.seed(t, Spec{StartDate: "2024-02-01", Title: "Old"}, false)
	other := f.seed(t, Spec{StartDate: "2024-02-02", Title: "Other"}, false)

	got, err := f.svc.Update(context.Background(), manager, f.org, v.ID, visitdto.VisitUpdateInput{Title: ptr("New"), EndTime: ptr("12:00")})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "12:00", got.EndTime)
	assert.Equal(t, v.Status, got.Status)

	untouched, err := f.svc.Get(context.Background(), f.org, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "Other", untouched.Title)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	primary := f.seed(t, Spec{IsPrimary: true, StartDate: "2024-01-01", RRuleSet: tenMondays}, false)
	single := f.seed(t, Spec{StartDate: "2024-01-03"}, false)
	f.store.referenced[primary.ID] = true
	ctx := context.Background()

	err := f.svc.Delete(ctx, manager, f.org, primary.ID)
	require.Error(t, err)
	assert.Equal(t, common.StatusConflict, err.(*common.Error).StatusCode)

	require.NoError(t, f.svc.Delete(ctx, manager, f.org, single.ID))
	_, err = f.svc.Get(ctx, f.org, single.ID)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestUpdateStatus_AppendsRevision(t *testing.T) {
	f := newFixture(t)
	worker := primitive.NewObjectID()
	v := f.seed(t, Spec{StartDate: "2024-01-03", Team: []primitive.ObjectID{worker}}, false)
	initial := v.Status
	ctx := context.Background()

	first, err := f.svc.UpdateStatus(ctx, manager, f.org, v.ID, basedto.StatusInput{Status: string(visitmodels.StatusCompleted), Reason: "done early"})
	require.NoError(t, err)
	second, err := f.svc.UpdateStatus(ctx, manager, f.org, v.ID, basedto.StatusInput{Status: string(visitmodels.StatusNotCompleted)})
	require.NoError(t, err)

	assert.Equal(t, visitmodels.StatusNotCompleted, second.Status.Status)
	assert.Equal(t, manager.ID, second.Status.UpdatedBy)
	assert.Equal(t, fixedNow.UnixMilli(), second.Status.UpdatedAt)
	require.Len(t, second.StatusRevision, 2)
	assert.Equal(t, initial, second.StatusRevision[0])
	assert.Equal(t, first.Status, second.StatusRevision[1])
	assert.Equal(t, "done early", second.StatusRevision[1].Reason)

	require.Len(t, f.notifier.calls, 2)
	assert.Equal(t, []string{worker.Hex()}, f.notifier.users[0])
	assert.Equal(t, string(visitmodels.StatusCompleted), f.notifier.calls[0].Data[notification.KeyStatus])
}

func TestUpdateStatus_Rejects(t *testing.T) {
	f := newFixture(t)
	v := f.seed(t, Spec{StartDate: "2024-01-03"}, false)

	_, err := f.svc.UpdateStatus(context.Background(), manager, f.org, v.ID, basedto.StatusInput{Status: "LOST"})
	assert.True(t, errors.Is(err, common.ErrValidation))

	_, err = f.svc.UpdateStatus(context.Background(), manager, f.org, primitive.NewObjectID(), basedto.StatusInput{Status: string(visitmodels.StatusCompleted)})
	assert.True(t, errors.Is(err, common.ErrNotFound))
	assert.Empty(t, f.notifier.calls)
}

func TestUpdateStatus_NotifierPanicDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.svc.effects = basesvc.Effects{Notifier: panickingNotifier{}}
	v := f.seed(t, Spec{StartDate: "2024-01-03", Team: []primitive.ObjectID{primitive.NewObjectID()}}, false)

	got, err := f.svc.UpdateStatus(context.Background(), manager, f.org, v.ID, basedto.StatusInput{Status: string(visitmodels.StatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, visitmodels.StatusCompleted, got.Status.Status)
}

func TestComplete(t *testing.T) {
	f := newFixture(t)
	v := f.seed(t, Spec{StartDate: "2024-01-03", Team: []primitive.ObjectID{primitive.NewObjectID()}}, false)
	ctx := context.Background()
	files := []basesvc.Upload{{Name: "before.jpg", Data: []byte("a")}, {Name: "after.jpg", Data: []byte("b")}}

	done, err := f.svc.Complete(ctx, manager, f.org, v.ID, "all good", files)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	require.NotNil(t, done.Completion)
	assert.Equal(t, "all good", done.Completion.Note)
	assert.Equal(t, manager.ID, done.Completion.CompletedBy)
	assert.Len(t, done.Completion.Docs, 2)
	assert.Equal(t, visitmodels.StatusCompleted, done.Status.Status)
	require.Len(t, done.StatusRevision, 1)
	assert.Equal(t, notification.EventCompleted, f.notifier.calls[0].Data[notification.KeyEvent])

	_, err = f.svc.Complete(ctx, manager, f.org, v.ID, "again", files)
	assert.True(t, errors.Is(err, common.ErrAlreadyCompleted))
	assert.Equal(t, 2, f.files.uploads, "no upload for a repeated completion")

	got, err := f.svc.Get(ctx, f.org, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "all good", got.Completion.Note)
}

// racingStore completes the visit on behalf of someone else just before the write.
type racingStore struct {
	*memStore
}

func (r racingStore) Complete(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[visitmodels.Status], c basemodels.Completion) (visitmodels.Visit, error) {
	if _, err := r.memStore.Complete(ctx, org, id, next, basemodels.Completion{Note: "other"}); err != nil {
		return visitmodels.Visit{}, err
	}
	return r.memStore.Complete(ctx, org, id, next, c)
}

func TestComplete_RacingWriteIsAlreadyCompleted(t *testing.T) {
	f := newFixture(t)
	v := f.seed(t, Spec{StartDate: "2024-01-03"}, false)
	f.svc.store = racingStore{f.store}

	_, err := f.svc.Complete(context.Background(), manager, f.org, v.ID, "second", []basesvc.Upload{{Name: "a.pdf"}})
	assert.True(t, errors.Is(err, common.ErrAlreadyCompleted))
	assert.Empty(t, f.files.stored, "uploads of the losing request are removed")
}

func TestComplete_UploadFailureLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)
	v := f.seed(t, Spec{StartDate: "2024-01-03"}, false)
	f.files.failOn = 1
	files := []basesvc.Upload{{Name: "a.pdf"}, {Name: "b.pdf"}, {Name: "c.pdf"}}

	_, err := f.svc.Complete(context.Background(), manager, f.org, v.ID, "", files)
	assert.True(t, errors.Is(err, errInjected))
	assert.Empty(t, f.files.stored)
	assert.Len(t, f.files.deleted, 1)
	assert.Equal(t, 2, f.files.uploads, "stops at the first failure")

	got, err := f.svc.Get(context.Background(), f.org, v.ID)
	require.NoError(t, err)
	assert.False(t, got.IsCompleted)
	assert.Nil(t, got.Completion)
}

func TestComplete_WriteFailureDiscardsUploads(t *testing.T) {
	f := newFixture(t)
	v := f.seed(t, Spec{StartDate: "2024-01-03"}, false)
	f.store.fail["Complete"] = errInjected

	_, err := f.svc.Complete(context.Background(), manager, f.org, v.ID, "", []basesvc.Upload{{Name: "a.pdf"}})
	assert.True(t, errors.Is(err, common.ErrTransaction))
	assert.Empty(t, f.files.stored)
	assert.Empty(t, f.notifier.calls)
}

func TestSetFeedback(t *testing.T) {
	f := newFixture(t)
	v := f.seed(t, Spec{StartDate: "2024-01-03"}, false)

	got, err := f.svc.SetFeedback(context.Background(), manager, f.org, v.ID, basedto.FeedbackInput{Note: "great", Rating: 5})
	require.NoError(t, err)
	require.NotNil(t, got.Feedback)
	assert.Equal(t, 5, got.Feedback.Rating)
	assert.Equal(t, manager.ID, got.Feedback.By)
	assert.False(t, got.IsCompleted)
}

func TestSummaries(t *testing.T) {
	f := newFixture(t)
	series := f.seed(t, Spec{
		StartDate: "2024-01-01",
		StartTime: "09:00",
		RRuleSet:  tenMondays,
		LineItems: []basemodels.LineItem{{Name: "Clean", Quantity: 3, UnitPrice: 10.10}},
	}, false)
	single := f.seed(t, Spec{StartDate: "2024-01-10", StartTime: "08:00"}, false)
	f.seed(t, Spec{StartDate: "2024-03-01"}, false)

	got, err := f.svc.Summaries(context.Background(), f.org, mustDate(t, "2024-01-01"), mustDate(t, "2024-01-14"))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2024-01-01", got[0].OccurrenceDate)
	assert.Equal(t, series.ID.Hex(), got[0].VisitID)
	assert.Equal(t, "30.3", got[0].TotalPrice.String())
	assert.Equal(t, "2024-01-08", got[1].OccurrenceDate)
	assert.Equal(t, single.ID.Hex(), got[2].VisitID)

	_, err = f.svc.Summaries(context.Background(), f.org, mustDate(t, "2024-01-01"), mustDate(t, "2025-06-01"))
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestInRange(t *testing.T) {
	series := visitmodels.Visit{StartDate: "2024-01-01", RRuleSet: tenMondays}
	bounded := visitmodels.Visit{StartDate: "2024-01-01", EndDate: "2024-01-31", RRuleSet: tenMondays}
	single := visitmodels.Visit{StartDate: "2024-01-10"}

	tests := []struct {
		name     string
		v        visitmodels.Visit
		from, to string
		want     bool
	}{
		{"no bounds", single, "", "", true},
		{"single inside", single, "2024-01-01", "2024-01-31", true},
		{"single before", single, "2024-01-11", "", false},
		{"single after", single, "", "2024-01-09", false},
		{"open series later window", series, "2030-01-01", "2030-02-01", true},
		{"series starts after window", series, "2023-01-01", "2023-12-31", false},
		{"bounded series ended", bounded, "2024-02-01", "", false},
		{"bounded series overlaps", bounded, "2024-01-31", "2024-03-01", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InRange(tt.v, tt.from, tt.to))
		})
	}
}
