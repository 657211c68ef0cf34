// Package visitsvc implements the visit operations: CRUD, single-occurrence edits, series
// splits, status transitions, completion and feedback.
package visitsvc

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"servicehub/internal/api/auth"
	basedto "servicehub/internal/api/base/dto"
	basemodels "servicehub/internal/api/base/models"
	basesvc "servicehub/internal/api/base/service"
	visitdto "servicehub/internal/api/visit/dto"
	visitmodels "servicehub/internal/api/visit/models"
	"servicehub/internal/common"
	"servicehub/internal/database"
	"servicehub/internal/lock"
	"servicehub/internal/recurrence"
	"servicehub/internal/statushistory"
	"servicehub/internal/storage"
	"servicehub/internal/utility"
)

// maxSummaryDays caps the calendar window of Summaries.
const maxSummaryDays = 366

// Deps are the collaborators of VisitService. Zero optional fields get no-op defaults.
type Deps struct {
	Store      Store
	Transactor database.Transactor
	Storage    storage.FileStorage
	Locker     lock.Locker
	Effects    basesvc.Effects
	Engine     *recurrence.Engine
	Now        func() time.Time
}

// VisitService runs the visit operations for an already-authorized actor.
type VisitService struct {
	store   Store
	tx      database.Transactor
	files   storage.FileStorage
	locker  lock.Locker
	effects basesvc.Effects
	engine  *recurrence.Engine
	now     func() time.Time
}

func NewVisitService(d Deps) *VisitService {
	s := &VisitService{
		store:   d.Store,
		tx:      d.Transactor,
		files:   d.Storage,
		locker:  d.Locker,
		effects: d.Effects,
		engine:  d.Engine,
		now:     d.Now,
	}
	if s.files == nil {
		s.files = storage.Unconfigured{}
	}
	if s.locker == nil {
		s.locker = lock.Nop{}
	}
	if s.engine == nil {
		s.engine = recurrence.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Spec is everything needed to build a visit record.
type Spec struct {
	Organization primitive.ObjectID
	Job          primitive.ObjectID
	IsPrimary    bool
	Series       *primitive.ObjectID
	Title        string
	Instructions string
	StartDate    string
	EndDate      string
	StartTime    string
	EndTime      string
	RRuleSet     string
	Exclusions   []string
	Team         []primitive.ObjectID
	LineItems    []basemodels.LineItem
}

// NewVisit builds an unsaved visit in its initial status.
func NewVisit(sp Spec, actorID string, now time.Time) visitmodels.Visit {
	return visitmodels.Visit{
		OwnerOrganizationID: sp.Organization,
		Job:                 sp.Job,
		IsPrimary:           sp.IsPrimary,
		Series:              sp.Series,
		Title:               sp.Title,
		Instructions:        sp.Instructions,
		StartDate:           sp.StartDate,
		EndDate:             sp.EndDate,
		StartTime:           sp.StartTime,
		EndTime:             sp.EndTime,
		RRuleSet:            sp.RRuleSet,
		ExcRRule:            nonNil(sp.Exclusions),
		Team:                nonNilIDs(sp.Team),
		LineItems:           nonNilLines(sp.LineItems),
		Status:              statushistory.Initial(visitmodels.StatusNotCompleted, actorID, now),
		StatusRevision:      []statushistory.Entry[visitmodels.Status]{},
		CreatedBy:           actorID,
	}
}

// CheckSchedule validates the schedule fields of v.
func (s *VisitService) CheckSchedule(v visitmodels.Visit) error {
	if _, err := utility.ParseDate(v.StartDate); err != nil {
		return err
	}
	if v.EndDate != "" {
		if _, err := utility.ParseDate(v.EndDate); err != nil {
			return err
		}
		if v.EndDate < v.StartDate {
			return common.ValidationError("endDate must not be before startDate", map[string]string{"startDate": v.StartDate, "endDate": v.EndDate})
		}
	}
	if v.IsPrimary && !v.IsRecurring() {
		return common.ValidationError("A primary visit needs a recurrence rule", nil)
	}
	if v.IsRecurring() {
		first, err := s.engine.FirstDay(v.RRuleSet)
		if err != nil {
			return err
		}
		if day := utility.FormatDate(first); day != v.StartDate {
			return common.ValidationError("startDate must be the first day of the recurrence rule", map[string]string{"startDate": v.StartDate, "ruleStart": day})
		}
	}
	for _, x := range v.ExcRRule {
		if err := s.engine.Validate(x); err != nil {
			return err
		}
	}
	return nil
}

// Create stores an ad-hoc visit for an existing job.
func (s *VisitService) Create(ctx context.Context, actor auth.Actor, org primitive.ObjectID, in visitdto.VisitCreateInput) (visitmodels.Visit, error) {
	job, err := utility.ParseObjectID("job", in.Job)
	if err != nil {
		return visitmodels.Visit{}, err
	}
	team, err := utility.StringArray2ObjectIDArray("team", in.Team)
	if err != nil {
		return visitmodels.Visit{}, err
	}
	lines, err := basedto.ToLineItems(in.LineItems)
	if err != nil {
		return visitmodels.Visit{}, err
	}

	v := NewVisit(Spec{
		Organization: org,
		Job:          job,
		Title:        in.Title,
		Instructions: in.Instructions,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		RRuleSet:     in.RRuleSet,
		Team:         team,
		LineItems:    lines,
	}, actor.ID, s.now())
	if err := s.CheckSchedule(v); err != nil {
		return visitmodels.Visit{}, err
	}

	exists, err := s.store.JobExists(ctx, org, job)
	if err != nil {
		return visitmodels.Visit{}, err
	}
	if !exists {
		return visitmodels.Visit{}, common.NotFoundError("job", job.Hex())
	}
	return s.store.Insert(ctx, v)
}

// Get returns one live visit.
func (s *VisitService) Get(ctx context.Context, org, id primitive.ObjectID) (visitmodels.Visit, error) {
	return s.store.Get(ctx, org, id)
}

// List returns one page of visits, filtered by job and date range.
func (s *VisitService) List(ctx context.Context, org primitive.ObjectID, q visitdto.VisitListQuery) (*basemodels.PaginateResult[visitmodels.Visit], error) {
	f := ListFilter{From: q.From, To: q.To, Page: q.Page, Limit: q.Limit}
	if q.Job != "" {
		job, err := utility.ParseObjectID("job", q.Job)
		if err != nil {
			return nil, err
		}
		f.Job = job
	}
	f.Page, f.Limit = basesvc.ClampPage(f.Page, f.Limit)
	items, total, err := s.store.List(ctx, org, f)
	if err != nil {
		return nil, err
	}
	return basemodels.NewPaginateResult(items, f.Page, f.Limit, total), nil
}

// Update edits the fields of this one visit record.
func (s *VisitService) Update(ctx context.Context, actor auth.Actor, org, id primitive.ObjectID, in visitdto.VisitUpdateInput) (visitmodels.Visit, error) {
	v, err := s.store.Get(ctx, org, id)
	if err != nil {
		return visitmodels.Visit{}, err
	}
	if err := applyEdits(&v, in); err != nil {
		return visitmodels.Visit{}, err
	}
	if err := s.CheckSchedule(v); err != nil {
		return visitmodels.Visit{}, err
	}
	return s.store.Save(ctx, v)
}

// Delete soft-deletes a visit. A primary visit still referenced by its job is refused.
func (s *VisitService) Delete(ctx context.Context, actor auth.Actor, org, id primitive.ObjectID) error {
	v, err := s.store.Get(ctx, org, id)
	if err != nil {
		return err
	}
	if v.IsPrimary {
		if err := s.store.EnsureUnreferenced(ctx, id); err != nil {
			return err
		}
	}
	return s.store.SoftDelete(ctx, org, id)
}

// Summaries projects every visit of the organization onto the days of [from, to].
func (s *VisitService) Summaries(ctx context.Context, org primitive.ObjectID, from, to time.Time) ([]recurrence.VisitOccurrenceSummary, error) {
	if to.Sub(from) > maxSummaryDays*24*time.Hour {
		return nil, common.ValidationError("Summary window is too large", map[string]int{"maxDays": maxSummaryDays})
	}
	visits, _, err := s.store.List(ctx, org, ListFilter{From: utility.FormatDate(from), To: utility.FormatDate(to)})
	if err != nil {
		return nil, err
	}

	schedules := make([]recurrence.VisitSchedule, 0, len(visits))
	for _, v := range visits {
		schedules = append(schedules, recurrence.VisitSchedule{
			VisitID:    v.ID.Hex(),
			Status:     string(v.Status.Status),
			StartDate:  v.StartDate,
			StartTime:  v.StartTime,
			Rule:       v.RRuleSet,
			Exclusions: v.ExcRRule,
			LineItems:  basemodels.PricedLines(v.LineItems),
		})
	}
	return s.engine.ComputeVisitSummaries(schedules, from, to)
}

// applyEdits copies the set fields of in onto v.
func applyEdits(v *visitmodels.Visit, in visitdto.VisitUpdateInput) error {
	if in.Title != nil {
		v.Title = *in.Title
	}
	if in.Instructions != nil {
		v.Instructions = *in.Instructions
	}
	if in.StartDate != nil {
		v.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		v.EndDate = *in.EndDate
	}
	if in.StartTime != nil {
		v.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		v.EndTime = *in.EndTime
	}
	if in.Team != nil {
		team, err := utility.StringArray2ObjectIDArray("team", *in.Team)
		if err != nil {
			return err
		}
		v.Team = team
	}
	if in.LineItems != nil {
		lines, err := basedto.ToLineItems(*in.LineItems)
		if err != nil {
			return err
		}
		v.LineItems = lines
	}
	return nil
}

func nonNilIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return []primitive.ObjectID{}
	}
	return ids
}

func nonNilLines(lines []basemodels.LineItem) []basemodels.LineItem {
	if lines == nil {
		return []basemodels.LineItem{}
	}
	return lines
}
