// Package jobsvc implements the job operations. A recurring job keeps its schedule on a
// primary visit, created and rewritten together with the job.
package jobsvc

import (
	"context"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"servicehub/internal/api/auth"
	basedto "servicehub/internal/api/base/dto"
	basemodels "servicehub/internal/api/base/models"
	basesvc "servicehub/internal/api/base/service"
	jobdto "servicehub/internal/api/job/dto"
	jobmodels "servicehub/internal/api/job/models"
	visitmodels "servicehub/internal/api/visit/models"
	visitsvc "servicehub/internal/api/visit/service"
	"servicehub/internal/common"
	"servicehub/internal/database"
	"servicehub/internal/lock"
	"servicehub/internal/logger"
	"servicehub/internal/mailer"
	"servicehub/internal/notification"
	"servicehub/internal/recurrence"
	"servicehub/internal/statushistory"
	"servicehub/internal/storage"
	"servicehub/internal/utility"
)

// Deps are the collaborators of JobService.
type Deps struct {
	Store      Store
	Visits     visitsvc.Store
	Transactor database.Transactor
	Storage    storage.FileStorage
	Locker     lock.Locker
	Effects    basesvc.Effects
	Mailer     mailer.Mailer
	MailFrom   string
	Engine     *recurrence.Engine
	// Random feeds reference codes; crypto/rand when nil.
	Random io.Reader
	Now    func() time.Time
}

type JobService struct {
	store    Store
	visits   visitsvc.Store
	schedule *visitsvc.VisitService
	tx       database.Transactor
	files    storage.FileStorage
	locker   lock.Locker
	effects  basesvc.Effects
	mail     mailer.Mailer
	mailFrom string
	random   io.Reader
	now      func() time.Time
}

func NewJobService(d Deps) *JobService {
	s := &JobService{
		store:    d.Store,
		visits:   d.Visits,
		tx:       d.Transactor,
		files:    d.Storage,
		locker:   d.Locker,
		effects:  d.Effects,
		mail:     d.Mailer,
		mailFrom: d.MailFrom,
		random:   d.Random,
		now:      d.Now,
	}
	if s.files == nil {
		s.files = storage.Unconfigured{}
	}
	if s.locker == nil {
		s.locker = lock.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.schedule = visitsvc.NewVisitService(visitsvc.Deps{Store: d.Visits, Engine: d.Engine, Now: s.now})
	return s
}

// Scheduled is a job with its primary visit.
type Scheduled struct {
	Job   jobmodels.Job     `json:"job"`
	Visit visitmodels.Visit `json:"primaryVisit"`
}

// Create stores a job. With a schedule, its primary visit is created in the same
// transaction and the job becomes recurring.
func (s *JobService) Create(ctx context.Context, actor auth.Actor, org primitive.ObjectID, in jobdto.JobCreateInput) (jobmodels.Job, error) {
	team, err := utility.StringArray2ObjectIDArray("team", in.Team)
	if err != nil {
		return jobmodels.Job{}, err
	}
	lines, err := basedto.ToLineItems(in.LineItems)
	if err != nil {
		return jobmodels.Job{}, err
	}
	now := s.now()

	job := jobmodels.Job{
		ID:                  primitive.NewObjectID(),
		OwnerOrganizationID: org,
		Title:               in.Title,
		Instructions:        in.Instructions,
		Type:                jobmodels.TypeOneOff,
		Client:              in.Client.ToClient(),
		Team:                team,
		LineItems:           lines,
		Status:              statushistory.Initial(jobmodels.StatusActive, actor.ID, now),
		StatusRevision:      []statushistory.Entry[jobmodels.Status]{},
		CreatedBy:           actor.ID,
	}

	var primary *visitmodels.Visit
	if in.Schedule != nil {
		v := s.primaryVisit(job, *in.Schedule, actor.ID)
		if err := s.schedule.CheckSchedule(v); err != nil {
			return jobmodels.Job{}, err
		}
		primary = &v
		job.Type = jobmodels.TypeRecurring
		job.StartDate = v.StartDate
	}

	created, err := basesvc.InsertWithRefCode(ctx, jobmodels.RefCodePrefix, now, s.random,
		func(ref string) jobmodels.Job {
			j := job
			j.RefCode = ref
			return j
		},
		func(ctx context.Context, j jobmodels.Job) (jobmodels.Job, error) {
			var out jobmodels.Job
			err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
				if primary != nil {
					v, err := s.visits.Insert(ctx, *primary)
					if err != nil {
						return err
					}
					j.PrimaryVisit = v.ID
				}
				var err error
				out, err = s.store.Insert(ctx, j)
				return err
			})
			return out, err
		})
	if err != nil {
		return jobmodels.Job{}, err
	}

	if primary != nil {
		s.effects.Announce(ctx, basesvc.Transition{
			Entity:         entityJob,
			EntityID:       created.ID.Hex(),
			OrganizationID: org.Hex(),
			To:             string(created.Status.Status),
			UpdatedBy:      actor.ID,
			UpdatedAt:      created.Status.UpdatedAt,
			Recipients:     created.TeamIDs(),
			Event:          notification.EventScheduled,
		})
	}
	return created, nil
}

func (s *JobService) primaryVisit(j jobmodels.Job, in jobdto.ScheduleInput, actorID string) visitmodels.Visit {
	return visitsvc.NewVisit(visitsvc.Spec{
		Organization: j.OwnerOrganizationID,
		Job:          j.ID,
		IsPrimary:    true,
		Title:        j.Title,
		Instructions: j.Instructions,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		RRuleSet:     in.RRuleSet,
		Team:         j.Team,
		LineItems:    j.LineItems,
	}, actorID, s.now())
}

func (s *JobService) Get(ctx context.Context, org, id primitive.ObjectID) (jobmodels.Job, error) {
	return s.store.Get(ctx, org, id)
}

func (s *JobService) List(ctx context.Context, org primitive.ObjectID, q jobdto.JobListQuery) (*basemodels.PaginateResult[jobmodels.Job], error) {
	f := ListFilter{Status: jobmodels.Status(q.Status), Client: q.Client, Page: q.Page, Limit: q.Limit}
	if f.Status != "" && !f.Status.Valid() {
		return nil, common.ValidationError("Unknown job status", map[string]string{"status": q.Status})
	}
	f.Page, f.Limit = basesvc.ClampPage(f.Page, f.Limit)
	items, total, err := s.store.List(ctx, org, f)
	if err != nil {
		return nil, err
	}
	return basemodels.NewPaginateResult(items, f.Page, f.Limit, total), nil
}

// UpdateSchedule rewrites the rule and dates of the job's primary visit, creating the visit
// when the job had no schedule yet.
func (s *JobService) UpdateSchedule(ctx context.Context, actor auth.Actor, org, id primitive.ObjectID, in jobdto.ScheduleInput) (Scheduled, error) {
	var out Scheduled
	err := s.locker.WithLock(ctx, lock.SeriesKey(id.Hex()), func(ctx context.Context) error {
		return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
			job, err := s.store.Get(ctx, org, id)
			if err != nil {
				return err
			}

			var v visitmodels.Visit
			if job.PrimaryVisit.IsZero() {
				v = s.primaryVisit(job, in, actor.ID)
				if err := s.schedule.CheckSchedule(v); err != nil {
					return err
				}
				if v, err = s.visits.Insert(ctx, v); err != nil {
					return err
				}
			} else {
				if v, err = s.visits.Get(ctx, org, job.PrimaryVisit); err != nil {
					return err
				}
				v.StartDate = in.StartDate
				v.EndDate = in.EndDate
				v.StartTime = in.StartTime
				v.EndTime = in.EndTime
				v.RRuleSet = in.RRuleSet
				if err := s.schedule.CheckSchedule(v); err != nil {
					return err
				}
				if v, err = s.visits.Save(ctx, v); err != nil {
					return err
				}
			}

			job, err = s.store.SetSchedule(ctx, org, id, v.ID, v.StartDate)
			if err != nil {
				return err
			}
			out = Scheduled{Job: job, Visit: v}
			return nil
		})
	})
	if err != nil {
		return Scheduled{}, err
	}

	logger.LogAction(logger.AuditAction{
		Action:         "job_schedule_updated",
		UserID:         actor.ID,
		OrganizationID: org.Hex(),
		ResourceID:     id.Hex(),
		ResourceType:   entityJob,
		Details:        map[string]interface{}{"primaryVisit": out.Visit.ID.Hex(), "startDate": in.StartDate},
	})
	return out, nil
}

// Delete soft-deletes a job. Its visits stay; the primary visit becomes deletable.
func (s *JobService) Delete(ctx context.Context, actor auth.Actor, org, id primitive.ObjectID) error {
	if err := s.store.SoftDelete(ctx, org, id); err != nil {
		return err
	}
	logger.LogAction(logger.AuditAction{
		Action:         "job_deleted",
		UserID:         actor.ID,
		OrganizationID: org.Hex(),
		ResourceID:     id.Hex(),
		ResourceType:   entityJob,
	})
	return nil
}
