package visitsvc

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"servicehub/internal/api/auth"
	visitdto "servicehub/internal/api/visit/dto"
	visitmodels "servicehub/internal/api/visit/models"
	"servicehub/internal/common"
	"servicehub/internal/lock"
	"servicehub/internal/logger"
	"servicehub/internal/recurrence"
	"servicehub/internal/utility"
)

// EditOccurrence detaches the occurrence of a series on in.Date: the series gets an
// exclusion for that day and a standalone visit carrying the edits takes its place.
func (s *VisitService) EditOccurrence(ctx context.Context, actor auth.Actor, org, id primitive.ObjectID, in visitdto.OccurrenceEditInput) (visitmodels.Visit, error) {
	day, err := utility.ParseDate(in.Date)
	if err != nil {
		return visitmodels.Visit{}, err
	}

	var detached visitmodels.Visit
	err = s.onSeries(ctx, org, id, func(ctx context.Context, series visitmodels.Visit) error {
		occurs, err := s.engine.OccursOn(series.RRuleSet, series.ExcRRule, day)
		if err != nil {
			return err
		}
		if !occurs {
			return common.ValidationError("The series has no occurrence on this date", map[string]string{"date": in.Date})
		}

		single := NewVisit(Spec{
			Organization: org,
			Job:          series.Job,
			Series:       &series.ID,
			Title:        series.Title,
			Instructions: series.Instructions,
			StartDate:    in.Date,
			StartTime:    series.StartTime,
			EndTime:      series.EndTime,
			Team:         series.Team,
			LineItems:    series.LineItems,
		}, actor.ID, s.now())
		if err := applyEdits(&single, in.VisitUpdateInput); err != nil {
			return err
		}
		if err := s.CheckSchedule(single); err != nil {
			return err
		}

		if _, err := s.store.AddExclusion(ctx, org, id, recurrence.ExclusionFor(day)); err != nil {
			return err
		}
		detached, err = s.store.Insert(ctx, single)
		return err
	})
	if err != nil {
		return visitmodels.Visit{}, err
	}

	logger.LogAction(logger.AuditAction{
		Action:         "visit_occurrence_detached",
		UserID:         actor.ID,
		OrganizationID: org.Hex(),
		ResourceID:     id.Hex(),
		ResourceType:   entityVisit,
		Details:        map[string]interface{}{"date": in.Date, "visit": detached.ID.Hex()},
	})
	return detached, nil
}

// SplitFollowing edits the occurrence of a series on in.Date and every later one. The
// series is truncated before that day and a non-primary successor series carrying the edits
// continues the schedule. Of the occurrences detached from the series on or after that day,
// open ones are removed and completed ones move to the successor. Ad-hoc visits and the
// exceptions of other series are left alone. All writes happen in one transaction.
// Returns the successor.
func (s *VisitService) SplitFollowing(ctx context.Context, actor auth.Actor, org, id primitive.ObjectID, in visitdto.OccurrenceEditInput) (visitmodels.Visit, error) {
	day, err := utility.ParseDate(in.Date)
	if err != nil {
		return visitmodels.Visit{}, err
	}
	if in.StartDate != nil && *in.StartDate != in.Date {
		return visitmodels.Visit{}, common.ValidationError("startDate of a split must equal date", map[string]string{"date": in.Date, "startDate": *in.StartDate})
	}
	if in.EndDate != nil && *in.EndDate != "" {
		return visitmodels.Visit{}, common.ValidationError("endDate of a split follows the series", nil)
	}

	var successor visitmodels.Visit
	var removed int64
	err = s.onSeries(ctx, org, id, func(ctx context.Context, series visitmodels.Visit) error {
		occurs, err := s.engine.OccursOn(series.RRuleSet, nil, day)
		if err != nil {
			return err
		}
		if !occurs {
			return common.ValidationError("The series has no occurrence on this date", map[string]string{"date": in.Date})
		}

		exceptions, err := s.store.Exceptions(ctx, org, series.ID, in.Date)
		if err != nil {
			return err
		}
		var open, kept []primitive.ObjectID
		var deleted, preserved []time.Time
		for _, x := range exceptions {
			d, err := utility.ParseDate(x.StartDate)
			if err != nil {
				return err
			}
			if x.IsCompleted {
				kept = append(kept, x.ID)
				preserved = append(preserved, d)
			} else {
				open = append(open, x.ID)
				deleted = append(deleted, d)
			}
		}

		plan, err := s.engine.PlanSplit(recurrence.SplitInput{
			Rule:       series.RRuleSet,
			Exclusions: series.ExcRRule,
			SplitDate:  day,
			Deleted:    deleted,
			Preserved:  preserved,
		})
		if err != nil {
			return err
		}
		if plan.SuccessorRule == "" {
			return common.ValidationError("The series has no occurrence on or after this date", map[string]string{"date": in.Date})
		}

		next := NewVisit(Spec{
			Organization: org,
			Job:          series.Job,
			Title:        series.Title,
			Instructions: series.Instructions,
			StartDate:    in.Date,
			EndDate:      series.EndDate,
			StartTime:    series.StartTime,
			EndTime:      series.EndTime,
			RRuleSet:     plan.SuccessorRule,
			Exclusions:   plan.SuccessorExclusions,
			Team:         series.Team,
			LineItems:    series.LineItems,
		}, actor.ID, s.now())
		if !plan.SuccessorEnd.IsZero() {
			next.EndDate = utility.FormatDate(plan.SuccessorEnd)
		}
		if err := applyEdits(&next, in.VisitUpdateInput); err != nil {
			return err
		}
		if err := s.CheckSchedule(next); err != nil {
			return err
		}

		truncated := series
		truncated.RRuleSet = plan.TruncatedRule
		truncated.EndDate = truncatedEnd(series, day)
		if _, err := s.store.Save(ctx, truncated); err != nil {
			return err
		}
		if removed, err = s.store.DeleteIDs(ctx, org, open); err != nil {
			return err
		}
		if successor, err = s.store.Insert(ctx, next); err != nil {
			return err
		}
		return s.store.Reparent(ctx, org, kept, successor.ID)
	})
	if err != nil {
		return visitmodels.Visit{}, err
	}

	logger.LogAction(logger.AuditAction{
		Action:         "visit_series_split",
		UserID:         actor.ID,
		OrganizationID: org.Hex(),
		ResourceID:     id.Hex(),
		ResourceType:   entityVisit,
		Details: map[string]interface{}{
			"date":      in.Date,
			"successor": successor.ID.Hex(),
			"removed":   removed,
		},
	})
	return successor, nil
}

// onSeries runs fn on a fresh read of the recurring visit id, under the series lock of its
// job and inside one transaction.
func (s *VisitService) onSeries(ctx context.Context, org, id primitive.ObjectID, fn func(ctx context.Context, series visitmodels.Visit) error) error {
	v, err := s.store.Get(ctx, org, id)
	if err != nil {
		return err
	}
	return s.locker.WithLock(ctx, lock.SeriesKey(v.Job.Hex()), func(ctx context.Context) error {
		return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
			series, err := s.store.Get(ctx, org, id)
			if err != nil {
				return err
			}
			if !series.IsRecurring() {
				return common.ValidationError("Visit is not a recurring series", map[string]string{"id": id.Hex()})
			}
			return fn(ctx, series)
		})
	})
}

// truncatedEnd is the endDate of a series cut before day: the day before, unless the series
// already ended earlier. It never precedes startDate.
func truncatedEnd(series visitmodels.Visit, day time.Time) string {
	end := utility.FormatDate(day.AddDate(0, 0, -1))
	if series.EndDate != "" && series.EndDate < end {
		end = series.EndDate
	}
	if end < series.StartDate {
		end = series.StartDate
	}
	return end
}
