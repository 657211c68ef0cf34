package visitsvc

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"servicehub/internal/api/auth"
	basedto "servicehub/internal/api/base/dto"
	basemodels "servicehub/internal/api/base/models"
	basesvc "servicehub/internal/api/base/service"
	visitmodels "servicehub/internal/api/visit/models"
	"servicehub/internal/common"
	"servicehub/internal/notification"
	"servicehub/internal/statushistory"
)

// UpdateStatus moves a visit to in.Status, keeping the previous status in its revision list.
// The team is notified once the change is stored.
func (s *VisitService) UpdateStatus(ctx context.Context, actor auth.Actor, org, id primitive.ObjectID, in basedto.StatusInput) (visitmodels.Visit, error) {
	status := visitmodels.Status(in.Status)
	if !status.Valid() {
		return visitmodels.Visit{}, common.ValidationError("Unknown visit status", map[string]string{"status": in.Status})
	}
	next := statushistory.Initial(status, actor.ID, s.now())
	next.Reason = in.Reason

	v, err := s.store.Transition(ctx, org, id, next)
	if err != nil {
		return visitmodels.Visit{}, err
	}
	s.announce(ctx, v, "")
	return v, nil
}

// Complete marks a visit done with the given note and files. Files are uploaded before the
// write and deleted again if the write fails. A visit can be completed once.
func (s *VisitService) Complete(ctx context.Context, actor auth.Actor, org, id primitive.ObjectID, note string, files []basesvc.Upload) (visitmodels.Visit, error) {
	current, err := s.store.Get(ctx, org, id)
	if err != nil {
		return visitmodels.Visit{}, err
	}
	if current.IsCompleted {
		return visitmodels.Visit{}, common.AlreadyCompletedError(entityVisit, id.Hex())
	}

	docs, err := basesvc.UploadAll(ctx, s.files, files)
	if err != nil {
		return visitmodels.Visit{}, err
	}

	now := s.now()
	next := statushistory.Initial(visitmodels.StatusCompleted, actor.ID, now)
	completion := basemodels.Completion{Note: note, Docs: docs, Date: now.UnixMilli(), CompletedBy: actor.ID}

	var done visitmodels.Visit
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		done, err = s.store.Complete(ctx, org, id, next, completion)
		return err
	})
	if err != nil {
		basesvc.DiscardUploads(ctx, s.files, docs)
		return visitmodels.Visit{}, err
	}
	s.announce(ctx, done, notification.EventCompleted)
	return done, nil
}

// SetFeedback stores or replaces the feedback on a visit.
func (s *VisitService) SetFeedback(ctx context.Context, actor auth.Actor, org, id primitive.ObjectID, in basedto.FeedbackInput) (visitmodels.Visit, error) {
	return s.store.SetFeedback(ctx, org, id, in.ToFeedback(actor.ID, s.now()))
}

func (s *VisitService) announce(ctx context.Context, v visitmodels.Visit, event string) {
	var from string
	if n := len(v.StatusRevision); n > 0 {
		from = string(v.StatusRevision[n-1].Status)
	}
	s.effects.Announce(ctx, basesvc.Transition{
		Entity:         entityVisit,
		EntityID:       v.ID.Hex(),
		OrganizationID: v.OwnerOrganizationID.Hex(),
		From:           from,
		To:             string(v.Status.Status),
		Reason:         v.Status.Reason,
		UpdatedBy:      v.Status.UpdatedBy,
		UpdatedAt:      v.Status.UpdatedAt,
		Recipients:     v.TeamIDs(),
		Event:          event,
	})
}
