package jobsvc

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"servicehub/internal/api/auth"
	basedto "servicehub/internal/api/base/dto"
	basemodels "servicehub/internal/api/base/models"
	basesvc "servicehub/internal/api/base/service"
	jobmodels "servicehub/internal/api/job/models"
	"servicehub/internal/common"
	"servicehub/internal/mailer"
	"servicehub/internal/notification"
	"servicehub/internal/statushistory"
	"servicehub/internal/storage"
	"servicehub/internal/utility"
)

// UpdateStatus moves a job to in.Status, keeping the previous status in its revision list.
func (s *JobService) UpdateStatus(ctx context.Context, actor auth.Actor, org, id primitive.ObjectID, in basedto.StatusInput) (jobmodels.Job, error) {
	status := jobmodels.Status(in.Status)
	if !status.Valid() {
		return jobmodels.Job{}, common.ValidationError("Unknown job status", map[string]string{"status": in.Status})
	}
	next := statushistory.Initial(status, actor.ID, s.now())
	next.Reason = in.Reason

	j, err := s.store.Transition(ctx, org, id, next)
	if err != nil {
		return jobmodels.Job{}, err
	}
	s.announce(ctx, j, "")
	return j, nil
}

// Complete marks a job done with the given note and files, then mails the client.
func (s *JobService) Complete(ctx context.Context, actor auth.Actor, org, id primitive.ObjectID, note string, files []basesvc.Upload) (jobmodels.Job, error) {
	current, err := s.store.Get(ctx, org, id)
	if err != nil {
		return jobmodels.Job{}, err
	}
	if current.IsCompleted {
		return jobmodels.Job{}, common.AlreadyCompletedError(entityJob, id.Hex())
	}

	docs, err := basesvc.UploadAll(ctx, s.files, files)
	if err != nil {
		return jobmodels.Job{}, err
	}

	now := s.now()
	next := statushistory.Initial(jobmodels.StatusCompleted, actor.ID, now)
	completion := basemodels.Completion{Note: note, Docs: docs, Date: now.UnixMilli(), CompletedBy: actor.ID}

	var done jobmodels.Job
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		done, err = s.store.Complete(ctx, org, id, next, completion)
		return err
	})
	if err != nil {
		basesvc.DiscardUploads(ctx, s.files, docs)
		return jobmodels.Job{}, err
	}

	s.announce(ctx, done, notification.EventCompleted)
	basesvc.SendMail(ctx, s.mail, basesvc.Mail{
		From:     s.mailFrom,
		To:       done.Client.Email,
		Subject:  fmt.Sprintf("Job %s completed", done.RefCode),
		Template: completedMail(done, docs),
	})
	return done, nil
}

func completedMail(j jobmodels.Job, docs []storage.StoredFile) mailer.Template {
	return mailer.Template{
		Name: mailer.TemplateJobCompleted,
		Context: map[string]interface{}{
			"ClientName":  j.Client.FullName,
			"RefCode":     j.RefCode,
			"Title":       j.Title,
			"CompletedOn": utility.FormatDate(time.UnixMilli(j.Completion.Date).UTC()),
			"Note":        j.Completion.Note,
			"Docs":        docs,
		},
	}
}

// SetFeedback stores or replaces the feedback on a job.
func (s *JobService) SetFeedback(ctx context.Context, actor auth.Actor, org, id primitive.ObjectID, in basedto.FeedbackInput) (jobmodels.Job, error) {
	return s.store.SetFeedback(ctx, org, id, in.ToFeedback(actor.ID, s.now()))
}

func (s *JobService) announce(ctx context.Context, j jobmodels.Job, event string) {
	var from string
	if n := len(j.StatusRevision); n > 0 {
		from = string(j.StatusRevision[n-1].Status)
	}
	s.effects.Announce(ctx, basesvc.Transition{
		Entity:         entityJob,
		EntityID:       j.ID.Hex(),
		OrganizationID: j.OwnerOrganizationID.Hex(),
		From:           from,
		To:             string(j.Status.Status),
		Reason:         j.Status.Reason,
		UpdatedBy:      j.Status.UpdatedBy,
		UpdatedAt:      j.Status.UpdatedAt,
		Recipients:     j.TeamIDs(),
		Event:          event,
	})
}
