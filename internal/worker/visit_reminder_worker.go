package worker

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	jobmodels "servicehub/internal/api/job/models"
	visitmodels "servicehub/internal/api/visit/models"
	"servicehub/internal/logger"
	"servicehub/internal/mailer"
	"servicehub/internal/recurrence"
	"servicehub/internal/utility"
)

// OpenVisits finds the uncompleted visits of every organization that may fall on day.
type OpenVisits interface {
	OpenOn(ctx context.Context, day string) ([]visitmodels.Visit, error)
}

// JobLookup resolves the job a visit belongs to.
type JobLookup interface {
	Get(ctx context.Context, org, id primitive.ObjectID) (jobmodels.Job, error)
}

// VisitReminderWorker mails each client the day before a visit occurrence.
// Every occurrence is reminded at most once per process.
type VisitReminderWorker struct {
	visits   OpenVisits
	jobs     JobLookup
	engine   *recurrence.Engine
	mailer   mailer.Mailer
	from     string
	interval time.Duration
	now      func() time.Time

	day  string
	sent map[string]bool
}

// NewVisitReminderWorker builds the worker. interval defaults to one hour.
func NewVisitReminderWorker(visits OpenVisits, jobs JobLookup, m mailer.Mailer, from string, interval time.Duration) *VisitReminderWorker {
	if interval < time.Minute {
		interval = time.Hour
	}
	return &VisitReminderWorker{
		visits:   visits,
		jobs:     jobs,
		engine:   recurrence.Default(),
		mailer:   m,
		from:     from,
		interval: interval,
		now:      time.Now,
		sent:     map[string]bool{},
	}
}

// Start runs a pass immediately and then every interval until ctx is done.
func (w *VisitReminderWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()
	log.WithField("interval", w.interval.String()).Info("Starting visit reminder worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.safeRun(ctx)
		select {
		case <-ctx.Done():
			log.Info("Visit reminder worker stopped")
			return
		case <-ticker.C:
		}
	}
}

func (w *VisitReminderWorker) safeRun(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.GetAppLogger().WithField("panic", r).Error("Visit reminder pass panicked")
		}
	}()
	if _, err := w.RunOnce(ctx); err != nil {
		logger.GetAppLogger().WithError(err).Error("Visit reminder pass failed")
	}
}

// RunOnce reminds the clients of tomorrow's occurrences and returns how many mails went out.
func (w *VisitReminderWorker) RunOnce(ctx context.Context) (int, error) {
	tomorrow := utility.CivilDate(w.now().UTC()).AddDate(0, 0, 1)
	day := utility.FormatDate(tomorrow)
	if day != w.day {
		w.day, w.sent = day, map[string]bool{}
	}

	visits, err := w.visits.OpenOn(ctx, day)
	if err != nil {
		return 0, err
	}

	log := logger.WithModule("reminder")
	jobs := map[primitive.ObjectID]*jobmodels.Job{}
	sent := 0
	for _, v := range visits {
		if w.sent[v.ID.Hex()] {
			continue
		}
		if !w.occursOn(v, tomorrow) {
			continue
		}

		j, ok := jobs[v.Job]
		if !ok {
			found, err := w.jobs.Get(ctx, v.OwnerOrganizationID, v.Job)
			if err != nil {
				log.WithError(err).WithField("visitId", v.ID.Hex()).Warn("Job of visit not found, skipping reminder")
			} else {
				j = &found
			}
			jobs[v.Job] = j
		}
		if j == nil || j.Client.Email == "" {
			continue
		}

		err := w.mailer.SendEmail(ctx, "Visit reminder for "+day, w.from, []string{j.Client.Email}, mailer.Template{
			Name: mailer.TemplateVisitReminder,
			Context: map[string]interface{}{
				"ClientName": j.Client.FullName,
				"Date":       day,
				"StartTime":  v.StartTime,
			},
		})
		if err != nil {
			log.WithError(err).WithField("visitId", v.ID.Hex()).Error("Failed to send visit reminder")
			continue
		}
		w.sent[v.ID.Hex()] = true
		sent++
	}
	return sent, nil
}

func (w *VisitReminderWorker) occursOn(v visitmodels.Visit, day time.Time) bool {
	if !v.IsRecurring() {
		return v.StartDate == utility.FormatDate(day)
	}
	ok, err := w.engine.OccursOn(v.RRuleSet, v.ExcRRule, day)
	if err != nil {
		logger.WithModule("reminder").WithError(err).WithField("visitId", v.ID.Hex()).Warn("Skipping visit with unreadable rule")
		return false
	}
	return ok
}
