package basesvc

import (
	"context"

	"servicehub/internal/logger"
	"servicehub/internal/mailer"
	"servicehub/internal/utility"
)

// Mail is a best-effort message to a client.
type Mail struct {
	From     string
	To       string
	Subject  string
	Template mailer.Template
}

// SendMail sends m in the background. Failures are logged and never reach the caller.
// Nothing is sent without a mailer or a recipient.
func SendMail(ctx context.Context, mr mailer.Mailer, m Mail) {
	if mr == nil || m.To == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go utility.GoProtect(func() {
		if err := mr.SendEmail(ctx, m.Subject, m.From, []string{m.To}, m.Template); err != nil {
			logger.WithModule("mailer").WithError(err).WithField("template", m.Template.Name).Warn("mail not sent")
		}
	})
}
