package leadgen

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type NotifyOptions struct {
	Smtp       SmtpConfig `json:"smtp"`
	Recipients []string   `json:"recipients"`
}

// SendRunReport emails the run summary with the report file attached. An
// empty server or recipient list disables notification.
func SendRunReport(ctx context.Context, options NotifyOptions, stats Stats, reportPath string) error {
	ctx, span := tracer.Start(ctx, "SendRunReport")
	defer span.End()

	if options.Smtp.Server == "" || len(options.Recipients) == 0 {
		slog.DebugContext(ctx, "notification disabled, skipping run report")
		return nil
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Leadscout <%s>", options.Smtp.EmailAddress)
	mail.To = options.Recipients
	mail.Subject = fmt.Sprintf("Lead report: %d companies qualified", stats.Accepted)

	body := fmt.Sprintf(`A lead generation run finished at %s.

%s

The full report is attached.`,
		stats.Finished.Format("15:04 on 2 January 2006"),
		stats.Render())
	mail.Text = []byte(body)

	if reportPath != "" {
		_, err := mail.AttachFile(reportPath)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to attach report")
			return err
		}
	}

	addr := fmt.Sprintf("%s:%d", options.Smtp.Server, options.Smtp.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", options.Smtp.EmailAddress, options.Smtp.Password, options.Smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send run report")
		return err
	}

	slog.InfoContext(ctx, "run report sent", "recipients", len(options.Recipients))
	return nil
}
