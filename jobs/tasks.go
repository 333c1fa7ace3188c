package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewInvestigationOpenedEmail builds the notification sent to the warehouse
// manager when reconciliation opens a case.
func NewInvestigationOpenedEmail(to, caseReference, inventoryReference string) (*asynq.Task, error) {
	return NewSendEmailTask(SendEmailPayload{
		To:      to,
		Subject: fmt.Sprintf("Investigation %s opened", caseReference),
		Body: fmt.Sprintf("Stock count %s could not locate a unit. Case %s is pending review.",
			inventoryReference, caseReference),
	})
}

// Mailer enqueues transactional email tasks. With no recipient configured
// every enqueue is a no-op.
type Mailer struct {
	client *asynq.Client
	to     string
}

// NewMailer constructs a Mailer targeting the given recipient.
func NewMailer(client *asynq.Client, to string) *Mailer {
	return &Mailer{client: client, to: to}
}

// InvestigationOpened enqueues the case-opened notification.
func (m *Mailer) InvestigationOpened(ctx context.Context, caseReference, inventoryReference string) error {
	if m == nil || m.client == nil || m.to == "" {
		return nil
	}
	task, err := NewInvestigationOpenedEmail(m.to, caseReference, inventoryReference)
	if err != nil {
		return err
	}
	_, err = m.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(5))
	return err
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: delivery goes through SMTP once the relay is configured.
	slog.Info("send email", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}
