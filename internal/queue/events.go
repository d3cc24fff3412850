// Package queue publishes domain events to RabbitMQ for downstream
// consumers (notification fan-out, analytics). Publishing is best-effort:
// errors are returned so callers can log them, but no caller treats a
// publish failure as fatal to the originating request.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/unifyi-dev/admissions-crm-api/internal/models"
)

// Queue names, one per event type. Durable so messages survive broker restarts.
const (
	QueueWalkinDecided           = "walkin.decided"
	QueueCommunicationDispatched = "communication.dispatched"
)

// WalkinDecidedEvent notifies that a counsellor settled a walk-in request.
type WalkinDecidedEvent struct {
	WalkinID     string  `json:"walkin_id"`
	StudentID    string  `json:"student_id"`
	CounsellorID string  `json:"counsellor_id"`
	Status       string  `json:"status"`
	VisitDate    string  `json:"visit_date"`
	VisitTime    string  `json:"visit_time"`
	Note         *string `json:"note,omitempty"`
	DecidedAt    string  `json:"decided_at"`
}

// CommunicationDispatchedEvent summarises a finished email broadcast.
type CommunicationDispatchedEvent struct {
	CommunicationID string `json:"communication_id"`
	Subject         string `json:"subject"`
	TotalRecipients int    `json:"total_recipients"`
	Successful      int    `json:"successful"`
	Failed          int    `json:"failed"`
	Status          string `json:"status"`
	DispatchedAt    string `json:"dispatched_at"`
}

// Publisher pushes events onto durable queues over a shared AMQP connection.
type Publisher struct {
	url    string
	logger *zap.Logger
}

// NewPublisher constructs a publisher. The connection is dialed per publish
// so a broker restart never wedges the API process.
func NewPublisher(url string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{url: url, logger: logger}
}

// WalkinDecided publishes a walk-in decision event.
func (p *Publisher) WalkinDecided(ctx context.Context, walkin *models.WalkinRequest) error {
	counsellorID := ""
	if walkin.AssignedCounsellorID != nil {
		counsellorID = *walkin.AssignedCounsellorID
	}
	event := WalkinDecidedEvent{
		WalkinID:     walkin.ID,
		StudentID:    walkin.StudentID,
		CounsellorID: counsellorID,
		Status:       string(walkin.Status),
		VisitDate:    walkin.VisitDate.Format("2006-01-02"),
		VisitTime:    walkin.VisitTime,
		Note:         walkin.CounsellorNote,
		DecidedAt:    walkin.UpdatedAt.Format(time.RFC3339),
	}
	return p.publish(ctx, QueueWalkinDecided, event)
}

// CommunicationDispatched publishes a broadcast completion event.
func (p *Publisher) CommunicationDispatched(ctx context.Context, comm *models.Communication) error {
	event := CommunicationDispatchedEvent{
		CommunicationID: comm.ID,
		Subject:         comm.Subject,
		TotalRecipients: comm.TotalRecipients,
		Successful:      comm.Successful,
		Failed:          comm.Failed,
		Status:          string(comm.Status),
		DispatchedAt:    comm.UpdatedAt.Format(time.RFC3339),
	}
	return p.publish(ctx, QueueCommunicationDispatched, event)
}

func (p *Publisher) publish(ctx context.Context, queueName string, event interface{}) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logger.Warn("amqp dial failed", zap.String("queue", queueName), zap.Error(err))
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer conn.Close() //nolint:errcheck

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Warn("amqp channel open failed", zap.String("queue", queueName), zap.Error(err))
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close() //nolint:errcheck

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp queue declare %s: %w", queueName, err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", queueName, err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		return fmt.Errorf("amqp publish %s: %w", queueName, err)
	}
	return nil
}
