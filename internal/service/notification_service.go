package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/taller-adm-api/internal/models"
	"github.com/noah-isme/taller-adm-api/pkg/jobs"
	"github.com/noah-isme/taller-adm-api/pkg/storage"
)

type notificationQueue interface {
	Enqueue(job jobs.Job) error
}

// NotificationService produces the delivery artifact for a committed payment
// and schedules its asynchronous delivery. It runs strictly after the payment
// transaction; nothing here can roll a payment back.
type NotificationService struct {
	queue   notificationQueue
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	enabled bool
}

// NewNotificationService constructs NotificationService.
func NewNotificationService(queue notificationQueue, signer *storage.SignedURLSigner, logger *zap.Logger, enabled bool) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{queue: queue, signer: signer, logger: logger, enabled: enabled}
}

// SetQueue attaches the delivery queue. The queue's handler comes from this
// service, so the two are wired in two steps at startup.
func (s *NotificationService) SetQueue(queue notificationQueue) {
	s.queue = queue
}

// Dispatch returns a shareable receipt link for the payment and enqueues the
// delivery job. The returned link is valid independently of whether delivery
// eventually succeeds.
func (s *NotificationService) Dispatch(ctx context.Context, detail models.PaymentDetail) (string, error) {
	if !s.enabled || s.queue == nil {
		return "", nil
	}

	link := ""
	if s.signer != nil {
		token, _, err := s.signer.Generate(detail.ID, "payments/"+detail.ID)
		if err != nil {
			return "", fmt.Errorf("sign receipt link: %w", err)
		}
		link = "/share/payments/" + token
	}

	job := jobs.Job{
		ID:      detail.ID,
		Type:    "payment.receipt",
		Payload: detail,
	}
	if err := s.queue.Enqueue(job); err != nil {
		return link, fmt.Errorf("enqueue receipt delivery: %w", err)
	}
	return link, nil
}

// DeliveryHandler returns the queue handler performing the actual delivery.
// Channel integrations live behind this seam; the handler only records the
// attempt so that queue retries and failure logging apply uniformly.
func (s *NotificationService) DeliveryHandler() jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		detail, ok := job.Payload.(models.PaymentDetail)
		if !ok {
			return fmt.Errorf("unexpected payload type for job %s", job.ID)
		}
		s.logger.Sugar().Infow("receipt delivered",
			"payment_id", detail.ID,
			"student_id", detail.StudentID,
			"total", detail.Total,
			"items", len(detail.Items),
		)
		return nil
	}
}
