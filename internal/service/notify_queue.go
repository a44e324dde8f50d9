package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/logger"
)

var ErrNotifyQueueFull = errors.New("notification queue is full")

type notificationKind string

const (
	kindRentalConfirmation notificationKind = "rental_confirmation"
	kindReturnReceipt      notificationKind = "return_receipt"
	kindOverdueReminder    notificationKind = "overdue_reminder"
)

type notification struct {
	kind      notificationKind
	customer  domain.Customer
	agreement *domain.Agreement
	attempts  int
}

// NotifyQueue hands notifications to a pool of workers so sending never
// blocks a rental transaction. Failed sends are retried with a growing delay.
type NotifyQueue struct {
	next       Notifier
	jobs       chan notification
	workers    int
	maxRetries int
	backoff    func(attempt int) time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
	ctx    context.Context
}

func NewNotifyQueue(next Notifier, workers, queueSize, maxRetries int) *NotifyQueue {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &NotifyQueue{
		next:       next,
		jobs:       make(chan notification, queueSize),
		workers:    workers,
		maxRetries: maxRetries,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * time.Second
		},
	}
}

// Start launches the workers. They run until Stop.
func (q *NotifyQueue) Start() {
	q.ctx, q.cancel = context.WithCancel(context.Background())
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop ends the workers. Notifications still queued are dropped.
func (q *NotifyQueue) Stop() {
	if q.cancel == nil {
		return
	}
	q.cancel()
	q.wg.Wait()
	if n := len(q.jobs); n > 0 {
		logger.Warn("Dropping queued notifications on shutdown", "count", n)
	}
}

func (q *NotifyQueue) SendRentalConfirmation(ctx context.Context, c domain.Customer, a *domain.Agreement) error {
	return q.enqueue(ctx, notification{kind: kindRentalConfirmation, customer: c, agreement: a.Clone()})
}

func (q *NotifyQueue) SendReturnReceipt(ctx context.Context, c domain.Customer, a *domain.Agreement) error {
	return q.enqueue(ctx, notification{kind: kindReturnReceipt, customer: c, agreement: a.Clone()})
}

func (q *NotifyQueue) SendOverdueReminder(ctx context.Context, c domain.Customer, a *domain.Agreement) error {
	return q.enqueue(ctx, notification{kind: kindOverdueReminder, customer: c, agreement: a.Clone()})
}

func (q *NotifyQueue) enqueue(ctx context.Context, n notification) error {
	select {
	case q.jobs <- n:
		return nil
	default:
		logger.WarnContext(ctx, "Notification queue is full", "kind", n.kind, "agreementID", n.agreement.ID)
		return ErrNotifyQueueFull
	}
}

func (q *NotifyQueue) worker(id int) {
	defer q.wg.Done()
	logger.Debug("Notification worker started", "worker", id)
	for {
		select {
		case <-q.ctx.Done():
			logger.Debug("Notification worker stopping", "worker", id)
			return
		case n := <-q.jobs:
			q.deliver(n)
		}
	}
}

func (q *NotifyQueue) deliver(n notification) {
	err := q.send(n)
	if err == nil {
		return
	}
	if n.attempts >= q.maxRetries {
		logger.Error("Notification failed, giving up", "kind", n.kind, "agreementID", n.agreement.ID, "attempts", n.attempts+1, "error", err)
		return
	}

	n.attempts++
	delay := q.backoff(n.attempts)
	logger.Warn("Notification failed, retrying", "kind", n.kind, "agreementID", n.agreement.ID, "attempt", n.attempts, "delay", delay, "error", err)
	time.AfterFunc(delay, func() {
		select {
		case <-q.ctx.Done():
		case q.jobs <- n:
		default:
			logger.Error("Notification dropped, queue full on retry", "kind", n.kind, "agreementID", n.agreement.ID)
		}
	})
}

func (q *NotifyQueue) send(n notification) error {
	switch n.kind {
	case kindRentalConfirmation:
		return q.next.SendRentalConfirmation(q.ctx, n.customer, n.agreement)
	case kindReturnReceipt:
		return q.next.SendReturnReceipt(q.ctx, n.customer, n.agreement)
	default:
		return q.next.SendOverdueReminder(q.ctx, n.customer, n.agreement)
	}
}
