package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/Abdullah7175/mustafabackend/internal/services"
	"github.com/Abdullah7175/mustafabackend/internal/webhook"
)

// TaskType defines the type of a background task.
const (
	TypeWebhookDeliver = "webhook:deliver"
	TypeOrphanSweep    = "booking:orphan:sweep"
)

// orphanSweepMinAge guards against flagging bookings whose inquiry write is
// simply still in flight.
const orphanSweepMinAge = time.Hour

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// WebhookDeliverPayload carries the inquiry identifier whose notification
// should be (re)sent.
type WebhookDeliverPayload struct {
	InquiryID string `json:"inquiry_id"`
}

// NewWebhookDeliverTask builds the delivery task for an inquiry.
func NewWebhookDeliverTask(inquiryID string) (*asynq.Task, error) {
	payload, err := json.Marshal(WebhookDeliverPayload{InquiryID: inquiryID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal webhook task payload: %w", err)
	}
	return asynq.NewTask(TypeWebhookDeliver, payload, asynq.MaxRetry(5)), nil
}

// NewOrphanSweepTask builds the orphan booking sweep task.
func NewOrphanSweepTask() *asynq.Task {
	return asynq.NewTask(TypeOrphanSweep, nil, asynq.MaxRetry(1))
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks. It holds the dependencies
// needed by the task handlers.
type TaskProcessor struct {
	inquiryService services.IInquiryService
	bookingService services.IBookingService
	notifier       webhook.Notifier
}

func NewTaskProcessor(
	inquiryService services.IInquiryService,
	bookingService services.IBookingService,
	notifier webhook.Notifier,
) *TaskProcessor {
	return &TaskProcessor{
		inquiryService: inquiryService,
		bookingService: bookingService,
		notifier:       notifier,
	}
}

// SetupServer configures and returns an Asynq server with the worker
// handlers registered. Run blocks, so callers start it on its own goroutine
// when combining modes.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) *asynq.Server {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"default": 5,
				"low":     1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)
	return srv
}

// NewMux registers the task handlers.
func NewMux(processor *TaskProcessor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeWebhookDeliver, processor.HandleWebhookDeliverTask)
	mux.HandleFunc(TypeOrphanSweep, processor.HandleOrphanSweepTask)
	return mux
}

// --- Task Handlers ---

// HandleWebhookDeliverTask loads the inquiry and posts the signed webhook.
func (p *TaskProcessor) HandleWebhookDeliverTask(ctx context.Context, t *asynq.Task) error {
	var payload WebhookDeliverPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal webhook task payload: %v: %w", err, asynq.SkipRetry)
	}

	inquiry, err := p.inquiryService.FindByLocalID(ctx, payload.InquiryID)
	if err != nil {
		log.Printf("Inquiry %s not found for webhook delivery: %v", payload.InquiryID, err)
		return fmt.Errorf("inquiry not found: %w", asynq.SkipRetry)
	}

	if err := p.notifier.NotifyInquiry(ctx, inquiry); err != nil {
		// Returning the error triggers asynq's retry schedule.
		return err
	}
	return nil
}

// HandleOrphanSweepTask reports bookings whose inquiry never recorded the
// assignment. The assignment flow writes the booking and the inquiry
// independently, so a failed inquiry save leaves the booking dangling.
func (p *TaskProcessor) HandleOrphanSweepTask(ctx context.Context, t *asynq.Task) error {
	log.Println("Starting orphan booking sweep...")

	orphans, err := p.bookingService.FindOrphans(ctx, orphanSweepMinAge)
	if err != nil {
		return err
	}

	for _, b := range orphans {
		log.Printf("WARN: Orphan booking %s (inquiry %s, agent %s, created %s)",
			b.ID, b.InquiryID, b.AgentID, b.CreatedAt.Format(time.RFC3339))
	}
	log.Printf("Orphan booking sweep finished. Found %d orphans.", len(orphans))
	return nil
}
