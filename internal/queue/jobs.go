// Package queue defines the background tasks and enqueues them on Redis
// through asynq.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// DestroyAssetTask removes a remote asset whose inline cleanup failed.
	DestroyAssetTask = "asset:destroy"
	// EventConfirmationTask mails a registration confirmation.
	EventConfirmationTask = "email:event_confirmation"
)

// Retry budgets, shared with the in-process pool.
const (
	DestroyAssetMaxRetry = 10
	ConfirmationMaxRetry = 5
)

// DestroyAssetPayload names an orphaned asset on the image host.
type DestroyAssetPayload struct {
	PublicID string `json:"public_id"`
	Reason   string `json:"reason"`
}

// ConfirmationPayload carries everything the mail needs so the worker does
// not have to read the database.
type ConfirmationPayload struct {
	RegistrationID string     `json:"registration_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	RegistrationNo string     `json:"registration_no"`
	EventTitle     string     `json:"event_title"`
	EventDate      time.Time  `json:"event_date"`
	EventEndDate   *time.Time `json:"event_end_date,omitempty"`
	Venue          string     `json:"venue"`
}

// Client enqueues tasks on asynq.
type Client struct {
	client *asynq.Client
}

// NewClient wraps an asynq client.
func NewClient(client *asynq.Client) *Client {
	return &Client{client: client}
}

// EnqueueAssetDestroy schedules reconciliation of an orphaned asset.
func (c *Client) EnqueueAssetDestroy(ctx context.Context, payload DestroyAssetPayload) error {
	task, err := NewDestroyAssetTask(payload)
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task, asynq.MaxRetry(DestroyAssetMaxRetry), asynq.ProcessIn(30*time.Second)); err != nil {
		return fmt.Errorf("enqueue destroy task: %w", err)
	}
	return nil
}

// EnqueueConfirmation schedules a confirmation mail.
func (c *Client) EnqueueConfirmation(ctx context.Context, payload ConfirmationPayload) error {
	task, err := NewConfirmationTask(payload)
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task, asynq.MaxRetry(ConfirmationMaxRetry)); err != nil {
		return fmt.Errorf("enqueue confirmation task: %w", err)
	}
	return nil
}

// NewDestroyAssetTask builds the asynq task for an orphaned asset.
func NewDestroyAssetTask(payload DestroyAssetPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(DestroyAssetTask, data), nil
}

// NewConfirmationTask builds the asynq task for a confirmation mail.
func NewConfirmationTask(payload ConfirmationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(EventConfirmationTask, data), nil
}
