// Package pubsub announces finished harvest runs on Google Cloud Pub/Sub.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
)

// RunSummary is the message body published when a run completes.
type RunSummary struct {
	RunID       string    `json:"run_id"`
	StartPage   int       `json:"start_page"`
	Pages       int       `json:"pages"`
	Links       int       `json:"links"`
	Records     int       `json:"records"`
	Unavailable int       `json:"unavailable"`
	CSVPath     string    `json:"csv_path"`
	CSVSHA256   string    `json:"csv_sha256,omitempty"`
	BlobURI     string    `json:"blob_uri,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Publisher wraps a Pub/Sub topic.
type Publisher struct {
	topic *pubsub.Topic
}

// New creates a Publisher for the provided topic.
func New(topic *pubsub.Topic) *Publisher {
	return &Publisher{topic: topic}
}

// Publish marshals the summary to JSON and blocks until the server
// acknowledges it, returning the message id.
func (p *Publisher) Publish(ctx context.Context, summary RunSummary) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub topic is not configured")
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	msg := &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"run_id": summary.RunID},
	}
	result := p.topic.Publish(ctx, msg)
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	return id, nil
}

// Close flushes pending messages and stops the topic's background goroutines.
func (p *Publisher) Close() {
	if p == nil || p.topic == nil {
		return
	}
	p.topic.Stop()
}
