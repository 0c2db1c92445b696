//go:build lambda

package main

import (
	"context"
	"fmt"

	"hookstate/internal/backends"
	"hookstate/internal/flow"
	"hookstate/internal/pub"
	"hookstate/internal/settings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// LambdaHandler holds the dependencies needed to process SQS messages
type LambdaHandler struct {
	Deps flow.Deps
}

func main() {
	settings.LoadDotEnv()
	s := settings.FromEnv()
	log.SetLevel(s.LogLevel)

	ctx := context.Background()

	store, err := backends.SnapshotBackendFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize snapshot store: %v", err)
	}
	publisher, err := pub.FromEnv(ctx, s.Publisher)
	if err != nil {
		log.Fatalf("Failed to initialize publisher: %v", err)
	}

	handler := &LambdaHandler{Deps: flow.Deps{
		Root:      s.CharmDir,
		Store:     store,
		Publisher: publisher,
		Target:    s.ChangesTarget,
	}}

	lambda.Start(handler.HandleSQSEvent)
}

// HandleSQSEvent runs one invocation per record. Records of a FIFO queue grouped by unit
// keep each unit's invocations in order.
func (h *LambdaHandler) HandleSQSEvent(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	log.Infof("Processing batch of %d messages", len(sqsEvent.Records))

	var batchItemFailures []events.SQSBatchItemFailure
	for _, record := range sqsEvent.Records {
		if err := h.processMessage(ctx, record); err != nil {
			log.WithError(err).Errorf("Failed to process message %s", record.MessageId)
			batchItemFailures = append(batchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
		}
	}

	return events.SQSEventResponse{
		BatchItemFailures: batchItemFailures,
	}, nil
}

func (h *LambdaHandler) processMessage(ctx context.Context, record events.SQSMessage) error {
	var ev flow.Event
	if err := json.Unmarshal([]byte(record.Body), &ev); err != nil {
		return fmt.Errorf("parse message body: %w", err)
	}
	if ev.ID == "" {
		ev.ID = record.MessageId
	}

	res, err := flow.HandleEvent(ctx, h.Deps, ev)
	if err != nil {
		return fmt.Errorf("flow.HandleEvent: %w", err)
	}
	log.WithFields(log.Fields{
		"invocation": res.Invocation,
		"unit":       ev.Unit,
		"hook":       ev.Hook,
		"outcome":    res.Outcome.String(),
		"changed":    len(res.Changed),
		"messageID":  record.MessageId,
		"groupID":    record.Attributes["MessageGroupId"],
	}).Info("Invocation finished")
	return nil
}
