// Package lifecycle applies the bot's channel and guild lifecycle events, delivered through SQS, to the name
// pool state.
package lifecycle

import (
	"context"
	"dbuilder/internal/types"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// Lifecycle event types the bot sends through the queue.
const (
	EventChannelCreated = "channel.created"
	EventChannelDeleted = "channel.deleted"
	EventGuildJoined    = "guild.joined"
	EventGuildLeft      = "guild.left"

	TenantAttr = "Tenant"
)

// LifecycleMessage is the body of one queue message.
type LifecycleMessage struct {
	Type          string `json:"type"`
	ChannelID     string `json:"channelId,omitempty"`
	ReservationID string `json:"reservationId,omitempty"`
}

// Channels is the channel binding side used by the handler.
type Channels interface {
	AssignReservation(ctx context.Context, tenant, reservationID, channelID string) (bool, error)
	ClearChannel(ctx context.Context, tenant, channelID string) (bool, error)
}

// Guilds is the guild join registry used by the handler.
type Guilds interface {
	MarkGuild(ctx context.Context, tenant string, joined bool) (bool, error)
}

// Handler holds the dependencies needed to process SQS messages
type Handler struct {
	Channels Channels
	Guilds   Guilds
}

// HandleSQSEvent processes SQS messages from a FIFO queue
func (h *Handler) HandleSQSEvent(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	log.Infof("Processing batch of %d messages", len(sqsEvent.Records))

	var batchItemFailures []events.SQSBatchItemFailure

	for _, record := range sqsEvent.Records {
		if err := h.processMessage(ctx, record); err != nil {
			log.WithError(err).Errorf("Failed to process message %s", record.MessageId)
			if isPoison(err) {
				// Retrying cannot fix a malformed message.
				continue
			}
			// For FIFO queues, report failure to preserve ordering
			batchItemFailures = append(batchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
		}
	}

	return events.SQSEventResponse{
		BatchItemFailures: batchItemFailures,
	}, nil
}

func isPoison(err error) bool {
	return errors.Is(err, types.ErrInvalidInput)
}

// processMessage handles a single SQS message
func (h *Handler) processMessage(ctx context.Context, record events.SQSMessage) error {
	tenant, err := tenantOf(record)
	if err != nil {
		return err
	}
	var msg LifecycleMessage
	if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
		return types.Err(types.ErrInvalidInput, err, "parse message body")
	}

	fields := log.Fields{
		"tenant":    tenant,
		"type":      msg.Type,
		"messageID": record.MessageId,
		"groupID":   record.Attributes["MessageGroupId"],
	}

	var changed bool
	switch msg.Type {
	case EventChannelCreated:
		if msg.ReservationID == "" {
			return types.Err(types.ErrInvalidInput, nil, "%s without reservationId", msg.Type)
		}
		changed, err = h.Channels.AssignReservation(ctx, tenant, msg.ReservationID, msg.ChannelID)
	case EventChannelDeleted:
		changed, err = h.Channels.ClearChannel(ctx, tenant, msg.ChannelID)
	case EventGuildJoined:
		changed, err = h.Guilds.MarkGuild(ctx, tenant, true)
	case EventGuildLeft:
		changed, err = h.Guilds.MarkGuild(ctx, tenant, false)
	default:
		log.WithFields(fields).Warn("Unknown lifecycle event")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", msg.Type, err)
	}
	log.WithFields(fields).WithField("changed", changed).Debug("Lifecycle event applied")
	return nil
}

func tenantOf(record events.SQSMessage) (string, error) {
	if attr, ok := record.MessageAttributes[TenantAttr]; ok && attr.StringValue != nil && *attr.StringValue != "" {
		return *attr.StringValue, nil
	}
	return "", types.Err(types.ErrInvalidInput, nil, "missing required attribute: %s", TenantAttr)
}
