package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/gwos/zbxctl/sdk/zabbix"
	"github.com/gwos/zbxctl/tracing"
	"github.com/rs/zerolog/log"
)

// Placeholders used on acknowledge without message or username
const (
	DefaultAckMessage  = "no comment"
	DefaultAckUsername = "unknown"
)

// EventService lists and acknowledges trigger events
type EventService struct {
	Client APIClient
}

// List returns events of trigger, the latest first
func (s *EventService) List(ctx context.Context, triggerID string) (payload map[string]any, err error) {
	if triggerID == "" {
		return nil, fmt.Errorf("%w: %v", ErrUsage, "please provide a trigger id")
	}
	ctx, span := tracing.StartTraceSpan(ctx, MethodEventGet)
	defer func() {
		tracing.EndTraceSpan(span,
			tracing.TraceAttrStr("trigger", triggerID),
			tracing.TraceAttrError(err),
		)
	}()

	params := zabbix.GetRequest{
		Output:             zabbix.OutputExtend,
		SelectAcknowledges: zabbix.OutputExtend,
		ObjectIDs:          []string{triggerID},
		SortField:          []string{"clock", "eventid"},
		SortOrder:          "DESC",
	}
	return s.Client.CallRaw(ctx, MethodEventGet, params)
}

// AckMessage returns message stamped with username, placeholders fill empty values
func AckMessage(message, username string) string {
	if message == "" {
		message = DefaultAckMessage
	}
	if username == "" {
		username = DefaultAckUsername
	}
	return username + ": " + message
}

// Acknowledge acknowledges events with message on behalf of username
func (s *EventService) Acknowledge(ctx context.Context, eventIDs []string, message, username string) (result string, err error) {
	if len(eventIDs) == 0 {
		return "", fmt.Errorf("%w: %v", ErrUsage, "please provide an event id")
	}
	ctx, span := tracing.StartTraceSpan(ctx, MethodEventAcknowledge)
	defer func() {
		tracing.EndTraceSpan(span,
			tracing.TraceAttrStrs("events", eventIDs),
			tracing.TraceAttrError(err),
		)
	}()

	params := zabbix.EventAckRequest{
		EventIDs: eventIDs,
		Message:  AckMessage(message, username),
	}
	if _, err = s.Client.Call(ctx, MethodEventAcknowledge, params); err != nil {
		return "", err
	}
	ids := strings.Join(eventIDs, ", ")
	log.Info().Strs("events", eventIDs).Str("ackBy", username).Msg("events acknowledged")
	return fmt.Sprintf("alert %s has been acked successfully.", ids), nil
}
