package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gwos/zbxctl/sdk/zabbix"
	"github.com/gwos/zbxctl/tracing"
)

// Command holds the command line options of one invocation
type Command struct {
	Pause           bool
	Unpause         bool
	Host            string
	Group           string
	Hours           int
	Trigger         string
	Ack             []string
	Message         string
	Username        string
	MaintenanceName bool
}

// Operation names the operation selected for Command
func (cmd Command) Operation() string {
	switch {
	case cmd.Pause:
		return "pause"
	case cmd.Unpause:
		return "unpause"
	case len(cmd.Ack) > 0:
		return "ack"
	case cmd.Trigger != "":
		return "events"
	case cmd.MaintenanceName:
		return "maintenancename"
	}
	return ""
}

// target returns host or group, host wins if both are set
func (cmd Command) target() (zabbix.Target, bool) {
	switch {
	case cmd.Host != "":
		return zabbix.ParseTarget(cmd.Host, zabbix.TargetHost), true
	case cmd.Group != "":
		return zabbix.ParseTarget(cmd.Group, zabbix.TargetGroup), true
	}
	return zabbix.Target{}, false
}

// Dispatcher maps Command to exactly one operation
type Dispatcher struct {
	Maintenance *MaintenanceService
	Events      *EventService
}

// NewDispatcher returns dispatcher with services using client
func NewDispatcher(client APIClient) *Dispatcher {
	return &Dispatcher{
		Maintenance: NewMaintenanceService(client),
		Events:      &EventService{Client: client},
	}
}

// Dispatch runs operation of cmd and returns human-readable result
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (result string, err error) {
	ctx, span := tracing.StartTraceSpan(ctx, "dispatch")
	defer func() {
		tracing.EndTraceSpan(span,
			tracing.TraceAttrStr("operation", cmd.Operation()),
			tracing.TraceAttrError(err),
		)
	}()

	switch cmd.Operation() {
	case "pause":
		if cmd.Hours <= 0 || (cmd.Host == "" && cmd.Group == "") {
			return "", fmt.Errorf("%w: %v", ErrUsage,
				"please provide a host name or a group name and a maintenance duration in hours")
		}
		target, _ := cmd.target()
		return d.Maintenance.Create(ctx, target, cmd.Hours, cmd.Username)

	case "unpause":
		target, ok := cmd.target()
		if !ok {
			return "", fmt.Errorf("%w: %v", ErrUsage, "please provide a host name or a group name")
		}
		return d.Maintenance.Delete(ctx, target)

	case "ack":
		return d.Events.Acknowledge(ctx, cmd.Ack, cmd.Message, cmd.Username)

	case "events":
		payload, err := d.Events.List(ctx, cmd.Trigger)
		if err != nil {
			return "", err
		}
		output, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return "", err
		}
		return string(output), nil

	case "maintenancename":
		target, ok := cmd.target()
		if !ok {
			return "", fmt.Errorf("%w: %v", ErrUsage, "please provide a host name or a group name")
		}
		return d.Maintenance.Name(ctx, target)
	}
	return "", fmt.Errorf("%w: %v", ErrUsage, "please select an host or a group and a time during")
}
