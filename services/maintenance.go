package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	tcgerr "github.com/gwos/zbxctl/sdk/errors"
	"github.com/gwos/zbxctl/sdk/zabbix"
	"github.com/gwos/zbxctl/tracing"
	"github.com/rs/zerolog/log"
)

const secondsPerHour = int64(time.Hour / time.Second)

// MaintenanceService creates and deletes maintenance windows
type MaintenanceService struct {
	Client   APIClient
	Resolver Resolver
	// Now returns current time, time.Now if nil
	Now func() time.Time
}

// NewMaintenanceService returns service using client
func NewMaintenanceService(client APIClient) *MaintenanceService {
	return &MaintenanceService{Client: client, Resolver: Resolver{Client: client}}
}

func (s *MaintenanceService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateForHost pauses monitoring of host for hours
func (s *MaintenanceService) CreateForHost(ctx context.Context, host string, hours int, username string) (string, error) {
	if host == "" {
		return "", fmt.Errorf("%w: %v", ErrUsage, "please provide an host name")
	}
	return s.Create(ctx, zabbix.Target{Kind: zabbix.TargetHost, Name: zabbix.StripMarker(host, zabbix.TargetHost)}, hours, username)
}

// CreateForGroup pauses monitoring of host group for hours
func (s *MaintenanceService) CreateForGroup(ctx context.Context, group string, hours int, username string) (string, error) {
	if group == "" {
		return "", fmt.Errorf("%w: %v", ErrUsage, "please provide a group name")
	}
	return s.Create(ctx, zabbix.Target{Kind: zabbix.TargetGroup, Name: zabbix.StripMarker(group, zabbix.TargetGroup)}, hours, username)
}

// Create creates one-time maintenance window named after target
func (s *MaintenanceService) Create(ctx context.Context, target zabbix.Target, hours int, username string) (result string, err error) {
	if hours <= 0 {
		return "", fmt.Errorf("%w: %v", ErrUsage, "please provide a maintenance duration in hours")
	}
	since := zabbix.NewTimestamp(s.now())
	if maxHours := (zabbix.MaxTimestamp - since.Unix()) / secondsPerHour; int64(hours) > maxHours {
		return "", fmt.Errorf("%w: maintenance duration exceeds %d hours", ErrUsage, maxHours)
	}
	if target.Name == "" {
		return "", fmt.Errorf("%w: please provide %s name", ErrUsage, target.Kind)
	}
	ctx, span := tracing.StartTraceSpan(ctx, MethodMaintenanceCreate)
	defer func() {
		tracing.EndTraceSpan(span,
			tracing.TraceAttrStr("target", target.String()),
			tracing.TraceAttrInt("hours", hours),
			tracing.TraceAttrError(err),
		)
	}()

	id, err := s.Resolver.ID(ctx, target)
	if err != nil {
		return "", err
	}

	period := int64(hours) * secondsPerHour
	maintenance := zabbix.Maintenance{
		Name:        zabbix.MaintenanceName(target.Name),
		ActiveSince: since,
		ActiveTill:  zabbix.NewTimestamp(time.Unix(since.Unix()+period, 0).UTC()),
		Description: "created by: " + username,
		TimePeriods: []zabbix.TimePeriod{{
			TimeperiodType: zabbix.TimeperiodOneTime,
			Period:         period,
			StartDate:      since,
		}},
	}
	switch target.Kind {
	case zabbix.TargetHost:
		maintenance.HostIDs = []string{id}
	case zabbix.TargetGroup:
		maintenance.GroupIDs = []string{id}
	}

	if _, err = s.Client.Call(ctx, MethodMaintenanceCreate, maintenance); err != nil {
		return "", err
	}
	log.Info().Str("maintenance", maintenance.String()).Str("createdBy", username).
		Msg("maintenance created")
	return fmt.Sprintf("Zabbix monitoring was paused for %d hour(s) on %s", hours, target.Name), nil
}

// Name returns name of maintenance window of target
func (s *MaintenanceService) Name(ctx context.Context, target zabbix.Target) (string, error) {
	params, err := s.lookupParams(ctx, target)
	if err != nil {
		return "", err
	}
	name, err := s.Client.CallField(ctx, MethodMaintenanceGet, params, "name")
	if err != nil {
		return "", s.notFound(err, target)
	}
	return name, nil
}

// Delete deletes maintenance window of target if it was created by pause
func (s *MaintenanceService) Delete(ctx context.Context, target zabbix.Target) (result string, err error) {
	ctx, span := tracing.StartTraceSpan(ctx, MethodMaintenanceDelete)
	defer func() {
		tracing.EndTraceSpan(span,
			tracing.TraceAttrStr("target", target.String()),
			tracing.TraceAttrError(err),
		)
	}()

	maintenance, err := s.lookup(ctx, target)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(maintenance.Name, zabbix.MaintenancePrefix) {
		log.Warn().Str("maintenance", maintenance.String()).Str("target", target.String()).
			Msg("refused to delete maintenance not created by pause")
		return "", fmt.Errorf("%w: maintenance %q of %s was not created by pause",
			ErrRefused, maintenance.Name, target.Name)
	}
	if maintenance.MaintenanceID == "" {
		return "", fmt.Errorf("%w: maintenance %q has no id", tcgerr.ErrDecode, maintenance.Name)
	}

	if _, err = s.Client.Call(ctx, MethodMaintenanceDelete, []string{maintenance.MaintenanceID}); err != nil {
		return "", err
	}
	log.Info().Str("maintenance", maintenance.String()).Msg("maintenance deleted")
	return fmt.Sprintf("maintenance for %s was deleted successfully", target.Name), nil
}

func (s *MaintenanceService) lookup(ctx context.Context, target zabbix.Target) (*zabbix.Maintenance, error) {
	params, err := s.lookupParams(ctx, target)
	if err != nil {
		return nil, err
	}
	result, err := s.Client.Call(ctx, MethodMaintenanceGet, params)
	if err != nil {
		return nil, err
	}
	var items []zabbix.Maintenance
	if err := json.Unmarshal(result, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", tcgerr.ErrDecode, err)
	}
	if len(items) == 0 {
		return nil, s.notFound(tcgerr.ErrNotFound, target)
	}
	return &items[0], nil
}

func (s *MaintenanceService) lookupParams(ctx context.Context, target zabbix.Target) (*zabbix.GetRequest, error) {
	id, err := s.Resolver.ID(ctx, target)
	if err != nil {
		return nil, err
	}
	params := &zabbix.GetRequest{
		Output:            zabbix.OutputExtend,
		SelectHosts:       zabbix.OutputExtend,
		SelectTimeperiods: zabbix.OutputExtend,
	}
	if target.Kind == zabbix.TargetGroup {
		params.GroupIDs = []string{id}
	} else {
		params.HostIDs = []string{id}
	}
	return params, nil
}

func (s *MaintenanceService) notFound(err error, target zabbix.Target) error {
	if errors.Is(err, tcgerr.ErrNotFound) {
		return fmt.Errorf("%w: No maintenance for %s: %s", tcgerr.ErrNotFound, target.Kind, target.Name)
	}
	return err
}
