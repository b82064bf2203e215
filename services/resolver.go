package services

import (
	"context"
	"errors"
	"fmt"

	tcgerr "github.com/gwos/zbxctl/sdk/errors"
	"github.com/gwos/zbxctl/sdk/zabbix"
	"github.com/gwos/zbxctl/tracing"
	"github.com/rs/zerolog/log"
)

// Resolver translates host and host group names into API ids
type Resolver struct {
	Client APIClient
}

// HostID returns id of host, a leading "host:" marker is stripped
func (r Resolver) HostID(ctx context.Context, host string) (string, error) {
	return r.ID(ctx, zabbix.Target{Kind: zabbix.TargetHost, Name: zabbix.StripMarker(host, zabbix.TargetHost)})
}

// GroupID returns id of host group, a leading "group:" marker is stripped
func (r Resolver) GroupID(ctx context.Context, group string) (string, error) {
	return r.ID(ctx, zabbix.Target{Kind: zabbix.TargetGroup, Name: zabbix.StripMarker(group, zabbix.TargetGroup)})
}

// ID returns id of already parsed target
func (r Resolver) ID(ctx context.Context, target zabbix.Target) (id string, err error) {
	ctx, span := tracing.StartTraceSpan(ctx, "resolve")
	defer func() {
		tracing.EndTraceSpan(span,
			tracing.TraceAttrStr("target", target.String()),
			tracing.TraceAttrStr("id", id),
			tracing.TraceAttrError(err),
		)
	}()

	var method, field string
	params := zabbix.GetRequest{Output: zabbix.OutputExtend}
	switch target.Kind {
	case zabbix.TargetHost:
		method, field = MethodHostGet, "hostid"
		params.Filter = zabbix.Filter{"host": {target.Name}}
	case zabbix.TargetGroup:
		method, field = MethodHostGroupGet, "groupid"
		params.Filter = zabbix.Filter{"name": {target.Name}}
	default:
		return "", fmt.Errorf("%w: unknown target kind: %q", ErrUsage, target.Kind)
	}

	id, err = r.Client.CallField(ctx, method, params, field)
	if errors.Is(err, tcgerr.ErrNotFound) {
		return "", fmt.Errorf("%w: no such %s: %s", tcgerr.ErrNotFound, target.Kind, target.Name)
	}
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("%w: no id for %s: %s", tcgerr.ErrNotFound, target.Kind, target.Name)
	}
	log.Debug().Str("target", target.String()).Str("id", id).Msg("resolved")
	return id, nil
}
