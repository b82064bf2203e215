package services

import (
	"context"
	"encoding/json"
	"fmt"

	tcgerr "github.com/gwos/zbxctl/sdk/errors"
)

// APIClient defines Zabbix API calls used by services
// implemented by clients.ZabbixClient
type APIClient interface {
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)
	CallField(ctx context.Context, method string, params any, field string) (string, error)
	CallRaw(ctx context.Context, method string, params any) (map[string]any, error)
}

// Define API methods
const (
	MethodHostGet           = "host.get"
	MethodHostGroupGet      = "hostgroup.get"
	MethodMaintenanceGet    = "maintenance.get"
	MethodMaintenanceCreate = "maintenance.create"
	MethodMaintenanceDelete = "maintenance.delete"
	MethodEventGet          = "event.get"
	MethodEventAcknowledge  = "event.acknowledge"
)

var (
	// ErrUsage reports unsupported combination of command options
	ErrUsage = fmt.Errorf("%w: %v", tcgerr.ErrPermanent, "usage error")
	// ErrRefused reports operation refused by safety check
	ErrRefused = fmt.Errorf("%w: %v", tcgerr.ErrPermanent, "refused")
)
