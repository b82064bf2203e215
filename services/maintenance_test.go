package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gwos/zbxctl/internal/zbxtest"
	"github.com/gwos/zbxctl/sdk/clients"
	tcgerr "github.com/gwos/zbxctl/sdk/errors"
	"github.com/gwos/zbxctl/sdk/zabbix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var credentialsBlob = []byte(`{"jsonrpc":"2.0","method":"user.login","params":{"user":"api","password":"secret"},"id":1}`)

func newTestClient(t *testing.T) (*zbxtest.MockAPI, *clients.ZabbixClient) {
	t.Helper()
	api := zbxtest.NewMockAPI()
	t.Cleanup(api.Close)
	return api, clients.NewZabbixClient(&clients.ZabbixConnection{APIURL: api.URL, Credentials: credentialsBlob})
}

func fixedNow() time.Time {
	return time.Date(2026, 10, 18, 12, 30, 15, 500, time.UTC)
}

func TestMaintenanceService_CreateForHost(t *testing.T) {
	api, client := newTestClient(t)
	api.HandleResult(MethodHostGet, []zabbix.Host{{HostID: "10084", Host: "web1"}})
	api.HandleResult(MethodMaintenanceCreate, map[string]any{"maintenanceids": []string{"3"}})

	svc := NewMaintenanceService(client)
	svc.Now = fixedNow
	res, err := svc.CreateForHost(context.Background(), "host:web1", 2, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Zabbix monitoring was paused for 2 hour(s) on web1", res)
	assert.Equal(t, []string{"user.login", MethodHostGet, MethodMaintenanceCreate}, api.Methods())

	get, _ := api.LastCall(MethodHostGet)
	assert.JSONEq(t, `{"output":"extend","filter":{"host":["web1"]}}`, string(get.Params))
	assert.Equal(t, zbxtest.Token, get.Auth)

	create, _ := api.LastCall(MethodMaintenanceCreate)
	var m zabbix.Maintenance
	require.NoError(t, json.Unmarshal(create.Params, &m))
	assert.Equal(t, "pause_web1", m.Name)
	assert.Equal(t, []string{"10084"}, m.HostIDs)
	assert.Empty(t, m.GroupIDs)
	assert.Contains(t, m.Description, "alice")
	assert.EqualValues(t, 7200, m.Duration())
	assert.EqualValues(t, 7200, m.ActiveTill.Unix()-m.ActiveSince.Unix())
	assert.Equal(t, fixedNow().Unix(), m.ActiveSince.Unix())
	require.Len(t, m.TimePeriods, 1)
	assert.Equal(t, zabbix.TimeperiodOneTime, m.TimePeriods[0].TimeperiodType)
	assert.EqualValues(t, 7200, m.TimePeriods[0].Period)
	assert.Equal(t, m.ActiveSince.Unix(), m.TimePeriods[0].StartDate.Unix())
}

func TestMaintenanceService_CreateForGroup(t *testing.T) {
	api, client := newTestClient(t)
	api.HandleResult(MethodHostGroupGet, []zabbix.HostGroup{{GroupID: "15", Name: "Linux servers"}})
	api.HandleResult(MethodMaintenanceCreate, map[string]any{"maintenanceids": []string{"4"}})

	svc := NewMaintenanceService(client)
	res, err := svc.CreateForGroup(context.Background(), "group:Linux servers", 1, "bob")
	require.NoError(t, err)
	assert.Equal(t, "Zabbix monitoring was paused for 1 hour(s) on Linux servers", res)

	get, _ := api.LastCall(MethodHostGroupGet)
	assert.JSONEq(t, `{"output":"extend","filter":{"name":["Linux servers"]}}`, string(get.Params))

	create, _ := api.LastCall(MethodMaintenanceCreate)
	var m zabbix.Maintenance
	require.NoError(t, json.Unmarshal(create.Params, &m))
	assert.Equal(t, "pause_Linux servers", m.Name)
	assert.Equal(t, []string{"15"}, m.GroupIDs)
	assert.Empty(t, m.HostIDs)
	assert.EqualValues(t, 3600, m.Duration())
}

func TestMaintenanceService_CreateErrors(t *testing.T) {
	t.Run("UnknownHost", func(t *testing.T) {
		api, client := newTestClient(t)
		api.HandleResult(MethodHostGet, []any{})

		_, err := NewMaintenanceService(client).CreateForHost(context.Background(), "ghost", 2, "alice")
		assert.ErrorIs(t, err, tcgerr.ErrNotFound)
		assert.ErrorContains(t, err, "no such host: ghost")
		_, called := api.LastCall(MethodMaintenanceCreate)
		assert.False(t, called, "maintenance should not be created for unknown host")
	})
	t.Run("NoHours", func(t *testing.T) {
		api, client := newTestClient(t)
		_, err := NewMaintenanceService(client).CreateForHost(context.Background(), "web1", 0, "alice")
		assert.ErrorIs(t, err, ErrUsage)
		assert.ErrorIs(t, err, tcgerr.ErrPermanent)
		assert.Empty(t, api.Calls())
	})
	t.Run("PastMaxTimestamp", func(t *testing.T) {
		api, client := newTestClient(t)
		svc := NewMaintenanceService(client)
		svc.Now = fixedNow
		maxHours := int((zabbix.MaxTimestamp - fixedNow().Unix()) / 3600)
		for _, hours := range []int{maxHours + 1, 3000000} {
			_, err := svc.CreateForHost(context.Background(), "web1", hours, "alice")
			assert.ErrorIs(t, err, ErrUsage, "hours: %d", hours)
		}
		assert.Empty(t, api.Calls())
	})
	t.Run("NoName", func(t *testing.T) {
		_, client := newTestClient(t)
		_, err := NewMaintenanceService(client).CreateForGroup(context.Background(), "", 1, "alice")
		assert.ErrorIs(t, err, ErrUsage)
	})
	t.Run("RPCError", func(t *testing.T) {
		api, client := newTestClient(t)
		api.HandleResult(MethodHostGet, []zabbix.Host{{HostID: "10084", Host: "web1"}})
		api.Handle(MethodMaintenanceCreate, func(json.RawMessage) (any, *tcgerr.RPCError) {
			return nil, &tcgerr.RPCError{Code: -32602, Message: "Invalid params.", Data: `Maintenance "pause_web1" already exists.`}
		})
		_, err := NewMaintenanceService(client).CreateForHost(context.Background(), "web1", 1, "alice")
		assert.ErrorIs(t, err, tcgerr.ErrRPC)
		assert.ErrorContains(t, err, "already exists")
	})
}

func TestMaintenanceService_CreateLongest(t *testing.T) {
	api, client := newTestClient(t)
	api.HandleResult(MethodHostGet, []zabbix.Host{{HostID: "10084", Host: "web1"}})
	api.HandleResult(MethodMaintenanceCreate, map[string]any{"maintenanceids": []string{"5"}})

	svc := NewMaintenanceService(client)
	svc.Now = fixedNow
	hours := int((zabbix.MaxTimestamp - fixedNow().Unix()) / 3600)
	_, err := svc.CreateForHost(context.Background(), "web1", hours, "alice")
	require.NoError(t, err)

	create, _ := api.LastCall(MethodMaintenanceCreate)
	var m zabbix.Maintenance
	require.NoError(t, json.Unmarshal(create.Params, &m))
	assert.EqualValues(t, int64(hours)*3600, m.Duration())
	assert.EqualValues(t, int64(hours)*3600, m.TimePeriods[0].Period)
	assert.LessOrEqual(t, m.ActiveTill.Unix(), zabbix.MaxTimestamp)
}

func TestMaintenanceService_Name(t *testing.T) {
	api, client := newTestClient(t)
	api.HandleResult(MethodHostGet, []zabbix.Host{{HostID: "10084", Host: "web1"}})
	api.HandleResult(MethodMaintenanceGet, []map[string]any{{"maintenanceid": "3", "name": "pause_web1"}})

	svc := NewMaintenanceService(client)
	name, err := svc.Name(context.Background(), zabbix.ParseTarget("web1", zabbix.TargetHost))
	require.NoError(t, err)
	assert.Equal(t, "pause_web1", name)

	get, _ := api.LastCall(MethodMaintenanceGet)
	var params map[string]any
	require.NoError(t, json.Unmarshal(get.Params, &params))
	assert.Equal(t, []any{"10084"}, params["hostids"])
	assert.Equal(t, "extend", params["selectTimeperiods"])

	api.HandleResult(MethodMaintenanceGet, []any{})
	_, err = svc.Name(context.Background(), zabbix.ParseTarget("web1", zabbix.TargetHost))
	assert.ErrorIs(t, err, tcgerr.ErrNotFound)
	assert.ErrorContains(t, err, "No maintenance for host: web1")
}

func TestMaintenanceService_Delete(t *testing.T) {
	t.Run("Paused", func(t *testing.T) {
		api, client := newTestClient(t)
		api.HandleResult(MethodHostGroupGet, []zabbix.HostGroup{{GroupID: "15", Name: "Linux servers"}})
		api.HandleResult(MethodMaintenanceGet, []map[string]any{{"maintenanceid": "3", "name": "pause_db"}})
		api.HandleResult(MethodMaintenanceDelete, map[string]any{"maintenanceids": []string{"3"}})

		res, err := NewMaintenanceService(client).Delete(context.Background(), zabbix.ParseTarget("group:db", zabbix.TargetHost))
		require.NoError(t, err)
		assert.Equal(t, "maintenance for db was deleted successfully", res)
		assert.Equal(t, []string{"user.login", MethodHostGroupGet, MethodMaintenanceGet, MethodMaintenanceDelete}, api.Methods())

		del, _ := api.LastCall(MethodMaintenanceDelete)
		assert.JSONEq(t, `["3"]`, string(del.Params))
	})
	t.Run("NotPaused", func(t *testing.T) {
		api, client := newTestClient(t)
		api.HandleResult(MethodHostGet, []zabbix.Host{{HostID: "10084", Host: "web1"}})
		api.HandleResult(MethodMaintenanceGet, []map[string]any{{"maintenanceid": "5", "name": "weekly patching"}})

		_, err := NewMaintenanceService(client).Delete(context.Background(), zabbix.ParseTarget("web1", zabbix.TargetHost))
		assert.ErrorIs(t, err, ErrRefused)
		assert.ErrorContains(t, err, "weekly patching")
		_, called := api.LastCall(MethodMaintenanceDelete)
		assert.False(t, called, "maintenance not created by pause should be kept")
	})
	t.Run("NoMaintenance", func(t *testing.T) {
		api, client := newTestClient(t)
		api.HandleResult(MethodHostGet, []zabbix.Host{{HostID: "10084", Host: "web1"}})
		api.HandleResult(MethodMaintenanceGet, []any{})

		_, err := NewMaintenanceService(client).Delete(context.Background(), zabbix.ParseTarget("web1", zabbix.TargetHost))
		assert.ErrorIs(t, err, tcgerr.ErrNotFound)
	})
}

func TestResolver(t *testing.T) {
	api, client := newTestClient(t)
	api.HandleResult(MethodHostGet, []zabbix.Host{{HostID: "10084", Host: "web1"}})
	api.HandleResult(MethodHostGroupGet, []zabbix.HostGroup{{GroupID: "15", Name: "Linux servers"}})
	r := Resolver{Client: client}

	id, err := r.HostID(context.Background(), "host:host:web1")
	require.NoError(t, err)
	assert.Equal(t, "10084", id)
	get, _ := api.LastCall(MethodHostGet)
	assert.JSONEq(t, `{"output":"extend","filter":{"host":["host:web1"]}}`, string(get.Params),
		"only the first marker should be stripped")

	_, err = r.HostID(context.Background(), "myhost:8080")
	require.NoError(t, err)
	get, _ = api.LastCall(MethodHostGet)
	assert.JSONEq(t, `{"output":"extend","filter":{"host":["myhost:8080"]}}`, string(get.Params),
		"a marker inside the name should be kept")

	id, err = r.GroupID(context.Background(), "group:db")
	require.NoError(t, err)
	assert.Equal(t, "15", id)

	_, err = r.ID(context.Background(), zabbix.Target{Kind: "template", Name: "x"})
	assert.ErrorIs(t, err, ErrUsage)
}
