package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gwos/zbxctl/sdk/zabbix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_Operation(t *testing.T) {
	cases := []struct {
		cmd Command
		op  string
	}{
		{Command{Pause: true, Unpause: true, Ack: []string{"1"}}, "pause"},
		{Command{Unpause: true, Trigger: "1"}, "unpause"},
		{Command{Ack: []string{"1"}, Trigger: "1", MaintenanceName: true}, "ack"},
		{Command{Trigger: "1", MaintenanceName: true}, "events"},
		{Command{MaintenanceName: true, Host: "web1"}, "maintenancename"},
		{Command{Host: "web1", Hours: 2}, ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.op, c.cmd.Operation(), "%+v", c.cmd)
	}
}

func TestDispatcher_Pause(t *testing.T) {
	api, client := newTestClient(t)
	api.HandleResult(MethodHostGet, []zabbix.Host{{HostID: "10084", Host: "web1"}})
	api.HandleResult(MethodMaintenanceCreate, map[string]any{"maintenanceids": []string{"3"}})

	d := NewDispatcher(client)
	d.Maintenance.Now = fixedNow
	res, err := d.Dispatch(context.Background(), Command{
		Pause: true, Host: "host:web1", Group: "db", Hours: 2, Username: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "Zabbix monitoring was paused for 2 hour(s) on web1", res)
	assert.Equal(t, []string{"user.login", MethodHostGet, MethodMaintenanceCreate}, api.Methods(),
		"host should win over group")

	create, _ := api.LastCall(MethodMaintenanceCreate)
	var m zabbix.Maintenance
	require.NoError(t, json.Unmarshal(create.Params, &m))
	assert.Equal(t, "pause_web1", m.Name)
	assert.EqualValues(t, 2*time.Hour/time.Second, m.ActiveTill.Unix()-m.ActiveSince.Unix())
	assert.Contains(t, m.Description, "alice")
}

func TestDispatcher_PauseGroupMarker(t *testing.T) {
	api, client := newTestClient(t)
	api.HandleResult(MethodHostGroupGet, []zabbix.HostGroup{{GroupID: "15", Name: "Linux servers"}})
	api.HandleResult(MethodMaintenanceCreate, map[string]any{"maintenanceids": []string{"4"}})

	_, err := NewDispatcher(client).Dispatch(context.Background(), Command{
		Pause: true, Host: "group:db", Hours: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"user.login", MethodHostGroupGet, MethodMaintenanceCreate}, api.Methods(),
		"explicit marker should select the kind")
}

func TestDispatcher_Unpause(t *testing.T) {
	api, client := newTestClient(t)
	api.HandleResult(MethodHostGroupGet, []zabbix.HostGroup{{GroupID: "15", Name: "Linux servers"}})
	api.HandleResult(MethodMaintenanceGet, []map[string]any{{"maintenanceid": "3", "name": "pause_db"}})
	api.HandleResult(MethodMaintenanceDelete, map[string]any{"maintenanceids": []string{"3"}})

	res, err := NewDispatcher(client).Dispatch(context.Background(), Command{Unpause: true, Group: "db"})
	require.NoError(t, err)
	assert.Equal(t, "maintenance for db was deleted successfully", res)
}

func TestDispatcher_Events(t *testing.T) {
	api, client := newTestClient(t)
	clock := zabbix.NewTimestamp(time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC))
	api.HandleResult(MethodEventGet, []zabbix.Event{{EventID: "21", ObjectID: "13491", Clock: clock, Value: "1", Acknowledged: "0"}})

	res, err := NewDispatcher(client).Dispatch(context.Background(), Command{Trigger: "13491"})
	require.NoError(t, err)
	var payload struct {
		Result []zabbix.Event `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(res), &payload))
	require.Len(t, payload.Result, 1)
	assert.Equal(t, "21", payload.Result[0].EventID)
	assert.Equal(t, clock.Unix(), payload.Result[0].Clock.Unix())
	assert.Contains(t, res, "\n  ", "output should be indented")
}

func TestDispatcher_Ack(t *testing.T) {
	api, client := newTestClient(t)
	api.HandleResult(MethodEventAcknowledge, map[string]any{"eventids": []string{"21"}})

	res, err := NewDispatcher(client).Dispatch(context.Background(), Command{
		Ack: []string{"21"}, Message: "on it", Username: "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, "alert 21 has been acked successfully.", res)
	ack, _ := api.LastCall(MethodEventAcknowledge)
	assert.JSONEq(t, `{"eventids":["21"],"message":"bob: on it"}`, string(ack.Params))
}

func TestDispatcher_MaintenanceName(t *testing.T) {
	api, client := newTestClient(t)
	api.HandleResult(MethodHostGroupGet, []zabbix.HostGroup{{GroupID: "15", Name: "Linux servers"}})
	api.HandleResult(MethodMaintenanceGet, []map[string]any{{"maintenanceid": "3", "name": "pause_db"}})

	res, err := NewDispatcher(client).Dispatch(context.Background(), Command{MaintenanceName: true, Group: "db"})
	require.NoError(t, err)
	assert.Equal(t, "pause_db", res)
}

func TestDispatcher_Usage(t *testing.T) {
	cases := map[string]Command{
		"Nothing":              {},
		"OnlyHost":             {Host: "web1", Hours: 2},
		"PauseWithoutHours":    {Pause: true, Host: "web1"},
		"PauseWithoutTarget":   {Pause: true, Hours: 2},
		"UnpauseWithoutTarget": {Unpause: true},
		"NameWithoutTarget":    {MaintenanceName: true},
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			api, client := newTestClient(t)
			_, err := NewDispatcher(client).Dispatch(context.Background(), cmd)
			assert.ErrorIs(t, err, ErrUsage)
			assert.Empty(t, api.Calls(), "usage errors should not reach the API")
		})
	}
}
