package zabbix

import (
	"fmt"
)

// MaintenancePrefix marks maintenance windows owned by zbxctl
const MaintenancePrefix = "pause_"

// TimeperiodType defines the type of maintenance time period
type TimeperiodType int

// TimeperiodOneTime is the only period type zbxctl creates
const TimeperiodOneTime TimeperiodType = 0

// TimePeriod describes maintenance time period
type TimePeriod struct {
	TimeperiodType TimeperiodType `json:"timeperiod_type,string"`
	// Period is the duration in seconds
	Period    int64      `json:"period,string"`
	StartDate *Timestamp `json:"start_date,omitempty"`
}

// Maintenance describes maintenance window
type Maintenance struct {
	MaintenanceID string       `json:"maintenanceid,omitempty"`
	Name          string       `json:"name"`
	ActiveSince   *Timestamp   `json:"active_since"`
	ActiveTill    *Timestamp   `json:"active_till"`
	Description   string       `json:"description,omitempty"`
	HostIDs       []string     `json:"hostids,omitempty"`
	GroupIDs      []string     `json:"groupids,omitempty"`
	TimePeriods   []TimePeriod `json:"timeperiods"`
}

// String implements Stringer interface
func (m Maintenance) String() string {
	return fmt.Sprintf("[%s, %s, %s, %s, %v, %v]",
		m.MaintenanceID, m.Name, m.ActiveSince.String(), m.ActiveTill.String(),
		m.HostIDs, m.GroupIDs,
	)
}

// Duration returns the window length in seconds
func (m Maintenance) Duration() int64 {
	if m.ActiveSince == nil || m.ActiveTill == nil {
		return 0
	}
	return m.ActiveTill.Unix() - m.ActiveSince.Unix()
}

// MaintenanceName returns name of maintenance window for target
func MaintenanceName(target string) string {
	return MaintenancePrefix + target
}
