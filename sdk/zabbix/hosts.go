package zabbix

// Host describes monitored host
type Host struct {
	HostID string `json:"hostid"`
	Host   string `json:"host"`
	Name   string `json:"name,omitempty"`
}

// HostGroup describes named collection of hosts
type HostGroup struct {
	GroupID string `json:"groupid"`
	Name    string `json:"name"`
}

// Filter defines exact-match filter of get methods
type Filter map[string][]string

// GetRequest defines common params of get methods
type GetRequest struct {
	Output            string   `json:"output,omitempty"`
	Filter            Filter   `json:"filter,omitempty"`
	HostIDs           []string `json:"hostids,omitempty"`
	GroupIDs          []string `json:"groupids,omitempty"`
	ObjectIDs         []string `json:"objectids,omitempty"`
	SelectHosts       string   `json:"selectHosts,omitempty"`
	SelectTimeperiods string   `json:"selectTimeperiods,omitempty"`
	// SelectAcknowledges is spelled as the 2.x event.get expects
	SelectAcknowledges string   `json:"select_acknowledges,omitempty"`
	SortField          []string `json:"sortfield,omitempty"`
	SortOrder          string   `json:"sortorder,omitempty"`
}

// OutputExtend requests all object properties
const OutputExtend = "extend"
