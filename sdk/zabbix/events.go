package zabbix

// Event describes problem or recovery event of a trigger
type Event struct {
	EventID      string        `json:"eventid"`
	Source       string        `json:"source,omitempty"`
	Object       string        `json:"object,omitempty"`
	ObjectID     string        `json:"objectid"`
	Clock        *Timestamp    `json:"clock"`
	Value        string        `json:"value"`
	Acknowledged string        `json:"acknowledged"`
	Name         string        `json:"name,omitempty"`
	Acknowledges []Acknowledge `json:"acknowledges,omitempty"`
}

// Acknowledge describes event acknowledgement
type Acknowledge struct {
	AcknowledgeID string     `json:"acknowledgeid"`
	UserID        string     `json:"userid,omitempty"`
	Alias         string     `json:"alias,omitempty"`
	Clock         *Timestamp `json:"clock"`
	Message       string     `json:"message"`
}

// EventAckRequest describes event.acknowledge params
type EventAckRequest struct {
	EventIDs []string `json:"eventids"`
	Message  string   `json:"message"`
}

