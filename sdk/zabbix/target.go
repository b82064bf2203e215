package zabbix

import (
	"strings"
)

// TargetKind defines the kind of maintenance target
type TargetKind string

// Target kinds with their command line markers
const (
	TargetHost  TargetKind = "host"
	TargetGroup TargetKind = "group"
)

// Marker returns the command line prefix of kind
func (k TargetKind) Marker() string {
	return string(k) + ":"
}

// Target describes host or host group addressed by name
type Target struct {
	Kind TargetKind
	Name string
}

// String implements Stringer interface
func (t Target) String() string {
	return t.Kind.Marker() + t.Name
}

// ParseTarget strips one leading "host:" or "group:" marker.
// The marker selects the kind, defaultKind is used without marker.
func ParseTarget(raw string, defaultKind TargetKind) Target {
	for _, kind := range []TargetKind{TargetHost, TargetGroup} {
		if name, ok := strings.CutPrefix(raw, kind.Marker()); ok {
			return Target{Kind: kind, Name: name}
		}
	}
	return Target{Kind: defaultKind, Name: raw}
}

// StripMarker removes one leading kind marker from raw
func StripMarker(raw string, kind TargetKind) string {
	name, _ := strings.CutPrefix(raw, kind.Marker())
	return name
}
