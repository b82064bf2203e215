package zabbix

import (
	"bytes"
	"math"
	"strconv"
	"time"
)

// MaxTimestamp is the latest Unix time the API stores, clocks are int32 columns
const MaxTimestamp int64 = math.MaxInt32

// Timestamp refers to JSON Unix seconds format
// The API returns numbers as strings, both forms are accepted on decode
type Timestamp struct {
	time.Time
}

// NewTimestamp returns truncated to seconds timestamp
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t.Truncate(time.Second)}
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, t.Unix(), 10), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(input []byte) error {
	s := string(bytes.Trim(input, `"`))
	if s == "" || s == "null" {
		return nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	t.Time = time.Unix(i, 0).UTC()
	return nil
}

// String implements Stringer interface
func (t *Timestamp) String() string {
	if t == nil {
		return ""
	}
	return strconv.FormatInt(t.Unix(), 10)
}
