package models

import (
	"fmt"
	"time"
)

// Observation is one retained GEC record: the UTC timestamp of the
// observation and its igsg index value
type Observation struct {
	Timestamp time.Time `json:"timestamp"`
	Index     float64   `json:"gec"`
}

// Channel identifies an SDO/AIA wavelength band on the Helioviewer API
type Channel struct {
	SourceID   int `json:"source_id"`
	Wavelength int `json:"wavelength"`
}

// String returns a short label such as "AIA 171 (sourceId=10)"
func (c Channel) String() string {
	return fmt.Sprintf("AIA %d (sourceId=%d)", c.Wavelength, c.SourceID)
}

// DefaultChannels returns the five AIA channels harvested for every timestamp.
// A fresh slice is returned on each call so callers cannot mutate the set.
func DefaultChannels() []Channel {
	return []Channel{
		{SourceID: 10, Wavelength: 171},
		{SourceID: 11, Wavelength: 193},
		{SourceID: 12, Wavelength: 211},
		{SourceID: 13, Wavelength: 304},
		{SourceID: 14, Wavelength: 335},
	}
}

// Task is a single (timestamp, channel) unit of work
type Task struct {
	Timestamp time.Time `json:"timestamp"`
	Channel   Channel   `json:"channel"`
}

// String returns a log-friendly description of the task
func (t Task) String() string {
	return fmt.Sprintf("%s %s", t.Timestamp.UTC().Format(time.RFC3339), t.Channel)
}
