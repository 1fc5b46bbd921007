package output

import "time"

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type EventName string

const (
	EventRequestStarted   EventName = "request_started"
	EventRequestFinished  EventName = "request_finished"
	EventRequestFailed    EventName = "request_failed"
	EventDownloadStarted  EventName = "download_started"
	EventDownloadFinished EventName = "download_finished"
	EventDownloadFailed   EventName = "download_failed"
	EventBatchFinished    EventName = "batch_finished"
)

type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Event     EventName      `json:"event"`
	Target    string         `json:"target,omitempty"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

func (n EventName) started() bool {
	return n == EventRequestStarted || n == EventDownloadStarted
}

func (n EventName) finished() bool {
	return n == EventRequestFinished || n == EventDownloadFinished || n == EventBatchFinished
}
