package types

import "time"

// Direction tells whether a session pushes a file to the service or pulls one back.
type Direction string

const (
	DirectionShare   Direction = "share"
	DirectionReceive Direction = "receive"
)

// Status is the state of a TransferSession.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusValidating Status = "validating"
	StatusProbing    Status = "probing"
	StatusInFlight   Status = "in_flight"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition is possible for the session.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// ShareOptions are collected for a share session but never sent to the service.
type ShareOptions struct {
	Password      string `json:"password,omitempty"`
	ExpiryMinutes int    `json:"expiryMinutes"` // 0 means no expiry
	OneTime       bool   `json:"oneTime"`
}

// TransferSession is one share or receive attempt, from submission to a terminal status.
type TransferSession struct {
	ID        string       `json:"id"`
	Direction Direction    `json:"direction"`
	Files     []string     `json:"files,omitempty"` // names of the selected files (share)
	Code      string       `json:"code,omitempty"`
	Options   ShareOptions `json:"options"`
	Progress  int          `json:"progress"`
	Status    Status       `json:"status"`
	Filename  string       `json:"filename,omitempty"`  // extracted name (receive)
	SavedPath string       `json:"savedPath,omitempty"` // where the content was written (receive)
	ErrorKind string       `json:"errorKind,omitempty"`
	Error     string       `json:"error,omitempty"`
	StartedAt time.Time    `json:"startedAt"`
	EndedAt   time.Time    `json:"endedAt,omitempty"`
}

// SessionEvent is published by the session controller on every transition and progress change.
type SessionEvent struct {
	Type    string          `json:"type"` // EventTypeStatus or EventTypeProgress
	Session TransferSession `json:"session"`
}

const (
	EventTypeStatus   = "status"
	EventTypeProgress = "progress"
)
