package domain

type AccountID string

type SessionState string

const (
	SessionConnecting SessionState = "connecting"
	SessionOpen       SessionState = "open"
)
