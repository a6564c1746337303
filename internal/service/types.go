package service

import "time"

// LogFilter restricts event listing by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", START, STOP, COMMAND, MODE_CHANGE, ANOMALY, ERROR
}
