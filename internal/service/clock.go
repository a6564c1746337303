package service

import "time"

// Clock supplies the controller's notion of now. Injected so every
// phase transition and counter can be exercised off wall-clock time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewClock returns the wall-clock implementation.
func NewClock() Clock { return realClock{} }
