package domain

import "time"

// AccessoryUpdateEvent is published on the event stream after every poll and
// whenever an accessory republishes its state.
type AccessoryUpdateEvent struct {
	Accessory AccessoryInfo
	Reading   Reading
	Time      time.Time
}

// AccessoryPolledEvent is published once per completed poll, with the fetch outcome
type AccessoryPolledEvent struct {
	AccessoryId string
	Duration    time.Duration
	Error       error
}
