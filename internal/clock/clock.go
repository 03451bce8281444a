package clock

import "time"

// Clock is the source of "now" for anything stamped onto an invoice.
type Clock interface {
	Now() time.Time
}

type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC()
}
