package beancount

import (
	"fmt"
	"time"
)

// BookingMethod selects how the ledger tool reduces lots on an account.
type BookingMethod string

const BookingFIFO BookingMethod = "FIFO"

// Open declares an account, optionally with a booking method.
type Open struct {
	Date    time.Time
	Account string
	Booking BookingMethod
}

func (o Open) String() string {
	s := fmt.Sprintf("%s open %s", formatDate(o.Date), o.Account)
	if o.Booking != "" {
		s += fmt.Sprintf(" %q", string(o.Booking))
	}
	return s
}
