package nlsock

import (
	"errors"
	"net"
	"time"
)

// deadlineFrom converts a relative timeout into an absolute deadline,
// the form net.Conn.SetReadDeadline wants.
func deadlineFrom(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}

func isTimeout(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) {
		return nerr.Timeout()
	}
	return false
}

// Poll is spec.md §4.2's poll(): drains the notify socket and dispatches
// each message, in arrival order, to dispatch. It blocks for at most the
// connection's timeout and returns (false, nil) on an ordinary idle
// timeout so callers can loop cooperatively rather than block forever.
func (c *Conn) Poll(dispatch Dispatcher) (dispatched bool, err error) {
	if err := c.notify.SetReadDeadline(deadlineFrom(c.timeout)); err != nil {
		return false, err
	}
	msgs, rerr := c.notify.Receive()
	if rerr != nil {
		if isTimeout(rerr) {
			return false, nil
		}
		return false, rerr
	}
	for _, m := range msgs {
		dispatch(m)
		dispatched = true
	}
	return dispatched, nil
}
