// Package zerrors defines the error kinds spec.md §7 says the core
// surfaces to callers, in the idiom of the teacher's bgpError{code,
// subcode, message} (jbgp.go/kbgp.go) generalized from a two-field
// protocol error to the kind/detail shape this daemon needs. Every kind
// is a sentinel wrapped with fmt.Errorf's %w so callers use errors.Is.
package zerrors

import "errors"

// Sentinel error kinds, spec.md §7.
var (
	// ErrMalformed: the wire codec rejected a message or attribute layout.
	ErrMalformed = errors.New("malformed message")
	// ErrTimeout: no ack arrived within talk()'s deadline.
	ErrTimeout = errors.New("timeout waiting for kernel ack")
	// ErrUnresolvable: a nexthop chain did not terminate at a usable
	// interface; the route stays in the RIB but is withdrawn from the FIB.
	ErrUnresolvable = errors.New("nexthop unresolvable")
	// ErrDuplicateRoute: an identical (origin, instance) resubmit arrived
	// during a REPLACE; the caller's prior handle is invalidated.
	ErrDuplicateRoute = errors.New("duplicate route submission")
	// ErrCancelled: the VRF or socket backing a pending request was torn down.
	ErrCancelled = errors.New("cancelled")
	// ErrInvalid: a caller-supplied prefix or label failed validation.
	ErrInvalid = errors.New("invalid argument")
)

// KernelError preserves the kernel's error ack code, spec.md §7.
type KernelError struct {
	Code int
}

func (e *KernelError) Error() string {
	return "kernel error ack: code " + itoa(e.Code)
}

// Is lets errors.Is(err, ErrKernel) match any *KernelError regardless of
// code, while errors.As(err, &kerr) still recovers the code.
func (e *KernelError) Is(target error) bool {
	return target == ErrKernel
}

// ErrKernel is the sentinel errors.Is matches any *KernelError against.
var ErrKernel = errors.New("kernel error")

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
