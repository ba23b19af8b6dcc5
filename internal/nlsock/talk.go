package nlsock

import (
	"context"
	"fmt"

	"github.com/mdlayher/netlink"
	"go.uber.org/zap"

	"github.com/routeflow/zfibd/internal/zerrors"
)

// AckFilter lets a caller inspect a non-terminal message arriving on the
// sequence it's waiting on before Talk decides whether it's the ack.
// Most callers pass nil and rely on NLMSG_ERROR/NLMSG_DONE alone.
type AckFilter func(m netlink.Message) (done bool, err error)

// Dispatcher is called, in arrival order, for every message Talk or Dump
// drains that does not belong to the request's own sequence number —
// spec.md §4.2's "dispatched to their parse callbacks in order before
// returning".
type Dispatcher func(m netlink.Message)

// Talk is spec.md §4.2's talk(req, ack_filter): send req, then read
// until a terminal ACK/error for req's sequence arrives. Off-sequence
// messages encountered while draining are handed to dispatch in arrival
// order, matching the notify-socket's own FIFO guarantee so a caller
// never sees request and notification traffic reordered relative to
// each other.
func (c *Conn) Talk(ctx context.Context, req netlink.Message, filter AckFilter, dispatch Dispatcher) error {
	sent, err := c.cmd.Send(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	seq := sent.Header.Sequence

	for {
		msg, err := c.receiveOne(ctx, c.cmd)
		if err != nil {
			return err
		}
		if msg.Header.Sequence != seq {
			if dispatch != nil {
				dispatch(msg)
			}
			continue
		}

		if msg.Header.Type == netlink.Error {
			code := parseErrorCode(msg.Data)
			if code == 0 {
				return nil // a zero-code NLMSG_ERROR is the kernel's ACK
			}
			return &zerrors.KernelError{Code: code}
		}
		if msg.Header.Type == netlink.Done {
			return nil
		}
		if filter != nil {
			done, ferr := filter(msg)
			if ferr != nil {
				return ferr
			}
			if done {
				return nil
			}
		}
	}
}

// Dump is spec.md §4.2's dump(req, per_msg): like Talk, but the kernel
// answers with many messages for the same sequence, terminated by DONE;
// perMsg is invoked once per response message in arrival order.
func (c *Conn) Dump(ctx context.Context, req netlink.Message, perMsg Dispatcher) error {
	sent, err := c.cmd.Send(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	seq := sent.Header.Sequence

	for {
		msg, err := c.receiveOne(ctx, c.cmd)
		if err != nil {
			return err
		}
		if msg.Header.Sequence != seq {
			continue
		}
		switch msg.Header.Type {
		case netlink.Done:
			return nil
		case netlink.Error:
			if code := parseErrorCode(msg.Data); code != 0 {
				return &zerrors.KernelError{Code: code}
			}
			return nil
		default:
			if perMsg != nil {
				perMsg(msg)
			}
		}
	}
}

// receiveOne reads a single message, honoring ctx cancellation and the
// connection's configured timeout. mdlayher/netlink's Receive returns a
// batch; single-message callers drain one batch's worth onto a small
// internal queue so repeated calls don't re-issue a syscall per message.
func (c *Conn) receiveOne(ctx context.Context, conn *netlink.Conn) (netlink.Message, error) {
	select {
	case <-ctx.Done():
		return netlink.Message{}, zerrors.ErrCancelled
	default:
	}

	if buffered, ok := c.pending.Pop(); ok {
		return buffered, nil
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = deadlineFrom(c.timeout)
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		c.log.Warn("set read deadline failed", zap.Error(err))
	}

	msgs, err := conn.Receive()
	if err != nil {
		if isTimeout(err) {
			return netlink.Message{}, zerrors.ErrTimeout
		}
		return netlink.Message{}, fmt.Errorf("%w: %s", zerrors.ErrMalformed, err)
	}
	if len(msgs) == 0 {
		return netlink.Message{}, zerrors.ErrTimeout
	}
	for _, m := range msgs[1:] {
		c.pending.Push(m)
	}
	return msgs[0], nil
}

func parseErrorCode(data []byte) int {
	if len(data) < 4 {
		return 0
	}
	v := int32(data[0]) | int32(data[1])<<8 | int32(data[2])<<16 | int32(data[3])<<24
	return int(-v)
}
