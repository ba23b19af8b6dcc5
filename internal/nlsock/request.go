package nlsock

import "github.com/mdlayher/netlink"

// NewRequest wraps a wireproto-built payload in a netlink.Message ready
// for Talk/Dump. Sequence and PID are left zero; mdlayher/netlink's
// Conn.Send assigns both before the message hits the wire.
func NewRequest(msgType uint16, flags uint16, data []byte) netlink.Message {
	return netlink.Message{
		Header: netlink.Header{
			Type:  netlink.HeaderType(msgType),
			Flags: netlink.HeaderFlags(flags),
		},
		Data: data,
	}
}
