//go:build linux

package wayland

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var le = binary.LittleEndian

var errClosed = errors.New("wayland: connection closed")

// message is one decoded wire event. fd is -1 unless the compositor passed a
// file descriptor alongside it.
type message struct {
	object  uint32
	opcode  uint16
	payload []byte
	fd      int
}

func (m message) is(object uint32, opcode uint16) bool {
	return m.object == object && m.opcode == opcode
}

// discard closes any file descriptor that came with the message.
func (m message) discard() {
	if m.fd >= 0 {
		unix.Close(m.fd) //nolint:errcheck
	}
}

type conn struct {
	fd      int
	pending []byte
	fds     []int
}

func dial(path string) (*conn, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	if err := unix.Connect(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd) //nolint:errcheck
		return nil, err
	}
	return &conn{fd: fd}, nil
}

func (c *conn) close() {
	for _, fd := range c.fds {
		unix.Close(fd) //nolint:errcheck
	}
	unix.Close(c.fd) //nolint:errcheck
}

// request writes one request: header (object id, size<<16 | opcode) and args.
func (c *conn) request(object uint32, opcode uint16, args ...[]byte) error {
	body := join(args...)
	size := 8 + len(body)
	buf := make([]byte, size)
	le.PutUint32(buf[0:], object)
	le.PutUint32(buf[4:], uint32(opcode)|uint32(size)<<16)
	copy(buf[8:], body)
	return writeFull(c.fd, buf)
}

// next blocks until a complete event is buffered and returns it.
func (c *conn) next() (message, error) {
	for {
		if m, ok := c.take(); ok {
			return m, nil
		}
		if err := c.fill(); err != nil {
			return message{fd: -1}, err
		}
	}
}

func (c *conn) take() (message, bool) {
	if len(c.pending) < 8 {
		return message{}, false
	}
	header := le.Uint32(c.pending[4:8])
	size := int(header >> 16)
	if size < 8 || len(c.pending) < size {
		return message{}, false
	}

	m := message{
		object:  le.Uint32(c.pending[0:4]),
		opcode:  uint16(header & 0xffff),
		payload: append([]byte(nil), c.pending[8:size]...),
		fd:      -1,
	}
	c.pending = c.pending[size:]
	if len(c.fds) > 0 {
		m.fd, c.fds = c.fds[0], c.fds[1:]
	}
	return m, true
}

func (c *conn) fill() error {
	buf := make([]byte, 4096)
	oob := make([]byte, unix.CmsgSpace(4*8))
	n, oobn, _, _, err := unix.Recvmsg(c.fd, buf, oob, unix.MSG_CMSG_CLOEXEC)
	if err != nil {
		return err
	}
	if n == 0 {
		return errClosed
	}
	c.pending = append(c.pending, buf[:n]...)

	if oobn == 0 {
		return nil
	}
	scms, err := unix.ParseSocketControlMessage(oob[:oobn])
	if err != nil {
		return nil
	}
	for _, scm := range scms {
		if rights, err := unix.ParseUnixRights(&scm); err == nil {
			c.fds = append(c.fds, rights...)
		}
	}
	return nil
}

// writeFull loops over short writes; selection payloads routinely exceed the
// pipe buffer.
func writeFull(fd int, data []byte) error {
	for len(data) > 0 {
		n, err := unix.Write(fd, data)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func uint32Arg(v uint32) []byte {
	b := make([]byte, 4)
	le.PutUint32(b, v)
	return b
}

// stringArg encodes a length-prefixed, NUL-terminated string padded to 4 bytes.
func stringArg(s string) []byte {
	length := len(s) + 1
	buf := make([]byte, 4+(length+3)&^3)
	le.PutUint32(buf, uint32(length))
	copy(buf[4:], s)
	return buf
}

func parseString(data []byte) (string, []byte, error) {
	if len(data) < 4 {
		return "", data, fmt.Errorf("wayland: short string length field")
	}
	length := int(le.Uint32(data))
	data = data[4:]
	if length == 0 {
		return "", data, nil
	}
	padded := (length + 3) &^ 3
	if len(data) < padded {
		return "", data, fmt.Errorf("wayland: short string data")
	}
	return string(data[:length-1]), data[padded:], nil
}

func join(parts ...[]byte) []byte {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
