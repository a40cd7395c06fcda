//go:build linux

package wayland

import (
	"bytes"
	"testing"

	"golang.org/x/sys/unix"
)

func TestStringArgRoundTrip(t *testing.T) {
	for _, s := range []string{"", "a", "abc", "abcd", "text/plain;charset=utf-8"} {
		enc := stringArg(s)
		if len(enc)%4 != 0 {
			t.Errorf("stringArg(%q) length %d is not 4-byte aligned", s, len(enc))
		}
		got, rest, err := parseString(append(enc, 0xAA, 0xBB, 0xCC, 0xDD))
		if err != nil {
			t.Fatalf("parseString(%q) error = %v", s, err)
		}
		if got != s {
			t.Errorf("parseString() = %q, want %q", got, s)
		}
		if !bytes.Equal(rest, []byte{0xAA, 0xBB, 0xCC, 0xDD}) {
			t.Errorf("parseString(%q) rest = %x", s, rest)
		}
	}
}

func TestParseStringShort(t *testing.T) {
	if _, _, err := parseString([]byte{1, 0}); err == nil {
		t.Error("parseString() on short header error = nil")
	}
	if _, _, err := parseString([]byte{8, 0, 0, 0, 'a'}); err == nil {
		t.Error("parseString() on short data error = nil")
	}
}

func TestRequestAndNextOverSocketPair(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socketpair() error = %v", err)
	}
	a, b := &conn{fd: fds[0]}, &conn{fd: fds[1]}
	defer a.close()
	defer b.close()

	if err := a.request(objSource, 0, stringArg("text/html")); err != nil {
		t.Fatalf("request() error = %v", err)
	}
	if err := a.request(objSyncOne, 0, uint32Arg(42)); err != nil {
		t.Fatalf("request() error = %v", err)
	}

	m, err := b.next()
	if err != nil {
		t.Fatalf("next() error = %v", err)
	}
	if !m.is(objSource, 0) || m.fd != -1 {
		t.Errorf("first message = %+v", m)
	}
	if mime, _, _ := parseString(m.payload); mime != "text/html" {
		t.Errorf("payload string = %q", mime)
	}

	m, err = b.next()
	if err != nil {
		t.Fatalf("next() error = %v", err)
	}
	if !m.is(objSyncOne, 0) || le.Uint32(m.payload) != 42 {
		t.Errorf("second message = %+v", m)
	}
}

func TestSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	t.Setenv("WAYLAND_DISPLAY", "wayland-1")
	if got, err := SocketPath(); err != nil || got != "/run/user/1000/wayland-1" {
		t.Errorf("SocketPath() = %q, %v", got, err)
	}

	t.Setenv("WAYLAND_DISPLAY", "/tmp/custom.sock")
	if got, _ := SocketPath(); got != "/tmp/custom.sock" {
		t.Errorf("SocketPath() with absolute display = %q", got)
	}

	t.Setenv("WAYLAND_DISPLAY", "")
	t.Setenv("XDG_RUNTIME_DIR", "")
	if _, err := SocketPath(); err == nil {
		t.Error("SocketPath() without runtime dir error = nil")
	}
}
