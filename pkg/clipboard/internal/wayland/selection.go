//go:build linux

// Package wayland owns the Wayland clipboard selection through the
// wlr-data-control protocol, which lets a client without a surface set the
// selection.
package wayland

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Object ids are allocated by the client from 2 upward.
const (
	objDisplay  uint32 = 1
	objRegistry uint32 = 2
	objSyncOne  uint32 = 3
	objSeat     uint32 = 4
	objManager  uint32 = 5
	objSource   uint32 = 6
	objDevice   uint32 = 7
	objSyncTwo  uint32 = 8
)

const (
	ifaceSeat    = "wl_seat"
	ifaceManager = "zwlr_data_control_manager_v1"
)

// Flavor is one MIME type offered with the selection.
type Flavor struct {
	MIME string
	Data []byte
}

type step struct {
	object uint32
	opcode uint16
	args   [][]byte
}

type globals struct {
	seat, manager       uint32
	hasSeat, hasManager bool
}

// SocketPath resolves the compositor socket from the environment.
func SocketPath() (string, error) {
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		display = "wayland-0"
	}
	if filepath.IsAbs(display) {
		return display, nil
	}
	runtime := os.Getenv("XDG_RUNTIME_DIR")
	if runtime == "" {
		return "", fmt.Errorf("wayland: XDG_RUNTIME_DIR not set")
	}
	return filepath.Join(runtime, display), nil
}

// Serve sets a new selection offering every flavor, calls ready once the
// compositor has acknowledged it, and then answers paste requests until
// another client takes the selection. Setting a selection replaces all
// flavors of the previous one.
func Serve(flavors []Flavor, ready func()) error {
	path, err := SocketPath()
	if err != nil {
		return err
	}
	c, err := dial(path)
	if err != nil {
		return fmt.Errorf("wayland: connect %s: %w", path, err)
	}
	defer c.close()

	g, err := discover(c)
	if err != nil {
		return err
	}
	if err := claim(c, g, flavors); err != nil {
		return err
	}
	if ready != nil {
		ready()
	}
	return answer(c, flavors)
}

// discover lists the registry and waits for the roundtrip to finish.
func discover(c *conn) (globals, error) {
	var g globals
	if err := c.request(objDisplay, 1 /* get_registry */, uint32Arg(objRegistry)); err != nil {
		return g, err
	}
	if err := c.request(objDisplay, 0 /* sync */, uint32Arg(objSyncOne)); err != nil {
		return g, err
	}

	for {
		m, err := c.next()
		if err != nil {
			return g, err
		}
		m.discard()

		if m.is(objSyncOne, 0 /* done */) {
			break
		}
		if !m.is(objRegistry, 0 /* global */) || len(m.payload) < 4 {
			continue
		}
		name := le.Uint32(m.payload)
		iface, _, err := parseString(m.payload[4:])
		if err != nil {
			continue
		}
		switch iface {
		case ifaceSeat:
			g.seat, g.hasSeat = name, true
		case ifaceManager:
			g.manager, g.hasManager = name, true
		}
	}

	if !g.hasSeat {
		return g, fmt.Errorf("wayland: %s not found", ifaceSeat)
	}
	if !g.hasManager {
		return g, fmt.Errorf("wayland: %s not found (compositor lacks wlr-data-control)", ifaceManager)
	}
	return g, nil
}

// claim binds the globals, creates a source offering flavors and sets it as
// the selection, then waits for the compositor to process the requests.
func claim(c *conn, g globals, flavors []Flavor) error {
	steps := []step{
		{objRegistry, 0 /* bind */, [][]byte{uint32Arg(g.seat), stringArg(ifaceSeat), uint32Arg(1), uint32Arg(objSeat)}},
		{objRegistry, 0 /* bind */, [][]byte{uint32Arg(g.manager), stringArg(ifaceManager), uint32Arg(2), uint32Arg(objManager)}},
		{objManager, 0 /* create_data_source */, [][]byte{uint32Arg(objSource)}},
	}
	for _, f := range flavors {
		steps = append(steps, step{objSource, 0 /* offer */, [][]byte{stringArg(f.MIME)}})
	}
	steps = append(steps,
		step{objManager, 1 /* get_data_device */, [][]byte{uint32Arg(objDevice), uint32Arg(objSeat)}},
		step{objDevice, 0 /* set_selection */, [][]byte{uint32Arg(objSource)}},
		step{objDisplay, 0 /* sync */, [][]byte{uint32Arg(objSyncTwo)}},
	)

	for _, s := range steps {
		if err := c.request(s.object, s.opcode, s.args...); err != nil {
			return err
		}
	}
	for {
		m, err := c.next()
		if err != nil {
			return err
		}
		m.discard()
		if m.is(objDisplay, 0 /* error */) {
			return fmt.Errorf("wayland: protocol error while setting selection")
		}
		if m.is(objSyncTwo, 0 /* done */) {
			return nil
		}
	}
}

// answer writes the requested flavor to each fd the compositor sends until
// the source is cancelled or the compositor goes away.
func answer(c *conn, flavors []Flavor) error {
	byMIME := make(map[string][]byte, len(flavors))
	for _, f := range flavors {
		byMIME[f.MIME] = f.Data
	}

	for {
		m, err := c.next()
		if err != nil {
			return nil
		}
		if m.object != objSource {
			m.discard()
			continue
		}

		switch m.opcode {
		case 0: // send
			mime, _, _ := parseString(m.payload)
			if m.fd >= 0 {
				if data, ok := byMIME[mime]; ok {
					writeFull(m.fd, data) //nolint:errcheck
				}
				unix.Close(m.fd) //nolint:errcheck
			}
		case 1: // cancelled
			m.discard()
			return nil
		default:
			m.discard()
		}
	}
}
