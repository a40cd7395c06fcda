//go:build !linux && !darwin

package clipboard

import (
	"fmt"

	atotto "github.com/atotto/clipboard"
)

func nativeChangeCount() func() (int64, error) {
	return nil
}

func backend() string {
	return "plain"
}

// writeRich only writes plain text on these platforms.
func writeRich(html, plain string) error {
	return atotto.WriteAll(plain)
}

// ServeClipboard is only used on Wayland.
func ServeClipboard(p Payload, ready func()) error {
	return fmt.Errorf("%s is only supported on Linux/Wayland", ServeCommand)
}
