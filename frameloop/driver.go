package frameloop

import "github.com/valerio/go-frameloop/frameloop/timing"

type driverKind int

const (
	driverAbsent driverKind = iota
	driverFixed
	driverDisplay
)

func (k driverKind) String() string {
	switch k {
	case driverAbsent:
		return "absent"
	case driverFixed:
		return "fixed"
	case driverDisplay:
		return "display"
	default:
		return "unknown"
	}
}

// driver is one timer slot of a FrameLoop: absent, a fixed-interval timer,
// or a display-synchronized callback.
type driver struct {
	kind   driverKind
	handle timing.Handle
}

func fixedDriver(h timing.Handle) driver   { return driver{kind: driverFixed, handle: h} }
func displayDriver(h timing.Handle) driver { return driver{kind: driverDisplay, handle: h} }

func (d driver) active() bool {
	return d.kind != driverAbsent
}

// cancel disarms the slot and leaves it absent.
func (d *driver) cancel() {
	switch d.kind {
	case driverFixed, driverDisplay:
		d.handle.Cancel()
	case driverAbsent:
	}
	*d = driver{}
}
