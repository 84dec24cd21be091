// Package gpio owns the single digital output line driven by blinkd.
package gpio

// Line abstracts exclusive access to one output line.
// Implementations are not safe for concurrent use; callers serialize writes.
type Line interface {
	// SetValue drives the line high (true) or low (false). The write is synchronous
	// and failures are returned wrapped in ErrWriteFailed.
	SetValue(on bool) error

	// Offset returns the line offset on its chip.
	Offset() int

	// Release gives the line back to the kernel. Calling it more than once is a no-op.
	Release() error
}

// Backend names accepted by Open.
const (
	BackendCdev  = "cdev"
	BackendSysfs = "sysfs"
	BackendSim   = "sim"
)

// DefaultConsumer tags the line reservation so it shows up in gpioinfo.
const DefaultConsumer = "led-blinker"

// Config selects and configures a line backend.
type Config struct {
	Backend  string
	Chip     string // character device path, e.g. /dev/gpiochip0
	Offset   int
	Consumer string
	LEDName  string // sysfs LED class name; detected from the board when empty
	SysfsDir string // defaults to /sys/class/leds
}

// Release releases l if it is non-nil. It is safe to call on an unacquired handle.
func Release(l Line) error {
	if l == nil {
		return nil
	}
	return l.Release()
}
