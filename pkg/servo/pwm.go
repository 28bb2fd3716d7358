package servo

import (
	"fmt"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"
)

// servoFrequency is the hobby-servo frame rate.
const servoFrequency = 50 * physic.Hertz

// HardwarePWM drives the servo directly from one of the Pi's hardware PWM
// pins (GPIO12 or GPIO13 on a Pi 4). Software PWM jitters too much for a
// servo, so the pin must support hardware PWM.
type HardwarePWM struct {
	pin gpio.PinIO
}

// NewHardwarePWM initializes the periph host drivers and claims the named
// pin (for example "GPIO12").
func NewHardwarePWM(pinName string) (*HardwarePWM, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("servo: periph host init: %w", err)
	}
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("servo: no such pin: %s", pinName)
	}
	return &HardwarePWM{pin: pin}, nil
}

// SetAngle commands the servo to an absolute angle.
func (h *HardwarePWM) SetAngle(deg float64) error {
	pulse := PulseForAngle(deg)
	duty := gpio.Duty(int64(gpio.DutyMax) * int64(pulse) / int64(FramePeriod))
	if err := h.pin.PWM(duty, servoFrequency); err != nil {
		return fmt.Errorf("servo: pwm on %s: %w", h.pin.Name(), err)
	}
	return nil
}

// Release stops the pulse train.
func (h *HardwarePWM) Release() error {
	if err := h.pin.Halt(); err != nil {
		return fmt.Errorf("servo: halt %s: %w", h.pin.Name(), err)
	}
	return nil
}

// Close releases the pin.
func (h *HardwarePWM) Close() error {
	return h.Release()
}
