package servo

import (
	"fmt"
	"time"

	"golang.org/x/exp/io/i2c"
)

// PCA9685 register map. Each PWM output has two 16-bit (low byte first)
// registers: on time then off time.
const (
	DefaultI2CAddr = 0x40

	regMode1    = 0x00
	regLEDBase  = 0x06
	regPreScale = 0xfe

	pwmMax = 4095
)

// PCA9685 drives the servo through channel 0..15 of a PCA9685 board.
type PCA9685 struct {
	dev  *i2c.Device
	port int
}

// NewPCA9685 opens the board on the given I2C device file (for example
// "/dev/i2c-1") and configures it for the 50Hz servo frame.
func NewPCA9685(deviceFile string, port int) (*PCA9685, error) {
	if port < 0 || port > 15 {
		return nil, fmt.Errorf("servo: PCA9685 port out of range: %d", port)
	}
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, DefaultI2CAddr)
	if err != nil {
		return nil, fmt.Errorf("servo: open PCA9685: %w", err)
	}
	p := &PCA9685{dev: dev, port: port}
	if err := p.configure(); err != nil {
		dev.Close()
		return nil, fmt.Errorf("servo: configure PCA9685: %w", err)
	}
	return p, nil
}

func (p *PCA9685) configure() (err error) {
	// Sleep the oscillator before touching the pre-scaler.
	if err = p.dev.WriteReg(regMode1, []byte{0x11}); err != nil {
		return
	}
	// Pre-scale for a 50Hz frame (25MHz / (4096 * 50) - 1).
	if err = p.dev.WriteReg(regPreScale, []byte{0x79}); err != nil {
		return
	}
	// Wake and trigger a restart.
	if err = p.dev.WriteReg(regMode1, []byte{0x01}); err != nil {
		return
	}
	// Required delay after reset.
	time.Sleep(1 * time.Millisecond)
	err = p.dev.WriteReg(regMode1, []byte{0x81})
	return
}

// SetAngle commands the servo to an absolute angle.
func (p *PCA9685) SetAngle(deg float64) error {
	pulse := PulseForAngle(deg)
	counts := uint16(pwmMax * float64(pulse) / float64(FramePeriod))
	return p.writeCounts(counts)
}

// Release stops the pulse train; most servos go limp without a pulse.
func (p *PCA9685) Release() error {
	return p.writeCounts(0)
}

// Close releases the pulse train and the I2C handle.
func (p *PCA9685) Close() error {
	if err := p.Release(); err != nil {
		p.dev.Close()
		return err
	}
	return p.dev.Close()
}

func (p *PCA9685) writeCounts(counts uint16) error {
	addr := regLEDBase + p.port*4
	return p.dev.WriteReg(byte(addr), []byte{0, 0, byte(counts & 0xff), byte(counts >> 8)})
}
