package motion

// Mapper turns raw pixel offsets into clamped servo target angles. It owns
// the signal filter and the controller; the perception unit calls Map once
// per detection and writes the result into the shared state. The mapper
// never touches the actuator, so its invocation rate (bounded by detector
// latency) is independent of the actuation tick rate.
type Mapper struct {
	filter          *Filter
	controller      Controller
	pixelsPerDegree float64
}

// NewMapper builds a mapper from the motion config.
func NewMapper(cfg Config) *Mapper {
	return &Mapper{
		filter:          NewFilter(cfg.SmoothingAlpha, cfg.DeadbandPixels),
		controller:      NewController(cfg),
		pixelsPerDegree: cfg.PixelsPerDegree(),
	}
}

// Map converts a raw pixel offset into a new target angle given the current
// servo angle. dt is the time since the previous detection in seconds.
// ok is false when the smoothed offset is inside the deadband: the target
// must not change and the controller's derivative memory has been reset.
func (m *Mapper) Map(rawOffsetPx, currentAngle, dt float64) (target float64, ok bool) {
	filtered, ok := m.filter.Apply(rawOffsetPx)
	if !ok {
		m.controller.Reset()
		return currentAngle, false
	}

	errorDeg := filtered / m.pixelsPerDegree
	delta := m.controller.Update(errorDeg, dt)
	return ClampAngle(currentAngle + delta), true
}

// Reset clears the filter and controller. Called when the target is lost.
func (m *Mapper) Reset() {
	m.filter.Reset()
	m.controller.Reset()
}
