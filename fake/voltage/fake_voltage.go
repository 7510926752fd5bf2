package voltage

// FakeVoltage reports a fixed voltage, which can be changed to simulate the
// battery running down.
type FakeVoltage struct {
	V   float64
	Err error
}

func New(voltage float64) *FakeVoltage {
	return &FakeVoltage{V: voltage}
}

func (s *FakeVoltage) Voltage() (float64, error) {
	return s.V, s.Err
}
