package power

// Fake records power-off requests for test assertions.
type Fake struct {
	// Calls counts PowerOff invocations.
	Calls int

	// Err, if set, is returned by PowerOff.
	Err error

	// OnPowerOff, if set, runs before PowerOff returns.
	OnPowerOff func()
}

// PowerOff records the call.
func (f *Fake) PowerOff() error {
	f.Calls++
	if f.OnPowerOff != nil {
		f.OnPowerOff()
	}
	return f.Err
}
