package domain

// VelocityCommand is one actuation tick for a differential-drive base.
type VelocityCommand struct {
	LinearX  float64
	AngularZ float64
}

// Stop returns the zero command, the canonical stop signal.
func Stop() VelocityCommand {
	return VelocityCommand{}
}

// IsStop reports whether v is the zero command.
func (v VelocityCommand) IsStop() bool {
	return v.LinearX == 0 && v.AngularZ == 0
}
