package thermostat

import "errors"

// Errors returned by room and controller operations. They are wrapped with the
// offending value, so compare with errors.Is.
var (
	ErrDuplicateSensor  = errors.New("duplicate sensor")
	ErrUnknownSensor    = errors.New("unknown sensor")
	ErrInvalidName      = errors.New("invalid name: must not be empty")
	ErrInvalidSensorID  = errors.New("invalid sensor id: must not be empty")
	ErrTargetOutOfRange = errors.New("target temperature out of range")
	ErrInvalidMode      = errors.New("invalid mode: must be HEAT or COOL")
	ErrInvalidLimits    = errors.New("invalid thermostat limits")
)
