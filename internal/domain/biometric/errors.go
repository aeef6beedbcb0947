package biometric

import "errors"

// Sentinel errors for device and session control.
var (
	ErrDeviceDisconnected = errors.New("device not connected")
	ErrSessionActive      = errors.New("session already running")
	ErrNoActiveSession    = errors.New("no active session")
	ErrHubClosed          = errors.New("biometric hub closed")
)
