package service

import (
	"github.com/okian/skillup/internal/domain/biometric"
	"github.com/okian/skillup/internal/domain/model"
)

// ConnectDevice pairs the user's simulated device.
func (s *Service) ConnectDevice(uid string) (biometric.Status, error) {
	if err := s.ready(); err != nil {
		return biometric.Status{}, err
	}
	return s.hub.Connect(uid)
}

// DisconnectDevice unpairs the device, ending any running session.
func (s *Service) DisconnectDevice(uid string) (biometric.Status, error) {
	if err := s.ready(); err != nil {
		return biometric.Status{}, err
	}
	return s.hub.Disconnect(uid)
}

// StartSession begins a study session on a connected device.
func (s *Service) StartSession(uid string) (biometric.Status, error) {
	if err := s.ready(); err != nil {
		return biometric.Status{}, err
	}
	return s.hub.StartSession(uid)
}

// StopSession ends the running session and returns its summary.
func (s *Service) StopSession(uid string) (model.Session, error) {
	if err := s.ready(); err != nil {
		return model.Session{}, err
	}
	return s.hub.StopSession(uid)
}

// BiometricStatus returns the device state and latest reading.
func (s *Service) BiometricStatus(uid string) (biometric.Status, error) {
	if err := s.ready(); err != nil {
		return biometric.Status{}, err
	}
	return s.hub.Status(uid)
}

// StudySessions returns past sessions, newest first.
func (s *Service) StudySessions(uid string) ([]model.Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.hub.Sessions(uid)
}

// Performance scores the latest reading and summarizes recent ones.
func (s *Service) Performance(uid string) (biometric.Report, error) {
	if err := s.ready(); err != nil {
		return biometric.Report{}, err
	}
	return s.hub.Performance(uid)
}

// SubscribeReadings streams readings as they are generated. The returned
// func unsubscribes.
func (s *Service) SubscribeReadings(uid string) (<-chan model.Reading, func(), error) {
	if err := s.ready(); err != nil {
		return nil, nil, err
	}
	return s.hub.Subscribe(uid)
}
