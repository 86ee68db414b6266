/*
 * This file is part of Woodshed (https://github.com/woodshed-audio/woodshed).
 * Copyright (C) 2026 Woodshed Audio
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package audio

import (
	"fmt"
	"sync"
)

// MockBackend implements Backend for testing without hardware
// dependencies. Streams do not run on their own; tests pump the
// callback explicitly with Tick, which makes buffer-fill behavior
// deterministic.
type MockBackend struct {
	mu              sync.Mutex
	initialized     bool
	initError       error
	terminateError  error
	openStreamError error
	streams         []*MockStream
}

// NewMockBackend creates a new mock audio backend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// SetInitError configures the backend to return an error on Initialize().
func (m *MockBackend) SetInitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initError = err
}

// SetOpenStreamError configures the backend to return an error on stream creation.
func (m *MockBackend) SetOpenStreamError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openStreamError = err
}

// Initialize initializes the mock audio subsystem.
func (m *MockBackend) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initError != nil {
		return m.initError
	}

	m.initialized = true
	return nil
}

// Terminate terminates the mock audio subsystem.
func (m *MockBackend) Terminate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.terminateError != nil {
		return m.terminateError
	}

	m.initialized = false
	return nil
}

// OpenOutputStream creates a mock output stream.
func (m *MockBackend) OpenOutputStream(sampleRate float64, channels, framesPerBuffer int, cb OutputCallback) (OutputStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil, fmt.Errorf("mock audio backend not initialized")
	}

	if m.openStreamError != nil {
		return nil, m.openStreamError
	}

	stream := &MockStream{
		sampleRate:      sampleRate,
		channels:        channels,
		framesPerBuffer: framesPerBuffer,
		callback:        cb,
	}
	m.streams = append(m.streams, stream)
	return stream, nil
}

// Stream returns the most recently opened mock stream, or nil.
func (m *MockBackend) Stream() *MockStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.streams) == 0 {
		return nil
	}
	return m.streams[len(m.streams)-1]
}

// MockStream implements OutputStream for testing.
type MockStream struct {
	mu              sync.Mutex
	sampleRate      float64
	channels        int
	framesPerBuffer int
	callback        OutputCallback
	active          bool
	closed          bool
	startError      error
	played          [][]float32
}

// SetStartError configures the stream to return an error on Start().
func (s *MockStream) SetStartError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startError = err
}

// Start marks the mock stream active.
func (s *MockStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.startError != nil {
		return s.startError
	}
	if s.closed {
		return fmt.Errorf("stream closed")
	}
	s.active = true
	return nil
}

// Stop marks the mock stream inactive.
func (s *MockStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	return nil
}

// Close closes the mock stream.
func (s *MockStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.closed = true
	return nil
}

// IsActive reports whether Start has been called without a subsequent
// Stop or Close.
func (s *MockStream) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Tick invokes the stream callback once, as the hardware would, and
// returns the buffer it filled. The buffer is also recorded and
// retrievable via Played.
func (s *MockStream) Tick() []float32 {
	s.mu.Lock()
	cb := s.callback
	buf := make([]float32, s.framesPerBuffer*s.channels)
	s.mu.Unlock()

	cb(buf)

	s.mu.Lock()
	s.played = append(s.played, buf)
	s.mu.Unlock()
	return buf
}

// Played returns all buffers filled through Tick.
func (s *MockStream) Played() [][]float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]float32, len(s.played))
	copy(out, s.played)
	return out
}
