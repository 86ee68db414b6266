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
	"log/slog"
)

// EngineConfig holds the fixed output format and queue sizing for an
// Engine. Zero fields take the defaults below.
type EngineConfig struct {
	SampleRate      int
	Channels        int
	FramesPerBuffer int

	// CommandQueueSize is sized generously so commands are never lost
	// under normal load; they apply with at most one buffer of latency.
	CommandQueueSize int
	// EventQueueSize bounds the engine→control channel; sends past a
	// saturated queue are dropped and counted, never blocked on.
	EventQueueSize int

	// Stretcher overrides the time-stretch factory; nil means the
	// production WSOLA-backed stretcher.
	Stretcher StretcherFactory
}

func (c *EngineConfig) applyDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = 44100
	}
	if c.Channels == 0 {
		c.Channels = 2
	}
	if c.FramesPerBuffer == 0 {
		c.FramesPerBuffer = 1024
	}
	if c.CommandQueueSize == 0 {
		c.CommandQueueSize = 64
	}
	if c.EventQueueSize == 0 {
		c.EventQueueSize = 256
	}
	if c.Stretcher == nil {
		c.Stretcher = NewStretcher
	}
}

// Engine hosts the playback state machine behind a hardware output
// callback. It owns the command and event channels; the callback
// drains all pending commands once per invocation, then fills the
// output buffer. All engine state is touched only from the callback.
type Engine struct {
	backend  Backend
	cfg      EngineConfig
	commands chan Command
	sink     *eventSink
	state    *engineState
	stream   OutputStream
}

// NewEngine creates an engine on the given backend. Call Start to open
// the hardware stream and begin the callback.
func NewEngine(backend Backend, cfg EngineConfig) *Engine {
	cfg.applyDefaults()
	return &Engine{
		backend:  backend,
		cfg:      cfg,
		commands: make(chan Command, cfg.CommandQueueSize),
		sink:     newEventSink(cfg.EventQueueSize),
		state:    newEngineState(cfg.SampleRate, cfg.FramesPerBuffer, cfg.Stretcher),
	}
}

// Start initializes the backend and starts the output stream. On error
// the engine is left stopped; the application keeps running with no
// playback capability.
func (e *Engine) Start() error {
	if err := e.backend.Initialize(); err != nil {
		return fmt.Errorf("audio backend init: %w", err)
	}

	stream, err := e.backend.OpenOutputStream(
		float64(e.cfg.SampleRate), e.cfg.Channels, e.cfg.FramesPerBuffer, e.callback)
	if err != nil {
		_ = e.backend.Terminate()
		return fmt.Errorf("open output stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = e.backend.Terminate()
		return fmt.Errorf("start output stream: %w", err)
	}

	e.stream = stream
	return nil
}

// callback runs in the hardware's real-time context. It must keep
// returning valid buffers; a panic here would abort the stream, so it
// is trapped, logged and turned into silence.
func (e *Engine) callback(out []float32) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("audio callback panic", "panic", r)
			fillSilence(out)
		}
	}()

	for {
		select {
		case cmd := <-e.commands:
			e.state.handleCommand(cmd, e.sink)
		default:
			e.state.fillBuffer(out, e.cfg.Channels, e.sink)
			return
		}
	}
}

// Send queues a command for the engine. It may block briefly if the
// control goroutine outruns the callback, but the queue is deep enough
// that this does not happen in normal operation.
func (e *Engine) Send(cmd Command) {
	e.commands <- cmd
}

// Events returns the engine's event stream.
func (e *Engine) Events() <-chan Event {
	return e.sink.ch
}

// DroppedEvents reports how many events were discarded because the
// event queue was saturated.
func (e *Engine) DroppedEvents() uint64 {
	return e.sink.dropped.Load()
}

// SampleRate returns the fixed output sample rate.
func (e *Engine) SampleRate() int {
	return e.cfg.SampleRate
}

// Close stops the stream and tears down the backend.
func (e *Engine) Close() error {
	var firstErr error
	if e.stream != nil {
		if err := e.stream.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := e.stream.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		e.stream = nil
	}
	if err := e.backend.Terminate(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
