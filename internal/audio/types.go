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

// Data holds a fully decoded audio file in memory. It is shared between
// the control goroutine and the engine callback and must never be
// mutated after construction.
type Data struct {
	// Samples are interleaved float32 values normalized to [-1.0, 1.0].
	Samples []float32
	// SampleRate of the PCM data in Hz.
	SampleRate int
	// Channels count (1=mono, 2=stereo, ...).
	Channels int
	// Duration in seconds, derived from the frame count at construction.
	Duration float64
}

// NewData builds an immutable Data value; the caller hands over
// ownership of samples.
func NewData(samples []float32, sampleRate, channels int) *Data {
	frames := 0
	if channels > 0 {
		frames = len(samples) / channels
	}
	var duration float64
	if sampleRate > 0 {
		duration = float64(frames) / float64(sampleRate)
	}
	return &Data{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
		Duration:   duration,
	}
}

// NumFrames returns the total frame count (samples per channel).
func (d *Data) NumFrames() int {
	if d.Channels == 0 {
		return 0
	}
	return len(d.Samples) / d.Channels
}

// ToMono mixes down to one sample per frame (arithmetic mean across
// channels). Always returns a fresh slice.
func (d *Data) ToMono() []float32 {
	ch := d.Channels
	if ch == 1 {
		out := make([]float32, len(d.Samples))
		copy(out, d.Samples)
		return out
	}
	frames := d.NumFrames()
	out := make([]float32, frames)
	inv := float32(1.0) / float32(ch)
	for f := 0; f < frames; f++ {
		var sum float32
		base := f * ch
		for c := 0; c < ch; c++ {
			sum += d.Samples[base+c]
		}
		out[f] = sum * inv
	}
	return out
}

// PlaybackStatus describes the engine's coarse state.
type PlaybackStatus int

const (
	StatusStopped PlaybackStatus = iota
	StatusPlaying
	StatusPaused
)

func (s PlaybackStatus) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	}
	return "unknown"
}

// Command is a message from the control goroutine to the engine. The
// set is sealed; values carry no shared ownership except the Data
// pointer in LoadAudio, which is immutable.
type Command interface{ command() }

// LoadAudio replaces the loaded audio, resets position, stops playback
// and clears the loop region.
type LoadAudio struct{ Data *Data }

// Play starts playback if audio is loaded; otherwise it is a no-op.
type Play struct{}

// Pause halts playback, preserving position and buffered stretch state.
type Pause struct{}

// Stop halts playback, rewinds to the start and discards buffered
// stretch state.
type Stop struct{}

// Seek moves the position to Seconds, clamped to the audio length.
type Seek struct{ Seconds float64 }

// SetTempo sets the playback rate ratio. The control surface keeps
// Ratio within [0.25, 2.0]; the engine does not re-validate.
type SetTempo struct{ Ratio float64 }

// SetLoopRegion sets or clears the practice loop. Times are seconds;
// Enabled=false disables looping.
type SetLoopRegion struct {
	Enabled bool
	Start   float64
	End     float64
}

// Shutdown is reserved for clean teardown; the engine ignores it.
type Shutdown struct{}

func (LoadAudio) command()     {}
func (Play) command()          {}
func (Pause) command()         {}
func (Stop) command()          {}
func (Seek) command()          {}
func (SetTempo) command()      {}
func (SetLoopRegion) command() {}
func (Shutdown) command()      {}

// Event is a message from the engine to the control goroutine.
type Event interface{ event() }

// PositionChanged reports the playback position in seconds. Emitted at
// most every positionUpdateInterval output frames during playback, and
// synchronously on Stop and Seek.
type PositionChanged struct{ Seconds float64 }

// PlaybackFinished is emitted exactly once when playback free-runs past
// the end of the loaded audio.
type PlaybackFinished struct{}

// Error carries a non-fatal engine error message.
type Error struct{ Message string }

func (PositionChanged) event()  {}
func (PlaybackFinished) event() {}
func (Error) event()            {}
