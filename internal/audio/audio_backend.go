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

// Backend provides an abstraction layer for the audio hardware.
// This enables dependency injection and makes testing hardware-independent.
type Backend interface {
	// Initialize the audio subsystem.
	Initialize() error

	// Terminate the audio subsystem.
	Terminate() error

	// OpenOutputStream opens a pull-based output stream. The hardware
	// invokes cb whenever it needs a buffer of interleaved float
	// samples; cb runs in a real-time context and must return quickly.
	OpenOutputStream(sampleRate float64, channels, framesPerBuffer int, cb OutputCallback) (OutputStream, error)
}

// OutputStream abstracts one open hardware output stream.
type OutputStream interface {
	// Start the audio stream; the callback begins firing.
	Start() error

	// Stop the audio stream.
	Stop() error

	// Close the audio stream and release resources.
	Close() error
}

// OutputCallback fills out with interleaved float samples at the
// stream's channel count. It must fill the whole slice.
type OutputCallback func(out []float32)
