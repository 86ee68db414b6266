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

import "github.com/woodshed-audio/woodshed/internal/dsp"

// TempoStretcher is the engine's push/pull contract with the
// time-stretch algorithm. This abstraction layer enables dependency
// injection so engine tests can run against an identity stretcher
// instead of the real DSP kernel.
//
// All methods are synchronous, never block, and must not allocate on
// the steady-state path once the instance is initialized.
type TempoStretcher interface {
	// SetTempo sets the playback rate ratio; it takes effect on
	// subsequently processed samples.
	SetTempo(ratio float64)

	// Put feeds interleaved input samples (any multiple of the channel
	// count).
	Put(samples []float32)

	// Receive writes processed interleaved samples into dst and returns
	// the number of whole frames written; zero means nothing is ready.
	Receive(dst []float32) int

	// Clear discards all internal state without flushing.
	Clear()

	// Flush forces out any buffered tail too short to otherwise emit.
	Flush()
}

// StretcherFactory builds a TempoStretcher for a stream format. The
// engine calls it on every load because sample rate and channel count
// may change between files.
type StretcherFactory func(sampleRate, channels int, tempo float64) TempoStretcher

// NewStretcher is the production StretcherFactory, backed by the WSOLA
// kernel in internal/dsp.
func NewStretcher(sampleRate, channels int, tempo float64) TempoStretcher {
	return dsp.NewTimeStretch(sampleRate, channels, tempo)
}
