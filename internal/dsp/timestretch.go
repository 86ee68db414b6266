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

// Package dsp implements the tempo-only (pitch-preserving) time-stretch
// kernel behind the playback engine's stretch adapter.
//
// The algorithm is time-domain overlap-add with waveform matching
// (WSOLA): fixed-length output sequences are cut from the input at
// positions chosen by cross-correlating against the tail of the
// previous sequence, crossfaded over a short overlap, while the input
// read position advances at the tempo ratio. Samples are pushed in with
// Put and pulled out with Receive; the kernel has a variable internal
// latency of roughly one analysis window.
package dsp

import "math"

// Analysis window parameters in milliseconds. These follow the common
// defaults for time-domain stretchers: the sequence is the output run
// length per cycle, the seek window bounds the waveform search and the
// overlap is the crossfade length.
const (
	sequenceMs   = 40
	seekWindowMs = 15
	overlapMs    = 8
)

// TimeStretch stretches interleaved float32 audio in time without
// changing pitch. Not safe for concurrent use; the playback engine owns
// one instance per loaded file.
type TimeStretch struct {
	sampleRate int
	channels   int
	tempo      float64

	seqFrames     int
	seekFrames    int
	overlapFrames int

	in  sampleFIFO
	out sampleFIFO

	// tail holds the last overlapFrames of the previous output
	// sequence, crossfaded into the next one.
	tail      []float32
	tailValid bool

	monoScratch []float32
	tailMono    []float32
	fadeScratch []float32

	skipFrac float64
}

// NewTimeStretch returns a kernel for the given stream format and
// initial tempo ratio (1.0 = original speed, 2.0 = double speed).
func NewTimeStretch(sampleRate, channels int, tempo float64) *TimeStretch {
	framesFor := func(ms int) int {
		n := sampleRate * ms / 1000
		if n < 1 {
			n = 1
		}
		return n
	}
	t := &TimeStretch{
		sampleRate:    sampleRate,
		channels:      channels,
		tempo:         tempo,
		seqFrames:     framesFor(sequenceMs),
		seekFrames:    framesFor(seekWindowMs),
		overlapFrames: framesFor(overlapMs),
	}
	t.tail = make([]float32, t.overlapFrames*channels)
	t.tailMono = make([]float32, t.overlapFrames)
	t.monoScratch = make([]float32, t.seekFrames+t.overlapFrames)
	t.fadeScratch = make([]float32, t.overlapFrames*channels)
	return t
}

// SetTempo changes the tempo ratio. It applies from the next analysis
// cycle, so input already buffered but not yet consumed is processed at
// the new rate; the audible lag is bounded by one analysis window.
func (t *TimeStretch) SetTempo(ratio float64) { t.tempo = ratio }

// Put feeds interleaved input samples. len(samples) must be a multiple
// of the channel count; trailing partial frames are dropped.
func (t *TimeStretch) Put(samples []float32) {
	if n := len(samples) - len(samples)%t.channels; n > 0 {
		t.in.Append(samples[:n])
	}
	t.process()
}

// Receive copies processed samples into dst and returns the number of
// whole frames written. It never blocks; zero means the kernel needs
// more input.
func (t *TimeStretch) Receive(dst []float32) int {
	want := len(dst) - len(dst)%t.channels
	n := t.out.Read(dst[:want])
	return n / t.channels
}

// Clear discards all buffered input and output without flushing.
func (t *TimeStretch) Clear() {
	t.in.Clear()
	t.out.Clear()
	t.tailValid = false
	t.skipFrac = 0
}

// Flush pushes buffered input through the kernel by padding it with one
// analysis window of silence, so a tail shorter than the window still
// comes out. The kernel is left cleared.
func (t *TimeStretch) Flush() {
	if t.in.Len() == 0 && !t.tailValid {
		return
	}
	t.in.AppendZeros(t.requiredFrames() * t.channels)
	t.process()
	t.in.Clear()
	t.tailValid = false
	t.skipFrac = 0
}

// requiredFrames is the number of buffered input frames needed for one
// analysis cycle: the seek range plus sequence and overlap reads, and
// enough beyond that to cover the tempo-scaled skip.
func (t *TimeStretch) requiredFrames() int {
	return t.seekFrames + t.seqFrames + t.overlapFrames +
		int(float64(t.seqFrames)*t.tempo) + 1
}

// process runs analysis cycles while enough input is buffered. Each
// cycle emits exactly seqFrames output frames and consumes
// seqFrames*tempo input frames (with fractional carry), which is what
// makes the stretch tempo-accurate over time.
func (t *TimeStretch) process() {
	ch := t.channels
	for t.in.Len() >= t.requiredFrames()*ch {
		data := t.in.Peek()

		off := 0
		if t.tailValid {
			off = t.bestOffset(data)
		}
		base := off * ch

		if t.tailValid {
			for f := 0; f < t.overlapFrames; f++ {
				w := float32(f) / float32(t.overlapFrames)
				for c := 0; c < ch; c++ {
					i := f*ch + c
					t.fadeScratch[i] = t.tail[i]*(1-w) + data[base+i]*w
				}
			}
			t.out.Append(t.fadeScratch)
		} else {
			t.out.Append(data[base : base+t.overlapFrames*ch])
		}
		t.out.Append(data[base+t.overlapFrames*ch : base+t.seqFrames*ch])

		copy(t.tail, data[base+t.seqFrames*ch:base+(t.seqFrames+t.overlapFrames)*ch])
		t.tailValid = true

		t.skipFrac += float64(t.seqFrames) * t.tempo
		skip := int(t.skipFrac)
		t.skipFrac -= float64(skip)
		t.in.Drop(skip * ch)
	}
}

// bestOffset finds the seek offset whose mono waveform best continues
// the stored tail, by normalized cross-correlation. Ties keep the
// smallest offset, so identical content (and silence) passes through
// untouched at tempo 1.0.
func (t *TimeStretch) bestOffset(data []float32) int {
	ch := t.channels
	inv := float32(1.0) / float32(ch)

	n := t.seekFrames + t.overlapFrames
	for f := 0; f < n; f++ {
		var sum float32
		for c := 0; c < ch; c++ {
			sum += data[f*ch+c]
		}
		t.monoScratch[f] = sum * inv
	}
	for f := 0; f < t.overlapFrames; f++ {
		var sum float32
		for c := 0; c < ch; c++ {
			sum += t.tail[f*ch+c]
		}
		t.tailMono[f] = sum * inv
	}

	best := 0
	bestCorr := math.Inf(-1)
	for off := 0; off < t.seekFrames; off++ {
		var corr, energy float64
		for f := 0; f < t.overlapFrames; f++ {
			s := float64(t.monoScratch[off+f])
			corr += float64(t.tailMono[f]) * s
			energy += s * s
		}
		if energy < 1e-9 {
			energy = 1e-9
		}
		if norm := corr / math.Sqrt(energy); norm > bestCorr {
			bestCorr = norm
			best = off
		}
	}
	return best
}
