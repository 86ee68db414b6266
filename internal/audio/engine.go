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

import "sync/atomic"

const (
	// chunkSize is how many frames are fed into the stretcher at a time.
	chunkSize = 1024
	// positionUpdateInterval is how often, in output frames, position
	// events are emitted during playback.
	positionUpdateInterval = 2048

	// MaxChannels bounds the receive scratch buffer; the decoder
	// boundary rejects files with more channels than this.
	MaxChannels = 8

	// maxLoopWrapsPerFill bounds loop wraps within one buffer fill. A
	// loop region shorter than the stretcher's analysis window can wrap
	// forever without producing output; past this bound the fill gives
	// up and pads silence so the callback stays bounded-time.
	maxLoopWrapsPerFill = 8
)

// loopRegion is a half-open frame range [start, end) that playback
// repeats until cleared. Replaced wholesale, never mutated.
type loopRegion struct {
	start int
	end   int
}

// eventSink delivers engine events to the control goroutine without
// ever blocking the audio callback. When the channel is saturated the
// event is dropped and counted; position display falling behind is an
// accepted degradation.
type eventSink struct {
	ch      chan Event
	dropped atomic.Uint64
}

func newEventSink(capacity int) *eventSink {
	return &eventSink{ch: make(chan Event, capacity)}
}

func (s *eventSink) send(ev Event) {
	select {
	case s.ch <- ev:
	default:
		s.dropped.Add(1)
	}
}

// engineState owns all playback state. It is mutated exclusively from
// the audio callback goroutine; no locks.
type engineState struct {
	audio             *Data
	position          int // current frame index, 0 <= position <= NumFrames
	playing           bool
	tempo             float64
	loop              *loopRegion
	stretcher         TempoStretcher
	newStretcher      StretcherFactory
	outputSampleRate  int
	framesSinceUpdate int

	// recvBuf receives stretched samples inside fillBuffer. Allocated
	// once here so the hot path never allocates; it grows only if the
	// device delivers a larger buffer than configured.
	recvBuf []float32
}

func newEngineState(outputSampleRate, framesPerBuffer int, factory StretcherFactory) *engineState {
	return &engineState{
		tempo:            1.0,
		newStretcher:     factory,
		outputSampleRate: outputSampleRate,
		recvBuf:          make([]float32, framesPerBuffer*MaxChannels),
	}
}

// handleCommand applies one control command. Synchronous and
// non-blocking; called only from the audio callback goroutine.
func (s *engineState) handleCommand(cmd Command, sink *eventSink) {
	switch c := cmd.(type) {
	case LoadAudio:
		if c.Data == nil {
			return
		}
		s.audio = c.Data
		s.position = 0
		s.playing = false
		s.loop = nil
		s.framesSinceUpdate = 0
		s.stretcher = s.newStretcher(c.Data.SampleRate, c.Data.Channels, s.tempo)

	case Play:
		if s.audio != nil {
			s.playing = true
		}

	case Pause:
		s.playing = false

	case Stop:
		s.playing = false
		s.position = 0
		if s.stretcher != nil {
			s.stretcher.Clear()
		}
		sink.send(PositionChanged{Seconds: 0})

	case Seek:
		if s.audio == nil {
			return
		}
		frame := int(c.Seconds * float64(s.audio.SampleRate))
		if frame < 0 {
			frame = 0
		}
		if n := s.audio.NumFrames(); frame > n {
			frame = n
		}
		s.position = frame
		if s.stretcher != nil {
			s.stretcher.Clear()
		}
		// The UI reflects the new position synchronously, even while
		// paused.
		sink.send(PositionChanged{Seconds: float64(s.position) / float64(s.audio.SampleRate)})

	case SetTempo:
		s.tempo = c.Ratio
		if s.stretcher != nil {
			s.stretcher.SetTempo(c.Ratio)
		}

	case SetLoopRegion:
		if s.audio == nil {
			return
		}
		if !c.Enabled {
			s.loop = nil
			return
		}
		sr := float64(s.audio.SampleRate)
		start := int(c.Start * sr)
		end := int(c.End * sr)
		if start < 0 {
			start = 0
		}
		if n := s.audio.NumFrames(); end > n {
			end = n
		}
		// A region that collapses after clamping would make the wrap
		// target unreachable; treat it as no loop.
		if start >= end {
			s.loop = nil
			return
		}
		s.loop = &loopRegion{start: start, end: end}

	case Shutdown:
		// Reserved for clean teardown.
	}
}

// fillBuffer populates out with interleaved stretched audio, remapping
// channels cyclically when the source and output counts differ. It
// alternates between draining the stretcher and feeding it chunks from
// the current position, honoring loop wrap-around and end-of-stream.
func (s *engineState) fillBuffer(out []float32, outChannels int, sink *eventSink) {
	if !s.playing || s.audio == nil || s.stretcher == nil {
		fillSilence(out)
		return
	}

	srcChannels := s.audio.Channels
	totalFrames := s.audio.NumFrames()
	outFrames := len(out) / outChannels
	outPos := 0
	wraps := 0

	if need := outFrames * srcChannels; cap(s.recvBuf) < need {
		s.recvBuf = make([]float32, need)
	}

	for outPos < outFrames {
		// Drain whatever the stretcher has ready first; input and
		// output frame counts have no 1:1 mapping.
		needed := (outFrames - outPos) * srcChannels
		recv := s.recvBuf[:needed]
		got := s.stretcher.Receive(recv)
		if got > 0 {
			for f := 0; f < got; f++ {
				src := recv[f*srcChannels:]
				dst := out[(outPos+f)*outChannels:]
				for c := 0; c < outChannels; c++ {
					dst[c] = src[c%srcChannels]
				}
			}
			outPos += got
			s.framesSinceUpdate += got
			if s.framesSinceUpdate >= positionUpdateInterval {
				s.framesSinceUpdate = 0
				sink.send(PositionChanged{Seconds: float64(s.position) / float64(s.audio.SampleRate)})
			}
			continue
		}

		// Loop wrap-around: discard the stretcher's buffered tail so
		// the boundary is sample-accurate.
		if s.loop != nil && s.position >= s.loop.end {
			s.position = s.loop.start
			s.stretcher.Clear()
			wraps++
			if wraps > maxLoopWrapsPerFill {
				fillSilence(out[outPos*outChannels:])
				return
			}
			continue
		}

		if s.position >= totalFrames {
			if s.loop != nil {
				s.position = s.loop.start
				s.stretcher.Clear()
				wraps++
				if wraps > maxLoopWrapsPerFill {
					fillSilence(out[outPos*outChannels:])
					return
				}
				continue
			}
			s.playing = false
			sink.send(PlaybackFinished{})
			fillSilence(out[outPos*outChannels:])
			return
		}

		feed := chunkSize
		if rest := totalFrames - s.position; feed > rest {
			feed = rest
		}
		if s.loop != nil {
			// Never feed across the loop end.
			if rest := s.loop.end - s.position; feed > rest {
				feed = rest
			}
		}
		start := s.position * srcChannels
		s.stretcher.Put(s.audio.Samples[start : start+feed*srcChannels])
		s.position += feed
	}
}

func fillSilence(out []float32) {
	for i := range out {
		out[i] = 0
	}
}
