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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 44100

// identityStretcher passes samples through unchanged, which makes
// engine frame accounting exact in tests.
type identityStretcher struct {
	channels int
	buf      []float32
	tempo    float64
	clears   int
}

func newIdentityStretcher(sampleRate, channels int, tempo float64) TempoStretcher {
	return &identityStretcher{channels: channels, tempo: tempo}
}

func (s *identityStretcher) SetTempo(r float64) { s.tempo = r }
func (s *identityStretcher) Put(p []float32)    { s.buf = append(s.buf, p...) }
func (s *identityStretcher) Clear()             { s.buf = nil; s.clears++ }
func (s *identityStretcher) Flush()             {}

func (s *identityStretcher) Receive(dst []float32) int {
	want := len(dst) - len(dst)%s.channels
	n := copy(dst[:want], s.buf)
	n -= n % s.channels
	s.buf = s.buf[n:]
	return n / s.channels
}

// starvedStretcher never yields output; it simulates a stretch window
// larger than whatever is fed.
type starvedStretcher struct{ clears int }

func newStarvedStretcher(sampleRate, channels int, tempo float64) TempoStretcher {
	return &starvedStretcher{}
}

func (s *starvedStretcher) SetTempo(float64)        {}
func (s *starvedStretcher) Put([]float32)           {}
func (s *starvedStretcher) Receive([]float32) int   { return 0 }
func (s *starvedStretcher) Clear()                  { s.clears++ }
func (s *starvedStretcher) Flush()                  {}

func newTestState(factory StretcherFactory) (*engineState, *eventSink) {
	if factory == nil {
		factory = newIdentityStretcher
	}
	return newEngineState(testRate, 512, factory), newEventSink(256)
}

// stereoSeconds builds a stereo buffer of the given length where each
// frame carries its own index, so output can be traced to positions.
func stereoSeconds(seconds float64) *Data {
	frames := int(seconds * testRate)
	samples := make([]float32, frames*2)
	for f := 0; f < frames; f++ {
		v := float32(f%1000) / 1000
		samples[f*2] = v
		samples[f*2+1] = -v
	}
	return NewData(samples, testRate, 2)
}

func drainEvents(sink *eventSink) []Event {
	var evs []Event
	for {
		select {
		case ev := <-sink.ch:
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func positionsOf(evs []Event) []float64 {
	var out []float64
	for _, ev := range evs {
		if p, ok := ev.(PositionChanged); ok {
			out = append(out, p.Seconds)
		}
	}
	return out
}

func countFinished(evs []Event) int {
	n := 0
	for _, ev := range evs {
		if _, ok := ev.(PlaybackFinished); ok {
			n++
		}
	}
	return n
}

func TestEngine_FillWithoutAudioIsSilence(t *testing.T) {
	s, sink := newTestState(nil)
	s.handleCommand(Play{}, sink) // no-op without audio

	out := make([]float32, 512*2)
	for i := range out {
		out[i] = 0.5 // stale device data must be overwritten
	}
	s.fillBuffer(out, 2, sink)

	assert.False(t, s.playing, "play without audio must stay stopped")
	for i, v := range out {
		require.Zerof(t, v, "sample %d not silenced", i)
	}
	assert.Empty(t, drainEvents(sink))
}

func TestEngine_LoadResetsEverything(t *testing.T) {
	s, sink := newTestState(nil)
	s.handleCommand(LoadAudio{Data: stereoSeconds(5)}, sink)
	s.handleCommand(Play{}, sink)
	s.handleCommand(Seek{Seconds: 2}, sink)
	s.handleCommand(SetLoopRegion{Enabled: true, Start: 1, End: 2}, sink)
	first := s.stretcher

	s.handleCommand(LoadAudio{Data: stereoSeconds(3)}, sink)

	assert.Equal(t, 0, s.position)
	assert.False(t, s.playing, "load forces the stopped state")
	assert.Nil(t, s.loop)
	assert.NotSame(t, first, s.stretcher, "load must construct a fresh stretcher")
}

func TestEngine_LoadKeepsCurrentTempo(t *testing.T) {
	s, sink := newTestState(nil)
	s.handleCommand(SetTempo{Ratio: 0.5}, sink)
	s.handleCommand(LoadAudio{Data: stereoSeconds(1)}, sink)

	st := s.stretcher.(*identityStretcher)
	assert.Equal(t, 0.5, st.tempo, "new stretcher must inherit the current tempo")
}

func TestEngine_SeekEmitsPositionImmediately(t *testing.T) {
	tests := []struct {
		name    string
		seek    float64
		wantSec float64
	}{
		{"mid_file", 2.5, 2.5},
		{"zero", 0, 0},
		{"past_end_clamps", 99, 5},
		{"negative_clamps", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, sink := newTestState(nil)
			s.handleCommand(LoadAudio{Data: stereoSeconds(5)}, sink)
			drainEvents(sink)

			// Seek applies while paused; the event is synchronous.
			s.handleCommand(Seek{Seconds: tt.seek}, sink)

			positions := positionsOf(drainEvents(sink))
			require.Len(t, positions, 1)
			assert.InDelta(t, tt.wantSec, positions[0], 1.0/testRate,
				"reported position must match the seek time to frame precision")
		})
	}
}

func TestEngine_SeekClearsStretcher(t *testing.T) {
	s, sink := newTestState(nil)
	s.handleCommand(LoadAudio{Data: stereoSeconds(5)}, sink)
	st := s.stretcher.(*identityStretcher)
	st.Put([]float32{1, 2, 3, 4})

	s.handleCommand(Seek{Seconds: 1}, sink)

	assert.Equal(t, 1, st.clears, "seek must discard buffered stretch state")
	assert.Empty(t, st.buf)
}

func TestEngine_StopIsIdempotent(t *testing.T) {
	s, sink := newTestState(nil)
	s.handleCommand(LoadAudio{Data: stereoSeconds(5)}, sink)
	s.handleCommand(Play{}, sink)
	s.handleCommand(Seek{Seconds: 3}, sink)
	drainEvents(sink)

	for i := 0; i < 2; i++ {
		s.handleCommand(Stop{}, sink)
		assert.Equal(t, 0, s.position, "stop %d must rewind", i)
		assert.False(t, s.playing, "stop %d must halt", i)
		positions := positionsOf(drainEvents(sink))
		require.Len(t, positions, 1)
		assert.Zero(t, positions[0])
	}
}

func TestEngine_PauseKeepsPositionAndBuffer(t *testing.T) {
	s, sink := newTestState(nil)
	s.handleCommand(LoadAudio{Data: stereoSeconds(5)}, sink)
	s.handleCommand(Play{}, sink)

	out := make([]float32, 512*2)
	s.fillBuffer(out, 2, sink)
	pos := s.position
	require.NotZero(t, pos)

	st := s.stretcher.(*identityStretcher)
	clearsBefore := st.clears
	s.handleCommand(Pause{}, sink)

	assert.Equal(t, pos, s.position, "pause must not move the position")
	assert.Equal(t, clearsBefore, st.clears, "pause must preserve stretch state")

	// While paused, fills are silence and position stays put.
	s.fillBuffer(out, 2, sink)
	assert.Equal(t, pos, s.position)
}

func TestEngine_FillDeliversSourceSamples(t *testing.T) {
	s, sink := newTestState(nil)
	data := stereoSeconds(1)
	s.handleCommand(LoadAudio{Data: data}, sink)
	s.handleCommand(Play{}, sink)

	out := make([]float32, 512*2)
	s.fillBuffer(out, 2, sink)

	// Identity stretcher: output is the source stream verbatim.
	for i := range out {
		require.Equalf(t, data.Samples[i], out[i], "sample %d", i)
	}
	assert.Equal(t, 1024, s.position, "one chunk feeds 1024 frames, 512 delivered")
}

func TestEngine_ChannelRemapping(t *testing.T) {
	tests := []struct {
		name        string
		srcChannels int
		outChannels int
	}{
		{"mono_to_stereo", 1, 2},
		{"stereo_to_quad", 2, 4},
		{"stereo_to_mono", 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, sink := newTestState(nil)

			frames := testRate / 2
			samples := make([]float32, frames*tt.srcChannels)
			for f := 0; f < frames; f++ {
				for c := 0; c < tt.srcChannels; c++ {
					samples[f*tt.srcChannels+c] = float32(c+1) / 10
				}
			}
			s.handleCommand(LoadAudio{Data: NewData(samples, testRate, tt.srcChannels)}, sink)
			s.handleCommand(Play{}, sink)

			out := make([]float32, 256*tt.outChannels)
			s.fillBuffer(out, tt.outChannels, sink)

			for f := 0; f < 256; f++ {
				for c := 0; c < tt.outChannels; c++ {
					want := float32(c%tt.srcChannels+1) / 10
					require.Equalf(t, want, out[f*tt.outChannels+c],
						"frame %d channel %d: cyclic remap", f, c)
				}
			}
		})
	}
}

func TestEngine_PositionEventsThrottled(t *testing.T) {
	s, sink := newTestState(nil)
	s.handleCommand(LoadAudio{Data: stereoSeconds(5)}, sink)
	s.handleCommand(Play{}, sink)

	out := make([]float32, 512*2)
	outFrames := 0
	for i := 0; i < 16; i++ {
		s.fillBuffer(out, 2, sink)
		outFrames += 512
	}

	positions := positionsOf(drainEvents(sink))
	want := outFrames / positionUpdateInterval
	assert.Len(t, positions, want, "one position event per %d output frames", positionUpdateInterval)
	for i := 1; i < len(positions); i++ {
		assert.GreaterOrEqual(t, positions[i], positions[i-1], "positions must be monotonic")
	}
}

func TestEngine_PlaybackFinishedExactlyOnce(t *testing.T) {
	s, sink := newTestState(nil)
	data := stereoSeconds(5)
	s.handleCommand(LoadAudio{Data: data}, sink)
	s.handleCommand(Play{}, sink)

	out := make([]float32, 512*2)
	requested := 0
	// Request well past the buffer's five seconds of output.
	for requested < 6*testRate {
		s.fillBuffer(out, 2, sink)
		requested += 512
	}

	evs := drainEvents(sink)
	assert.Equal(t, 1, countFinished(evs), "exactly one PlaybackFinished")
	assert.False(t, s.playing)
	assert.Equal(t, data.NumFrames(), s.position)

	// Every fill after the end is pure silence and emits nothing more.
	for i := range out {
		out[i] = 0.7
	}
	s.fillBuffer(out, 2, sink)
	for i, v := range out {
		require.Zerof(t, v, "post-finish sample %d", i)
	}
	assert.Zero(t, countFinished(drainEvents(sink)))
}

func TestEngine_LoopNeverPassesEnd(t *testing.T) {
	s, sink := newTestState(nil)
	s.handleCommand(LoadAudio{Data: stereoSeconds(5)}, sink)
	s.handleCommand(SetLoopRegion{Enabled: true, Start: 1, End: 2}, sink)
	s.handleCommand(Play{}, sink)

	loopStart := int(1.0 * testRate)
	loopEnd := int(2.0 * testRate)
	st := s.stretcher.(*identityStretcher)

	out := make([]float32, 512*2)
	sawWrap := false
	for i := 0; i < 400; i++ {
		s.fillBuffer(out, 2, sink)
		require.LessOrEqual(t, s.position, loopEnd,
			"position must never pass the loop end without wrapping")
		if st.clears > 0 && s.position < loopEnd && s.position >= loopStart {
			sawWrap = true
		}
	}
	assert.True(t, sawWrap, "sustained playback must wrap to the loop start")
	assert.Zero(t, countFinished(drainEvents(sink)), "looping playback never finishes")
}

func TestEngine_LoopWrapClearsStretcher(t *testing.T) {
	s, sink := newTestState(nil)
	s.handleCommand(LoadAudio{Data: stereoSeconds(3)}, sink)
	s.handleCommand(Seek{Seconds: 0.9}, sink)
	s.handleCommand(SetLoopRegion{Enabled: true, Start: 0.5, End: 1}, sink)
	s.handleCommand(Play{}, sink)
	st := s.stretcher.(*identityStretcher)
	clearsBefore := st.clears

	out := make([]float32, 8192*2)
	s.fillBuffer(out, 2, sink)

	assert.Greater(t, st.clears, clearsBefore,
		"loop wrap must discard the stretcher tail for a sample-accurate boundary")
}

func TestEngine_LoopRegionClamping(t *testing.T) {
	s, sink := newTestState(nil)
	s.handleCommand(LoadAudio{Data: stereoSeconds(5)}, sink)

	t.Run("end_clamped_to_length", func(t *testing.T) {
		s.handleCommand(SetLoopRegion{Enabled: true, Start: 1, End: 60}, sink)
		require.NotNil(t, s.loop)
		assert.Equal(t, 5*testRate, s.loop.end)
	})

	t.Run("collapsed_region_disables", func(t *testing.T) {
		s.handleCommand(SetLoopRegion{Enabled: true, Start: 6, End: 60}, sink)
		assert.Nil(t, s.loop, "start past the end after clamping cannot loop")
	})

	t.Run("disable", func(t *testing.T) {
		s.handleCommand(SetLoopRegion{Enabled: true, Start: 1, End: 2}, sink)
		require.NotNil(t, s.loop)
		s.handleCommand(SetLoopRegion{Enabled: false}, sink)
		assert.Nil(t, s.loop)
	})
}

func TestEngine_TempoForwardedToStretcher(t *testing.T) {
	s, sink := newTestState(nil)
	s.handleCommand(LoadAudio{Data: stereoSeconds(1)}, sink)
	st := s.stretcher.(*identityStretcher)

	s.handleCommand(SetTempo{Ratio: 1.75}, sink)

	assert.Equal(t, 1.75, st.tempo)
	assert.Equal(t, 1.75, s.tempo)
}

func TestEngine_StarvedLoopStaysBounded(t *testing.T) {
	// A loop shorter than the stretch window can never produce output;
	// the fill must give up after a bounded number of wraps instead of
	// spinning in the callback.
	s, sink := newTestState(newStarvedStretcher)
	s.handleCommand(LoadAudio{Data: stereoSeconds(5)}, sink)
	s.handleCommand(SetLoopRegion{Enabled: true, Start: 1, End: 1.01}, sink)
	s.handleCommand(Seek{Seconds: 1}, sink)
	s.handleCommand(Play{}, sink)

	out := make([]float32, 512*2)
	for i := range out {
		out[i] = 0.3
	}
	s.fillBuffer(out, 2, sink) // must return

	for i, v := range out {
		require.Zerof(t, v, "starved fill sample %d must be silence", i)
	}
	assert.True(t, s.playing, "the guard pads silence but does not stop playback")
}

func TestEngine_RealStretcherEndToEnd(t *testing.T) {
	// Full path through the WSOLA kernel: half a second of silence must
	// play out as silence and finish exactly once.
	s, sink := newTestState(NewStretcher)
	frames := testRate / 2
	s.handleCommand(LoadAudio{Data: NewData(make([]float32, frames*2), testRate, 2)}, sink)
	s.handleCommand(Play{}, sink)

	out := make([]float32, 512*2)
	requested := 0
	for requested < testRate {
		s.fillBuffer(out, 2, sink)
		for i, v := range out {
			require.InDeltaf(t, 0, v, 1e-6, "sample %d of a silent file", i)
		}
		requested += 512
	}

	assert.Equal(t, 1, countFinished(drainEvents(sink)))
	assert.False(t, s.playing)
}

func TestEngine_ScratchBufferReused(t *testing.T) {
	s, sink := newTestState(nil)
	s.handleCommand(LoadAudio{Data: stereoSeconds(1)}, sink)
	s.handleCommand(Play{}, sink)

	before := &s.recvBuf[0]
	out := make([]float32, 512*2)
	for i := 0; i < 8; i++ {
		s.fillBuffer(out, 2, sink)
	}
	assert.Same(t, before, &s.recvBuf[0], "steady-state fills must not reallocate the scratch buffer")
}

func TestEventSink_DropsWhenSaturated(t *testing.T) {
	sink := newEventSink(2)
	for i := 0; i < 5; i++ {
		sink.send(PositionChanged{Seconds: float64(i)})
	}
	assert.Equal(t, uint64(3), sink.dropped.Load())
	assert.Len(t, drainEvents(sink), 2)
}

func TestData_DurationAndFrames(t *testing.T) {
	d := NewData(make([]float32, testRate*2), testRate, 2)
	assert.Equal(t, testRate, d.NumFrames())
	assert.InDelta(t, 1.0, d.Duration, 1e-9)
}

func TestData_ToMonoAverages(t *testing.T) {
	d := NewData([]float32{0.2, 0.4, -1, 1, 0.5, 0.5}, testRate, 2)
	mono := d.ToMono()
	require.Len(t, mono, 3)
	assert.InDelta(t, 0.3, mono[0], 1e-6)
	assert.InDelta(t, 0, mono[1], 1e-6)
	assert.InDelta(t, 0.5, mono[2], 1e-6)

	// Mono input comes back as a copy, not an alias.
	m := NewData([]float32{1, 2}, testRate, 1)
	out := m.ToMono()
	out[0] = 9
	assert.Equal(t, float32(1), m.Samples[0])
}

func TestPlaybackStatus_String(t *testing.T) {
	assert.Equal(t, "stopped", StatusStopped.String())
	assert.Equal(t, "playing", StatusPlaying.String())
	assert.Equal(t, "paused", StatusPaused.String())
}

// Guard against accidental drift in the frame math helpers.
func TestFrameQuantization(t *testing.T) {
	sec := 2.5
	frame := int(sec * testRate)
	back := float64(frame) / testRate
	assert.Less(t, math.Abs(back-sec), 1.0/testRate)
}
