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

package decoder

import (
	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
)

// resampleInterleaved converts interleaved samples from one rate to
// another, one resampler pass per channel. This runs once at load
// time, never on the playback path.
func resampleInterleaved(samples []float32, channels, fromRate, toRate int) ([]float32, error) {
	frames := len(samples) / channels

	resampled := make([][]float64, channels)
	for c := 0; c < channels; c++ {
		chBuf := make([]float64, frames)
		for f := 0; f < frames; f++ {
			chBuf[f] = float64(samples[f*channels+c])
		}
		r, err := dspresample.NewForRates(
			float64(fromRate),
			float64(toRate),
			dspresample.WithQuality(dspresample.QualityBest),
		)
		if err != nil {
			return nil, err
		}
		resampled[c] = r.Process(chBuf)
	}

	// Per-channel output lengths can differ by a frame at the edges.
	outFrames := len(resampled[0])
	for _, ch := range resampled[1:] {
		if len(ch) < outFrames {
			outFrames = len(ch)
		}
	}

	out := make([]float32, outFrames*channels)
	for c, ch := range resampled {
		for f := 0; f < outFrames; f++ {
			out[f*channels+c] = clampSample(float32(ch[f]))
		}
	}
	return out, nil
}
