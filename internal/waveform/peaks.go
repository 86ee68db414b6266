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

// Package waveform builds multi-resolution min/max envelopes from
// decoded audio so a canvas can render large buffers at any zoom level
// without touching the raw samples again.
package waveform

import (
	"math"

	"github.com/woodshed-audio/woodshed/internal/audio"
)

// Peak summarizes one contiguous run of mono samples by its extrema.
type Peak struct {
	Min float32
	Max float32
}

// Level is one precomputed resolution: every peak covers
// SamplesPerPeak consecutive mono samples (the final one may cover
// fewer).
type Level struct {
	SamplesPerPeak int
	Peaks          []Peak
}

// Peaks holds the full resolution pyramid for one loaded file.
// Immutable once computed; recomputed wholesale on every load.
type Peaks struct {
	Levels []Level
}

// resolutions are the downsampling factors, finest first. Larger
// factors produce proportionally fewer, wider peaks.
var resolutions = []int{64, 256, 1024, 4096}

// Compute mixes audio to mono and builds every resolution level.
func Compute(data *audio.Data) *Peaks {
	mono := data.ToMono()
	levels := make([]Level, 0, len(resolutions))
	for _, spp := range resolutions {
		levels = append(levels, Level{
			SamplesPerPeak: spp,
			Peaks:          computeAtResolution(mono, spp),
		})
	}
	return &Peaks{Levels: levels}
}

func computeAtResolution(mono []float32, samplesPerPeak int) []Peak {
	if len(mono) == 0 {
		return nil
	}
	n := (len(mono) + samplesPerPeak - 1) / samplesPerPeak
	peaks := make([]Peak, 0, n)
	for start := 0; start < len(mono); start += samplesPerPeak {
		end := start + samplesPerPeak
		if end > len(mono) {
			end = len(mono)
		}
		lo, hi := float32(math.MaxFloat32), float32(-math.MaxFloat32)
		for _, s := range mono[start:end] {
			if s < lo {
				lo = s
			}
			if s > hi {
				hi = s
			}
		}
		peaks = append(peaks, Peak{Min: lo, Max: hi})
	}
	return peaks
}

// ForWidth returns exactly width peaks for rendering, one per pixel
// column. It picks the first level, scanning coarsest to finest, whose
// samples-per-peak is at most twice the native samples-per-pixel
// (avoiding both oversampling cost and undersampled aliasing), falling
// back to the finest level, then resamples that level's peaks to the
// requested width. Degenerate inputs yield nil.
func (p *Peaks) ForWidth(width, totalFrames int) []Peak {
	if totalFrames == 0 || width <= 0 || len(p.Levels) == 0 {
		return nil
	}

	targetSPP := float64(totalFrames) / float64(width)

	base := p.Levels[0].Peaks
	for i := len(p.Levels) - 1; i >= 0; i-- {
		if float64(p.Levels[i].SamplesPerPeak) <= targetSPP*2 {
			base = p.Levels[i].Peaks
			break
		}
	}
	if len(base) == 0 {
		return nil
	}

	out := make([]Peak, 0, width)
	for i := 0; i < width; i++ {
		// Map column i to the half-open fractional range
		// [i/width, (i+1)/width) of the base index space.
		start := i * len(base) / width
		end := (i + 1) * len(base) / width
		if start >= len(base) {
			out = append(out, Peak{})
			continue
		}
		if end > len(base) {
			end = len(base)
		}
		// Always aggregate at least one base peak.
		if end <= start {
			end = start + 1
		}
		agg := base[start]
		for _, pk := range base[start+1 : end] {
			if pk.Min < agg.Min {
				agg.Min = pk.Min
			}
			if pk.Max > agg.Max {
				agg.Max = pk.Max
			}
		}
		out = append(out, agg)
	}
	return out
}

// LevelFor reports the samples-per-peak of the level ForWidth would
// select, which is useful for asserting resolution choices.
func (p *Peaks) LevelFor(width, totalFrames int) int {
	if totalFrames == 0 || width <= 0 || len(p.Levels) == 0 {
		return 0
	}
	targetSPP := float64(totalFrames) / float64(width)
	for i := len(p.Levels) - 1; i >= 0; i-- {
		if float64(p.Levels[i].SamplesPerPeak) <= targetSPP*2 {
			return p.Levels[i].SamplesPerPeak
		}
	}
	return p.Levels[0].SamplesPerPeak
}
