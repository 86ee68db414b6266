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

package main

import (
	"strings"

	"github.com/woodshed-audio/woodshed/internal/waveform"
)

// blocks maps an amplitude fraction onto terminal block characters.
var blocks = []rune(" ▁▂▃▄▅▆▇█")

// renderWaveform draws one peak per column as a vertical bar chart,
// one string per terminal row.
func renderWaveform(peaks []waveform.Peak, height int) []string {
	if len(peaks) == 0 || height <= 0 {
		return nil
	}

	// Column amplitude is the larger absolute extremum.
	amps := make([]float64, len(peaks))
	for i, p := range peaks {
		a := float64(p.Max)
		if m := float64(-p.Min); m > a {
			a = m
		}
		if a > 1 {
			a = 1
		}
		amps[i] = a
	}

	rows := make([]string, height)
	for row := 0; row < height; row++ {
		var b strings.Builder
		b.Grow(len(peaks))
		// Row 0 is the top of the chart.
		top := float64(height-row) / float64(height)
		bottom := float64(height-row-1) / float64(height)
		for _, a := range amps {
			switch {
			case a >= top:
				b.WriteRune(blocks[len(blocks)-1])
			case a <= bottom:
				b.WriteRune(blocks[0])
			default:
				frac := (a - bottom) * float64(height)
				idx := int(frac * float64(len(blocks)-1))
				b.WriteRune(blocks[idx])
			}
		}
		rows[row] = b.String()
	}
	return rows
}
