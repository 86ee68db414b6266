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
	"fmt"
	"strconv"
	"strings"

	"github.com/woodshed-audio/woodshed/internal/audio"
)

const (
	minTempo = 0.25
	maxTempo = 2.0
)

// parseControl turns one line of the stdin control language into an
// engine command. The control surface owns input validation: tempo is
// clamped to [minTempo, maxTempo] and loop bounds must be ordered; the
// engine does not re-check.
func parseControl(line string) (audio.Command, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	switch fields[0] {
	case "play":
		return audio.Play{}, nil
	case "pause":
		return audio.Pause{}, nil
	case "stop":
		return audio.Stop{}, nil

	case "seek":
		if len(fields) != 2 {
			return nil, fmt.Errorf("usage: seek <seconds>")
		}
		secs, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || secs < 0 {
			return nil, fmt.Errorf("seek: invalid time %q", fields[1])
		}
		return audio.Seek{Seconds: secs}, nil

	case "tempo":
		if len(fields) != 2 {
			return nil, fmt.Errorf("usage: tempo <ratio>")
		}
		ratio, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("tempo: invalid ratio %q", fields[1])
		}
		return audio.SetTempo{Ratio: clampTempo(ratio)}, nil

	case "loop":
		if len(fields) == 2 && fields[1] == "off" {
			return audio.SetLoopRegion{Enabled: false}, nil
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("usage: loop <start> <end> | loop off")
		}
		start, err1 := strconv.ParseFloat(fields[1], 64)
		end, err2 := strconv.ParseFloat(fields[2], 64)
		if err1 != nil || err2 != nil || start < 0 || start >= end {
			return nil, fmt.Errorf("loop: need 0 <= start < end")
		}
		return audio.SetLoopRegion{Enabled: true, Start: start, End: end}, nil
	}

	return nil, fmt.Errorf("unknown command %q", fields[0])
}

func clampTempo(ratio float64) float64 {
	if ratio < minTempo {
		return minTempo
	}
	if ratio > maxTempo {
		return maxTempo
	}
	return ratio
}
