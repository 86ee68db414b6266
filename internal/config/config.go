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

package config

import (
	"os"
	"strconv"
)

// Config holds all runtime configuration, loaded from environment
// variables.
type Config struct {
	// Output format; fixed for the process lifetime.
	SampleRate      int
	Channels        int
	FramesPerBuffer int

	// Command/event queue depths between the control goroutine and the
	// audio callback.
	CommandQueueSize int
	EventQueueSize   int

	// WaveformWidth is the column count for the terminal waveform
	// render.
	WaveformWidth int
}

// Load reads configuration from environment variables with sane
// defaults.
func Load() Config {
	return Config{
		SampleRate:      envInt("WOODSHED_SAMPLE_RATE", 44100),
		Channels:        envInt("WOODSHED_CHANNELS", 2),
		FramesPerBuffer: envInt("WOODSHED_FRAMES_PER_BUFFER", 1024),

		CommandQueueSize: envInt("WOODSHED_COMMAND_QUEUE", 64),
		EventQueueSize:   envInt("WOODSHED_EVENT_QUEUE", 256),

		WaveformWidth: envInt("WOODSHED_WAVEFORM_WIDTH", 80),
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
