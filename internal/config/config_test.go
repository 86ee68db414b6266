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
	"testing"
)

var allEnvVars = []string{
	"WOODSHED_SAMPLE_RATE", "WOODSHED_CHANNELS", "WOODSHED_FRAMES_PER_BUFFER",
	"WOODSHED_COMMAND_QUEUE", "WOODSHED_EVENT_QUEUE", "WOODSHED_WAVEFORM_WIDTH",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allEnvVars {
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", cfg.SampleRate)
	}
	if cfg.Channels != 2 {
		t.Errorf("Channels = %d, want 2", cfg.Channels)
	}
	if cfg.FramesPerBuffer != 1024 {
		t.Errorf("FramesPerBuffer = %d, want 1024", cfg.FramesPerBuffer)
	}
	if cfg.CommandQueueSize != 64 {
		t.Errorf("CommandQueueSize = %d, want 64", cfg.CommandQueueSize)
	}
	if cfg.EventQueueSize != 256 {
		t.Errorf("EventQueueSize = %d, want 256", cfg.EventQueueSize)
	}
	if cfg.WaveformWidth != 80 {
		t.Errorf("WaveformWidth = %d, want 80", cfg.WaveformWidth)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WOODSHED_SAMPLE_RATE", "48000")
	t.Setenv("WOODSHED_CHANNELS", "1")
	t.Setenv("WOODSHED_FRAMES_PER_BUFFER", "512")

	cfg := Load()

	if cfg.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", cfg.SampleRate)
	}
	if cfg.Channels != 1 {
		t.Errorf("Channels = %d, want 1", cfg.Channels)
	}
	if cfg.FramesPerBuffer != 512 {
		t.Errorf("FramesPerBuffer = %d, want 512", cfg.FramesPerBuffer)
	}
}

func TestLoadIgnoresGarbage(t *testing.T) {
	clearEnv(t)
	t.Setenv("WOODSHED_SAMPLE_RATE", "not-a-number")

	cfg := Load()

	if cfg.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want default 44100 on unparsable value", cfg.SampleRate)
	}
}
