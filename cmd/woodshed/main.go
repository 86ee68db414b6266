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

// Command woodshed is a terminal practice player for musicians
// transcribing by ear: variable-speed, pitch-preserving playback with
// loop regions, driven by simple stdin commands.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"

	"github.com/woodshed-audio/woodshed/internal/audio"
	"github.com/woodshed-audio/woodshed/internal/config"
	"github.com/woodshed-audio/woodshed/internal/decoder"
	"github.com/woodshed-audio/woodshed/internal/waveform"
)

const waveformRows = 8

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, nil)))

	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <audio file>\n", os.Args[0])
		os.Exit(2)
	}
	path := os.Args[1]

	cfg := config.Load()
	eng := audio.NewEngine(audio.NewPortAudioBackend(), audio.EngineConfig{
		SampleRate:       cfg.SampleRate,
		Channels:         cfg.Channels,
		FramesPerBuffer:  cfg.FramesPerBuffer,
		CommandQueueSize: cfg.CommandQueueSize,
		EventQueueSize:   cfg.EventQueueSize,
	})
	if err := eng.Start(); err != nil {
		slog.Error("audio engine unavailable", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			slog.Error("engine shutdown", "error", err)
		}
		if n := eng.DroppedEvents(); n > 0 {
			slog.Warn("events dropped during session", "count", n)
		}
	}()

	// Decoding happens here on the control goroutine, away from the
	// already-running audio callback.
	slog.Info("loading", "file", path)
	data, err := decoder.Decode(path, eng.SampleRate())
	if err != nil {
		slog.Error("load failed", "error", err)
		os.Exit(1)
	}
	slog.Info("loaded",
		"duration_s", fmt.Sprintf("%.2f", data.Duration),
		"sample_rate", data.SampleRate,
		"channels", data.Channels,
	)

	peaks := waveform.Compute(data)
	for _, row := range renderWaveform(peaks.ForWidth(cfg.WaveformWidth, data.NumFrames()), waveformRows) {
		fmt.Println(row)
	}

	eng.Send(audio.LoadAudio{Data: data})
	eng.Send(audio.Play{})

	go printEvents(eng.Events())

	fmt.Println("commands: play pause stop | seek <s> | tempo <r> | loop <a> <b> | loop off | quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "q" {
			return
		}
		cmd, err := parseControl(line)
		if err != nil {
			fmt.Println(err)
			continue
		}
		eng.Send(cmd)
	}
}

func printEvents(events <-chan audio.Event) {
	for ev := range events {
		switch e := ev.(type) {
		case audio.PositionChanged:
			fmt.Printf("\rposition %7.2fs ", e.Seconds)
		case audio.PlaybackFinished:
			fmt.Println("\nplayback finished")
		case audio.Error:
			slog.Error("engine error", "message", e.Message)
		}
	}
}
