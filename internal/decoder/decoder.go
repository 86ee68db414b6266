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

// Package decoder turns an audio file on disk into one fully
// materialized, immutable in-memory PCM buffer. It is the engine's
// decoder boundary: a one-shot, blocking operation performed off the
// real-time thread.
//
// Formats are registered per extension; WAV and AIFF go through
// go-audio, MP3 through hajimehoshi/go-mp3 and Ogg Vorbis through
// jfreymuth/oggvorbis.
package decoder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/woodshed-audio/woodshed/internal/audio"
)

// source is a pull-based stream of interleaved float32 samples in
// [-1, 1], the shape every format decoder reduces to.
type source interface {
	SampleRate() int
	Channels() int
	// ReadSamples fills dst and returns the number of float32 values
	// written; n == 0 with io.EOF means the stream is finished.
	ReadSamples(dst []float32) (int, error)
	Close() error
}

// openFunc constructs a source from raw file bytes.
type openFunc func(r io.ReadSeeker) (source, error)

// registry maps lowercased file extensions to decoders. Populated by
// the per-format init functions; read-only afterwards.
var registry = map[string]openFunc{}

func register(ext string, open openFunc) {
	registry[ext] = open
}

// Decode reads the file at path and returns its full contents as
// audio.Data. If targetRate is non-zero and differs from the file's
// rate, the samples are resampled once, so playback never needs rate
// conversion on the hot path.
func Decode(path string, targetRate int) (*audio.Data, error) {
	ext := strings.ToLower(filepath.Ext(path))
	open, ok := registry[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	src, err := open(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	defer src.Close()

	if src.Channels() < 1 || src.Channels() > audio.MaxChannels {
		return nil, fmt.Errorf("%w: %d", ErrTooManyChannels, src.Channels())
	}

	samples, err := readAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	if len(samples) == 0 {
		return nil, ErrEmptyAudio
	}

	rate := src.SampleRate()
	if targetRate > 0 && targetRate != rate {
		samples, err = resampleInterleaved(samples, src.Channels(), rate, targetRate)
		if err != nil {
			return nil, fmt.Errorf("failed to resample %s: %w", filepath.Base(path), err)
		}
		rate = targetRate
	}

	return audio.NewData(samples, rate, src.Channels()), nil
}

func readAll(src source) ([]float32, error) {
	var samples []float32
	buf := make([]float32, 8192)
	for {
		n, err := src.ReadSamples(buf)
		samples = append(samples, buf[:n]...)
		if err == io.EOF {
			return samples, nil
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return samples, nil
		}
	}
}

// clampSample keeps decodes of hot-mastered material inside the
// normalized range the engine assumes.
func clampSample(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
