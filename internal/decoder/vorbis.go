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
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
)

func init() {
	register(".ogg", openVorbis)
	register(".oga", openVorbis)
}

// vorbisSource wraps jfreymuth/oggvorbis, which already yields
// interleaved float32 samples; only whole-frame accounting is added.
type vorbisSource struct {
	dec *oggvorbis.Reader
}

func openVorbis(r io.ReadSeeker) (source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening ogg vorbis: %w", err)
	}
	return &vorbisSource{dec: dec}, nil
}

func (s *vorbisSource) SampleRate() int { return s.dec.SampleRate() }
func (s *vorbisSource) Channels() int   { return s.dec.Channels() }
func (s *vorbisSource) Close() error    { return nil }

func (s *vorbisSource) ReadSamples(dst []float32) (int, error) {
	// Keep reads frame-aligned.
	want := len(dst) - len(dst)%s.dec.Channels()
	if want == 0 {
		return 0, nil
	}
	n, err := s.dec.Read(dst[:want])
	if n == 0 && err == nil {
		return 0, io.EOF
	}
	for i := 0; i < n; i++ {
		dst[i] = clampSample(dst[i])
	}
	return n, err
}
