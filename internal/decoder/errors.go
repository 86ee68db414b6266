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

import "errors"

var (
	ErrUnknownFormat       = errors.New("unknown audio format")
	ErrNotWavFile          = errors.New("not a valid wav file")
	ErrNotAiffFile         = errors.New("not a valid aiff file")
	ErrUnsupportedBitDepth = errors.New("unsupported bit depth")
	ErrTooManyChannels     = errors.New("unsupported channel count")
	ErrEmptyAudio          = errors.New("file contains no audio samples")
)
