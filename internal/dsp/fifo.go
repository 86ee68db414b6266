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

package dsp

// sampleFIFO is a flat float32 queue backed by one slice. Appends reuse
// spare capacity; consumed samples are compacted away lazily so the
// steady state allocates nothing once the buffer has grown to its
// working size.
type sampleFIFO struct {
	buf   []float32
	start int
}

// Len returns the number of buffered samples.
func (f *sampleFIFO) Len() int { return len(f.buf) - f.start }

// Peek returns the buffered samples without consuming them. The slice
// is valid until the next Append or Drop.
func (f *sampleFIFO) Peek() []float32 { return f.buf[f.start:] }

// Append copies samples onto the tail of the queue.
func (f *sampleFIFO) Append(samples []float32) {
	f.compact()
	f.buf = append(f.buf, samples...)
}

// AppendZeros appends n zero samples.
func (f *sampleFIFO) AppendZeros(n int) {
	f.compact()
	for i := 0; i < n; i++ {
		f.buf = append(f.buf, 0)
	}
}

// Drop discards up to n samples from the head and returns the number
// discarded.
func (f *sampleFIFO) Drop(n int) int {
	if avail := f.Len(); n > avail {
		n = avail
	}
	f.start += n
	if f.start == len(f.buf) {
		f.buf = f.buf[:0]
		f.start = 0
	}
	return n
}

// Read copies up to len(dst) samples into dst, consuming them.
func (f *sampleFIFO) Read(dst []float32) int {
	n := copy(dst, f.buf[f.start:])
	f.Drop(n)
	return n
}

// Clear discards everything, keeping the backing array.
func (f *sampleFIFO) Clear() {
	f.buf = f.buf[:0]
	f.start = 0
}

// compact slides live samples to the front when the dead prefix has
// grown large, so append can reuse capacity instead of growing.
func (f *sampleFIFO) compact() {
	if f.start > 4096 && f.start > len(f.buf)/2 {
		n := copy(f.buf, f.buf[f.start:])
		f.buf = f.buf[:n]
		f.start = 0
	}
}
