/*
 * doc.go, part of gomd.
 *
 * Copyright 2024 Daniel Molina <dmolina{at}udecDOTcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

/*Package gomd is the core of the gomd trajectory library: the contracts that
sequential readers and writers of molecular-dynamics trajectory files
implement, and the machinery shared by all of them.

A concrete format (see coords/dcd and coords/ctz) only supplies the
primitives: fetch the next frame into a caller-owned buffer, optionally
position the stream at a given frame, and serialize one frame. The Reader
and Writer types here wrap those primitives into the full sequential
contract: a single reusable frame buffer refilled in place on every
advance, a harmless end-of-trajectory sentinel distinguishable from real
I/O failures, rewinding and random access where the medium allows it, and
deterministic release of the underlying handle.

The frame container itself lives in the frame subpackage, and the mapping
between a format's native units and the program's base units in the units
subpackage.

Because the reader refills one buffer in place, data obtained from frame k
is only valid until frame k+1 is requested; consumers that need to keep it
must take an explicit Frame.Copy.*/
package gomd
