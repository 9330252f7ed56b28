// Copyright (c) 2024-2025, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package rem

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	. "github.com/cellsim/cellsim/types"
)

// Grid is a rendered radio environment map. It is not modified after rendering.
type Grid struct {
	params Params
	values [][]DbValue // [YRes][XRes]
}

func (g *Grid) Params() Params {
	return g.params
}

// Dims returns the number of columns and rows.
func (g *Grid) Dims() (int, int) {
	return g.params.XRes, g.params.YRes
}

// At returns the best received power at column i, row j.
func (g *Grid) At(i, j int) DbValue {
	return g.values[j][i]
}

// Point returns the position of column i, row j.
func (g *Grid) Point(i, j int) Position {
	return Position{X: g.params.X(i), Y: g.params.Y(j), Z: g.params.Z}
}

// Range returns the minimum and maximum covered values, ignoring NoSignalDbm points.
func (g *Grid) Range() (DbValue, DbValue) {
	lo, hi := NoSignalDbm, NoSignalDbm
	for _, row := range g.values {
		for _, v := range row {
			if v == NoSignalDbm {
				continue
			}
			if lo == NoSignalDbm || v < lo {
				lo = v
			}
			if hi == NoSignalDbm || v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}

// WriteTo writes the grid as text: a comment header with bounds and resolution, then one "x y z dBm" line
// per point, rows separated by a blank line.
func (g *Grid) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	write := func(format string, args ...interface{}) error {
		n, err := fmt.Fprintf(bw, format, args...)
		total += int64(n)
		return err
	}

	p := g.params
	if err := write("# REM x=[%g,%g] xres=%d y=[%g,%g] yres=%d z=%g\n# x y z rx_power_dbm\n",
		p.XMin, p.XMax, p.XRes, p.YMin, p.YMax, p.YRes, p.Z); err != nil {
		return total, err
	}
	for j, row := range g.values {
		y := p.Y(j)
		for i, v := range row {
			if err := write("%g\t%g\t%g\t%.3f\n", p.X(i), y, p.Z, v); err != nil {
				return total, err
			}
		}
		if err := write("\n"); err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}

// Save writes the grid to file path.
func (g *Grid) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create REM file")
	}
	if _, err = g.WriteTo(f); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "write REM file %s", path)
	}
	return f.Close()
}
