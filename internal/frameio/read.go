// Package frameio reads and writes frames in the plain-text catalogue
// format: one body per line, fields separated by whitespace.
//
//	full:  mass x y z vx vy vz
//	short: x y z
//
// Files are not self-describing; the body count always comes from the
// caller.
package frameio

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/nbody/internal/dynamo"
	"github.com/san-kum/nbody/internal/frame"
	"github.com/san-kum/nbody/internal/memory"
)

// FieldsPerRecord is the number of values per body in a full record.
const FieldsPerRecord = 7

// Read loads n bodies from the catalogue at path. Either every record
// parses and the particles are returned, or nothing is returned and no
// buffer stays allocated.
func Read(path string, n int, alloc memory.Allocator) (*frame.Particles, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dynamo.Wrap(dynamo.KindIO, path, "can't open file", err)
	}
	defer f.Close()

	return Decode(f, path, n, alloc)
}

// Decode reads n full records from r. name identifies r in errors. Line
// breaks carry no meaning; records are consecutive runs of seven fields.
func Decode(r io.Reader, name string, n int, alloc memory.Allocator) (*frame.Particles, error) {
	p, err := frame.NewParticles(alloc, n)
	if err != nil {
		return nil, err
	}

	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	var rec [FieldsPerRecord]float32
	for i := 0; i < n; i++ {
		for j := range rec {
			v, err := nextField(sc)
			if err != nil {
				p.Release()
				return nil, dynamo.Wrap(dynamo.KindFormat, name, "can't read file",
					&RecordError{Record: i, Parsed: j, Err: err})
			}
			rec[j] = v
		}
		p.Bodies()[i] = dynamo.Vec4{W: rec[0], X: rec[1], Y: rec[2], Z: rec[3]}
		p.Velocities()[i] = dynamo.Vec4{X: rec[4], Y: rec[5], Z: rec[6]}
	}

	return p, nil
}

func nextField(sc *bufio.Scanner) (float32, error) {
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	v, err := strconv.ParseFloat(sc.Text(), 32)
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}
