package frameio

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/nbody/internal/dynamo"
)

// Snapshot is anything holding index-aligned bodies and velocities.
type Snapshot interface {
	Len() int
	Bodies() []dynamo.Vec4
	Velocities() []dynamo.Vec4
}

type rowFunc func(buf []byte, body, vel dynamo.Vec4) []byte

func fullRow(buf []byte, b, v dynamo.Vec4) []byte {
	return appendFields(buf, b.W, b.X, b.Y, b.Z, v.X, v.Y, v.Z)
}

func shortRow(buf []byte, b, _ dynamo.Vec4) []byte {
	return appendFields(buf, b.X, b.Y, b.Z)
}

func printRow(buf []byte, b, v dynamo.Vec4) []byte {
	return appendFields(buf, b.X, b.Y, b.Z, v.X, v.Y, v.Z)
}

// appendFields formats each value fixed-point with six decimals.
func appendFields(buf []byte, vals ...float32) []byte {
	for i, v := range vals {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendFloat(buf, float64(v), 'f', 6, 64)
	}
	return append(buf, '\n')
}

// WriteFull writes every body as mass x y z vx vy vz.
func WriteFull(path string, s Snapshot) error {
	return writeFile(path, s, fullRow)
}

// WriteShort writes only positions, for trajectory logs.
func WriteShort(path string, s Snapshot) error {
	return writeFile(path, s, shortRow)
}

// Print writes positions and velocities to stdout.
func Print(s Snapshot) error {
	return Fprint(os.Stdout, s)
}

// Fprint writes x y z vx vy vz per body to w.
func Fprint(w io.Writer, s Snapshot) error {
	bw := bufio.NewWriter(w)
	if err := encode(bw, s, printRow); err != nil {
		return err
	}
	return bw.Flush()
}

func writeFile(path string, s Snapshot, row rowFunc) error {
	f, err := os.Create(path)
	if err != nil {
		return dynamo.Wrap(dynamo.KindIO, path, "can't open file", err)
	}

	bw := bufio.NewWriter(f)
	if err := encode(bw, s, row); err != nil {
		f.Close()
		return dynamo.Wrap(dynamo.KindIO, path, "can't write file", err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return dynamo.Wrap(dynamo.KindIO, path, "can't write file", err)
	}
	if err := f.Close(); err != nil {
		return dynamo.Wrap(dynamo.KindIO, path, "can't close file", err)
	}
	return nil
}

func encode(w io.Writer, s Snapshot, row rowFunc) error {
	bodies, vels := s.Bodies(), s.Velocities()
	buf := make([]byte, 0, 128)
	for i := 0; i < s.Len(); i++ {
		buf = row(buf[:0], bodies[i], vels[i])
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
