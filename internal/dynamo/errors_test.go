package dynamo

import (
	"errors"
	"fmt"
	"testing"
)

func TestFatalError_Message(t *testing.T) {
	err := Fatalf(KindIO, "frames/0001.dat", "can't open file")
	want := "io error: frames/0001.dat: can't open file"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	cause := errors.New("permission denied")
	wrapped := Wrap(KindIO, "out.dat", "can't open file", cause)
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("reading catalogue: %w", Fatalf(KindFormat, "in.dat", "can't read file"))

	if !IsKind(err, KindFormat) {
		t.Error("expected format kind through wrapping")
	}
	if IsKind(err, KindIO) {
		t.Error("did not expect io kind")
	}
	if IsKind(errors.New("plain"), KindFormat) {
		t.Error("plain errors carry no kind")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), 1},
		{"resource", Fatalf(KindResource, "bodies", "x"), 1},
		{"accelerator", Fatalf(KindAccelerator, "bodies", "x"), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestVec4Layout(t *testing.T) {
	if Vec4Size != 16 {
		t.Fatalf("Vec4Size = %d, want 16", Vec4Size)
	}

	vs := []Vec4{{X: 1, Y: 2, Z: 3, W: 4}, {X: 5}}
	b := Vec4Bytes(vs)
	if len(b) != 32 {
		t.Fatalf("len(Vec4Bytes) = %d, want 32", len(b))
	}

	b[16] = 0
	b[17] = 0
	b[18] = 0
	b[19] = 0
	if vs[1].X != 0 {
		t.Error("Vec4Bytes should alias the slice")
	}

	if Vec4Bytes(nil) != nil {
		t.Error("empty slice should give nil bytes")
	}
}

func TestModeString(t *testing.T) {
	if HostMode.String() != "host" || DeviceMode.String() != "device" {
		t.Error("unexpected mode names")
	}
	if Mode(0).String() != "invalid" {
		t.Error("zero mode should be invalid")
	}
}
