package viz

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/nbody/internal/dynamo"
	"github.com/san-kum/nbody/internal/frame"
	"github.com/san-kum/nbody/internal/memory"
)

func binary(t *testing.T) *frame.Particles {
	t.Helper()
	p, err := frame.NewParticles(memory.NewHost(0), 2)
	if err != nil {
		t.Fatal(err)
	}
	p.Bodies()[0] = dynamo.Vec4{W: 1, X: -1}
	p.Bodies()[1] = dynamo.Vec4{W: 1, X: 1}
	p.Velocities()[0] = dynamo.Vec4{Y: -0.5}
	p.Velocities()[1] = dynamo.Vec4{Y: 0.5}
	return p
}

func TestSummarize(t *testing.T) {
	sum := Summarize(binary(t))

	if sum.Bodies != 2 || sum.TotalMass != 2 {
		t.Errorf("unexpected counts: %+v", sum)
	}
	for k, c := range sum.CenterOfMass {
		if math.Abs(c) > 1e-12 {
			t.Errorf("center of mass[%d] = %v, want 0", k, c)
		}
	}
	if math.Abs(sum.MaxRadius-1) > 1e-12 {
		t.Errorf("max radius = %v, want 1", sum.MaxRadius)
	}
	if math.Abs(sum.KineticEnergy-0.25) > 1e-12 {
		t.Errorf("kinetic energy = %v, want 0.25", sum.KineticEnergy)
	}
}

func TestSummarizeSkipsInvalid(t *testing.T) {
	p := binary(t)
	p.Bodies()[1].X = float32(math.NaN())

	sum := Summarize(p)
	if sum.Invalid != 1 {
		t.Errorf("expected 1 invalid body, got %d", sum.Invalid)
	}
	if sum.TotalMass != 1 {
		t.Errorf("expected mass 1, got %v", sum.TotalMass)
	}
}

func TestRadialProfile(t *testing.T) {
	p := binary(t)
	sum := Summarize(p)

	profile := RadialProfile(p, sum, 4)
	if len(profile) != 4 {
		t.Fatalf("expected 4 bins, got %d", len(profile))
	}
	if profile[3] != 2 {
		t.Errorf("both bodies sit at max radius, got %v", profile)
	}

	total := 0.0
	for _, m := range profile {
		total += m
	}
	if total != sum.TotalMass {
		t.Errorf("profile mass %v, want %v", total, sum.TotalMass)
	}
}

func TestRender(t *testing.T) {
	p := binary(t)
	sum := Summarize(p)
	out := Render("catalogue.dat", sum, RadialProfile(p, sum, 8))

	for _, want := range []string{"catalogue.dat", "bodies", "kinetic energy", "mass per radial shell"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderSeparatesPlot(t *testing.T) {
	p := binary(t)
	sum := Summarize(p)

	if out := Render("a.dat", sum, RadialProfile(p, sum, 8)); !strings.Contains(out, "◆") {
		t.Error("expected a separator before the profile plot")
	}
	if out := Render("a.dat", sum, RadialProfile(p, sum, 1)); strings.Contains(out, "◆") {
		t.Error("single-bin profile should render the panel only")
	}
}

func TestSeparatorWidth(t *testing.T) {
	for _, w := range []int{0, 3, 10, 11, 60} {
		got := strings.Count(Separator(w), "─") + 3
		want := w
		if want < 3 {
			want = 3
		}
		if got != want {
			t.Errorf("Separator(%d) is %d wide, want %d", w, got, want)
		}
	}
}

func TestUsageBar(t *testing.T) {
	for _, f := range []float64{-1, 0, 0.5, 0.9, 2} {
		if bar := UsageBar(f, 10); strings.Count(bar, "█")+strings.Count(bar, "░") != 10 {
			t.Errorf("UsageBar(%v) has wrong width: %q", f, bar)
		}
	}
}
