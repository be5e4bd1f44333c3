package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/nbody/internal/frameio"
)

// Summary holds aggregate quantities of one frame.
type Summary struct {
	Bodies        int
	TotalMass     float64
	CenterOfMass  [3]float64
	MaxRadius     float64
	MeanSpeed     float64
	KineticEnergy float64
	Invalid       int
}

// Summarize computes mass-weighted aggregates. Bodies with NaN or Inf
// components are counted in Invalid and skipped.
func Summarize(s frameio.Snapshot) Summary {
	bodies, vels := s.Bodies(), s.Velocities()
	sum := Summary{Bodies: s.Len()}

	valid := 0
	for i := 0; i < s.Len(); i++ {
		b, v := bodies[i], vels[i]
		if !b.IsValid() || !v.IsValid() {
			sum.Invalid++
			continue
		}
		m := float64(b.W)
		sum.TotalMass += m
		sum.CenterOfMass[0] += m * float64(b.X)
		sum.CenterOfMass[1] += m * float64(b.Y)
		sum.CenterOfMass[2] += m * float64(b.Z)

		speed := v.Norm()
		sum.MeanSpeed += speed
		sum.KineticEnergy += 0.5 * m * speed * speed
		valid++
	}
	if sum.TotalMass != 0 {
		for k := range sum.CenterOfMass {
			sum.CenterOfMass[k] /= sum.TotalMass
		}
	}
	if valid > 0 {
		sum.MeanSpeed /= float64(valid)
	}

	for i := 0; i < s.Len(); i++ {
		if r := radius(sum, bodies[i].X, bodies[i].Y, bodies[i].Z); r > sum.MaxRadius {
			sum.MaxRadius = r
		}
	}
	return sum
}

// RadialProfile bins mass into equal-width shells around the center of mass
// out to MaxRadius.
func RadialProfile(s frameio.Snapshot, sum Summary, bins int) []float64 {
	if bins < 1 {
		bins = 1
	}
	profile := make([]float64, bins)
	if sum.MaxRadius == 0 {
		profile[0] = sum.TotalMass
		return profile
	}

	for _, b := range s.Bodies() {
		if !b.IsValid() {
			continue
		}
		r := radius(sum, b.X, b.Y, b.Z)
		idx := int(r / sum.MaxRadius * float64(bins))
		if idx >= bins {
			idx = bins - 1
		}
		profile[idx] += float64(b.W)
	}
	return profile
}

func radius(sum Summary, x, y, z float32) float64 {
	dx := float64(x) - sum.CenterOfMass[0]
	dy := float64(y) - sum.CenterOfMass[1]
	dz := float64(z) - sum.CenterOfMass[2]
	r := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

const plotWidth = 60

// Render draws the summary panel, followed by a separator and the profile
// plot when it has more than one bin.
func Render(name string, sum Summary, profile []float64) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, MetricLabel.Render(label), MetricValue.Render(value))
	}

	lines := []string{
		Title.Render(name),
		"",
		row("bodies", fmt.Sprintf("%d", sum.Bodies)),
		row("total mass", fmt.Sprintf("%.6g", sum.TotalMass)),
		row("center of mass", fmt.Sprintf("(%.4f, %.4f, %.4f)", sum.CenterOfMass[0], sum.CenterOfMass[1], sum.CenterOfMass[2])),
		row("max radius", fmt.Sprintf("%.6g", sum.MaxRadius)),
		row("mean speed", fmt.Sprintf("%.6g", sum.MeanSpeed)),
		row("kinetic energy", fmt.Sprintf("%.6g", sum.KineticEnergy)),
	}
	if sum.Invalid > 0 {
		lines = append(lines, Warning.Render(fmt.Sprintf("%d bodies with NaN/Inf components", sum.Invalid)))
	}

	out := Panel.Render(strings.Join(lines, "\n"))
	if len(profile) > 1 {
		out += "\n" + Separator(plotWidth) + "\n" + asciigraph.Plot(profile,
			asciigraph.Height(10),
			asciigraph.Width(plotWidth),
			asciigraph.Caption("mass per radial shell"),
		)
	}
	return out
}
