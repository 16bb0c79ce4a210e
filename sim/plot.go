package sim

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// NewTrajectoryPlot plots the XY (north-west) nav-plane trajectory of a
// simulated AUV run from three data sources:
// truth:    the ideal, noise-free ground-truth trajectory
// measured: raw noisy sensor fixes
// filtered: the UKF's position estimate at each step
// It returns error if the plot fails to be created. This can be due to either of the following conditions:
// * either of the supplied data matrices is nil
// * either of the supplied data matrices does not have at least 2 columns
// * gonum plot fails to be created
func NewTrajectoryPlot(truth, measured, filtered *mat.Dense) (*plot.Plot, error) {
	if truth == nil || measured == nil || filtered == nil {
		return nil, fmt.Errorf("Invalid data supplied")
	}

	_, ct := truth.Dims()
	_, cm := measured.Dims()
	_, cf := filtered.Dims()

	if ct < 2 || cm < 2 || cf < 2 {
		return nil, fmt.Errorf("Invalid data dimensions")
	}

	p := plot.New()

	p.Title.Text = "AUV trajectory (nav-frame north/west plane)"
	p.X.Label.Text = "north (m)"
	p.Y.Label.Text = "west (m)"

	legend := plot.NewLegend()

	legend.Top = true

	p.Legend = legend

	// Make a line plotter for the ground-truth trajectory
	truthLine, err := plotter.NewLine(makePoints(truth))
	if err != nil {
		return nil, err
	}
	truthLine.Color = color.RGBA{R: 255, B: 128, A: 255}

	p.Add(truthLine)
	p.Legend.Add("ground truth", truthLine)

	// Make a scatter plotter for the raw noisy fixes
	measScatter, err := plotter.NewScatter(makePoints(measured))
	if err != nil {
		return nil, err
	}
	measScatter.GlyphStyle.Color = color.RGBA{G: 255, A: 128}
	measScatter.GlyphStyle.Radius = vg.Points(2)

	p.Add(measScatter)
	p.Legend.Add("measured", measScatter)

	// Make a line plotter for the filter's position estimate
	filterLine, err := plotter.NewLine(makePoints(filtered))
	if err != nil {
		return nil, fmt.Errorf("Failed to create filtered line: %v", err)
	}
	filterLine.Color = color.RGBA{R: 169, G: 169, B: 169, A: 255}
	filterLine.Width = vg.Points(2)

	p.Add(filterLine)
	p.Legend.Add("filtered", filterLine)

	return p, nil
}

func makePoints(m *mat.Dense) plotter.XYs {
	r, _ := m.Dims()
	pts := make(plotter.XYs, r)
	for i := 0; i < r; i++ {
		pts[i].X = m.At(i, 0)
		pts[i].Y = m.At(i, 1)
	}

	return pts
}
