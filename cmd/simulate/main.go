// Command simulate runs a short synthetic AUV mission through
// poseukf.PoseFilter: it drives a constant-velocity ground-truth
// trajectory, derives noisy XY-position and DVL-velocity measurements
// from it, feeds both through the filter, and plots ground truth versus
// measured versus filtered trajectories. It is adapted from the
// teacher's examples/ukf demo, generalized from a 1D falling-ball model
// to the pose filter's manifold state.
package main

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg"

	"github.com/bwehbe/slam-uwv-kalman-filters/dynamics"
	"github.com/bwehbe/slam-uwv-kalman-filters/geo"
	"github.com/bwehbe/slam-uwv-kalman-filters/manifold"
	"github.com/bwehbe/slam-uwv-kalman-filters/noise"
	"github.com/bwehbe/slam-uwv-kalman-filters/poseukf"
	rnd "github.com/bwehbe/slam-uwv-kalman-filters/rand"
	"github.com/bwehbe/slam-uwv-kalman-filters/sim"
	"github.com/bwehbe/slam-uwv-kalman-filters/state"
)

// coastModel is a minimal dynamics.Model: it tracks whatever
// hydrodynamic parameters were last set and always reports zero
// effort, enough to drive IntegrateBodyEfforts if the demo is extended
// without needing a real rigid-body solver.
type coastModel struct {
	params dynamics.UWVParameters
}

func (m *coastModel) CalcEfforts(accel6d, vel6d [6]float64, orientation manifold.Rotation) [6]float64 {
	return [6]float64{}
}
func (m *coastModel) SetUWVParameters(p dynamics.UWVParameters) { m.params = p }
func (m *coastModel) GetUWVParameters() dynamics.UWVParameters  { return m.params }

// noSVR is a dynamics.SVRThreeDOFModel stand-in for the learned
// regression model, which this demo never exercises.
type noSVR struct{}

func (noSVR) PredictEfforts(x [6]float64, names [10]string) ([3]float64, error) {
	return [3]float64{}, nil
}

func defaultParameter() poseukf.Parameter {
	return poseukf.Parameter{
		ImuInBody:           manifold.NewVec(3),
		GyroBiasOffset:      manifold.NewVec(3),
		GyroBiasTau:         200,
		AccBiasOffset:       manifold.NewVec(3),
		AccBiasTau:          200,
		InertiaTau:          200,
		LinDampingTau:       200,
		QuadDampingTau:      200,
		WaterVelocityTau:    200,
		ADCPBiasTau:         200,
		WaterDensityTau:     200,
		WaterVelocityLimits: 1,
		WaterVelocityScale:  0,
		AtmosphericPressure: 101325,
	}
}

func diag(n int, v float64) *mat.SymDense {
	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		data[i*n+i] = v
	}
	return mat.NewSymDense(n, data)
}

func main() {
	const steps = 60
	const dt = 0.5

	// Ground truth moves at a constant 1.0 m/s north, 0.3 m/s west.
	truthVelocity := manifold.VecFrom(1.0, 0.3, 0)

	location := geo.LocationConfiguration{Latitude: 0.6, Longitude: 0.1}

	initial := state.New()
	cov := diag(state.DOF, 1.0)
	processCovDOF := diag(state.DOF, 1e-4)

	f, err := poseukf.New(initial, cov, location, dynamics.UWVParameters{}, defaultParameter(), processCovDOF, &coastModel{}, noSVR{})
	if err != nil {
		log.Fatalf("Failed to create pose filter: %v", err)
	}

	xyCov := mat.NewSymDense(2, []float64{0.5, 0, 0, 0.5})
	xyNoiseSamples, err := rnd.WithCovN(xyCov, steps)
	if err != nil {
		log.Fatalf("Failed to generate XY-position noise batch: %v", err)
	}

	velCov := mat.NewSymDense(3, []float64{0.01, 0, 0, 0, 0.01, 0, 0, 0, 0.01})
	velNoise, err := noise.NewGaussian([]float64{0, 0, 0}, velCov)
	if err != nil {
		log.Fatalf("Failed to create velocity noise: %v", err)
	}

	processCov := mat.NewSymDense(3, []float64{1e-4, 0, 0, 0, 1e-4, 0, 0, 0, 1e-4})
	processNoise, err := noise.NewGaussian([]float64{0, 0, 0}, processCov)
	if err != nil {
		log.Fatalf("Failed to create process noise: %v", err)
	}

	truthOut := mat.NewDense(steps, 2, nil)
	measOut := mat.NewDense(steps, 2, nil)
	filterOut := mat.NewDense(steps, 2, nil)

	truthPos := manifold.NewVec(3)

	for i := 0; i < steps; i++ {
		processSample := processNoise.Sample()
		drift := manifold.VecFrom(processSample.AtVec(0), processSample.AtVec(1), processSample.AtVec(2))
		truthPos = truthPos.BoxPlus(truthVelocity.Scale(dt).Add(drift))
		fmt.Printf("TRUTH position %d: %v\n", i, truthPos)

		if err := f.Predict(dt); err != nil {
			log.Fatalf("Predict error at step %d: %v", i, err)
		}

		xyNoise := manifold.VecFrom(xyNoiseSamples.At(0, i), xyNoiseSamples.At(1, i))
		measuredXY := manifold.VecFrom(truthPos[0], truthPos[1]).BoxPlus(xyNoise)
		if err := f.IntegrateXYPosition(measuredXY, xyCov); err != nil {
			fmt.Printf("XY position update rejected at step %d: %v\n", i, err)
		}

		velSample := velNoise.Sample()
		measuredVel := truthVelocity.BoxPlus([]float64{velSample.AtVec(0), velSample.AtVec(1), velSample.AtVec(2)})
		if err := f.IntegrateVelocity(measuredVel, velCov); err != nil {
			fmt.Printf("Velocity update rejected at step %d: %v\n", i, err)
		}

		mean := f.Mean()
		fmt.Printf("FILTERED position %d: %v\n", i, mean.Position)

		truthOut.Set(i, 0, truthPos[0])
		truthOut.Set(i, 1, truthPos[1])
		measOut.Set(i, 0, measuredXY[0])
		measOut.Set(i, 1, measuredXY[1])
		filterOut.Set(i, 0, mean.Position[0])
		filterOut.Set(i, 1, mean.Position[1])
	}

	stats := f.Stats()
	fmt.Printf("Rejections: %v\n", stats.Rejections)
	fmt.Printf("Last Mahalanobis^2: %v\n", stats.LastMahalanobis2)

	plt, err := sim.NewTrajectoryPlot(truthOut, measOut, filterOut)
	if err != nil {
		log.Fatalf("Failed to make plot: %v", err)
	}

	name := "trajectory.png"
	if err := plt.Save(10*vg.Inch, 10*vg.Inch, name); err != nil {
		log.Fatalf("Failed to save plot to %s: %v", name, err)
	}
}
