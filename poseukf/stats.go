package poseukf

// FilterStats is the read-only summary spec §6.3 allows: per-sensor
// gate-rejection counts and the last accepted squared Mahalanobis distance for
// each sensor kind, plus a running count of square-root/factorization
// failures (spec §7 Singular). It has no equivalent in
// original_source/src/PoseUKF.cpp (a C++ filter exposing only mu()/
// sigma()); this is a natural, low-risk addition within the allowance
// spec §6.3 names.
type FilterStats struct {
	Rejections       map[string]int
	LastMahalanobis2 map[string]float64
	SingularFailures int
}

func newFilterStats() FilterStats {
	return FilterStats{
		Rejections:       map[string]int{},
		LastMahalanobis2: map[string]float64{},
	}
}

func (s FilterStats) clone() FilterStats {
	out := newFilterStats()
	for k, v := range s.Rejections {
		out.Rejections[k] = v
	}
	for k, v := range s.LastMahalanobis2 {
		out.LastMahalanobis2[k] = v
	}
	out.SingularFailures = s.SingularFailures
	return out
}
