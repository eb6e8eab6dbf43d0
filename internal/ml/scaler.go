package ml

import "math"

// Scaler normalises feature vectors to zero mean and unit variance per
// position, fit on the same window the forest trains on.
type Scaler struct {
	mean []float64
	std  []float64
}

// FitScaler computes per-feature mean and standard deviation over samples.
// Features with zero variance scale by 1 so constant columns pass through.
func FitScaler(samples [][]float64) *Scaler {
	if len(samples) == 0 {
		return &Scaler{}
	}
	dim := len(samples[0])
	mean := make([]float64, dim)
	std := make([]float64, dim)

	for _, s := range samples {
		for j, v := range s {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(len(samples))
	}
	for _, s := range samples {
		for j, v := range s {
			diff := v - mean[j]
			std[j] += diff * diff
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / float64(len(samples)))
		if std[j] == 0 {
			std[j] = 1
		}
	}
	return &Scaler{mean: mean, std: std}
}

// Transform returns the normalised copy of one vector.
func (s *Scaler) Transform(v []float64) []float64 {
	if len(s.mean) != len(v) {
		out := make([]float64, len(v))
		copy(out, v)
		return out
	}
	out := make([]float64, len(v))
	for j, x := range v {
		out[j] = (x - s.mean[j]) / s.std[j]
	}
	return out
}

// TransformAll normalises a whole window.
func (s *Scaler) TransformAll(samples [][]float64) [][]float64 {
	out := make([][]float64, len(samples))
	for i, v := range samples {
		out[i] = s.Transform(v)
	}
	return out
}
