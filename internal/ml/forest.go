// Package ml contains the small in-process models used by the detectors:
// an isolation forest for unsupervised outlier scoring, a standard scaler,
// and linear-trend helpers.
package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// Forest is an isolation-forest ensemble. Points that isolate in short
// paths across the trees receive low decision scores; the decision value
// follows the familiar convention of negative = outlier, with the zero
// cut-off derived from the contamination quantile of the training window.
type Forest struct {
	trees         []*treeNode
	numTrees      int
	subSample     int
	maxDepth      int
	contamination float64
	offset        float64
	worst         float64
	lo            []float64
	hi            []float64
	fitted        bool
	rng           *rand.Rand
}

type treeNode struct {
	feature int
	split   float64
	left    *treeNode
	right   *treeNode
	size    int
	leaf    bool
}

// Result carries the outcome of scoring one sample.
type Result struct {
	// Score is the calibrated decision value; more negative means more
	// anomalous, values below zero are labelled outliers.
	Score     float64
	IsOutlier bool
	// Raw is the uncalibrated isolation score in (0, 1], higher = more
	// isolated.
	Raw float64
}

// NewForest builds an untrained forest. contamination is the expected
// outlier fraction of the training window and fixes the decision cut-off.
func NewForest(numTrees int, contamination float64, seed int64) *Forest {
	if numTrees <= 0 {
		numTrees = 100
	}
	if contamination <= 0 || contamination >= 0.5 {
		contamination = 0.1
	}
	return &Forest{
		numTrees:      numTrees,
		contamination: contamination,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// Fit trains the ensemble on the given samples and calibrates the decision
// offset so that roughly the contamination fraction of the training window
// scores below zero.
func (f *Forest) Fit(samples [][]float64) error {
	if len(samples) == 0 {
		return fmt.Errorf("isolation forest: no training samples")
	}
	dim := len(samples[0])
	for i, s := range samples {
		if len(s) != dim {
			return fmt.Errorf("isolation forest: sample %d has %d features, want %d", i, len(s), dim)
		}
	}

	f.subSample = len(samples)
	if f.subSample > 256 {
		f.subSample = 256
	}
	f.maxDepth = int(math.Ceil(math.Log2(float64(f.subSample)))) + 1

	f.trees = make([]*treeNode, 0, f.numTrees)
	for i := 0; i < f.numTrees; i++ {
		sample := f.subsample(samples)
		f.trees = append(f.trees, f.buildTree(sample, 0))
	}
	f.fitted = true

	// Calibrate the zero cut-off: the contamination quantile of the
	// training window's (negated) isolation scores.
	maxRaw := 0.0
	scores := make([]float64, len(samples))
	for i, s := range samples {
		raw := f.isolationScore(s)
		if raw > maxRaw {
			maxRaw = raw
		}
		scores[i] = -raw
	}
	f.offset = Quantile(scores, f.contamination)
	f.worst = -maxRaw - f.offset

	// Training envelope per feature, used to catch queries the depth cap
	// cannot separate from boundary training samples.
	f.lo = make([]float64, dim)
	f.hi = make([]float64, dim)
	for j := 0; j < dim; j++ {
		f.lo[j], f.hi[j] = featureRange(samples, j)
	}

	return nil
}

// Score evaluates one sample against the trained ensemble.
func (f *Forest) Score(sample []float64) Result {
	if !f.fitted || len(f.trees) == 0 {
		return Result{Raw: 0.5}
	}
	raw := f.isolationScore(sample)
	decision := -raw - f.offset

	// The depth cap saturates path lengths, so a point far beyond the
	// training envelope can share every tree path with a boundary training
	// sample and score as an inlier, especially on grid-like windows full
	// of duplicates. Such a point is at least as anomalous as the worst
	// training sample: clamp its decision there and label it.
	if f.outsideEnvelope(sample) {
		if decision > f.worst {
			decision = f.worst
		}
		return Result{Score: decision, IsOutlier: true, Raw: raw}
	}

	return Result{
		Score:     decision,
		IsOutlier: decision < 0,
		Raw:       raw,
	}
}

func (f *Forest) outsideEnvelope(sample []float64) bool {
	if len(sample) != len(f.lo) {
		return false
	}
	for j, v := range sample {
		if v < f.lo[j] || v > f.hi[j] {
			return true
		}
	}
	return false
}

func (f *Forest) isolationScore(sample []float64) float64 {
	total := 0.0
	for _, tree := range f.trees {
		total += pathLength(tree, sample, 0)
	}
	avg := total / float64(len(f.trees))
	return math.Pow(2, -avg/averagePathLength(f.subSample))
}

func (f *Forest) subsample(samples [][]float64) [][]float64 {
	n := f.subSample
	if n >= len(samples) {
		return samples
	}
	shuffled := make([][]float64, len(samples))
	copy(shuffled, samples)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := f.rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:n]
}

func (f *Forest) buildTree(samples [][]float64, depth int) *treeNode {
	if len(samples) <= 1 || depth >= f.maxDepth || allIdentical(samples) {
		return &treeNode{size: len(samples), leaf: true}
	}

	feature := f.rng.Intn(len(samples[0]))
	lo, hi := featureRange(samples, feature)
	if hi <= lo {
		return &treeNode{size: len(samples), leaf: true}
	}
	split := lo + f.rng.Float64()*(hi-lo)

	var left, right [][]float64
	for _, s := range samples {
		if s[feature] < split {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &treeNode{size: len(samples), leaf: true}
	}

	return &treeNode{
		feature: feature,
		split:   split,
		left:    f.buildTree(left, depth+1),
		right:   f.buildTree(right, depth+1),
		size:    len(samples),
	}
}

func pathLength(tree *treeNode, sample []float64, depth int) float64 {
	if tree.leaf {
		return float64(depth) + averagePathLength(tree.size)
	}
	if sample[tree.feature] < tree.split {
		return pathLength(tree.left, sample, depth+1)
	}
	return pathLength(tree.right, sample, depth+1)
}

// averagePathLength is c(n), the expected path length of an unsuccessful
// BST search, used to normalise isolation depths.
func averagePathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	if n == 2 {
		return 1
	}
	h := math.Log(float64(n-1)) + 0.5772156649
	return 2*h - 2*float64(n-1)/float64(n)
}

func allIdentical(samples [][]float64) bool {
	first := samples[0]
	for _, s := range samples[1:] {
		for j := range first {
			if math.Abs(s[j]-first[j]) > 1e-10 {
				return false
			}
		}
	}
	return true
}

func featureRange(samples [][]float64, feature int) (float64, float64) {
	lo, hi := samples[0][feature], samples[0][feature]
	for _, s := range samples {
		if s[feature] < lo {
			lo = s[feature]
		}
		if s[feature] > hi {
			hi = s[feature]
		}
	}
	return lo, hi
}
