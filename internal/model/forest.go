package model

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"slices"
	"sync"
)

// ForestConfig controls training. Zero values pick the defaults noted on
// each field.
type ForestConfig struct {
	Trees           int   // 100
	Seed            int64 // 0 is a valid seed
	MaxFeatures     int   // floor(sqrt(width))
	MinSamplesSplit int   // 2
	MaxDepth        int   // unlimited
	Workers         int   // runtime.NumCPU()
}

func (c ForestConfig) withDefaults(width int) ForestConfig {
	if c.Trees <= 0 {
		c.Trees = 100
	}
	if c.MaxFeatures <= 0 {
		c.MaxFeatures = int(math.Sqrt(float64(width)))
	}
	if c.MaxFeatures < 1 {
		c.MaxFeatures = 1
	}
	if c.MaxFeatures > width {
		c.MaxFeatures = width
	}
	if c.MinSamplesSplit < 2 {
		c.MinSamplesSplit = 2
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	return c
}

// Node is one node of a flattened tree. Leaves carry the fraction of
// class 1 samples that reached them.
type Node struct {
	Leaf      bool
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Prob      float64
}

// Tree is a binary classification tree stored as a node slice; node 0 is
// the root.
type Tree struct {
	Nodes []Node
}

// Proba returns the class 1 probability of the leaf x falls into.
func (t *Tree) Proba(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Prob
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Forest is a bagged ensemble of trees.
type Forest struct {
	Width int
	Trees []Tree
}

// Proba averages the per tree class 1 probabilities.
func (f *Forest) Proba(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].Proba(x)
	}
	return sum / float64(len(f.Trees))
}

// Predict returns 1 when the mean probability is strictly above 0.5.
func (f *Forest) Predict(x []float64) int {
	if f.Proba(x) > 0.5 {
		return 1
	}
	return 0
}

// TrainForest fits cfg.Trees trees on bootstrap samples of (X, y). Labels
// must be 0 or 1. Each tree draws from its own generator seeded with
// cfg.Seed+i, so the result does not depend on worker scheduling.
func TrainForest(X [][]float64, y []int, cfg ForestConfig) (*Forest, error) {
	if len(X) == 0 {
		return nil, errors.New("model: no training samples")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("model: %d samples but %d labels", len(X), len(y))
	}
	width := len(X[0])
	if width == 0 {
		return nil, errors.New("model: samples have no features")
	}
	for i, row := range X {
		if len(row) != width {
			return nil, fmt.Errorf("model: sample %d has %d features, want %d", i, len(row), width)
		}
		if y[i] != 0 && y[i] != 1 {
			return nil, fmt.Errorf("model: sample %d has label %d, want 0 or 1", i, y[i])
		}
	}
	cfg = cfg.withDefaults(width)

	forest := &Forest{Width: width, Trees: make([]Tree, cfg.Trees)}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
				forest.Trees[i] = growTree(X, y, bootstrap(rng, len(X)), cfg, rng)
			}
		}()
	}
	for i := 0; i < cfg.Trees; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return forest, nil
}

func bootstrap(rng *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}

type builder struct {
	X        [][]float64
	y        []int
	cfg      ForestConfig
	rng      *rand.Rand
	nodes    []Node
	scratch  []int
	features []int
}

func growTree(X [][]float64, y []int, idx []int, cfg ForestConfig, rng *rand.Rand) Tree {
	b := &builder{
		X:        X,
		y:        y,
		cfg:      cfg,
		rng:      rng,
		scratch:  make([]int, len(idx)),
		features: make([]int, len(X[0])),
	}
	for i := range b.features {
		b.features[i] = i
	}
	b.grow(idx, 0)
	return Tree{Nodes: b.nodes}
}

func (b *builder) positives(idx []int) int {
	pos := 0
	for _, i := range idx {
		pos += b.y[i]
	}
	return pos
}

// grow appends the subtree for idx and returns its node index.
func (b *builder) grow(idx []int, depth int) int {
	at := len(b.nodes)
	pos := b.positives(idx)
	b.nodes = append(b.nodes, Node{Leaf: true, Prob: float64(pos) / float64(len(idx))})

	if pos == 0 || pos == len(idx) || len(idx) < b.cfg.MinSamplesSplit {
		return at
	}
	if b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth {
		return at
	}

	feature, threshold, ok := b.bestSplit(idx, pos)
	if !ok {
		return at
	}

	// Partition in place: left side holds x <= threshold.
	l := 0
	for r := range idx {
		if b.X[idx[r]][feature] <= threshold {
			idx[l], idx[r] = idx[r], idx[l]
			l++
		}
	}
	left := b.grow(idx[:l], depth+1)
	right := b.grow(idx[l:], depth+1)
	b.nodes[at] = Node{Feature: feature, Threshold: threshold, Left: left, Right: right}
	return at
}

// bestSplit draws features in random order and keeps the split with the
// lowest weighted Gini impurity. It looks at MaxFeatures features, and
// keeps drawing past that while none of the drawn features can split.
func (b *builder) bestSplit(idx []int, pos int) (int, float64, bool) {
	b.rng.Shuffle(len(b.features), func(i, j int) {
		b.features[i], b.features[j] = b.features[j], b.features[i]
	})

	n := len(idx)
	sorted := b.scratch[:n]
	bestFeature, bestThreshold := -1, 0.0
	bestScore := math.Inf(1)

	for k, f := range b.features {
		if k >= b.cfg.MaxFeatures && bestFeature >= 0 {
			break
		}
		copy(sorted, idx)
		slices.SortFunc(sorted, func(a, c int) int { return cmp.Compare(b.X[a][f], b.X[c][f]) })

		leftPos := 0
		for i := 0; i < n-1; i++ {
			leftPos += b.y[sorted[i]]
			lo, hi := b.X[sorted[i]][f], b.X[sorted[i+1]][f]
			if lo == hi {
				continue
			}
			nl := i + 1
			nr := n - nl
			score := weightedGini(leftPos, nl) + weightedGini(pos-leftPos, nr)
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				// Midpoint can round up to hi for adjacent floats.
				if bestThreshold >= hi {
					bestThreshold = lo
				}
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// weightedGini is count * gini for a node with pos positives out of count.
func weightedGini(pos, count int) float64 {
	if count == 0 {
		return 0
	}
	p := float64(pos) / float64(count)
	return float64(count) * 2 * p * (1 - p)
}
