// Package tilecoder implements tile coding of vectors
package tilecoder

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/samplemv"

	"github.com/samuelfneumann/pricelearn/utils/floatutils"
)

// Controls tiling offsets. For each dimension, tilings are offset by
// randomly sampling from a uniform distribution with support
// [- tiling width/OffsetDiv, tiling width/OffsetDiv]
const OffsetDiv float64 = 1.5

// TileCoder implements functionality for tile coding a vector. Tile
// coding takes a low-dimensional vector and changes it into a large,
// sparse vector consisting of only 0's and 1's. Each 1 represents the
// coordinates of the original vector in some space of tilings. For
// example:
//
//		[0.5, 0.1] -> [0, 0, 0, 1, 0, 0, 1, 0]
//
// The number of nonzero elements in the tile-coded representation
// equals the number of tilings used to encode the vector (plus one if a
// bias unit is used). Tile coding requires that the space to be tiled
// be bounded; values outside the bounds fall into the edge tiles.
//
// This implementation uses dense tilings over the entire space. Hashing
// is not used.
type TileCoder struct {
	numTilings  int
	minDims     *mat.VecDense
	offsets     []*mat.Dense
	bins        [][]int
	binLengths  [][]float64
	includeBias bool
}

// New creates and returns a new TileCoder. The minDims and maxDims
// arguments are the bounds on each dimension between which tilings will
// be placed.
//
// The bins argument determines both the number of tilings to use and
// the number of tiles per each tiling. The number of elements in the
// outer slice determines the number of tilings to use. The sub-slices
// determine how many tiles are placed along each dimension for the
// respective tiling. For example, if bins := [][]int{{2, 2}, {4, 3}},
// then the TileCoder uses two tilings. The first tiling is a 2x2
// tiling. The second tiling uses 4 tiles along the first dimension and
// 3 tiles along the second dimension.
//
// The parameter includeBias determines whether or not a bias unit is
// kept as the first unit in the tile coded representation.
func New(minDims, maxDims *mat.VecDense, bins [][]int, seed uint64,
	includeBias bool) (*TileCoder, error) {
	if minDims.Len() != maxDims.Len() {
		return nil, fmt.Errorf("new: minimum and maximum must have the "+
			"same dimensions: %d != %d", minDims.Len(), maxDims.Len())
	}
	if len(bins) == 0 {
		return nil, fmt.Errorf("new: at least one tiling is required")
	}

	var bounds []r1.Interval
	numTilings := len(bins)
	binLengths := make([][]float64, numTilings)

	for j := 0; j < numTilings; j++ {
		if len(bins[j]) != minDims.Len() {
			return nil, fmt.Errorf("new: tiling %d should have one number "+
				"of bins per dimension \n\twant(%d) \n\thave(%d)", j,
				minDims.Len(), len(bins[j]))
		}
		binLengths[j] = make([]float64, minDims.Len())

		for i := 0; i < minDims.Len(); i++ {
			if bins[j][i] < 1 {
				return nil, fmt.Errorf("new: tiling %d has %d bins along "+
					"dimension %d", j, bins[j][i], i)
			}
			width := maxDims.AtVec(i) - minDims.AtVec(i)
			if width <= 0 || !floatutils.IsFinite(width) {
				return nil, fmt.Errorf("new: dimension %d must have finite, "+
					"positive width \n\thave(%v)", i, width)
			}

			binLength := width / float64(bins[j][i])
			bound := binLength / OffsetDiv // Bounds tiling offsets

			binLengths[j][i] = binLength
			bounds = append(bounds, r1.Interval{Min: -bound, Max: bound})
		}
	}

	// Sample one offset per dimension per tiling
	source := rand.NewSource(seed)
	u := distmv.NewUniform(bounds, source)
	sampler := samplemv.IID{Dist: u}
	samples := mat.NewDense(1, len(bounds), nil)
	sampler.Sample(samples)

	offsets := make([]*mat.Dense, numTilings)
	dims := minDims.Len()
	for j := 0; j < numTilings; j++ {
		offsets[j] = mat.NewDense(1, dims, nil)
		offsets[j].Copy(samples.Slice(0, 1, j*dims, (j+1)*dims))
	}

	return &TileCoder{
		numTilings:  numTilings,
		minDims:     mat.VecDenseCopyOf(minDims),
		offsets:     offsets,
		bins:        bins,
		binLengths:  binLengths,
		includeBias: includeBias,
	}, nil
}

// featuresBeforeTiling calculates how many features exist in the
// tile-coded representation before tiling number i
func (t *TileCoder) featuresBeforeTiling(i int) int {
	features := 0
	for j := 0; j < i; j++ {
		features += prod(t.bins[j])
	}
	return features
}

// encodeWithTiling returns the index of the tile coded feature vector
// which should be a 1.0 when the input vector v is encoded with tiling
// number tiling
func (t *TileCoder) encodeWithTiling(v mat.Vector, tiling int) int {
	bias := 0
	if t.includeBias {
		bias = 1
	}

	// Row-major index: the last dimension varies fastest
	index, stride := 0, 1
	for i := len(t.bins[tiling]) - 1; i > -1; i-- {
		data := v.AtVec(i) + t.offsets[tiling].At(0, i)

		tile := math.Floor((data - t.minDims.AtVec(i)) /
			t.binLengths[tiling][i])
		tile = floatutils.Clip(tile, 0.0, float64(t.bins[tiling][i]-1))

		index += int(tile) * stride
		stride *= t.bins[tiling][i]
	}
	return t.featuresBeforeTiling(tiling) + index + bias
}

// EncodeIndices returns the non-zero indices of the tile-coded
// representation of v. If a bias unit is used, index 0 is included.
func (t *TileCoder) EncodeIndices(v mat.Vector) []int {
	indices := make([]int, 0, t.numTilings+1)
	if t.includeBias {
		indices = append(indices, 0)
	}
	for i := 0; i < t.numTilings; i++ {
		indices = append(indices, t.encodeWithTiling(v, i))
	}
	return indices
}

// Encode encodes a single vector as a tile-coded vector
func (t *TileCoder) Encode(v mat.Vector) *mat.VecDense {
	tileCoded := mat.NewVecDense(t.VecLength(), nil)

	for _, index := range t.EncodeIndices(v) {
		tileCoded.SetVec(index, 1.0)
	}
	return tileCoded
}

// String returns a string representation of a *TileCoder
func (t *TileCoder) String() string {
	return fmt.Sprintf("Tilings %d  |  Tiles: %v", t.numTilings, t.bins)
}

// VecLength returns the number of features in a tile-coded vector
func (t *TileCoder) VecLength() int {
	length := t.featuresBeforeTiling(t.numTilings)
	if t.includeBias {
		return length + 1
	}
	return length
}

// prod calculates the product of all integers in a []int
func prod(i []int) int {
	prod := 1
	for _, v := range i {
		prod *= v
	}
	return prod
}
