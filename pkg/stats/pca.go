package stats

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// minPCASampleSize is the entry count at which the PCA artefact starts
// being computed; below it, IndexSize stays 0.
const minPCASampleSize = 10

// PCAComponents runs principal component analysis over a sample of
// embeddings and returns the number of components it found. This is a
// statistics-only artefact: nothing here feeds back into stored
// embeddings or ANN search, it exists purely to populate
// VectorDbStats.IndexSize. Fewer than minPCASampleSize samples returns 0.
func PCAComponents(samples [][]float32) int {
	if len(samples) < minPCASampleSize {
		return 0
	}

	dim := len(samples[0])
	if dim == 0 {
		return 0
	}

	data := mat.NewDense(len(samples), dim, nil)
	for i, v := range samples {
		for j := 0; j < dim && j < len(v); j++ {
			data.Set(i, j, float64(v[j]))
		}
	}

	var pc stat.PC
	ok := pc.PrincipalComponents(data, nil)
	if !ok {
		return 0
	}

	vars := pc.VarsTo(nil)
	return len(vars)
}
