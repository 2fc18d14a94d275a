package ml

import "math/rand"

// splitSeed fixes the shuffle so retraining runs are reproducible, the
// same way the original training pipeline pinned its random state.
const splitSeed = 42

// StratifiedSplit shuffles and partitions a labeled matrix into train
// and test sets, preserving the class ratio in both. testFraction is
// clamped so that both sides keep at least one row when possible.
func StratifiedSplit(x [][]float64, y []int, testFraction float64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	if testFraction <= 0 {
		testFraction = 0.2
	}
	if testFraction >= 1 {
		testFraction = 0.5
	}

	rng := rand.New(rand.NewSource(splitSeed))

	var byClass [2][]int
	for i, label := range y {
		if label == 1 {
			byClass[1] = append(byClass[1], i)
		} else {
			byClass[0] = append(byClass[0], i)
		}
	}

	for _, indices := range byClass {
		rng.Shuffle(len(indices), func(a, b int) {
			indices[a], indices[b] = indices[b], indices[a]
		})

		nTest := int(float64(len(indices)) * testFraction)
		if nTest == 0 && len(indices) > 1 {
			nTest = 1
		}

		for pos, idx := range indices {
			if pos < nTest {
				testX = append(testX, x[idx])
				testY = append(testY, y[idx])
				continue
			}
			trainX = append(trainX, x[idx])
			trainY = append(trainY, y[idx])
		}
	}

	return trainX, trainY, testX, testY
}
