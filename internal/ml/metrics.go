package ml

import "sort"

// EvalMetrics holds classification metrics computed on a held-out split.
type EvalMetrics struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
	AUC       float64
}

// Evaluate computes accuracy, precision, recall, F1 and AUC from
// predicted labels, positive-class probabilities and true labels.
// Undefined ratios (zero denominators) evaluate to 0.
func Evaluate(predicted []int, probabilities []float64, actual []int) EvalMetrics {
	var tp, tn, fp, fn float64
	for i, p := range predicted {
		switch {
		case p == 1 && actual[i] == 1:
			tp++
		case p == 0 && actual[i] == 0:
			tn++
		case p == 1 && actual[i] == 0:
			fp++
		default:
			fn++
		}
	}

	total := tp + tn + fp + fn
	m := EvalMetrics{}
	if total > 0 {
		m.Accuracy = (tp + tn) / total
	}
	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	m.AUC = rocAUC(probabilities, actual)
	return m
}

// rocAUC computes the area under the ROC curve via the rank-sum
// formulation, with average ranks for tied probabilities. Returns 0 when
// only one class is present.
func rocAUC(probabilities []float64, actual []int) float64 {
	type scored struct {
		p float64
		y int
	}
	items := make([]scored, len(probabilities))
	var pos, neg float64
	for i, p := range probabilities {
		items[i] = scored{p: p, y: actual[i]}
		if actual[i] == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0
	}

	sort.Slice(items, func(a, b int) bool { return items[a].p < items[b].p })

	// Assign average ranks across ties.
	ranks := make([]float64, len(items))
	for i := 0; i < len(items); {
		j := i
		for j < len(items) && items[j].p == items[i].p {
			j++
		}
		avg := float64(i+j+1) / 2 // ranks are 1-based
		for k := i; k < j; k++ {
			ranks[k] = avg
		}
		i = j
	}

	var rankSum float64
	for i, it := range items {
		if it.y == 1 {
			rankSum += ranks[i]
		}
	}

	return (rankSum - pos*(pos+1)/2) / (pos * neg)
}
