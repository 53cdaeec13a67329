package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"

	"github.com/ayusman/repcount/internal/feature"
)

const leafNode = -1

// Tree is one decision tree in flattened array form. Node i splits on
// Feature[i] at Threshold[i]: samples with a value <= threshold go to
// ChildrenLeft[i], others to ChildrenRight[i]. Leaves have ChildrenLeft[i] == -1
// and carry per-class weights in Value[i].
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// Forest is a random forest exported from training.
type Forest struct {
	NumFeatures int    `json:"n_features"`
	NumClasses  int    `json:"n_classes"`
	Trees       []Tree `json:"trees"`
}

// LabelEncoder maps encoded class indices back to labels.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// LoadForest reads and validates a forest artifact.
func LoadForest(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	var f Forest
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadLabelEncoder reads a label encoder artifact.
func LoadLabelEncoder(path string) (*LabelEncoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label encoder: %w", err)
	}

	var e LabelEncoder
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parse label encoder: %w", err)
	}
	if len(e.Classes) == 0 {
		return nil, errors.New("label encoder has no classes")
	}
	return &e, nil
}

// Decode returns the label for an encoded class index.
func (e *LabelEncoder) Decode(index int) (string, error) {
	if index < 0 || index >= len(e.Classes) {
		return "", fmt.Errorf("class index %d out of range [0,%d)", index, len(e.Classes))
	}
	return e.Classes[index], nil
}

// Validate checks the forest shape against the descriptor layout.
func (f *Forest) Validate() error {
	if f.NumFeatures != feature.Size {
		return fmt.Errorf("model expects %d features, descriptor has %d", f.NumFeatures, feature.Size)
	}
	if f.NumClasses <= 0 {
		return errors.New("model has no classes")
	}
	if len(f.Trees) == 0 {
		return errors.New("model has no trees")
	}

	for ti, t := range f.Trees {
		n := len(t.ChildrenLeft)
		if n == 0 || len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
			return fmt.Errorf("tree %d: inconsistent node arrays", ti)
		}
		for i := 0; i < n; i++ {
			if t.ChildrenLeft[i] == leafNode {
				if len(t.Value[i]) != f.NumClasses {
					return fmt.Errorf("tree %d node %d: leaf has %d class weights, want %d", ti, i, len(t.Value[i]), f.NumClasses)
				}
				continue
			}
			if t.ChildrenLeft[i] <= i || t.ChildrenLeft[i] >= n || t.ChildrenRight[i] <= i || t.ChildrenRight[i] >= n {
				return fmt.Errorf("tree %d node %d: child index out of range", ti, i)
			}
			if t.Feature[i] < 0 || t.Feature[i] >= f.NumFeatures {
				return fmt.Errorf("tree %d node %d: feature %d out of range", ti, i, t.Feature[i])
			}
		}
	}
	return nil
}

// Predict averages the normalized leaf distributions of all trees and returns
// the class with the highest mean probability. Ties go to the lower index.
func (f *Forest) Predict(x []float64) (int, error) {
	if len(x) != f.NumFeatures {
		return 0, fmt.Errorf("got %d features, want %d", len(x), f.NumFeatures)
	}

	proba := make([]float64, f.NumClasses)
	for i := range f.Trees {
		weights := f.Trees[i].Value[f.Trees[i].leaf(x)]
		total := floats.Sum(weights)
		if total == 0 {
			continue
		}
		floats.AddScaled(proba, 1/total, weights)
	}

	return floats.MaxIdx(proba), nil
}

func (t *Tree) leaf(x []float64) int {
	node := 0
	for t.ChildrenLeft[node] != leafNode {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return node
}
