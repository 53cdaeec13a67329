// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// ElbowAngleModel is a single-split forest on the left elbow angle column:
// bent arms (<= 120 degrees) decode to "pushups_down", straight arms to "pushups_up".
const ElbowAngleModel = `{
  "n_features": 21,
  "n_classes": 2,
  "trees": [
    {
      "children_left": [1, -1, -1],
      "children_right": [2, -1, -1],
      "feature": [20, -2, -2],
      "threshold": [120.0, -2, -2],
      "value": [[10, 10], [10, 0], [0, 10]]
    }
  ]
}`

// ElbowAngleEncoder pairs with ElbowAngleModel.
const ElbowAngleEncoder = `{"classes": ["pushups_down", "pushups_up"]}`

// WriteArtifacts writes a model/encoder pair into dir. Empty contents skip the file.
func WriteArtifacts(t testing.TB, dir, model, encoder string) {
	t.Helper()

	if model != "" {
		if err := os.WriteFile(filepath.Join(dir, "random_forest.json"), []byte(model), 0o644); err != nil {
			t.Fatalf("write model: %v", err)
		}
	}
	if encoder != "" {
		if err := os.WriteFile(filepath.Join(dir, "label_encoder.json"), []byte(encoder), 0o644); err != nil {
			t.Fatalf("write encoder: %v", err)
		}
	}
}
