// Package classifier adapts the pretrained movement-phase classifier.
package classifier

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/feature"
)

// Artifact file names inside the model directory.
const (
	ModelFile   = "random_forest.json"
	EncoderFile = "label_encoder.json"
)

// FallbackLabel is reported when no trained model is available.
const FallbackLabel = "detected"

// ErrUnavailable is returned when the classifier artifacts cannot be used.
var ErrUnavailable = errors.New("classifier artifacts unavailable")

// Classifier predicts a class index for a descriptor and decodes it to a label.
type Classifier interface {
	// Predict returns the encoded class index for the descriptor.
	Predict(v feature.Vector) (int, error)

	// Decode maps an encoded class index back to its label.
	Decode(index int) (string, error)

	// Fallback reports whether this is the fixed fallback variant.
	Fallback() bool
}

// Classify runs Predict then Decode.
func Classify(c Classifier, v feature.Vector) (string, error) {
	idx, err := c.Predict(v)
	if err != nil {
		return "", fmt.Errorf("predict: %w", err)
	}
	label, err := c.Decode(idx)
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	return label, nil
}

// Load opens the artifact pair in dir. When either artifact is missing or
// unusable the fallback variant is returned together with an error wrapping
// ErrUnavailable; the returned Classifier is always usable.
func Load(dir string) (Classifier, error) {
	modelPath := filepath.Join(dir, ModelFile)
	encoderPath := filepath.Join(dir, EncoderFile)

	for _, p := range []string{modelPath, encoderPath} {
		if _, err := os.Stat(p); err != nil {
			return NewFallback(), fmt.Errorf("%w: %s: %v", ErrUnavailable, p, err)
		}
	}

	forest, err := LoadForest(modelPath)
	if err != nil {
		return NewFallback(), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	encoder, err := LoadLabelEncoder(encoderPath)
	if err != nil {
		return NewFallback(), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(encoder.Classes) < forest.NumClasses {
		return NewFallback(), fmt.Errorf("%w: encoder has %d classes, model predicts %d",
			ErrUnavailable, len(encoder.Classes), forest.NumClasses)
	}

	log.Infof("classifier loaded: %d trees, %d classes", len(forest.Trees), forest.NumClasses)
	return &artifactClassifier{forest: forest, encoder: encoder}, nil
}

// LoadOrFallback is Load that logs instead of returning the unavailability error.
func LoadOrFallback(dir string) Classifier {
	c, err := Load(dir)
	if err != nil {
		log.Warnf("ML model files not usable (%v), using basic pose detection only", err)
	}
	return c
}

type artifactClassifier struct {
	forest  *Forest
	encoder *LabelEncoder
}

func (c *artifactClassifier) Predict(v feature.Vector) (int, error) {
	return c.forest.Predict(v.Slice())
}

func (c *artifactClassifier) Decode(index int) (string, error) {
	return c.encoder.Decode(index)
}

func (c *artifactClassifier) Fallback() bool { return false }

type fallbackClassifier struct{}

// NewFallback returns the classifier used when no trained model is available.
func NewFallback() Classifier {
	return fallbackClassifier{}
}

func (fallbackClassifier) Predict(feature.Vector) (int, error) { return 0, nil }

func (fallbackClassifier) Decode(int) (string, error) { return FallbackLabel, nil }

func (fallbackClassifier) Fallback() bool { return true }
