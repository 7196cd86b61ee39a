package gbdt

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/rmera/boo"
	"github.com/rmera/boo/utils"
)

type TrainOptions struct {
	Rounds       int
	MaxDepth     int
	LearningRate float64
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Rounds:       30,
		MaxDepth:     4,
		LearningRate: 0.1,
	}
}

// Model wraps a two-class boosted ensemble over the shared feature vector.
// Class 0 is down, class 1 is up.
type Model struct {
	featureNames []string
	opts         TrainOptions
	forest       *boo.MultiClass
}

type artifact struct {
	FeatureNames []string     `json:"feature_names"`
	Options      TrainOptions `json:"options"`
	Forest       []byte       `json:"forest"`
}

func Train(samples [][]float64, labels []float64, featureNames []string, opts TrainOptions) (*Model, error) {
	if len(samples) == 0 {
		return nil, errors.New("empty training dataset")
	}
	if len(samples) != len(labels) {
		return nil, fmt.Errorf("sample/label length mismatch: %d != %d", len(samples), len(labels))
	}
	if opts.Rounds <= 0 {
		opts.Rounds = DefaultTrainOptions().Rounds
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultTrainOptions().MaxDepth
	}
	if opts.LearningRate <= 0 || opts.LearningRate > 1 {
		opts.LearningRate = DefaultTrainOptions().LearningRate
	}

	// Class probabilities come back in first-seen label order; partitioning
	// the samples pins the down class to index 0 and up to index 1.
	data := make([][]float64, 0, len(samples))
	classes := make([]int, 0, len(labels))
	downs := 0
	for i := range samples {
		if labels[i] < 0.5 {
			data = append(data, samples[i])
			classes = append(classes, 0)
			downs++
		}
	}
	for i := range samples {
		if labels[i] >= 0.5 {
			data = append(data, samples[i])
			classes = append(classes, 1)
		}
	}
	if downs == 0 || downs == len(samples) {
		return nil, errors.New("training set needs both up and down labels")
	}

	booOpts := boo.DefaultXOptions()
	booOpts.Rounds = opts.Rounds
	booOpts.MaxDepth = opts.MaxDepth
	booOpts.LearningRate = opts.LearningRate
	booOpts.Verbose = false

	bunch := &utils.DataBunch{Data: data, Labels: classes}
	forest := boo.NewMultiClass(bunch, booOpts)
	if forest == nil {
		return nil, errors.New("boosting produced no model")
	}

	if len(featureNames) != len(samples[0]) {
		featureNames = make([]string, len(samples[0]))
		for i := range featureNames {
			featureNames[i] = "f"
		}
	}
	return &Model{
		featureNames: append([]string(nil), featureNames...),
		opts:         opts,
		forest:       forest,
	}, nil
}

// PredictProb returns P(up). Anything the ensemble cannot score cleanly
// reads as the 0.5 coin-flip, never an error.
func (m *Model) PredictProb(sample []float64) float64 {
	if m == nil || m.forest == nil || len(sample) != len(m.featureNames) {
		return 0.5
	}
	probs := m.forest.PredictSingle(sample)
	if len(probs) < 2 {
		return 0.5
	}
	p := probs[1]
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0.5
	}
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func (m *Model) PredictBatch(samples [][]float64) []float64 {
	out := make([]float64, len(samples))
	for i := range samples {
		out[i] = m.PredictProb(samples[i])
	}
	return out
}

func (m *Model) FeatureNames() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.featureNames))
	copy(out, m.featureNames)
	return out
}

func (m *Model) Options() TrainOptions {
	if m == nil {
		return TrainOptions{}
	}
	return m.opts
}

func (m *Model) MarshalBinary() ([]byte, error) {
	if m == nil || m.forest == nil {
		return nil, errors.New("nil model")
	}
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if err := boo.JSONMultiClass(m.forest, "softmax", w); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return json.Marshal(artifact{
		FeatureNames: m.featureNames,
		Options:      m.opts,
		Forest:       buf.Bytes(),
	})
}

func UnmarshalBinary(blob []byte) (*Model, error) {
	if len(blob) == 0 {
		return nil, errors.New("empty artifact")
	}
	var a artifact
	if err := json.Unmarshal(blob, &a); err != nil {
		return nil, err
	}
	if len(a.Forest) == 0 || len(a.FeatureNames) == 0 {
		return nil, errors.New("invalid artifact")
	}
	forest, err := boo.UnJSONMultiClass(bufio.NewReader(bytes.NewReader(a.Forest)))
	if err != nil {
		return nil, err
	}
	return &Model{
		featureNames: a.FeatureNames,
		opts:         a.Options,
		forest:       forest,
	}, nil
}
