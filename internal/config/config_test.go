package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		weights ScoreWeights
		wantErr bool
	}{
		{"default", ScoreWeights{Content: 0.5, Collaborative: 0.3, Popularity: 0.2}, false},
		{"cold start", ScoreWeights{Content: 0.3, Collaborative: 0.2, Popularity: 0.5}, false},
		{"all on one signal", ScoreWeights{Content: 1.0}, false},
		{"just inside tolerance", ScoreWeights{Content: 0.5, Collaborative: 0.3, Popularity: 0.2 + 9e-10}, false},
		{"just outside tolerance", ScoreWeights{Content: 0.5, Collaborative: 0.3, Popularity: 0.2 + 2e-9}, true},
		{"under one", ScoreWeights{Content: 0.5, Collaborative: 0.2, Popularity: 0.2}, true},
		{"over one", ScoreWeights{Content: 0.6, Collaborative: 0.3, Popularity: 0.2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "v1.0", cfg.Engine.AlgorithmVersion)

	assert.Equal(t, ScoreWeights{Content: 0.5, Collaborative: 0.3, Popularity: 0.2}, cfg.Engine.Weights)
	assert.Equal(t, ScoreWeights{Content: 0.3, Collaborative: 0.2, Popularity: 0.5}, cfg.Engine.ColdStartWeights)
	assert.Equal(t, 0.3, cfg.Engine.ColdStartThreshold)
	assert.Equal(t, 3, cfg.Engine.CandidateOverFetch)

	assert.Equal(t, 0.8, cfg.Engine.Similarity.Threshold)
	assert.Equal(t, 10, cfg.Engine.Similarity.DefaultLimit)
	assert.Equal(t, 512, cfg.Engine.Similarity.Dimensions)

	assert.Equal(t, "artwork-feedback", cfg.Kafka.Topics.Feedback)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_RejectsInvalidWeights(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("engine.weights.content", 0.9)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1.0")
}
