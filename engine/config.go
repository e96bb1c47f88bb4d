package engine

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/cognilex/asi/extract"
	"github.com/cognilex/asi/interpret"
	"github.com/cognilex/asi/similarity"
)

// Thresholds groups the tunable decision thresholds. Defaults match the
// validated behavior and should only be changed deliberately.
type Thresholds struct {
	// Merge is the similarity above which integration merges instead of adds.
	Merge float64 `mapstructure:"merge"`
	// Interpretability is the score below which compression should run.
	Interpretability float64 `mapstructure:"interpretability"`
	// Usage is the usage-rate below which a concept is compression-eligible.
	Usage float64 `mapstructure:"usage"`
	// ClusterSimilarity is the looser threshold used when clustering.
	ClusterSimilarity float64 `mapstructure:"cluster_similarity"`
	// Validation is the local score at which rendered text is valid.
	Validation float64 `mapstructure:"validation"`
}

// ScopeConfig declares the required and prohibited elements for one scope tag.
type ScopeConfig struct {
	Required   []interpret.Element `mapstructure:"required"`
	Prohibited []string            `mapstructure:"prohibited"`
}

// Config is the engine configuration: rules, scopes, thresholds and weights.
type Config struct {
	Scope             []string               `mapstructure:"scope"`
	Thresholds        Thresholds             `mapstructure:"thresholds"`
	ScoreWeights      interpret.Weights      `mapstructure:"score_weights"`
	SimilarityWeights similarity.Weights     `mapstructure:"similarity_weights"`
	Extraction        extract.Config         `mapstructure:"extraction"`
	Scopes            map[string]ScopeConfig `mapstructure:"scopes"`
	RuleSets          []extract.RuleSet      `mapstructure:"rule_sets"`
}

// DefaultConfig returns a configuration with every documented default and no
// rules or scopes registered.
func DefaultConfig() *Config {
	return &Config{
		Thresholds: Thresholds{
			Merge:             0.90,
			Interpretability:  0.95,
			Usage:             0.02,
			ClusterSimilarity: 0.85,
			Validation:        0.80,
		},
		ScoreWeights:      interpret.DefaultWeights,
		SimilarityWeights: similarity.DefaultWeights,
		Extraction:        extract.DefaultConfig(),
		Scopes:            make(map[string]ScopeConfig),
	}
}

// LoadConfig reads a YAML configuration file on top of the defaults and
// compiles every rule set.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}

	if err := cfg.Compile(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Compile compiles rule patterns and guards and validates the configuration.
func (c *Config) Compile() error {
	for i := range c.RuleSets {
		if err := c.RuleSets[i].Compile(); err != nil {
			return err
		}
	}
	for _, tag := range c.Scope {
		if _, ok := c.Scopes[tag]; !ok {
			return errors.Errorf("store scope %q has no scope configuration", tag)
		}
	}
	return nil
}
