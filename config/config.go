// Package config loads optional CLI defaults from a YAML file, in the same
// viper-plus-yaml.v3 shape the teacher uses for training configuration
// (tabular/reinforcement/learning.go's FromYaml/OuterConfig): an outer
// "kind"/"def" envelope whose "def" is re-marshaled and decoded into the
// concrete RunConfig, so future config kinds can share one file format
// without redefining the outer shape.
package config

import (
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// OuterConfig is the wrapped envelope every config file is parsed as first,
// mirroring the teacher's OuterConfig: Kind names the config's shape, Def
// holds the shape-specific payload to be re-marshaled into RunConfig.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// RunConfig supplies default values for flags the CLI does not otherwise
// require (spec.md §6): a config file lets a network's usual simulation
// parameters live alongside its data files instead of being retyped on
// every invocation.
type RunConfig struct {
	Seed      *uint64 `yaml:"seed"`
	Samples   *int    `yaml:"samples"`
	Algorithm *string `yaml:"algorithm"`
	Repeats   *int    `yaml:"repeats"`
}

// FromYaml reads path as an OuterConfig and decodes its "def" payload into a
// RunConfig, in the same two-stage viper-then-yaml decode the teacher uses
// (viper for the outer envelope, yaml.v3 for the concrete one).
func FromYaml(path string) (*RunConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return nil, err
	}

	outer := &OuterConfig{}
	if err := vp.Unmarshal(outer); err != nil {
		return nil, err
	}

	spec, err := yaml.Marshal(outer.Def)
	if err != nil {
		return nil, err
	}

	inner := &RunConfig{}
	if err := yaml.Unmarshal(spec, inner); err != nil {
		return nil, err
	}
	return inner, nil
}
