package config

import (
	"bytes"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// Read reads a config from the given file. Environment variables referenced as ${NAME} are
// substituted before parsing. Comments and trailing commas are allowed.
func Read(filePath string) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %q", filePath)
	}
	cfg, err := FromReader(bytes.NewReader(buf))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %q", filePath)
	}
	return cfg, nil
}

// FromReader reads a config from the given reader. No substitution takes place.
func FromReader(r io.Reader) (*Config, error) {
	var cfg Config
	if err := json5.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Overrides holds values set on the command line. Unset fields leave the file's values alone.
type Overrides struct {
	InputPath          string
	OutputPath         string
	ReferenceCamera    string
	PoseFileName       string
	Matcher            string
	Binary             string
	LogFile            string
	LogLevel           string
	EstimateIntrinsics bool
	UseGPU             bool
	Debug              bool
}

// Apply copies every set override onto c.
func (o Overrides) Apply(c *Config) {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setString(&c.InputPath, o.InputPath)
	setString(&c.OutputPath, o.OutputPath)
	setString(&c.ReferenceCamera, o.ReferenceCamera)
	setString(&c.PoseFileName, o.PoseFileName)
	setString(&c.Engine.Matcher, o.Matcher)
	setString(&c.Engine.Binary, o.Binary)
	setString(&c.LogFile, o.LogFile)
	setString(&c.LogLevel, o.LogLevel)
	c.EstimateIntrinsics = c.EstimateIntrinsics || o.EstimateIntrinsics
	c.Engine.UseGPU = c.Engine.UseGPU || o.UseGPU
	c.Debug = c.Debug || o.Debug
}
