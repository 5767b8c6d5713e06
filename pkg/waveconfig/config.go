// Package waveconfig loads the proxy's YAML configuration into the
// strongly typed option structs the codec and logging layers expect, using github.com/elastic/go-ucfg the way the rest of this
// codebase's configuration tree is built.
package waveconfig

import (
	"fmt"

	"github.com/elastic/go-ucfg"
	"github.com/elastic/go-ucfg/yaml"

	"github.com/yourusername/wavecodec/pkg/codec"
	"github.com/yourusername/wavecodec/pkg/wavelog"
)

// Config wraps a ucfg.Config, adding the lookups waveproxy needs on top
// of plain Unpack: existence checks and scoped child access.
type Config struct {
	conf *ucfg.Config
}

// New wraps an already-parsed ucfg.Config.
func New(conf *ucfg.Config) *Config {
	return &Config{conf: conf}
}

// Has reports whether the dotted path exists anywhere in the tree.
func (c *Config) Has(path string) bool {
	ok, err := c.conf.Has(path, -1)
	if err != nil {
		return false
	}
	return ok
}

// Child returns the sub-tree rooted at path.
func (c *Config) Child(path string) (*Config, error) {
	child, err := c.conf.Child(path, -1)
	if err != nil {
		return nil, err
	}
	return &Config{conf: child}, nil
}

// Unpack decodes the whole tree into to.
func (c *Config) Unpack(to any) error {
	return c.conf.Unpack(to)
}

// UnpackChild decodes the sub-tree at path into to.
func (c *Config) UnpackChild(path string, to any) error {
	child, err := c.conf.Child(path, -1)
	if err != nil {
		return err
	}
	return child.Unpack(to)
}

// Enabled reports the boolean at "<path>.enabled", defaulting to false.
func (c *Config) Enabled(path string) bool {
	ok, err := c.conf.Bool(fmt.Sprintf("%s.enabled", path), -1)
	if err != nil {
		return false
	}
	return ok
}

// LoadPath reads and parses a YAML config file from disk.
func LoadPath(path string) (*Config, error) {
	conf, err := yaml.NewConfigWithFile(path, ucfg.PathSep("."))
	if err != nil {
		return nil, err
	}
	return New(conf), nil
}

// LoadContent parses YAML config already held in memory.
func LoadContent(b []byte) (*Config, error) {
	conf, err := yaml.NewConfig(b, ucfg.PathSep("."))
	if err != nil {
		return nil, err
	}
	return New(conf), nil
}

// ProxyConfig is the top-level shape waveproxy unpacks its config file
// into: one listen address, the decoder/aggregator limits the codec
// enforces, and the ambient logging options.
type ProxyConfig struct {
	ListenAddr string `config:"listen_addr"`
	Upstream   string `config:"upstream"`

	Decoder    DecoderOptions    `config:"decoder"`
	Aggregator AggregatorOptions `config:"aggregator"`
	Logging    wavelog.Options   `config:"logging"`
}

// DecoderOptions mirrors codec.DecoderConfig for YAML unpacking; Apply
// copies the positive limit fields onto a codec.DecoderConfig seeded with
// defaults. ValidateHeaders is always copied, so leaving it unset turns
// header validation off.
type DecoderOptions struct {
	MaxInitialLineLength int  `config:"max_initial_line_length"`
	MaxHeaderSize        int  `config:"max_header_size"`
	MaxChunkSize         int  `config:"max_chunk_size"`
	ValidateHeaders      bool `config:"validate_headers"`
}

// Apply overlays o onto codec's default decoder configuration.
func (o DecoderOptions) Apply() codec.DecoderConfig {
	cfg := codec.DefaultDecoderConfig()
	if o.MaxInitialLineLength > 0 {
		cfg.MaxInitialLineLength = o.MaxInitialLineLength
	}
	if o.MaxHeaderSize > 0 {
		cfg.MaxHeaderSize = o.MaxHeaderSize
	}
	if o.MaxChunkSize > 0 {
		cfg.MaxChunkSize = o.MaxChunkSize
	}
	cfg.ValidateHeaders = o.ValidateHeaders
	return cfg
}

// AggregatorOptions mirrors codec.AggregatorConfig for YAML unpacking.
type AggregatorOptions struct {
	MaxContentLength    int64 `config:"max_content_length"`
	CloseOnExpectFailed bool  `config:"close_on_expectation_failed"`
}

// Apply overlays o onto codec's default aggregator configuration.
func (o AggregatorOptions) Apply() codec.AggregatorConfig {
	cfg := codec.DefaultAggregatorConfig()
	if o.MaxContentLength > 0 {
		cfg.MaxContentLength = o.MaxContentLength
	}
	cfg.CloseOnExpectationFailed = o.CloseOnExpectFailed
	return cfg
}
