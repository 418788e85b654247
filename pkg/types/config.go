// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "chatbundle/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ResolveConfig holds settings for the asset resolution stage.
type ResolveConfig struct {
	// MaxConcurrent caps in-flight fetches. Zero means one goroutine per asset.
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent" mapstructure:"max_concurrent"`

	// RequestsPerSecond throttles remote fetches. Zero disables throttling.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// MaxAssetBytes rejects assets larger than this many bytes (default 32 MiB).
	MaxAssetBytes int64 `json:"max_asset_bytes" yaml:"max_asset_bytes" mapstructure:"max_asset_bytes"`

	// MaxRetries is the number of retries on HTTP 429/503 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// HeadersDir holds one file per extra request header (e.g. "Cookie").
	HeadersDir string `json:"headers_dir" yaml:"headers_dir" mapstructure:"headers_dir"`
}

// RenderConfig holds typesetting settings for the Typst document.
type RenderConfig struct {
	// Font is the body font family (default "NanumGothic").
	Font string `json:"font" yaml:"font" mapstructure:"font"`

	// Lang is the text language code (default "ko").
	Lang string `json:"lang" yaml:"lang" mapstructure:"lang"`

	// Paper is the page size (default "a4").
	Paper string `json:"paper" yaml:"paper" mapstructure:"paper"`

	// ImageWidth is the relative width of embedded images (default "80%").
	ImageWidth string `json:"image_width" yaml:"image_width" mapstructure:"image_width"`
}

// CompileEngine selects how the sandbox runs the Typst compiler.
type CompileEngine string

const (
	EngineCLI       CompileEngine = "cli"
	EngineContainer CompileEngine = "container"
)

// CompileConfig holds settings for the compilation relay.
type CompileConfig struct {
	// Timeout bounds a single compile call (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Engine selects the compiler backend: cli or container.
	Engine CompileEngine `json:"engine" yaml:"engine" mapstructure:"engine"`

	// Loader is the compiler binary for the cli engine (default "typst").
	Loader string `json:"loader" yaml:"loader" mapstructure:"loader"`

	// Image is the container image for the container engine.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// FontPath is an optional font file registered with each compile.
	FontPath string `json:"font_path,omitempty" yaml:"font_path,omitempty" mapstructure:"font_path"`

	// Disabled skips compilation; the bundle then carries a diagnostic instead of a PDF.
	Disabled bool `json:"disabled" yaml:"disabled" mapstructure:"disabled"`
}

// ExportConfig holds settings for bundle assembly.
type ExportConfig struct {
	// OutDir is where bundle archives are written (default "exports").
	OutDir string `json:"out_dir" yaml:"out_dir" mapstructure:"out_dir"`
}

// HistoryConfig holds settings for the export history store.
type HistoryConfig struct {
	// DBPath is the SQLite database file (default "exports/history.db").
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`

	// MaxResults is the default number of rows listed (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// Config groups all stage configurations.
type Config struct {
	HTTP    HTTPConfig    `json:"http" yaml:"http" mapstructure:"http"`
	Resolve ResolveConfig `json:"resolve" yaml:"resolve" mapstructure:"resolve"`
	Render  RenderConfig  `json:"render" yaml:"render" mapstructure:"render"`
	Compile CompileConfig `json:"compile" yaml:"compile" mapstructure:"compile"`
	Export  ExportConfig  `json:"export" yaml:"export" mapstructure:"export"`
	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}
