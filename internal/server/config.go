package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"raspguard/internal/detection"
	"raspguard/internal/policy"
)

// Config holds server configuration. Values come from defaults, then the
// optional YAML file named by RASP_CONFIG_FILE, then environment variables.
type Config struct {
	HTTPAddr                string `yaml:"http_addr"`
	GRPCAddr                string `yaml:"grpc_addr"`
	MetricsAddr             string `yaml:"metrics_addr"`
	EngineMode              string `yaml:"engine_mode"`
	BlockOnDetection        bool   `yaml:"block_on_detection"`
	BlockOnBudgetExhaustion bool   `yaml:"block_on_budget_exhaustion"`
	MaxScanChars            int    `yaml:"max_scan_chars"`
	CSPReportOnly           bool   `yaml:"csp_report_only"`
	CSPReportURI            string `yaml:"csp_report_uri"`
	LogLevel                string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:                ":8080",
		GRPCAddr:                ":9000",
		MetricsAddr:             ":9090",
		EngineMode:              string(detection.ModeComposite),
		BlockOnDetection:        true,
		BlockOnBudgetExhaustion: true,
		MaxScanChars:            256 * 1024,
		CSPReportOnly:           true,
		LogLevel:                "info",
	}
}

// LoadConfig builds a Config from the YAML file and environment.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv("RASP_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.HTTPAddr = getEnv("RASP_HTTP_ADDR", c.HTTPAddr)
	c.GRPCAddr = getEnv("RASP_GRPC_ADDR", c.GRPCAddr)
	c.MetricsAddr = getEnv("RASP_METRICS_ADDR", c.MetricsAddr)
	c.EngineMode = getEnv("RASP_ENGINE_MODE", c.EngineMode)
	c.CSPReportURI = getEnv("RASP_CSP_REPORT_URI", c.CSPReportURI)
	c.LogLevel = getEnv("RASP_LOG_LEVEL", c.LogLevel)

	var err error
	if c.BlockOnDetection, err = getEnvBool("RASP_BLOCK_ON_DETECTION", c.BlockOnDetection); err != nil {
		return err
	}
	if c.BlockOnBudgetExhaustion, err = getEnvBool("RASP_BLOCK_ON_BUDGET_EXHAUSTION", c.BlockOnBudgetExhaustion); err != nil {
		return err
	}
	if c.CSPReportOnly, err = getEnvBool("RASP_CSP_REPORT_ONLY", c.CSPReportOnly); err != nil {
		return err
	}
	if v := os.Getenv("RASP_MAX_SCAN_CHARS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RASP_MAX_SCAN_CHARS: %w", err)
		}
		c.MaxScanChars = n
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if _, err := detection.ParseMode(c.EngineMode); err != nil {
		errs = append(errs, err)
	}
	if c.MaxScanChars <= 0 {
		errs = append(errs, fmt.Errorf("max_scan_chars must be positive, got %d", c.MaxScanChars))
	}
	if c.CSPReportURI != "" {
		if _, err := url.Parse(c.CSPReportURI); err != nil {
			errs = append(errs, fmt.Errorf("csp_report_uri: %w", err))
		}
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Policy returns the blocking configuration.
func (c *Config) Policy() policy.Config {
	return policy.Config{
		BlockOnDetection:        c.BlockOnDetection,
		BlockOnBudgetExhaustion: c.BlockOnBudgetExhaustion,
	}
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvBool(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}
