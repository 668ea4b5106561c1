// Package config provides configuration management for the exam paper generator.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"paperify/internal/logger"
	"paperify/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "paperify-config.json"
	// EnvPrefix is the prefix of environment variables overriding file values,
	// e.g. PAPERIFY_RTL_FONT_PATH
	EnvPrefix = "PAPERIFY"
	// DefaultRTLSizeDelta is the point size added to RTL runs
	DefaultRTLSizeDelta = 2.0
	// DefaultWrapColumns is the character budget of one question line
	DefaultWrapColumns = 85
	// DefaultBackupKeep is the number of CSV backups kept per file
	DefaultBackupKeep = 5
	// DefaultLogFile is the default log file name
	DefaultLogFile = "paperify.log"
	// DefaultLogLevel is the default log level
	DefaultLogLevel = "info"
)

// DefaultRTLFontFamilies is the fallback list of RTL-capable font families,
// in priority order.
var DefaultRTLFontFamilies = []string{"Arial", "Segoe UI", "Tahoma", "Noto Naskh Arabic", "DejaVu Sans"}

// ConfigManager manages application configuration
type ConfigManager struct {
	configPath string
	v          *viper.Viper
	config     *types.Config
	session    sessionValues
}

// sessionValues holds the persisted value of each field overridden for the
// running session only. Save writes these instead of the overrides.
type sessionValues struct {
	rtlFont  *string
	bodyFont *string
	wrap     *int
}

// NewConfigManager creates a new ConfigManager with the specified config path.
// If configPath is empty, it uses the default path in user's home directory.
func NewConfigManager(configPath string) (*ConfigManager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to get user home directory", err)
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "paperify", DefaultConfigFileName)
	}

	logger.Info("ConfigManager initialized", logger.String("configPath", configPath))
	return &ConfigManager{
		configPath: configPath,
		v:          newViper(configPath),
		config:     defaultConfig(),
	}, nil
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := defaultConfig()
	v.SetDefault("body_font_path", d.BodyFontPath)
	v.SetDefault("bold_font_path", d.BoldFontPath)
	v.SetDefault("rtl_font_path", d.RTLFontPath)
	v.SetDefault("rtl_font_families", d.RTLFontFamilies)
	v.SetDefault("font_dirs", d.FontDirs)
	v.SetDefault("shaping_enabled", d.ShapingEnabled)
	v.SetDefault("rtl_size_delta", d.RTLSizeDelta)
	v.SetDefault("wrap_columns", d.WrapColumns)
	v.SetDefault("validate_output", d.ValidateOutput)
	v.SetDefault("work_directory", d.WorkDirectory)
	v.SetDefault("backup_dir", d.BackupDir)
	v.SetDefault("backup_keep", d.BackupKeep)
	v.SetDefault("history_dir", d.HistoryDir)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("last_exam_file", d.LastExamFile)
	return v
}

// defaultConfig returns a Config with default values
func defaultConfig() *types.Config {
	return &types.Config{
		RTLFontFamilies: append([]string(nil), DefaultRTLFontFamilies...),
		ShapingEnabled:  true,
		RTLSizeDelta:    DefaultRTLSizeDelta,
		WrapColumns:     DefaultWrapColumns,
		ValidateOutput:  true,
		BackupKeep:      DefaultBackupKeep,
		LogFile:         DefaultLogFile,
		LogLevel:        DefaultLogLevel,
	}
}

// Load loads configuration from the config file.
// If the file doesn't exist, it uses default values. PAPERIFY_* environment
// variables take precedence over file values.
func (m *ConfigManager) Load() error {
	logger.Debug("loading configuration", logger.String("path", m.configPath))

	if _, err := os.Stat(m.configPath); err != nil {
		if !os.IsNotExist(err) {
			logger.Error("failed to stat config file", err, logger.String("path", m.configPath))
			return types.NewAppError(types.ErrConfig, "failed to read config file", err)
		}
		logger.Info("config file not found, using defaults", logger.String("path", m.configPath))
	} else if err := m.v.ReadInConfig(); err != nil {
		// Invalid JSON, use defaults
		logger.Warn("invalid config file format, using defaults", logger.String("path", m.configPath), logger.Err(err))
		m.v = newViper(m.configPath)
	}

	config := &types.Config{}
	if err := m.v.Unmarshal(config); err != nil {
		logger.Error("failed to decode config", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to decode config", err)
	}
	m.config = config
	m.session = sessionValues{}
	m.applyDefaults()

	logger.Info("configuration loaded",
		logger.String("path", m.configPath),
		logger.String("rtlFont", m.config.RTLFontPath),
		logger.Bool("shaping", m.config.ShapingEnabled),
		logger.Int("wrapColumns", m.config.WrapColumns))
	return nil
}

// applyDefaults fills fields a partial config file left empty
func (m *ConfigManager) applyDefaults() {
	if m.config.RTLSizeDelta <= 0 {
		m.config.RTLSizeDelta = DefaultRTLSizeDelta
	}
	if m.config.WrapColumns <= 0 {
		m.config.WrapColumns = DefaultWrapColumns
	}
	if m.config.BackupKeep <= 0 {
		m.config.BackupKeep = DefaultBackupKeep
	}
	if len(m.config.RTLFontFamilies) == 0 {
		m.config.RTLFontFamilies = append([]string(nil), DefaultRTLFontFamilies...)
	}
	if m.config.LogFile == "" {
		m.config.LogFile = DefaultLogFile
	}
	if m.config.LogLevel == "" {
		m.config.LogLevel = DefaultLogLevel
	}
}

// Save saves the current configuration to the config file.
func (m *ConfigManager) Save() error {
	logger.Debug("saving configuration", logger.String("path", m.configPath))

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("failed to create config directory", err, logger.String("dir", dir))
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(m.persistent(), "", "  ")
	if err != nil {
		logger.Error("failed to marshal config", err)
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		logger.Error("failed to write config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}

	logger.Info("configuration saved successfully", logger.String("path", m.configPath))
	return nil
}

// persistent returns the configuration as it should be written to disk,
// with session overrides replaced by the values they shadow.
func (m *ConfigManager) persistent() *types.Config {
	c := *m.GetConfig()
	if m.session.rtlFont != nil {
		c.RTLFontPath = *m.session.rtlFont
	}
	if m.session.bodyFont != nil {
		c.BodyFontPath = *m.session.bodyFont
	}
	if m.session.wrap != nil {
		c.WrapColumns = *m.session.wrap
	}
	return &c
}

// GetConfig returns the current configuration.
func (m *ConfigManager) GetConfig() *types.Config {
	if m.config == nil {
		return defaultConfig()
	}
	return m.config
}

// SetConfig sets the entire configuration.
func (m *ConfigManager) SetConfig(config *types.Config) {
	m.config = config
	m.session = sessionValues{}
}

// GetConfigPath returns the path to the config file.
func (m *ConfigManager) GetConfigPath() string {
	return m.configPath
}

// GetRTLFontPath returns the configured RTL font file, or "" to use discovery.
func (m *ConfigManager) GetRTLFontPath() string {
	return m.GetConfig().RTLFontPath
}

// SetRTLFontPath overrides the RTL font file for this session. Save keeps
// writing the previously persisted value.
func (m *ConfigManager) SetRTLFontPath(path string) {
	if m.config == nil {
		m.config = defaultConfig()
	}
	if m.session.rtlFont == nil {
		prev := m.config.RTLFontPath
		m.session.rtlFont = &prev
	}
	m.config.RTLFontPath = path
}

// SetBodyFontPath overrides the body font file for this session.
func (m *ConfigManager) SetBodyFontPath(path string) {
	if m.config == nil {
		m.config = defaultConfig()
	}
	if m.session.bodyFont == nil {
		prev := m.config.BodyFontPath
		m.session.bodyFont = &prev
	}
	m.config.BodyFontPath = path
}

// GetWrapColumns returns the question line character budget.
func (m *ConfigManager) GetWrapColumns() int {
	if c := m.GetConfig(); c.WrapColumns > 0 {
		return c.WrapColumns
	}
	return DefaultWrapColumns
}

// SetWrapColumns overrides the question line character budget for this
// session.
func (m *ConfigManager) SetWrapColumns(columns int) {
	if m.config == nil {
		m.config = defaultConfig()
	}
	if m.session.wrap == nil {
		prev := m.config.WrapColumns
		m.session.wrap = &prev
	}
	m.config.WrapColumns = columns
}

// GetRTLSizeDelta returns the point size added to RTL runs.
func (m *ConfigManager) GetRTLSizeDelta() float64 {
	if c := m.GetConfig(); c.RTLSizeDelta > 0 {
		return c.RTLSizeDelta
	}
	return DefaultRTLSizeDelta
}

// GetLogLevel returns the configured log level.
func (m *ConfigManager) GetLogLevel() logger.Level {
	return logger.ParseLevel(m.GetConfig().LogLevel)
}

// GetLastExamFile returns the most recently saved or loaded exam file.
func (m *ConfigManager) GetLastExamFile() string {
	return m.GetConfig().LastExamFile
}

// SetLastExamFile records the last exam file and saves the configuration.
func (m *ConfigManager) SetLastExamFile(path string) {
	if m.config == nil {
		m.config = defaultConfig()
	}
	m.config.LastExamFile = path
	// Save silently, don't fail if it doesn't work
	_ = m.Save()
}
