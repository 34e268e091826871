package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/lsmkit/tablebuilder/pkg/log"
)

// Conf is the global configuration instance.
var Conf AppConfig

// --- configuration key names ---
const (
	KeyLogFilename   = "log.filename"
	KeyLogLevel      = "log.level"
	KeyLogMaxSize    = "log.max_size"
	KeyLogMaxBackups = "log.max_backups"
	KeyLogMaxAge     = "log.max_age"
	KeyLogCompress   = "log.compress"
	KeyLogConsole    = "log.console"

	KeyTableBlockSize            = "table.block_size"
	KeyTableBlockRestartInterval = "table.block_restart_interval"
	KeyTableCompression          = "table.compression"
	KeyTableFilterBitsPerKey     = "table.filter_bits_per_key"
	KeyTableOutputDir            = "table.output_dir"
)

// --- default values ---
const (
	DefaultLogFilename   = "sstbuild.log"
	DefaultLogLevel      = "info"
	DefaultLogMaxSize    = 100 // MB
	DefaultLogMaxBackups = 5
	DefaultLogMaxAge     = 30 // days

	DefaultTableBlockSize            = 4096
	DefaultTableBlockRestartInterval = 16
	DefaultTableCompression          = "snappy"
	DefaultTableFilterBitsPerKey     = 10
	DefaultTableOutputDir            = "./data/sst"
)

// AppConfig is the top-level configuration struct.
type AppConfig struct {
	Log   log.Config  `mapstructure:"log"`
	Table TableConfig `mapstructure:"table"`
}

// TableConfig holds the parameters used to build table.Options.
type TableConfig struct {
	BlockSize            int    `mapstructure:"block_size"`
	BlockRestartInterval int    `mapstructure:"block_restart_interval"`
	Compression          string `mapstructure:"compression"`
	FilterBitsPerKey     int    `mapstructure:"filter_bits_per_key"`
	OutputDir            string `mapstructure:"output_dir"`
}

// Init loads configuration from configPath (if non-empty) over a set of
// defaults, then initializes logging and watches the file for changes.
func Init(configPath string) error {
	setDefaults()

	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		log.Info("No config file provided, using default values.")
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	log.Init(Conf.Log)
	log.Info("Config loaded successfully")

	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Infof("Config file changed: %s", e.Name)
		if err := viper.Unmarshal(&Conf); err != nil {
			log.Errorf("Failed to re-unmarshal config: %v", err)
			return
		}
		log.Init(Conf.Log)
		log.Info("Config reloaded and applied")
	})

	return nil
}

func setDefaults() {
	viper.SetDefault(KeyLogFilename, DefaultLogFilename)
	viper.SetDefault(KeyLogLevel, DefaultLogLevel)
	viper.SetDefault(KeyLogMaxSize, DefaultLogMaxSize)
	viper.SetDefault(KeyLogMaxBackups, DefaultLogMaxBackups)
	viper.SetDefault(KeyLogMaxAge, DefaultLogMaxAge)
	viper.SetDefault(KeyLogCompress, true)
	viper.SetDefault(KeyLogConsole, true)

	viper.SetDefault(KeyTableBlockSize, DefaultTableBlockSize)
	viper.SetDefault(KeyTableBlockRestartInterval, DefaultTableBlockRestartInterval)
	viper.SetDefault(KeyTableCompression, DefaultTableCompression)
	viper.SetDefault(KeyTableFilterBitsPerKey, DefaultTableFilterBitsPerKey)
	viper.SetDefault(KeyTableOutputDir, DefaultTableOutputDir)
}

// GetConfig returns a copy of the loaded configuration.
func GetConfig() AppConfig {
	return Conf
}
