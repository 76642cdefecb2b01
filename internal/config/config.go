package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/inferloop/pricecast/internal/model"
	"github.com/inferloop/pricecast/internal/training"
	"github.com/inferloop/pricecast/pkg/errors"
)

// Config is the full configuration surface. Every knob has an explicit
// declared default; nothing is defaulted implicitly at the point of use.
type Config struct {
	DataSource DataSourceConfig `mapstructure:"datasource"`
	Data       DataConfig       `mapstructure:"data"`
	Model      model.Config     `mapstructure:"model"`
	Training   training.Config  `mapstructure:"training"`
	Plot       PlotConfig       `mapstructure:"plot"`
}

// DataSourceConfig selects the asset and authenticates the price feed.
type DataSourceConfig struct {
	APIKey string `mapstructure:"api_key"`
	Symbol string `mapstructure:"symbol"`
	Market string `mapstructure:"market"`
}

// DataConfig controls windowing and the chronological split.
type DataConfig struct {
	WindowSize int     `mapstructure:"window_size"`
	TrainSplit float64 `mapstructure:"train_split"`
	Seed       int64   `mapstructure:"seed"`
}

// PlotConfig controls how much trailing context the chart carries.
type PlotConfig struct {
	Range int `mapstructure:"range"`
}

// Load reads configuration from an optional yaml file plus PRICECAST_*
// environment overrides, on top of the declared defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("pricecast")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("PRICECAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.WrapError(err, errors.ErrorTypeConfig, errors.CodeInvalidConfig,
				"error reading config file")
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeConfig, errors.CodeInvalidConfig,
			"error unmarshaling config")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("datasource.api_key", "")
	v.SetDefault("datasource.symbol", "ETH")
	v.SetDefault("datasource.market", "USD")

	v.SetDefault("data.window_size", 20)
	v.SetDefault("data.train_split", 0.80)
	v.SetDefault("data.seed", 0)

	v.SetDefault("model.input_size", 1)
	v.SetDefault("model.hidden_size", 32)
	v.SetDefault("model.num_layers", 2)
	v.SetDefault("model.dropout", 0.2)
	v.SetDefault("model.seed", 0)

	v.SetDefault("training.epochs", 100)
	v.SetDefault("training.batch_size", 64)
	v.SetDefault("training.learning_rate", 0.01)
	v.SetDefault("training.scheduler_step_size", 40)
	v.SetDefault("training.scheduler_gamma", 0.1)
	v.SetDefault("training.adam_beta1", 0.9)
	v.SetDefault("training.adam_beta2", 0.98)
	v.SetDefault("training.adam_epsilon", 1e-9)
	v.SetDefault("training.device", "cpu")

	v.SetDefault("plot.range", 10)
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.DataSource.Symbol == "" {
		return errors.NewConfigError(errors.CodeInvalidConfig, "datasource symbol is required")
	}
	if c.DataSource.Market == "" {
		return errors.NewConfigError(errors.CodeInvalidConfig, "datasource market is required")
	}
	if c.Data.WindowSize <= 0 {
		return errors.NewConfigError(errors.CodeInvalidConfig,
			fmt.Sprintf("window size must be positive, got %d", c.Data.WindowSize))
	}
	if c.Data.TrainSplit <= 0 || c.Data.TrainSplit >= 1 {
		return errors.NewConfigError(errors.CodeInvalidConfig,
			fmt.Sprintf("train split must be in (0, 1), got %g", c.Data.TrainSplit))
	}
	if c.Training.Epochs <= 0 {
		return errors.NewConfigError(errors.CodeInvalidConfig,
			fmt.Sprintf("epoch count must be positive, got %d", c.Training.Epochs))
	}
	if c.Training.BatchSize <= 0 {
		return errors.NewConfigError(errors.CodeInvalidConfig,
			fmt.Sprintf("batch size must be positive, got %d", c.Training.BatchSize))
	}
	if c.Training.LearningRate <= 0 {
		return errors.NewConfigError(errors.CodeInvalidConfig,
			fmt.Sprintf("learning rate must be positive, got %g", c.Training.LearningRate))
	}
	if c.Plot.Range <= 1 {
		return errors.NewConfigError(errors.CodeInvalidConfig,
			fmt.Sprintf("plot range must exceed 1, got %d", c.Plot.Range))
	}
	return nil
}
