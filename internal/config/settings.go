package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
}

func (d DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Name)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AssistantKeysObj struct {
	OpenAiApiKey string `mapstructure:"open_ai_api_key"`
	Model        string `mapstructure:"model"`
}

type SchedulerConfig struct {
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	BatchLimit     int           `mapstructure:"batch_limit"`
	Workers        int           `mapstructure:"workers"`
	QueueSize      int           `mapstructure:"queue_size"`
	StuckThreshold time.Duration `mapstructure:"stuck_threshold"`
	GracePeriod    time.Duration `mapstructure:"grace_period"`
	AgentTimeout   time.Duration `mapstructure:"agent_timeout"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type Settings struct {
	DB            DBConfig         `mapstructure:"database"`
	Redis         RedisConfig      `mapstructure:"redis"`
	AssistantKeys AssistantKeysObj `mapstructure:"assistantKeys"`
	Scheduler     SchedulerConfig  `mapstructure:"scheduler"`
	Server        ServerConfig     `mapstructure:"server"`
	Env           string           `mapstructure:"env"`
	Debug         bool             `mapstructure:"debug" default:"false"`
}

func Load() (*Settings, error) {
	// Load settings from a configuration file or environment variables
	viper.SetConfigName("config_" + genEnv())
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var settings Settings
	if err := viper.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &settings, nil
}

func genEnv() string {
	env := viper.GetString("ENV")
	if env == "" {
		return "dev"
	}
	return env
}
