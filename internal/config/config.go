// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件与环境变量加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	LLM      LLMConfig      `mapstructure:"llm"`
	ETL      ETLConfig      `mapstructure:"etl"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。Addr 为空时禁用对话历史缓存。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// LLMConfig 存储大语言模型相关的配置。
// APIKey 为空时客户端降级为固定回复，不发起网络请求。
type LLMConfig struct {
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Model      string              `mapstructure:"model"`
	Generation LLMGenerationConfig `mapstructure:"generation"`
}

// LLMGenerationConfig 配置生成相关参数。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// ETLConfig 存储 CSV 批量导入工具的配置。
type ETLConfig struct {
	CSVDir   string `mapstructure:"csv_dir"`
	RowLimit int    `mapstructure:"row_limit"`
}

// Init 初始化配置加载。优先级：环境变量 > YAML 配置文件 > 默认值。
// 配置文件缺失不视为错误；数据库 DSN 缺失由调用方视为致命错误。
func Init(configPath string) {
	setDefaults()
	bindEnvs()

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	// 配置文件是可选的：纯环境变量部署（如容器）不需要它
	_ = viper.ReadInConfig()

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("database.redis.db", 0)
	viper.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("llm.model", "llama3-8b-8192")
	viper.SetDefault("llm.generation.temperature", 0.7)
	viper.SetDefault("llm.generation.max_tokens", 200)
	viper.SetDefault("etl.csv_dir", "./data")
	viper.SetDefault("etl.row_limit", 150)
}

// bindEnvs 将扁平的环境变量名绑定到嵌套的配置键上。
func bindEnvs() {
	_ = viper.BindEnv("server.port", "PORT")
	_ = viper.BindEnv("server.mode", "GIN_MODE")
	_ = viper.BindEnv("database.mysql.dsn", "MYSQL_DSN")
	_ = viper.BindEnv("database.redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("database.redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("database.redis.db", "REDIS_DB")
	_ = viper.BindEnv("log.level", "LOG_LEVEL")
	_ = viper.BindEnv("log.format", "LOG_FORMAT")
	_ = viper.BindEnv("llm.api_key", "GROQ_API_KEY")
	_ = viper.BindEnv("llm.base_url", "LLM_BASE_URL")
	_ = viper.BindEnv("llm.model", "LLM_MODEL")
	_ = viper.BindEnv("etl.csv_dir", "CSV_DIR")
	_ = viper.BindEnv("etl.row_limit", "CSV_ROW_LIMIT")
}
