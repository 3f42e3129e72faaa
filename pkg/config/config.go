package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Neo4j       Neo4jConfig
	Zilliz      ZillizConfig
	SQLite      SQLiteConfig
	Redis       RedisConfig
	LLM         LLMConfig
	OpenTargets OpenTargetsConfig
	RateLimit   RateLimitConfig
	Logging     LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    int
	WriteTimeout   int
	BodyLimit      int
	MaxQueryLength int
	AllowedOrigins []string
	IsDevelopment  bool
}

type Neo4jConfig struct {
	Enabled  bool
	URI      string
	Username string
	Password string
	Database string
}

// ZillizConfig selects the similarity index. When disabled the seeded corpora
// live in an in-process index.
type ZillizConfig struct {
	Enabled          bool
	Endpoint         string
	APIKey           string
	DrugCollection   string
	TargetCollection string
	VectorDim        int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled    bool
	Host       string
	Port       int
	Password   string
	DB         int
	TTLMinutes int
}

type LLMConfig struct {
	BaseURL        string
	Model          string
	APIKey         string
	Temperature    float32
	MaxTokens      int
	TimeoutSec     int
	EmbeddingModel string
	EmbeddingDim   int
}

type OpenTargetsConfig struct {
	BaseURL            string
	SearchTimeoutSec   int
	EvidenceTimeoutSec int
	MaxRetries         int
	RequestsPerSecond  float64
	Burst              int
}

type RateLimitConfig struct {
	MaxRequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func (c OpenTargetsConfig) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutSec) * time.Second
}

func (c OpenTargetsConfig) EvidenceTimeout() time.Duration {
	return time.Duration(c.EvidenceTimeoutSec) * time.Second
}

func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/bioinsight")

	v.SetEnvPrefix("BIOINSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 360)
	v.SetDefault("server.bodyLimit", 1048576)
	v.SetDefault("server.maxQueryLength", 2000)
	v.SetDefault("server.isDevelopment", false)

	v.SetDefault("neo4j.enabled", false)
	v.SetDefault("neo4j.uri", "bolt://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "password")
	v.SetDefault("neo4j.database", "neo4j")

	v.SetDefault("zilliz.enabled", false)
	v.SetDefault("zilliz.endpoint", "localhost:19530")
	v.SetDefault("zilliz.drugCollection", "drugs")
	v.SetDefault("zilliz.targetCollection", "targets")
	v.SetDefault("zilliz.vectorDim", 768)

	v.SetDefault("sqlite.path", "./data/drug_target.db")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttlMinutes", 60)

	v.SetDefault("llm.baseURL", "http://localhost:11434/v1")
	v.SetDefault("llm.model", "deepseek-r1:1.5b")
	v.SetDefault("llm.apiKey", "ollama")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.maxTokens", 2048)
	v.SetDefault("llm.timeoutSec", 300)
	v.SetDefault("llm.embeddingModel", "nomic-embed-text")
	v.SetDefault("llm.embeddingDim", 768)

	v.SetDefault("openTargets.baseURL", "https://api.platform.opentargets.org/api/v4/graphql")
	v.SetDefault("openTargets.searchTimeoutSec", 10)
	v.SetDefault("openTargets.evidenceTimeoutSec", 15)
	v.SetDefault("openTargets.maxRetries", 3)
	v.SetDefault("openTargets.requestsPerSecond", 5.0)
	v.SetDefault("openTargets.burst", 5)

	v.SetDefault("rateLimit.maxRequestsPerMinute", 60)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
