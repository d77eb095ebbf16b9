// Package config 提供供应商治理服务配置管理
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 服务配置
type Config struct {
	Service    ServiceConfig    `yaml:"service" json:"service"`
	Postgres   PostgresConfig   `yaml:"postgres" json:"postgres"`
	Redis      RedisConfig      `yaml:"redis" json:"redis"`
	Jobs       JobsConfig       `yaml:"jobs" json:"jobs"`
	Governance GovernanceConfig `yaml:"governance" json:"governance"`
	Log        LogConfig        `yaml:"log" json:"log"`
}

// ServiceConfig 服务配置
type ServiceConfig struct {
	Name     string `yaml:"name" json:"name"`
	HTTPPort int    `yaml:"http_port" json:"http_port"` // metrics + health
	Env      string `yaml:"env" json:"env"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	Host                   string `yaml:"host" json:"host"`
	Port                   int    `yaml:"port" json:"port"`
	Database               string `yaml:"database" json:"database"`
	User                   string `yaml:"user" json:"user"`
	Password               string `yaml:"password" json:"password"`
	MaxConnections         int    `yaml:"max_connections" json:"max_connections"`
	MaxIdleConns           int    `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes" json:"conn_max_lifetime_minutes"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	PoolSize int    `yaml:"pool_size" json:"pool_size"`
}

// JobsConfig 定时任务配置
type JobsConfig struct {
	MaxConcurrentJobs    int    `yaml:"max_concurrent_jobs" json:"max_concurrent_jobs"`
	ComplianceScanCron   string `yaml:"compliance_scan_cron" json:"compliance_scan_cron"`
	ComplianceScanOn     bool   `yaml:"compliance_scan_enabled" json:"compliance_scan_enabled"`
	PerformanceCron      string `yaml:"performance_recompute_cron" json:"performance_recompute_cron"`
	PerformanceRecompute bool   `yaml:"performance_recompute_enabled" json:"performance_recompute_enabled"`
}

// GovernanceConfig 治理阈值配置
type GovernanceConfig struct {
	CompliantThreshold  int `yaml:"compliant_threshold" json:"compliant_threshold"`   // 合规分数线
	AtRiskThreshold     int `yaml:"at_risk_threshold" json:"at_risk_threshold"`       // 风险分数线
	ActivationThreshold int `yaml:"activation_threshold" json:"activation_threshold"` // 激活所需最低分
	DuplicateWindowDays int `yaml:"duplicate_window_days" json:"duplicate_window_days"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Load 加载配置
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// 环境变量替换
	content := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return nil, err
	}

	setDefaults(&cfg)

	return &cfg, nil
}

// expandEnvVars 展开环境变量 ${VAR:default}
func expandEnvVars(s string) string {
	result := s
	for {
		start := strings.Index(result, "${")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}")
		if end == -1 {
			break
		}
		end += start

		expr := result[start+2 : end]
		parts := strings.SplitN(expr, ":", 2)
		varName := parts[0]
		defaultVal := ""
		if len(parts) > 1 {
			defaultVal = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			value = defaultVal
		}

		result = result[:start] + value + result[end+1:]
	}
	return result
}

// setDefaults 设置默认值
func setDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = "vendor-core"
	}
	if cfg.Service.HTTPPort == 0 {
		cfg.Service.HTTPPort = 8080
	}
	if cfg.Service.Env == "" {
		cfg.Service.Env = "dev"
	}

	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = 5432
	}
	if cfg.Postgres.MaxConnections == 0 {
		cfg.Postgres.MaxConnections = 20
	}
	if cfg.Postgres.MaxIdleConns == 0 {
		cfg.Postgres.MaxIdleConns = 5
	}
	if cfg.Postgres.ConnMaxLifetimeMinutes == 0 {
		cfg.Postgres.ConnMaxLifetimeMinutes = 30
	}

	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}

	if cfg.Jobs.MaxConcurrentJobs == 0 {
		cfg.Jobs.MaxConcurrentJobs = 2
	}
	if cfg.Jobs.ComplianceScanCron == "" {
		cfg.Jobs.ComplianceScanCron = "0 0 2 * * *" // 每天 02:00
	}
	if cfg.Jobs.PerformanceCron == "" {
		cfg.Jobs.PerformanceCron = "0 30 2 * * *" // 每天 02:30
	}

	if cfg.Governance.CompliantThreshold == 0 {
		cfg.Governance.CompliantThreshold = 80
	}
	if cfg.Governance.AtRiskThreshold == 0 {
		cfg.Governance.AtRiskThreshold = 50
	}
	if cfg.Governance.ActivationThreshold == 0 {
		cfg.Governance.ActivationThreshold = 80
	}
	if cfg.Governance.DuplicateWindowDays == 0 {
		cfg.Governance.DuplicateWindowDays = 30
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}
