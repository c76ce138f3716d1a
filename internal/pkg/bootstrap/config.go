// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

// Duration 包装 time.Duration，让 yaml 里可以写 "30s" 这样的时长。
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Config 是整个后端的静态配置，从 yaml 文件加载，个别字段允许环境变量覆盖。
type Config struct {
	App struct {
		// 扣减库存输掉行锁竞争后的重试次数上限
		DeductRetryBudget int `yaml:"deduct_retry_budget"`
		// 单个 HTTP 请求的处理时限，体现在服务器的读写超时上
		ProcessingTimeout Duration `yaml:"processing_timeout"`
	} `yaml:"app"`
	Infra struct {
		Mysql struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			Database string `yaml:"database"`
		} `yaml:"mysql"`
		Redis struct {
			Addr string `yaml:"addr"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers           []string `yaml:"brokers"`
			NotificationTopic string   `yaml:"notification_topic"`
			PushTopicPrefix   string   `yaml:"push_topic_prefix"`
		} `yaml:"kafka"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
	} `yaml:"infra"`
}

var currentConfig Config

// GetCurrentConfig 返回进程级配置，必须先调用 Init。
func GetCurrentConfig() *Config {
	return &currentConfig
}

// Init 加载配置文件并套用环境变量覆盖。
func Init() error {
	path := getEnv("CONFIG_PATH", "configs/config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &currentConfig); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	applyDefaults(&currentConfig)
	applyEnvOverrides(&currentConfig)
	return nil
}

func applyDefaults(c *Config) {
	if c.App.DeductRetryBudget <= 0 {
		c.App.DeductRetryBudget = 3
	}
	if c.App.ProcessingTimeout <= 0 {
		c.App.ProcessingTimeout = Duration(30 * time.Second)
	}
	if c.Infra.Mysql.Port == 0 {
		c.Infra.Mysql.Port = 3306
	}
	if c.Infra.Kafka.NotificationTopic == "" {
		c.Infra.Kafka.NotificationTopic = "order-notifications-v1"
	}
	if c.Infra.Kafka.PushTopicPrefix == "" {
		c.Infra.Kafka.PushTopicPrefix = "push-gateway-"
	}
}

func applyEnvOverrides(c *Config) {
	if v := os.Getenv("MYSQL_HOST"); v != "" {
		c.Infra.Mysql.Host = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Infra.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Infra.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("JAEGER_ENDPOINT"); v != "" {
		c.Infra.Jaeger.Endpoint = v
	}
}

// MysqlDSN 用官方驱动的 Config 拼 DSN，避免手写连接串的转义问题。
func (c *Config) MysqlDSN() string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Infra.Mysql.Host, c.Infra.Mysql.Port)
	cfg.User = c.Infra.Mysql.User
	cfg.Passwd = c.Infra.Mysql.Password
	cfg.DBName = c.Infra.Mysql.Database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
