package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "GOACTOR_"

const (
	RegistryMemory = "memory"
	RegistryEtcd   = "etcd"
	RegistryRedis  = "redis"
	RegistryMysql  = "mysql"
)

type Config struct {
	Node     NodeConfig     `yaml:"node"`
	Registry RegistryConfig `yaml:"registry"`
	Rpc      RpcConfig      `yaml:"rpc"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
}

type NodeConfig struct {
	Host   string `yaml:"host"`   // 集群内的地址前缀
	Seed   string `yaml:"seed"`   // 种子节点host, 等于Host时本节点为master
	Listen string `yaml:"listen"` // rpc监听地址
}

type RegistryConfig struct {
	Type      string   `yaml:"type"`
	Endpoints []string `yaml:"endpoints"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	Database  string   `yaml:"database"`
	Prefix    string   `yaml:"prefix"`
	LeaseTTL  int64    `yaml:"lease_ttl"` // 秒, etcd/redis有效
}

type RpcConfig struct {
	CallTimeoutMs int `yaml:"call_timeout_ms"`
	DialTimeoutMs int `yaml:"dial_timeout_ms"`
}

type LogConfig struct {
	Level        string `yaml:"level"`
	Dir          string `yaml:"dir"`
	Prefix       string `yaml:"prefix"`
	RotateByHour bool   `yaml:"rotate_by_hour"`
}

type AdminConfig struct {
	Listen string `yaml:"listen"` // 为空时不开启管理端口
}

func NewConfig() *Config {
	conf := &Config{
		Node: NodeConfig{
			Host:   "127.0.0.1",
			Seed:   "127.0.0.1",
			Listen: "127.0.0.1:7100",
		},
		Registry: RegistryConfig{
			Type:     RegistryMemory,
			Prefix:   "/goactor",
			LeaseTTL: 10,
		},
		Rpc: RpcConfig{
			CallTimeoutMs: 3000,
			DialTimeoutMs: 1000,
		},
		Log: LogConfig{
			Level:  "INFO",
			Prefix: "actornode",
		},
	}
	return conf
}

func (conf *Config) Load(fileName string) error {
	content, err := os.ReadFile(fileName)
	if err != nil {
		return err
	}

	err = yaml.Unmarshal(content, conf)
	if err != nil {
		return fmt.Errorf("parse config %s: %w", fileName, err)
	}

	return nil
}

// LoadEnvFile 加载.env文件到进程环境变量, 文件不存在时忽略
func LoadEnvFile(fileNames ...string) error {
	exists := make([]string, 0, len(fileNames))
	for _, name := range fileNames {
		if _, err := os.Stat(name); err == nil {
			exists = append(exists, name)
		}
	}
	if len(exists) == 0 {
		return nil
	}
	return godotenv.Load(exists...)
}

// ApplyEnv 用 GOACTOR_ 开头的环境变量覆盖配置
func (conf *Config) ApplyEnv() {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("NODE_HOST", &conf.Node.Host)
	setString("NODE_SEED", &conf.Node.Seed)
	setString("NODE_LISTEN", &conf.Node.Listen)
	setString("REGISTRY_TYPE", &conf.Registry.Type)
	setString("REGISTRY_USERNAME", &conf.Registry.Username)
	setString("REGISTRY_PASSWORD", &conf.Registry.Password)
	setString("REGISTRY_DATABASE", &conf.Registry.Database)
	setString("REGISTRY_PREFIX", &conf.Registry.Prefix)
	if v, ok := os.LookupEnv(EnvPrefix + "REGISTRY_ENDPOINTS"); ok && v != "" {
		conf.Registry.Endpoints = strings.Split(v, ",")
	}
	setInt("RPC_CALL_TIMEOUT_MS", &conf.Rpc.CallTimeoutMs)
	setInt("RPC_DIAL_TIMEOUT_MS", &conf.Rpc.DialTimeoutMs)
	setString("LOG_LEVEL", &conf.Log.Level)
	setString("LOG_DIR", &conf.Log.Dir)
	setString("ADMIN_LISTEN", &conf.Admin.Listen)
}

func (conf *Config) Validate() error {
	if conf.Node.Host == "" {
		return errors.New("node.host is empty")
	}
	if strings.Contains(conf.Node.Host, "/") {
		return fmt.Errorf("node.host %q must not contain '/'", conf.Node.Host)
	}
	if conf.Node.Seed == "" {
		return errors.New("node.seed is empty")
	}
	if conf.Node.Listen == "" {
		return errors.New("node.listen is empty")
	}
	switch conf.Registry.Type {
	case RegistryMemory:
	case RegistryEtcd, RegistryRedis, RegistryMysql:
		if len(conf.Registry.Endpoints) == 0 {
			return fmt.Errorf("registry %s needs endpoints", conf.Registry.Type)
		}
	default:
		return fmt.Errorf("unknown registry type %q", conf.Registry.Type)
	}
	return nil
}

// IsSeed 本节点是否是种子节点
func (conf *Config) IsSeed() bool {
	return conf.Node.Host == conf.Node.Seed
}

func (c RpcConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutMs) * time.Millisecond
}

func (c RpcConfig) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutMs) * time.Millisecond
}
