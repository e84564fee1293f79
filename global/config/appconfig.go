package config

import "time"

// AppConfig 进程级配置。来自 yaml 文件 + CLASSBANK_* 环境变量覆盖。
type AppConfig struct {
	NodeID   int64  `yaml:"node_id" mapstructure:"node_id"`     // 雪花ID节点
	HTTPPort int    `yaml:"http_port" mapstructure:"http_port"` // gin 启动端口
	WSPath   string `yaml:"ws_path" mapstructure:"ws_path"`     // 网关 websocket 路径
	LogLevel string `yaml:"log_level" mapstructure:"log_level"` // debug/info/warn/error

	Mongo MongoConfig `yaml:"mongo" mapstructure:"mongo"`
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
	Nats  NatsConfig  `yaml:"nats" mapstructure:"nats"`

	JwtSecret string        `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	JwtTTL    time.Duration `yaml:"jwt_ttl" mapstructure:"jwt_ttl"`

	FanoutWorkers int `yaml:"fanout_workers" mapstructure:"fanout_workers"` // 网关推送 worker 数
	FanoutQueue   int `yaml:"fanout_queue" mapstructure:"fanout_queue"`

	TxLogCap int `yaml:"tx_log_cap" mapstructure:"tx_log_cap"` // 用户流水保留条数
	InboxCap int `yaml:"inbox_cap" mapstructure:"inbox_cap"`   // 通知收件箱保留条数
}

type MongoConfig struct {
	Uri         string `yaml:"uri" mapstructure:"uri"`
	Database    string `yaml:"database" mapstructure:"database"`
	Username    string `yaml:"username" mapstructure:"username"`
	Password    string `yaml:"password" mapstructure:"password"`
	MaxPoolSize int    `yaml:"max_pool_size" mapstructure:"max_pool_size"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
	PoolSize int    `yaml:"pool_size" mapstructure:"pool_size"`
}

type NatsConfig struct {
	Servers []string `yaml:"servers" mapstructure:"servers"`
	Name    string   `yaml:"name" mapstructure:"name"`
}
