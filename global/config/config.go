package config

import (
	"os"
	"strings"
	"time"

	"ClassBank/logger"
	ids "ClassBank/tools/ids"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var Global = AppConfig{
	NodeID:   1,
	HTTPPort: 8080,
	WSPath:   "/ws",

	Mongo: MongoConfig{
		Uri:         "mongodb://localhost:27017",
		Database:    "classbank",
		MaxPoolSize: 20,
	},
	Redis: RedisConfig{Addr: "127.0.0.1:6379", DB: 0, PoolSize: 16},
	Nats:  NatsConfig{Servers: []string{"nats://127.0.0.1:4222"}, Name: "classbank"},

	JwtSecret: "dev-only-secret-change-me",
	JwtTTL:    2 * time.Hour,

	FanoutWorkers: 4,
	FanoutQueue:   1024,

	TxLogCap: 50,
	InboxCap: 100,
}

// Load 读取 yaml 配置（文件不存在时保留默认值），再用环境变量覆盖。
func Load(path string) error {
	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, &Global); err != nil {
				return err
			}
		} else if !os.IsNotExist(err) {
			return err
		}
	}
	applyEnv()
	return nil
}

// applyEnv CLASSBANK_MONGO_URI / CLASSBANK_REDIS_ADDR / CLASSBANK_JWT_SECRET 等。
// 展开成 map 后走 mapstructure，免得每个字段手写一遍。
func applyEnv() {
	overrides := map[string]any{}
	set := func(key string, into map[string]any, field string) {
		if v := os.Getenv(key); v != "" {
			into[field] = v
		}
	}
	set("CLASSBANK_JWT_SECRET", overrides, "jwt_secret")
	set("CLASSBANK_HTTP_PORT", overrides, "http_port")

	mongo := map[string]any{}
	set("CLASSBANK_MONGO_URI", mongo, "uri")
	set("CLASSBANK_MONGO_DB", mongo, "database")
	set("CLASSBANK_MONGO_USER", mongo, "username")
	set("CLASSBANK_MONGO_PASSWORD", mongo, "password")
	if len(mongo) > 0 {
		overrides["mongo"] = mongo
	}

	rds := map[string]any{}
	set("CLASSBANK_REDIS_ADDR", rds, "addr")
	set("CLASSBANK_REDIS_PASSWORD", rds, "password")
	if len(rds) > 0 {
		overrides["redis"] = rds
	}

	if v := os.Getenv("CLASSBANK_NATS_SERVERS"); v != "" {
		overrides["nats"] = map[string]any{"servers": strings.Split(v, ",")}
	}

	if len(overrides) == 0 {
		return
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &Global,
		WeaklyTypedInput: true, // 环境变量都是字符串
	})
	if err != nil {
		logger.Errorf("config env decoder: %v", err)
		return
	}
	if err := dec.Decode(overrides); err != nil {
		logger.Errorf("config env override: %v", err)
	}
}

func GetJwtSecret() []byte {
	return []byte(Global.JwtSecret)
}

// ConfigIds 配置id生成
func ConfigIds() {
	ids.SetNodeID(Global.NodeID)
}
