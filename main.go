package main

import (
	"context"
	"log"
	"os"
	"strconv"

	mongoutil "ClassBank/data/database/mgo/mongoutil"
	mid "ClassBank/middleware"
	chatstore "ClassBank/module/chat/store"
	identity "ClassBank/module/identity/service"
	notifysvc "ClassBank/module/notify/service"
	"ClassBank/global/config"
	"ClassBank/logger"
	"ClassBank/service/api"
	"ClassBank/service/gateway"
	"ClassBank/service/mgo"
	"ClassBank/service/natsx"
	redisstore "ClassBank/service/storage/redis"
	"ClassBank/tools/security"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1) 配置：yaml + 环境变量，再配雪花节点
	if err := config.Load(os.Getenv("CLASSBANK_CONFIG")); err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	config.ConfigIds()
	cfg := &config.Global
	if cfg.LogLevel != "" {
		logger.SetLevel(cfg.LogLevel)
	}

	// 2) 基础设施：Redis / NATS / Mongo
	if err := redisstore.InitRedis(redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}); err != nil {
		log.Fatalf("redis init failed: %v", err)
	}
	if err := natsx.StartNats(natsx.NatsxConfig{
		Servers: cfg.Nats.Servers,
		Name:    cfg.Nats.Name,
	}); err != nil {
		log.Fatalf("nats init failed: %v", err)
	}

	ctx := context.Background()
	mgo.StartAsync(ctx, &mongoutil.Config{
		Uri:         cfg.Mongo.Uri,
		Database:    cfg.Mongo.Database,
		Username:    cfg.Mongo.Username,
		Password:    cfg.Mongo.Password,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err := mgo.WaitReady(ctx, mgo.Manager()); err != nil {
		log.Fatalf("mongo not ready: %v", err)
	}
	db := mgo.GetDB()
	cli := mgo.GetClient()

	if err := identity.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("identity indexes: %v", err)
	}
	if err := chatstore.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("chat indexes: %v", err)
	}

	// 3) 领域服务
	resolver := identity.NewResolver(db)
	store := chatstore.NewStore(cli)
	store.StartRoomWatcher(ctx)
	notify := notifysvc.NewFanout(db, resolver.ListUserKeys)

	jwtOpts := security.DefaultOptions(config.GetJwtSecret())
	jwtOpts.TTL = cfg.JwtTTL

	// 4) 推送网关（订阅 natsx，在 StartNats 之后、路由挂载之前建好）
	ws := gateway.NewServer(strconv.FormatInt(cfg.NodeID, 10), jwtOpts, cfg.FanoutWorkers, cfg.FanoutQueue)
	defer ws.Close()

	// 5) HTTP + WebSocket
	srv := api.NewServer(cli, resolver, store, notify, jwtOpts)
	r := gin.New()
	r.Use(gin.Recovery(), mid.Manager().Use())
	api.RegisterRoutes(r, srv, ws, cfg.WSPath)

	addr := ":" + strconv.Itoa(cfg.HTTPPort)
	log.Printf("[HTTP] Listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}
