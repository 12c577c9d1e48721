package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mongoutil "Linkup/data/database/mgo/mongoutil"
	"Linkup/global/config"
	"Linkup/logger"
	"Linkup/middleware"
	"Linkup/module/call"
	chatservice "Linkup/module/chat/service"
	"Linkup/module/chat/store"
	"Linkup/module/realtime/presence"
	"Linkup/module/realtime/rooms"
	"Linkup/service/httpapi"
	"Linkup/service/storage"
	redisstore "Linkup/service/storage/redis"
	"Linkup/service/ws"
	"Linkup/tools/ids"
	"Linkup/tools/security"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Errorf("load config: %v", err)
		os.Exit(1)
	}
	ids.SetNodeID(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, 30*time.Second)
	mongoCli, err := mongoutil.NewMongoDB(connectCtx, &cfg.Mongo)
	connectCancel()
	if err != nil {
		logger.Errorf("mongo: %v", err)
		os.Exit(1)
	}
	defer func() { _ = mongoCli.Close(context.Background()) }()
	db := mongoCli.GetDB()

	// presence snapshot cache is optional: without redis the registry and
	// the persisted flags still carry presence on their own
	var cache *storage.PresenceCache
	if rdb, err := redisstore.NewClient(ctx, cfg.Redis); err != nil {
		logger.Warnf("redis unavailable, presence snapshot disabled: %v", err)
	} else {
		cache = storage.NewPresenceCache(rdb)
		defer func() { _ = rdb.Close() }()
	}

	msgs := store.NewMongoMessageStore(db)
	cleared := store.NewMongoClearedChatStore(db)
	groups := store.NewMongoGroupStore(db)
	groupMsgs := store.NewMongoGroupMessageStore(db)
	users := store.NewMongoUserStore(db)

	registry := presence.NewRegistry(cfg.MaxConnsPerUser)
	fanout := rooms.NewFanout(cfg.Fanout.Workers, cfg.Fanout.Queue)
	router := rooms.NewRouter(registry, fanout)

	direct := chatservice.NewDirectService(msgs, cleared, router)
	groupSvc := chatservice.NewGroupService(groups, groupMsgs, router)
	relay := call.NewRelay(registry, router)

	reconciler := presence.NewReconciler(registry, users, cache, router,
		cfg.Presence.SweepEvery, cfg.Presence.InactiveAfter)
	reconciler.Start()

	jwtOpts := security.DefaultOptions([]byte(cfg.JWTSecret))

	wsServer := ws.NewServer(ws.Deps{
		Registry:    registry,
		Router:      router,
		Users:       users,
		Cache:       cache,
		Direct:      direct,
		Groups:      groupSvc,
		Calls:       relay,
		JWT:         jwtOpts,
		SnapshotTTL: 2 * cfg.Presence.SweepEvery,
	})

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.CORS())
	engine.GET("/ws", wsServer.HandleWS)

	api := &httpapi.API{
		Direct:   direct,
		Groups:   groupSvc,
		Users:    users,
		Registry: registry,
		JWT:      jwtOpts,
	}
	api.Register(engine)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}
	go func() {
		logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http server: %v", err)
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	reconciler.Stop()
	registry.Close()
	fanout.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
}
