// Package app wires every component into a running process: config, auth,
// the upstream stream supervisor, the core orchestrator, the batch writer,
// the WebSocket fan-out server and the HTTP API.
package app

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"vnmarket-stream/api"
	"vnmarket-stream/auth"
	"vnmarket-stream/cache"
	"vnmarket-stream/config"
	"vnmarket-stream/core"
	"vnmarket-stream/database"
	"vnmarket-stream/futures"
	"vnmarket-stream/publish"
	"vnmarket-stream/scheduler"
	"vnmarket-stream/stream"
	"vnmarket-stream/wsserver"
)

const tokenCacheFile = "./.token_cache.json"

// App owns every long-lived component and coordinates startup/shutdown.
type App struct {
	cfg *config.Config

	db          *database.DB
	redis       *cache.RedisClient
	batchWriter *database.BatchWriter

	authClient  *auth.Client
	authManager *auth.Manager

	orchestrator *core.Orchestrator
	publisher    *publish.Publisher
	wsManager    *wsserver.Manager
	wsServer     *wsserver.Server
	supervisor   *stream.Supervisor
	apiServer    *api.Server

	resetStop chan struct{}
}

func New(cfg *config.Config) *App {
	return &App{cfg: cfg}
}

// Start brings up every component and blocks until a termination signal
// arrives, then shuts down gracefully.
func (a *App) Start() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Println("app: connecting to database")
	db, err := database.Connect(ctx, a.cfg.DatabaseURL, a.cfg.DBPoolMin, a.cfg.DBPoolMax)
	if err != nil {
		return fmt.Errorf("app: database connect failed: %w", err)
	}
	a.db = db
	a.batchWriter = database.NewBatchWriter(db)
	go a.batchWriter.Run()

	log.Println("app: connecting to redis")
	a.redis = cache.NewRedisClient(a.cfg.RedisHost, a.cfg.RedisPort, a.cfg.RedisPassword)

	a.authClient = auth.NewClient(a.cfg.AuthURL, auth.Credentials{
		ConsumerID:     a.cfg.ConsumerID,
		ConsumerSecret: a.cfg.ConsumerSecret,
	})
	a.authManager = auth.NewManager(a.authClient, tokenCacheFile)
	if err := a.authManager.EnsureAuthenticated(); err != nil {
		return fmt.Errorf("app: authentication failed: %w", err)
	}
	go a.authManager.RunTokenMonitor(ctx, nil)

	primary := futures.Primary(a.cfg.FuturesOverride, time.Now())
	allFutures := futures.Symbols(a.cfg.FuturesOverride, time.Now())
	log.Printf("app: primary futures contract is %s (tracking %v)", primary, allFutures)

	a.wsManager = wsserver.NewManager(a.cfg.WSQueueSize)
	a.wsServer = wsserver.NewServer(
		a.wsManager,
		a.cfg.WSAuthToken,
		a.cfg.WSMaxConnPerIP,
		time.Duration(a.cfg.WSHeartbeatInterval)*time.Second,
		time.Duration(a.cfg.WSHeartbeatTimeout)*time.Second,
	)

	a.orchestrator = core.NewOrchestrator(nil, a.batchWriter, allFutures)
	a.publisher = publish.NewPublisher(a.wsManager, a.orchestrator, time.Duration(a.cfg.WSThrottleIntervalMS)*time.Millisecond)
	a.orchestrator.SetNotifier(a.publisher)

	go a.orchestrator.Run()

	channels := a.buildChannelList(allFutures)
	snapshots := stream.NewSnapshotFetcher(a.cfg.RESTBaseURL)
	a.supervisor = stream.NewSupervisor(a.cfg.StreamURL, channels, a.authManager, a.publisher, a.orchestrator.In, snapshots)
	go a.supervisor.Run(ctx)

	a.resetStop = make(chan struct{})
	go scheduler.DailyReset(a.cfg.DailyResetTime, a.orchestrator.ResetDaily, a.resetStop)

	repo := database.NewRepository(a.db)
	a.apiServer = api.NewServer(a.orchestrator, repo, a.db, a.wsServer, a.cfg.CORSOrigins)

	addr := fmt.Sprintf("%s:%s", a.cfg.HTTPHost, a.cfg.HTTPPort)
	errCh := make(chan error, 1)
	go func() { errCh <- a.apiServer.Start(addr) }()

	select {
	case <-ctx.Done():
		log.Println("app: shutdown signal received")
	case err := <-errCh:
		log.Printf("app: http server exited: %v", err)
	}

	a.shutdown()
	return nil
}

func (a *App) buildChannelList(futuresSymbols []string) []string {
	channels := []string{"X-TRADE:ALL", "X-Quote:ALL", "R:ALL", "MI:VN30", "MI:VNINDEX", "B:ALL"}
	for _, s := range futuresSymbols {
		channels = append(channels, "X:"+s)
	}
	return channels
}

func (a *App) shutdown() {
	log.Println("app: shutting down")
	close(a.resetStop)
	a.publisher.Stop()
	a.wsManager.DisconnectAll()
	close(a.orchestrator.In)
	a.batchWriter.Stop()
	if a.redis != nil {
		a.redis.Close()
	}
	a.db.Close()
	log.Println("app: shutdown complete")
}
