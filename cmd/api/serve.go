package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"Mentor_Community/internal/config"
	"Mentor_Community/internal/pkg"
	"Mentor_Community/internal/pkg/logger"
	"Mentor_Community/internal/repository/mysql"
	"Mentor_Community/internal/repository/redis"
	"Mentor_Community/internal/router"
	"Mentor_Community/internal/service"
)

func newServeCmd(configPath *string) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务和后台任务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log.Mode)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()
			return serve(cmd.Context(), cfg, log, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "启动前自动建表（开发阶段）")
	return cmd
}

func serve(parent context.Context, cfg *config.Config, log *logger.Logger, migrate bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := mysql.Open(cfg.MySQL.DSN, mysql.Options{MaxOpenConns: cfg.MySQL.MaxOpenConns, MaxIdleConns: cfg.MySQL.MaxIdleConns})
	if err != nil {
		return err
	}
	if migrate {
		if err := mysql.AutoMigrate(db); err != nil {
			return err
		}
	}

	// 连接redis
	rdb, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer rdb.Close()
	feed := redis.NewChangeFeed(rdb, cfg.Redis.Channel, log)
	if err := feed.Start(ctx); err != nil {
		return err
	}
	likeCache := redis.NewLikeCacheRepository(rdb)

	// 外部协作方，未配置时保持 nil 接口
	ai := pkg.NewAIClient(pkg.AIConfig{BaseURL: cfg.AI.BaseURL, APIKey: cfg.AI.APIKey, Model: cfg.AI.Model, Timeout: cfg.AI.Timeout})
	if !ai.Configured() {
		log.Warn("ai api key missing, generation and chat will degrade")
	}
	var mailer service.Mailer
	if cfg.SMTP.Host != "" {
		mailer = pkg.NewMailer(pkg.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}
	var objects service.ObjectStorage
	if cfg.Storage.Bucket != "" {
		gcs, err := pkg.NewGCSUploader(ctx, pkg.GCSConfig{
			Bucket:          cfg.Storage.Bucket,
			PublicBaseURL:   cfg.Storage.PublicBaseURL,
			CredentialsFile: cfg.Storage.CredentialsFile,
			EmulatorHost:    cfg.Storage.EmulatorHost,
		})
		if err != nil {
			return err
		}
		defer gcs.Close()
		objects = gcs
	}
	sender := service.LogSender(log)
	if len(cfg.Kafka.Brokers) > 0 {
		producer := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		defer producer.Close()
		sender = service.KafkaSender(producer)
	}

	roadmaps := &mysql.RoadmapRepository{DB: db}
	ledger := &mysql.LedgerRepository{DB: db}
	posts := &mysql.PostRepository{DB: db}
	likes := &mysql.PostLikeRepository{DB: db}
	profiles := &mysql.ProfileRepository{DB: db}
	mentorship := &mysql.MentorshipRepository{DB: db}
	messages := &mysql.MessageRepository{DB: db}
	moods := &mysql.MoodRepository{DB: db}

	engagement := service.NewEngagementService(likes, likeCache, feed, log)
	s := router.Services{
		Roadmaps:   service.NewRoadmapService(roadmaps, ai, feed, log),
		Ledger:     service.NewLedgerService(ledger, feed, log, cfg.Wallet.MinWithdrawalCents),
		Posts:      service.NewPostService(posts, engagement, feed, log),
		Engagement: engagement,
		Mentorship: service.NewMentorshipService(profiles, mentorship, feed, log),
		Messages:   service.NewMessageService(messages, feed, log),
		Wellness:   service.NewWellnessService(moods, ai, log),
		Assistant:  service.NewAssistantService(ai, log),
		Profiles:   service.NewProfileService(profiles, roadmaps, &mysql.AccountRepository{DB: db}, objects, log),
		Contact:    service.NewContactService(mailer, cfg.SMTP.SupportInbox, log),
	}
	s.Dashboard = service.NewDashboardService(s.Roadmaps, s.Ledger, s.Posts, s.Mentorship)

	// 后台任务
	relayer := service.NewOutboxRelayer(&mysql.OutboxRepository{DB: db}, sender, log, cfg.Outbox.Interval, cfg.Outbox.BatchSize, cfg.Outbox.MaxRetry)
	reconciler := service.NewCountReconciler(&mysql.CountReconcilerRepo{DB: db}, likeCache, log, cfg.Reconcile.Interval, cfg.Reconcile.BatchSize)
	go relayer.Run(ctx)
	go reconciler.Run(ctx)

	gin.SetMode(cfg.Server.Mode)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router.InitRouter(pkg.NewTokenParser(cfg.Auth.JWTSecret, cfg.Auth.Audience), s),
		ReadHeaderTimeout: 10 * time.Second,
		// 收到信号后 SSE 长连接随请求 ctx 一起结束
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		return err
	}
	log.Info("server exited")
	return nil
}
