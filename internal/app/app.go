package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tribe-fitness/internal/api"
	"tribe-fitness/internal/chat"
	"tribe-fitness/internal/config"
	"tribe-fitness/internal/database"
	"tribe-fitness/internal/health"
	"tribe-fitness/internal/llm"
	"tribe-fitness/internal/locale"
	"tribe-fitness/internal/rewards"
	"tribe-fitness/internal/services"
	"tribe-fitness/internal/telegram"
)

const (
	rolloverSchedule     = "0 0 * * *"
	dailySummarySchedule = "0 21 * * *"
	weeklyReportSchedule = "0 20 * * 0"
)

type Application struct {
	config   *config.Config
	logger   *zap.Logger
	db       *database.Database
	state    *health.State
	feed     *health.Feed
	store    *rewards.Store
	locales  *locale.Registry
	fitness  *chat.Session
	support  *chat.Session
	services *services.ServiceManager
	server   *api.Server
	bot      *telegram.Bot
	cron     *cron.Cron

	cancelFunc context.CancelFunc
	ctx        context.Context
	group      *errgroup.Group
	detach     func()
	stopOnce   sync.Once
}

func New(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	loc := cfg.Location()
	now := func() time.Time { return time.Now().In(loc) }

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	initial, err := locale.Parse(cfg.Locale)
	if err != nil {
		logger.Warn("falling back to english", zap.String("locale", cfg.Locale))
		initial = locale.English
	}
	locales := locale.NewRegistry(initial)

	state := health.New(health.WithClock(now), health.WithLogger(logger.Named("health")))
	serviceManager := services.NewServiceManager(db, logger, loc)
	detach := serviceManager.Journal.Attach(state)

	store := rewards.NewStore(rewards.DefaultCatalog(), state)
	store.SetRecorder(serviceManager.Journal)

	fitness, err := newSession(chat.FitnessProfile(), cfg.LLM.Fitness, locales, now, logger)
	if err != nil {
		detach()
		db.Close()
		return nil, err
	}
	support, err := newSession(chat.SupportProfile(), cfg.LLM.Support, locales, now, logger)
	if err != nil {
		fitness.Close()
		detach()
		db.Close()
		return nil, err
	}

	feed := health.NewFeed(cfg.Sensors.Steps, cfg.Sensors.Location)

	server := api.NewServer(api.Deps{
		State:     state,
		Feed:      feed,
		Store:     store,
		Sessions:  map[string]*chat.Session{chat.FitnessBot: fitness, chat.SupportBot: support},
		Locales:   locales,
		Analytics: serviceManager.Analytics,
		JWTSecret: cfg.Server.JWTSecret,
		Logger:    logger.Named("api"),
	})

	var bot *telegram.Bot
	if cfg.TelegramEnabled() {
		bot, err = telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatID, telegram.Deps{
			State:     state,
			Store:     store,
			Fitness:   fitness,
			Support:   support,
			Locales:   locales,
			Analytics: serviceManager.Analytics,
			Logger:    logger.Named("telegram"),
		})
		if err != nil {
			server.Close()
			support.Close()
			fitness.Close()
			detach()
			db.Close()
			return nil, err
		}
		serviceManager.SetNotificationSender(bot, state, store.Catalog())
	} else {
		logger.Info("telegram disabled: TG_TOKEN or TG_CHAT_ID not set")
	}

	ctx, cancel := context.WithCancel(context.Background())

	cronLog := cronLogger{logger.Named("cron").Sugar()}
	app := &Application{
		config:   cfg,
		logger:   logger,
		db:       db,
		state:    state,
		feed:     feed,
		store:    store,
		locales:  locales,
		fitness:  fitness,
		support:  support,
		services: serviceManager,
		server:   server,
		bot:      bot,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog)),
		),
		cancelFunc: cancel,
		ctx:        ctx,
		detach:     detach,
	}

	if err := app.setupCronJobs(); err != nil {
		app.Stop()
		return nil, err
	}

	return app, nil
}

func newSession(profile chat.Profile, cfg config.LLMConfig, locales *locale.Registry, now func() time.Time, logger *zap.Logger) (*chat.Session, error) {
	named := logger.Named(profile.Name)
	completer, err := llm.New(cfg, named)
	if err != nil {
		return nil, fmt.Errorf("%s assistant: %w", profile.Name, err)
	}
	return chat.NewSession(profile, completer,
		chat.WithLogger(named),
		chat.WithLocale(locales),
		chat.WithClock(now),
	), nil
}

// Start launches the sensor tracking, the API server, the bot and the
// scheduler. It does not block.
func (a *Application) Start() error {
	a.logger.Info("starting application")

	group, gctx := errgroup.WithContext(a.ctx)
	a.group = group

	tracked := a.state.Track(gctx, a.feed, a.feed)
	group.Go(func() error {
		<-tracked
		return nil
	})

	addr := net.JoinHostPort("", a.config.Server.Port)
	group.Go(func() error {
		return a.server.Run(gctx, addr)
	})

	if a.bot != nil {
		group.Go(func() error {
			a.bot.Start(gctx)
			return nil
		})
	}

	a.cron.Start()

	if a.bot != nil {
		a.bot.SendMessageOrLogError("💪 <b>Tribe</b> is up. Use /help to see what I can do.")
		a.logger.Info("application started", zap.String("bot", a.bot.GetUsername()), zap.String("addr", addr))
	} else {
		a.logger.Info("application started", zap.String("addr", addr))
	}

	return nil
}

// Wait blocks until a background component fails or the application is
// stopped.
func (a *Application) Wait() error {
	if a.group == nil {
		return errors.New("application not started")
	}
	return a.group.Wait()
}

func (a *Application) Stop() error {
	var err error
	a.stopOnce.Do(func() {
		a.logger.Info("stopping application")

		a.cancelFunc()
		<-a.cron.Stop().Done()

		if a.group != nil {
			if werr := a.group.Wait(); werr != nil {
				a.logger.Warn("background component failed", zap.Error(werr))
			}
		}

		a.server.Close()
		a.fitness.Close()
		a.support.Close()
		a.detach()

		if cerr := a.db.Close(); cerr != nil {
			a.logger.Warn("close db", zap.Error(cerr))
			err = cerr
		}

		a.logger.Info("application stopped")
	})
	return err
}

func (a *Application) setupCronJobs() error {
	// Close the day even when no sensor reports around midnight.
	if _, err := a.cron.AddFunc(rolloverSchedule, func() {
		a.state.Rollover()
	}); err != nil {
		return fmt.Errorf("schedule rollover: %w", err)
	}

	if _, err := a.cron.AddFunc(dailySummarySchedule, func() {
		if a.services.Notification != nil {
			_ = a.services.Notification.SendDailySummary()
		}
	}); err != nil {
		return fmt.Errorf("schedule daily summary: %w", err)
	}

	if _, err := a.cron.AddFunc(weeklyReportSchedule, func() {
		if a.services.Notification != nil {
			_ = a.services.Notification.SendWeeklyReport()
		}
	}); err != nil {
		return fmt.Errorf("schedule weekly report: %w", err)
	}

	return nil
}

// cronLogger routes scheduler logs to zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
