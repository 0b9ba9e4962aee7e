// Package app assembles the daemon from its services and owns their
// lifecycle and config propagation.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"dripsend/internal/api"
	"dripsend/internal/config"
	"dripsend/internal/contacts"
	"dripsend/internal/dispatch"
	"dripsend/internal/library"
	"dripsend/internal/notify"
	"dripsend/internal/scheduler"
	"dripsend/internal/storage"
	"dripsend/internal/template"
	"dripsend/internal/transport"
	"dripsend/pkg/logx"
)

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	store storage.Store
	lib   *library.Service
	ctrl  *dispatch.Service
	sched *scheduler.Service
	api   *api.Server

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, rootLog := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	mgr.SetLogger(rootLog.With(logx.String("component", "config")))

	a := &App{cfgMgr: mgr, logSvc: logSvc, log: rootLog}
	if err := a.build(cfg); err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(cfg *config.Config) error {
	var storeCfg storage.Config
	if cfg.Storage != nil {
		busy, err := config.Duration("storage.busy_timeout", cfg.Storage.BusyTimeout)
		if err != nil {
			return err
		}
		storeCfg = storage.Config{Driver: cfg.Storage.Driver, Path: cfg.Storage.Path, BusyTimeout: busy}
	}
	store, err := storage.Open(storeCfg, a.log.With(logx.String("component", "storage")))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.store = store
	a.lib = library.New(store, a.log.With(logx.String("component", "library")))

	transportTimeout, err := config.Duration("transport.timeout", cfg.Transport.Timeout)
	if err != nil {
		return err
	}
	wa := transport.NewWAWeb(transport.Config{
		Command: cfg.Transport.Command,
		Timeout: transportTimeout,
		DryRun:  cfg.Transport.DryRun,
	}, a.log.With(logx.String("component", "transport")))

	dispCfg, err := dispatchConfig(cfg.Dispatch)
	if err != nil {
		return err
	}
	a.ctrl = dispatch.New(dispCfg, wa, a.lib, a.log.With(logx.String("component", "dispatch")))

	if cfg.Notify != nil {
		n, err := notify.New(notify.Config{
			Token:  cfg.Notify.Telegram.Token,
			ChatID: cfg.Notify.Telegram.ChatID,
		}, a.log.With(logx.String("component", "notify")))
		if err != nil {
			return err
		}
		if n != nil {
			a.ctrl.SetNotifier(n)
		}
	}

	a.sched = scheduler.New(schedulerConfig(cfg.Scheduler), a,
		a.log.With(logx.String("component", "scheduler")))

	if cfg.API.Enabled {
		apiCfg, err := apiConfig(cfg.API)
		if err != nil {
			return err
		}
		a.api = api.New(apiCfg, a.ctrl, a.lib, cfg.Contacts.DefaultCountryCode,
			a.log.With(logx.String("component", "api")))
	}
	return nil
}

// Start brings up the watcher, scheduler and API and returns. Services run
// until Stop.
func (a *App) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	// dispatch runs must outlive any API request that started them
	a.ctrl.BindContext(ctx)

	if err := a.cfgMgr.Watch(ctx); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	sub := a.cfgMgr.Subscribe(1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-ctx.Done():
				a.cfgMgr.Unsubscribe(sub)
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyReload(cfg)
			}
		}
	}()

	if err := a.sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	if a.api != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.api.Start(); err != nil {
				a.log.Error("api server failed", logx.Err(err))
			}
		}()
	}

	a.log.Info("dripsend started")
	return nil
}

// Stop shuts services down in reverse order. The dispatch loop is asked to
// stop and waited for; an in-flight open finishes first.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	if a.api != nil {
		if err := a.api.Stop(ctx); err != nil {
			a.log.Warn("api shutdown", logx.Err(err))
		}
	}
	a.sched.Stop()

	if err := a.ctrl.Stop(); err != nil && !errors.Is(err, dispatch.ErrNotRunning) {
		a.log.Warn("dispatch stop", logx.Err(err))
	}
	a.ctrl.Wait()

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("storage close", logx.Err(err))
		}
	}
	a.wg.Wait()
	a.log.Info("dripsend stopped")
	_ = a.logSvc.Close()
}

// applyReload pushes reloadable settings into running services. Storage,
// API binding and scheduler topology stay fixed until restart.
func (a *App) applyReload(cfg *config.Config) {
	a.logSvc.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	dispCfg, err := dispatchConfig(cfg.Dispatch)
	if err != nil {
		a.log.Warn("reload: dispatch config rejected", logx.Err(err))
		return
	}
	a.ctrl.Apply(dispCfg)
	a.log.Info("reload applied")
}

// StartNamed implements scheduler.CampaignStarter: look up the saved list
// and template, render, load and start.
func (a *App) StartNamed(ctx context.Context, contactList, templateName string) error {
	list, ok := a.lib.ContactList(ctx, contactList)
	if !ok {
		return fmt.Errorf("contact list not found: %s", contactList)
	}
	tmpl, ok := a.lib.Template(ctx, templateName)
	if !ok {
		return fmt.Errorf("template not found: %s", templateName)
	}

	recs := contacts.Finalize(list.Contacts)
	msgs := make([]string, 0, len(recs))
	for _, pm := range template.Batch(tmpl.Body, recs) {
		msgs = append(msgs, pm.Message)
	}
	if err := a.ctrl.Load(recs, msgs); err != nil {
		return err
	}
	return a.ctrl.Start()
}

func dispatchConfig(c config.DispatchConfig) (dispatch.Config, error) {
	var out dispatch.Config
	var err error
	if out.MessageDelayMin, err = config.Duration("dispatch.message_delay_min", c.MessageDelayMin); err != nil {
		return out, err
	}
	if out.MessageDelayMax, err = config.Duration("dispatch.message_delay_max", c.MessageDelayMax); err != nil {
		return out, err
	}
	if out.CooldownDelayMin, err = config.Duration("dispatch.cooldown_delay_min", c.CooldownDelayMin); err != nil {
		return out, err
	}
	if out.CooldownDelayMax, err = config.Duration("dispatch.cooldown_delay_max", c.CooldownDelayMax); err != nil {
		return out, err
	}
	out.CooldownEvery = c.CooldownEvery
	out.RatePerSec = c.RatePerSec
	return out, nil
}

func schedulerConfig(c config.SchedulerConfig) scheduler.Config {
	out := scheduler.Config{Enabled: c.Enabled, Timezone: c.Timezone}
	for _, sc := range c.Campaigns {
		out.Campaigns = append(out.Campaigns, scheduler.Campaign{
			Name:        sc.Name,
			Spec:        sc.Spec,
			ContactList: sc.ContactList,
			Template:    sc.Template,
		})
	}
	return out
}

func apiConfig(c config.APIConfig) (api.Config, error) {
	read, err := config.Duration("api.read_timeout", c.ReadTimeout)
	if err != nil {
		return api.Config{}, err
	}
	write, err := config.Duration("api.write_timeout", c.WriteTimeout)
	if err != nil {
		return api.Config{}, err
	}
	idle, err := config.Duration("api.idle_timeout", c.IdleTimeout)
	if err != nil {
		return api.Config{}, err
	}
	return api.Config{Addr: c.Addr, ReadTimeout: read, WriteTimeout: write, IdleTimeout: idle}, nil
}
