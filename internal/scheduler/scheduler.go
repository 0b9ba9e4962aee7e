// Package scheduler starts saved campaigns on cron specs.
package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"dripsend/pkg/logx"
)

// CampaignStarter kicks off a campaign from saved library entries.
type CampaignStarter interface {
	StartNamed(ctx context.Context, contactList, template string) error
}

type Campaign struct {
	Name        string
	Spec        string // standard 5-field cron spec or a @descriptor
	ContactList string
	Template    string
}

type Config struct {
	Enabled   bool
	Timezone  string // IANA name; empty means time.Local
	Campaigns []Campaign
}

type Service struct {
	mu sync.Mutex

	cfg     Config
	starter CampaignStarter
	log     logx.Logger

	parser cron.Parser
	c      *cron.Cron
	ctx    context.Context
}

func New(cfg Config, starter CampaignStarter, log logx.Logger) *Service {
	return &Service{
		cfg:     cfg,
		starter: starter,
		log:     log,
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

func (s *Service) Enabled() bool { return s.cfg.Enabled }

// Start validates every campaign spec, registers them, and starts the cron
// loop. A bad spec fails the whole start so config errors surface at boot.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cfg.Enabled || s.c != nil {
		return nil
	}

	loc := time.Local
	if tz := strings.TrimSpace(s.cfg.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return err
		}
		loc = l
	}

	c := cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))
	for _, camp := range s.cfg.Campaigns {
		camp := camp
		_, err := c.AddFunc(camp.Spec, func() { s.fire(camp) })
		if err != nil {
			return err
		}
	}

	s.c = c
	s.ctx = ctx
	c.Start()
	s.log.Info("scheduler started",
		logx.Int("campaigns", len(s.cfg.Campaigns)),
		logx.String("tz", loc.String()))
	return nil
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return
	}
	<-s.c.Stop().Done()
	s.c = nil
	s.log.Info("scheduler stopped")
}

func (s *Service) fire(camp Campaign) {
	s.log.Info("scheduled campaign firing",
		logx.String("campaign", camp.Name),
		logx.String("contact_list", camp.ContactList),
		logx.String("template", camp.Template))
	if err := s.starter.StartNamed(s.ctx, camp.ContactList, camp.Template); err != nil {
		// usually means a batch is already running; the next tick retries
		s.log.Warn("scheduled campaign not started",
			logx.String("campaign", camp.Name), logx.Err(err))
	}
}
