package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeScheduler runs the hourly dispatcher.
	ServiceModeScheduler ServiceMode = "scheduler"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeHTTP, ServiceModeScheduler}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if strings.TrimSpace(servicesStr) == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeScheduler:
			services[mode] = true
		default:
			return nil, fmt.Errorf("invalid service name: %q (valid options: http, scheduler)", serviceName)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

const defaultSchedulerCron = "0 * * * *"

// SchedulerConfig contains dispatcher configuration.
type SchedulerConfig struct {
	// Cron is the tick schedule, evaluated in UTC.
	Cron string `env:"SCHEDULER_CRON" envDefault:"0 * * * *"`

	// LeaseKey names the lease that serializes ticks across instances.
	LeaseKey string `env:"SCHEDULER_LEASE_KEY" envDefault:"trendscout:scheduler:tick"`

	// LeaseTTL bounds how long a crashed tick can block the next one.
	LeaseTTL time.Duration `env:"SCHEDULER_LEASE_TTL" envDefault:"55m"`

	// RunTimeout bounds one scheduled pipeline run; 0 disables the bound.
	RunTimeout time.Duration `env:"SCHEDULER_RUN_TIMEOUT" envDefault:"20m"`

	// TickTimeout bounds one whole tick; 0 disables the bound.
	TickTimeout time.Duration `env:"SCHEDULER_TICK_TIMEOUT" envDefault:"55m"`
}

// Sanitize applies guardrails to scheduler configuration values.
// An unparseable cron expression falls back to the hourly default.
func (s *SchedulerConfig) Sanitize() {
	s.Cron = strings.TrimSpace(s.Cron)
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(s.Cron); err != nil {
		s.Cron = defaultSchedulerCron
	}
	if strings.TrimSpace(s.LeaseKey) == "" {
		s.LeaseKey = "trendscout:scheduler:tick"
	}
	if s.LeaseTTL <= 0 {
		s.LeaseTTL = 55 * time.Minute
	}
	if s.RunTimeout < 0 {
		s.RunTimeout = 0
	}
	if s.TickTimeout < 0 {
		s.TickTimeout = 0
	}
}
