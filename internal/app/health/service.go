package health

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"

	probeTimeout = 2 * time.Second
)

type Status struct {
	Status    string      `json:"status"`
	Version   string      `json:"version"`
	Uptime    string      `json:"uptime"`
	Timestamp time.Time   `json:"timestamp"`
	Services  []Component `json:"services"`
}

type Component struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type probe struct {
	name string
	ping func(ctx context.Context) error
}

type Service interface {
	Check(ctx context.Context) Status
}

type service struct {
	probes  []probe
	version string
	started time.Time
}

// NewService probes the database and, when configured, redis.
func NewService(db *gorm.DB, rdb *redis.Client, version string) Service {
	s := &service{version: version, started: time.Now()}
	if db != nil {
		s.probes = append(s.probes, probe{name: "Database", ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}})
	}
	if rdb != nil {
		s.probes = append(s.probes, probe{name: "Redis", ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	return s
}

func (s *service) Check(ctx context.Context) Status {
	status := Status{
		Status:    StatusHealthy,
		Version:   s.version,
		Uptime:    time.Since(s.started).Truncate(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Services:  make([]Component, 0, len(s.probes)),
	}
	for _, p := range s.probes {
		component := Component{Name: p.name, Status: "up"}
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		if err := p.ping(pctx); err != nil {
			component.Status = "down"
			component.Message = err.Error()
			status.Status = StatusDegraded
		}
		cancel()
		status.Services = append(status.Services, component)
	}
	return status
}
