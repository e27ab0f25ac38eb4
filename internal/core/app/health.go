package app

import (
	"context"
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(_ context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if s.app.Parser == nil {
		status.Status = "degraded"
		status.Components["parser"] = "missing"
	} else {
		status.Components["parser"] = fmt.Sprintf("ok (css backend %s)", s.app.Parser.BackendFor("x.css"))
	}

	if s.app.history != nil {
		status.Components["history"] = fmt.Sprintf("ok (%s)", s.app.history.Path())
	} else if s.app.Config != nil && s.app.Config.History.Enabled {
		status.Status = "degraded"
		status.Components["history"] = "missing but enabled in config"
	}

	if last := s.app.Last(); last != nil {
		status.Components["last_run"] = fmt.Sprintf("ok (%d scanned, %d failed)", last.Result.Scanned, last.Result.Failed)
	} else {
		status.Components["last_run"] = "none"
	}

	return status
}
