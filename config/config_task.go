package config

import (
	"fmt"
	"time"

	"github.com/relaygw/relay/pkg/task"

	"github.com/google/uuid"
)

func (c *Config) registerTasks(file *configFile) error {
	for _, cfg := range file.Tasks {
		if cfg.Request == "" {
			return fmt.Errorf("task %q requires a request", cfg.Title)
		}

		if cfg.IntervalSeconds <= 0 {
			return fmt.Errorf("task %q requires a positive interval", cfg.Title)
		}

		// Configured tasks get a stable id derived from their content so a
		// restart updates the persisted row instead of adding a twin.
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(cfg.Title+"\x00"+cfg.Request)).String()

		c.tasks = append(c.tasks, task.Definition{
			ID: id,

			Title: cfg.Title,

			Request: cfg.Request,

			Interval: time.Duration(cfg.IntervalSeconds) * time.Second,

			ExecuteImmediately: cfg.Immediate,

			Provider: cfg.Provider,
			Model:    cfg.Model,
		})
	}

	return nil
}

// Tasks returns the statically configured task definitions, ids included.
func (c *Config) Tasks() []task.Definition {
	return c.tasks
}
