package interfaces

import "time"

// JobStatus represents the current status of a scheduled job
type JobStatus struct {
	Name        string     `json:"name"`
	Enabled     bool       `json:"enabled"`
	AutoStart   bool       `json:"auto_start"`
	Schedule    string     `json:"schedule"`
	Description string     `json:"description"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	IsRunning   bool       `json:"is_running"`
	LastError   string     `json:"last_error,omitempty"`
}

// SchedulerService manages cron-based jobs
type SchedulerService interface {
	Start() error
	Stop() error
	IsRunning() bool

	// RegisterJob registers an enabled job; autoStart jobs also run once when the scheduler starts
	RegisterJob(name, schedule, description string, autoStart bool, handler func() error) error
	EnableJob(name string) error
	DisableJob(name string) error
	TriggerJob(name string) error
	GetJobStatus(name string) (*JobStatus, error)
	GetAllJobStatuses() map[string]*JobStatus
}
