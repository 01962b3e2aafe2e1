package scheduler

import (
	"errors"

	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared"
)

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrSweepInProgress is returned when a sweep is requested while another one is running
	ErrSweepInProgress = shared.NewDomainError("SWEEP_IN_PROGRESS", "Stale-debt sweep already in progress")
)
