package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/homefix/homeservices-backend/pkg/logger"
)

type OTPSweepJobParams struct {
	Logger  *logger.Logger
	Sweeper otpSweeper
}

type otpSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// NewOTPSweepJob deletes expired one-time codes.
func NewOTPSweepJob(params OTPSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("otp sweeper required")
	}
	return &otpSweepJob{logg: params.Logger, sweeper: params.Sweeper}, nil
}

type otpSweepJob struct {
	logg    *logger.Logger
	sweeper otpSweeper
}

func (j *otpSweepJob) Name() string { return "otp-sweep" }

func (j *otpSweepJob) Run(ctx context.Context) error {
	start := time.Now()
	deleted, err := j.sweeper.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("otp sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"rows_deleted": deleted,
		"elapsed_ms":   time.Since(start).Milliseconds(),
	})
	j.logg.Info(logCtx, "otp sweep complete")
	return nil
}
