package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	// otherJob absorbs job names the collector was not told about.
	otherJob = "other"
)

// CronJobMetrics records maintenance job runs for the cron worker. The job
// label is limited to the names passed at construction.
type CronJobMetrics struct {
	duration    *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	jobs        map[string]struct{}
	now         func() time.Time
}

// NewCronJobMetrics registers cron metrics and pre-creates a zero series for
// every job so dashboards see idle jobs.
func NewCronJobMetrics(reg prometheus.Registerer, jobs ...string) *CronJobMetrics {
	known := make(map[string]struct{}, len(jobs))
	for _, job := range jobs {
		if job != "" {
			known[job] = struct{}{}
		}
	}
	if reg == nil {
		return &CronJobMetrics{jobs: known, now: time.Now}
	}

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "homesvc_cron_job_duration_seconds",
		Help:    "Duration of maintenance job runs in seconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "homesvc_cron_job_runs_total",
		Help: "Maintenance job runs by outcome.",
	}, []string{"job", "outcome"})
	lastSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "homesvc_cron_job_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run per job.",
	}, []string{"job"})
	reg.MustRegister(duration, runs, lastSuccess)

	for job := range known {
		runs.WithLabelValues(job, outcomeSuccess)
		runs.WithLabelValues(job, outcomeFailure)
	}
	return &CronJobMetrics{
		duration:    duration,
		runs:        runs,
		lastSuccess: lastSuccess,
		jobs:        known,
		now:         time.Now,
	}
}

func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(c.label(job)).Observe(duration.Seconds())
}

// IncSuccess counts a successful run and stamps the job's last success time.
func (c *CronJobMetrics) IncSuccess(job string) {
	if c == nil || c.runs == nil {
		return
	}
	label := c.label(job)
	c.runs.WithLabelValues(label, outcomeSuccess).Inc()
	c.lastSuccess.WithLabelValues(label).Set(float64(c.now().Unix()))
}

func (c *CronJobMetrics) IncFailure(job string) {
	if c == nil || c.runs == nil {
		return
	}
	c.runs.WithLabelValues(c.label(job), outcomeFailure).Inc()
}

func (c *CronJobMetrics) label(job string) string {
	if _, ok := c.jobs[job]; ok {
		return job
	}
	return otherJob
}
