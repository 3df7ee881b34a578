package metrics

import "github.com/prometheus/client_golang/prometheus"

// DomainMetrics counts lifecycle outcomes for bookings, OTPs, and notifications.
type DomainMetrics struct {
	transitions   *prometheus.CounterVec
	otpEvents     *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// NewDomainMetrics registers the domain counters on the provided registerer.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "homesvc_booking_transitions_total",
		Help: "Booking status transitions applied.",
	}, []string{"from", "to"})
	otpEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "homesvc_otp_events_total",
		Help: "OTP issue and verification outcomes.",
	}, []string{"type", "outcome"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "homesvc_notifications_total",
		Help: "Notification delivery outcomes.",
	}, []string{"type", "outcome"})
	reg.MustRegister(transitions, otpEvents, notifications)
	return &DomainMetrics{
		transitions:   transitions,
		otpEvents:     otpEvents,
		notifications: notifications,
	}
}

// IncTransition counts one applied booking transition.
func (d *DomainMetrics) IncTransition(from, to string) {
	if d == nil || d.transitions == nil {
		return
	}
	d.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncOTP counts an OTP outcome such as issued, verified, or rejected.
func (d *DomainMetrics) IncOTP(otpType, outcome string) {
	if d == nil || d.otpEvents == nil {
		return
	}
	d.otpEvents.WithLabelValues(normalizeLabel(otpType), normalizeLabel(outcome)).Inc()
}

// IncNotification counts a notification outcome such as stored or failed.
func (d *DomainMetrics) IncNotification(notificationType, outcome string) {
	if d == nil || d.notifications == nil {
		return
	}
	d.notifications.WithLabelValues(normalizeLabel(notificationType), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
