package monitoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"edu-gate/internal/models"
)

// Monitor counts pipeline outcomes. It is safe for concurrent use.
type Monitor struct {
	mu        sync.Mutex
	startedAt time.Time

	resolutions       map[models.SourceMethod]int
	resolutionFailure int
	decisions         map[models.VerificationStatus]int
	quotaDegraded     int

	lastJobName    string
	lastJobSuccess bool
	lastJobTime    time.Time
}

func NewMonitor() *Monitor {
	return &Monitor{
		startedAt:   time.Now(),
		resolutions: make(map[models.SourceMethod]int),
		decisions:   make(map[models.VerificationStatus]int),
	}
}

func (m *Monitor) RecordResolution(method models.SourceMethod, duration time.Duration) {
	m.mu.Lock()
	m.resolutions[method]++
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{"method": method, "duration": duration}).Info("Transcript resolved")
}

func (m *Monitor) RecordResolutionFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.resolutionFailure++
	m.mu.Unlock()

	logrus.WithError(err).WithField("duration", duration).Warn("Transcript resolution failed")
}

// RecordDecision counts a final decision. degraded marks a quota rejection
// that was turned into a pending decision.
func (m *Monitor) RecordDecision(status models.VerificationStatus, degraded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions[status]++
	if degraded {
		m.quotaDegraded++
	}
}

func (m *Monitor) RecordJob(name string, err error, duration time.Duration) {
	m.mu.Lock()
	m.lastJobName = name
	m.lastJobSuccess = err == nil
	m.lastJobTime = time.Now()
	m.mu.Unlock()

	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"job": name, "duration": duration}).Error("Scheduled job failed")
		return
	}
	logrus.WithFields(logrus.Fields{"job": name, "duration": duration}).Info("Scheduled job completed")
}

// IsHealthy is false only while the last scheduled job has failed.
func (m *Monitor) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastJobTime.IsZero() || m.lastJobSuccess
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	UptimeSeconds      int64                             `json:"uptime_seconds"`
	Resolutions        map[models.SourceMethod]int       `json:"resolutions"`
	ResolutionFailures int                               `json:"resolution_failures"`
	Decisions          map[models.VerificationStatus]int `json:"decisions"`
	QuotaDegraded      int                               `json:"quota_degraded"`
	LastJob            string                            `json:"last_job,omitempty"`
	LastJobSuccess     bool                              `json:"last_job_success"`
	LastJobTime        *time.Time                        `json:"last_job_time,omitempty"`
}

func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		UptimeSeconds:      int64(time.Since(m.startedAt).Seconds()),
		Resolutions:        make(map[models.SourceMethod]int, len(m.resolutions)),
		ResolutionFailures: m.resolutionFailure,
		Decisions:          make(map[models.VerificationStatus]int, len(m.decisions)),
		QuotaDegraded:      m.quotaDegraded,
		LastJob:            m.lastJobName,
		LastJobSuccess:     m.lastJobSuccess,
	}
	for k, v := range m.resolutions {
		s.Resolutions[k] = v
	}
	for k, v := range m.decisions {
		s.Decisions[k] = v
	}
	if !m.lastJobTime.IsZero() {
		t := m.lastJobTime
		s.LastJobTime = &t
	}
	return s
}

func (m *Monitor) GetStatusSummary() string {
	s := m.Snapshot()
	total := 0
	for _, n := range s.Resolutions {
		total += n
	}
	summary := fmt.Sprintf("%d transcripts resolved, %d failed, %d quota-degraded decisions",
		total, s.ResolutionFailures, s.QuotaDegraded)
	if s.LastJobTime != nil {
		state := "ok"
		if !s.LastJobSuccess {
			state = "failed"
		}
		summary += fmt.Sprintf("; last job %s %s at %s", s.LastJob, state, s.LastJobTime.Format("Jan 2 15:04"))
	}
	return summary
}
