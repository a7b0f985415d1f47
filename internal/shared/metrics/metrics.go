package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	jobsAcceptedTotal  atomic.Uint64
	jobsCompletedTotal atomic.Uint64
	jobsFailedTotal    atomic.Uint64
	fallbackTotal      atomic.Uint64

	queueJobsReceivedTotal             atomic.Uint64
	queueJobsCompletedTotal            atomic.Uint64
	queueJobsFailedTotal               atomic.Uint64
	queueJobsDeletedUnrecoverableTotal atomic.Uint64

	jobDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncJobAccepted increments the accepted counter.
func IncJobAccepted() {
	jobsAcceptedTotal.Add(1)
}

// IncJobCompleted increments the completed counter.
func IncJobCompleted() {
	jobsCompletedTotal.Add(1)
}

// IncJobFailed increments the failed counter.
func IncJobFailed() {
	jobsFailedTotal.Add(1)
}

// IncAnalysisFallback increments the fallback counter.
func IncAnalysisFallback() {
	fallbackTotal.Add(1)
}

// IncQueueJobsReceived increments the queue received counter.
func IncQueueJobsReceived() {
	queueJobsReceivedTotal.Add(1)
}

// IncQueueJobsCompleted increments the queue completed counter.
func IncQueueJobsCompleted() {
	queueJobsCompletedTotal.Add(1)
}

// IncQueueJobsFailed increments the queue failed counter.
func IncQueueJobsFailed() {
	queueJobsFailedTotal.Add(1)
}

// IncQueueJobsDeletedUnrecoverable counts messages dropped as unrecoverable.
func IncQueueJobsDeletedUnrecoverable() {
	queueJobsDeletedUnrecoverableTotal.Add(1)
}

// ObserveJobDurationMs records a pipeline duration in milliseconds.
func ObserveJobDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	jobDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "audit_jobs_accepted_total", "Total audit jobs accepted", jobsAcceptedTotal.Load())
	writeCounter(&buf, "audit_jobs_completed_total", "Total audit jobs delivered", jobsCompletedTotal.Load())
	writeCounter(&buf, "audit_jobs_failed_total", "Total audit jobs failed", jobsFailedTotal.Load())
	writeCounter(&buf, "audit_analysis_fallback_total", "Total analyses resolved via fallback", fallbackTotal.Load())
	writeCounter(&buf, "audit_queue_jobs_received_total", "Total queue messages received", queueJobsReceivedTotal.Load())
	writeCounter(&buf, "audit_queue_jobs_completed_total", "Total queue messages processed", queueJobsCompletedTotal.Load())
	writeCounter(&buf, "audit_queue_jobs_failed_total", "Total queue messages failed", queueJobsFailedTotal.Load())
	writeCounter(&buf, "audit_queue_jobs_deleted_unrecoverable_total", "Total queue messages dropped as unrecoverable", queueJobsDeletedUnrecoverableTotal.Load())
	writeHistogram(&buf, "audit_job_duration_ms", "Pipeline duration in milliseconds", jobDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
