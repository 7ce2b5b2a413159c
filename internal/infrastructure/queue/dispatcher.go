package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wolvesgale/ToDo-Appli/internal/api/metrics"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
	"github.com/wolvesgale/ToDo-Appli/pkg/logger"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher delivers notifications off the request path. Events are routed
// to a fixed set of workers by consistent hashing on the recipient, so one
// user's notifications are stored in publish order.
type Dispatcher struct {
	workers       []chan ports.NotifyInput
	notifications ports.NotificationService
	log           zerolog.Logger
	wg            sync.WaitGroup
}

var _ ports.NotificationPublisher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, notifications ports.NotificationService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:       make([]chan ports.NotifyInput, numWorkers),
		notifications: notifications,
		log:           logger.Component(log, "notify_dispatcher"),
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.NotifyInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their queue and stop
// when ctx is cancelled; Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

func (d *Dispatcher) Wait() { d.wg.Wait() }

// Publish enqueues a notification for the worker owning its recipient. When
// that worker's queue is full the notification is dropped and logged rather
// than blocking the caller.
func (d *Dispatcher) Publish(_ context.Context, in ports.NotifyInput) {
	idx := d.shardIndex(in.UserID)
	select {
	case d.workers[idx] <- in:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.NotificationsDispatchedTotal.WithLabelValues(string(in.Type), "dropped").Inc()
		d.log.Warn().Str("user_id", in.UserID).Str("type", string(in.Type)).Int("worker_id", idx).Msg("notification queue full, dropping")
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch chan ports.NotifyInput) {
	defer d.wg.Done()
	// Accepted notifications are stored even while shutting down.
	deliverCtx := context.WithoutCancel(ctx)
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			d.drain(deliverCtx, id, ch)
			return
		case in := <-ch:
			metrics.NotificationQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.deliver(deliverCtx, id, in)
		}
	}
}

// drain stores what is still queued at shutdown.
func (d *Dispatcher) drain(ctx context.Context, id int, ch chan ports.NotifyInput) {
	for {
		select {
		case in := <-ch:
			d.deliver(ctx, id, in)
		default:
			metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(0)
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, in ports.NotifyInput) {
	if _, err := d.notifications.Notify(ctx, in); err != nil {
		metrics.NotificationsDispatchedTotal.WithLabelValues(string(in.Type), "failed").Inc()
		d.log.Error().Err(err).
			Str("user_id", in.UserID).
			Str("type", string(in.Type)).
			Int("worker_id", id).
			Msg("notification delivery failed")
		return
	}
	metrics.NotificationsDispatchedTotal.WithLabelValues(string(in.Type), "stored").Inc()
}
