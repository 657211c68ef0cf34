package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"servicehub/internal/logger"
	"servicehub/internal/utility"
)

// Notifier requests a push to every device of the given users. It never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, userIDs []string, p Payload)
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(context.Context, []string, Payload) {}

type request struct {
	userIDs []string
	payload Payload
}

// Dispatcher is a Notifier backed by a bounded queue and a worker pool.
// A full queue drops the request with a warning.
type Dispatcher struct {
	devices DeviceStore
	sender  Sender
	workers int
	timeout time.Duration

	queue   chan request
	done    chan struct{}
	cache   *utility.Cache[[]Device]
	wg      sync.WaitGroup
	start   sync.Once
	stop    sync.Once
}

// NewDispatcher builds a dispatcher. Requests queued before Start wait for the workers.
func NewDispatcher(devices DeviceStore, sender Sender, workers, queueSize int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Dispatcher{
		devices: devices,
		sender:  sender,
		workers: workers,
		timeout: 10 * time.Second,
		queue:   make(chan request, queueSize),
		done:    make(chan struct{}),
		cache:   utility.NewCache[[]Device](time.Minute, 5*time.Minute),
	}
}

// Start launches the workers.
func (d *Dispatcher) Start() {
	d.start.Do(func() {
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.run()
		}
		logger.WithModule("notification").WithField("workers", d.workers).Info("notification dispatcher started")
	})
}

// Stop delivers what is already queued and waits for the workers.
func (d *Dispatcher) Stop() {
	d.stop.Do(func() {
		close(d.done)
		d.wg.Wait()
		d.cache.Stop()
	})
}

// Notify queues p for userIDs without blocking.
func (d *Dispatcher) Notify(_ context.Context, userIDs []string, p Payload) {
	if len(userIDs) == 0 {
		return
	}
	log := logger.WithModule("notification")
	select {
	case <-d.done:
		log.Warn("notification dropped: dispatcher stopped")
		return
	default:
	}
	select {
	case d.queue <- request{userIDs: append([]string(nil), userIDs...), payload: p}:
	default:
		log.WithField("users", len(userIDs)).Warn("notification dropped: queue full")
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case r := <-d.queue:
			d.safeDeliver(r)
		case <-d.done:
			for {
				select {
				case r := <-d.queue:
					d.safeDeliver(r)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) safeDeliver(r request) {
	utility.GoProtect(func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		d.deliver(ctx, r)
	})
}

// deliver sends r to each device of each user. Failures are logged per device.
func (d *Dispatcher) deliver(ctx context.Context, r request) {
	log := logger.WithModule("notification")
	for _, userID := range r.userIDs {
		devices, err := d.devicesOf(ctx, userID)
		if err != nil {
			log.WithError(err).WithField("user", userID).Error("load devices")
			continue
		}
		for _, dev := range devices {
			err := d.sender.Send(ctx, dev, r.payload)
			if err == nil {
				continue
			}
			entry := log.WithError(err).WithFields(map[string]interface{}{
				"user":       userID,
				"deviceType": dev.DeviceType,
			})
			if errors.Is(err, ErrDeviceGone) {
				entry.Info("removing unregistered device")
				if err := d.devices.RemoveToken(ctx, dev.Token); err != nil {
					log.WithError(err).Warn("remove device")
				}
				d.cache.Delete(userID)
				continue
			}
			entry.Warn("push failed")
		}
	}
}

func (d *Dispatcher) devicesOf(ctx context.Context, userID string) ([]Device, error) {
	if devs, ok := d.cache.Get(userID); ok {
		return devs, nil
	}
	devs, err := d.devices.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	d.cache.Set(userID, devs)
	return devs, nil
}

// Forget drops the cached devices of userID, e.g. after a new registration.
func (d *Dispatcher) Forget(userID string) {
	d.cache.Delete(userID)
}
