package sse

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultKeepAliveInterval stays under the idle timeout of common proxies.
const DefaultKeepAliveInterval = 10 * time.Second

// Config holds per-connection SSE settings.
type Config struct {
	KeepAliveInterval time.Duration
}

// DefaultConfig returns the settings used when the caller passes none.
func DefaultConfig() *Config {
	return &Config{KeepAliveInterval: DefaultKeepAliveInterval}
}

// KeepAliveWriter writes one keep-alive comment to a client.
type KeepAliveWriter interface {
	WriteKeepAlive() error
}

// KeepAlive pings a client on a fixed interval until it is stopped or a
// write fails.
type KeepAlive struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// StartKeepAlive starts pinging w in a new goroutine.
func StartKeepAlive(w KeepAliveWriter, interval time.Duration, logger *slog.Logger) *KeepAlive {
	k := &KeepAlive{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(k.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-k.stop:
				return
			case <-ticker.C:
				if err := w.WriteKeepAlive(); err != nil {
					logger.Debug("keep-alive write failed, stopping", "error", err)
					return
				}
			}
		}
	}()

	return k
}

// Done is closed once the goroutine has exited.
func (k *KeepAlive) Done() <-chan struct{} {
	return k.done
}

// Stop ends the pings and waits for the goroutine, so no write happens after
// it returns. Safe to call more than once.
func (k *KeepAlive) Stop() {
	k.stopOnce.Do(func() { close(k.stop) })
	<-k.done
}
