package main

import (
	// Go Internal Packages
	"context"
	"net/http"
	"time"

	// Local Packages
	errors "bankfeed/errors"
	promcollector "bankfeed/metrics/prometheus"
	push "bankfeed/push"
	pushamqp "bankfeed/push/amqp"
	pushkafka "bankfeed/push/kafka"
	pushstomp "bankfeed/push/stomp"

	// External Packages
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

// dialer builds the transport named by push.driver.
func (a *app) dialer() (push.Dialer, error) {
	p := a.conf.Push
	switch p.Driver {
	case "stomp":
		return pushstomp.NewDialer(pushstomp.Config{
			URL:         p.URL,
			Heartbeat:   p.Heartbeat,
			ChannelSize: p.ChannelSize,
			Token: func() string {
				token, _ := a.tokens.Get()
				return token
			},
		}, a.logger), nil
	case "kafka":
		var opts []kprom.Opt
		if a.registry != nil {
			opts = append(opts, kprom.Registerer(a.registry), kprom.Gatherer(a.registry))
		}
		return pushkafka.NewDialer(pushkafka.Config{
			Brokers:     a.conf.Kafka.Brokers,
			ClientID:    a.conf.Kafka.ClientID,
			ChannelSize: p.ChannelSize,
		}, kprom.NewMetrics(a.conf.Metrics.Namespace, opts...), a.logger), nil
	case "amqp":
		return pushamqp.NewDialer(pushamqp.Config{
			URL:         a.conf.AMQP.URL,
			Exchange:    a.conf.AMQP.Exchange,
			Heartbeat:   p.Heartbeat,
			ChannelSize: p.ChannelSize,
		}, a.logger), nil
	}
	return nil, errors.E(errors.Invalid, "unknown push driver "+p.Driver, nil)
}

// provider hands out the single push connection of the process.
func (a *app) provider() (*push.Provider, error) {
	dialer, err := a.dialer()
	if err != nil {
		return nil, err
	}
	r := a.conf.Push.Reconnect
	policy := push.ReconnectPolicy{
		Enabled:     r.Enabled,
		MaxAttempts: r.MaxAttempts,
		Delay:       r.Delay,
		MaxDelay:    r.MaxDelay,
	}
	return push.NewProvider(func() *push.Manager {
		return push.NewManager(dialer, a.logger, push.WithReconnect(policy), push.WithMetrics(a.metrics))
	}), nil
}

// serveMetrics exposes /metrics and /healthz until ctx is done. It does nothing when metrics are off.
func (a *app) serveMetrics(ctx context.Context, state func() string) {
	if a.registry == nil {
		return
	}
	srv := &http.Server{
		Addr:              a.conf.Metrics.Address,
		Handler:           promcollector.NewRouter(a.registry, state),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info("serving metrics", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
