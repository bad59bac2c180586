package push

import (
	// Go Internal Packages
	"context"
	"strings"

	// Local Packages
	models "bankfeed/models"
)

// Dialer opens one session with the push broker.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}

// Session is a live transport session. Records for a subscribed topic arrive on the returned
// channel in broker order; the channel is closed when the session ends.
type Session interface {
	Subscribe(ctx context.Context, topic string) (<-chan models.Record, error)
	// Done is closed once the session has ended, for any reason.
	Done() <-chan struct{}
	// Err returns the reason the session ended, nil after a clean Close.
	Err() error
	Close() error
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context) (Session, error)

func (f DialerFunc) Dial(ctx context.Context) (Session, error) {
	return f(ctx)
}

// RoutingKey maps a STOMP style destination to the broker routing key or topic name used by
// the Kafka and AMQP drivers: "/topic/payments/success" becomes "payments.success".
func RoutingKey(destination string) string {
	key := strings.TrimPrefix(destination, "/topic/")
	key = strings.Trim(key, "/")
	return strings.ReplaceAll(key, "/", ".")
}
