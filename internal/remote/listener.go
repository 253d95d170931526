package remote

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"lumeer-engine/internal/store"
)

// Dispatcher applies actions to the local store.
type Dispatcher interface {
	Dispatch(action store.Action) (string, error)
}

// Backoff computes reconnect delays: InitialDelay * Multiplier^attempt, capped at MaxDelay.
type Backoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func DefaultBackoff() Backoff {
	return Backoff{InitialDelay: time.Second, MaxDelay: 30 * time.Second, Multiplier: 2}
}

func (b Backoff) Delay(attempt int) time.Duration {
	delay := float64(b.InitialDelay) * math.Pow(b.Multiplier, float64(attempt))
	if delay > float64(b.MaxDelay) {
		return b.MaxDelay
	}
	return time.Duration(delay)
}

// Listener keeps a websocket open to the Remote Store and applies every push notification.
type Listener struct {
	url        string
	token      string
	dispatcher Dispatcher
	dialer     *websocket.Dialer
	backoff    Backoff
	log        zerolog.Logger
}

func NewListener(url, token string, dispatcher Dispatcher, backoff Backoff, log zerolog.Logger) *Listener {
	return &Listener{
		url:        url,
		token:      token,
		dispatcher: dispatcher,
		dialer:     websocket.DefaultDialer,
		backoff:    backoff,
		log:        log,
	}
}

// Run reads notifications until ctx is cancelled, reconnecting with backoff after failures.
func (l *Listener) Run(ctx context.Context) error {
	attempt := 0
	for {
		connected, err := l.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			attempt = 0
		}
		delay := l.backoff.Delay(attempt)
		attempt++
		l.log.Warn().Err(err).Dur("retry_in", delay).Msg("push notification stream lost")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// listen serves one connection. It reports whether the connection was established.
func (l *Listener) listen(ctx context.Context) (bool, error) {
	header := http.Header{}
	if l.token != "" {
		header.Set("Authorization", "Bearer "+l.token)
	}
	conn, _, err := l.dialer.DialContext(ctx, l.url, header)
	if err != nil {
		return false, err
	}
	defer conn.Close()
	l.log.Info().Str("url", l.url).Msg("push notification stream connected")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var notification Notification
		if err := conn.ReadJSON(&notification); err != nil {
			return true, err
		}
		l.apply(notification)
	}
}

func (l *Listener) apply(notification Notification) {
	action, err := notification.Action()
	if err != nil {
		l.log.Warn().Err(err).Str("kind", string(notification.Kind)).Msg("skipping notification")
		return
	}
	if _, err := l.dispatcher.Dispatch(action); err != nil {
		l.log.Warn().Err(err).Str("kind", string(notification.Kind)).Msg("notification rejected by store")
	}
}
