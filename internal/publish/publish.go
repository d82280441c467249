// Package publish pushes countdown snapshots to an MQTT topic so signage
// screens can mirror the board.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/passerby/internal/location"
	"github.com/smokyabdulrahman/passerby/internal/prayer"
	"github.com/smokyabdulrahman/passerby/internal/ticker"
)

const (
	// QoS is at-least-once; screens treat messages idempotently.
	QoS = 1

	// DefaultInterval bounds how long a screen goes without a message.
	DefaultInterval = time.Minute

	publishTimeout = 5 * time.Second
	quiesceMillis  = 250
)

// Publisher sends one payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Client is an MQTT connection.
type Client struct {
	client mqtt.Client
	log    zerolog.Logger
}

// Dial connects to broker (e.g. "tcp://localhost:1883") with a unique
// client id.
func Dial(ctx context.Context, broker string, log zerolog.Logger) (*Client, error) {
	log = log.With().Str("component", "mqtt").Str("broker", broker).Logger()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID("passerby-" + uuid.NewString())
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Msg("connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	}

	c := mqtt.NewClient(opts)
	token := c.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		c.Disconnect(0)
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", broker, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", broker, err)
	}
	return &Client{client: c, log: log}, nil
}

// Publish sends payload with QoS 1 and waits for the broker's ack.
func (c *Client) Publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, QoS, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timed out after %s", topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (c *Client) Close() {
	c.client.Disconnect(quiesceMillis)
}

// Message is the JSON payload published for a snapshot.
type Message struct {
	Location         location.Location `json:"location"`
	Prayer           prayer.Name       `json:"prayer"`
	Time             string            `json:"time"`
	IsGrace          bool              `json:"is_grace"`
	SecondsUntilNext int               `json:"seconds_until_next"`
	Countdown        string            `json:"countdown"`
	At               time.Time         `json:"at"`
}

// Feed decides which snapshots are worth publishing: any change of the
// displayed prayer, grace flag or location, and otherwise one per Interval.
type Feed struct {
	pub      Publisher
	topic    string
	location func() location.Location
	Interval time.Duration
	log      zerolog.Logger

	pending chan ticker.Snapshot

	mu     sync.Mutex
	last   feedKey
	lastAt time.Time
	sent   bool
}

type feedKey struct {
	prayer  prayer.Name
	grace   bool
	city    string
	country string
}

// NewFeed returns a Feed publishing to topic. loc reports the location to
// stamp on each message.
func NewFeed(pub Publisher, topic string, loc func() location.Location, log zerolog.Logger) *Feed {
	return &Feed{
		pub:      pub,
		topic:    topic,
		location: loc,
		Interval: DefaultInterval,
		log:      log.With().Str("component", "feed").Str("topic", topic).Logger(),
		pending:  make(chan ticker.Snapshot, 1),
	}
}

// Emit queues s without blocking; a snapshot still waiting is replaced. It is
// a ticker.Emitter.
func (f *Feed) Emit(s ticker.Snapshot) {
	for {
		select {
		case f.pending <- s:
			return
		default:
		}
		select {
		case <-f.pending:
		default:
		}
	}
}

// Run publishes queued snapshots until ctx is done.
func (f *Feed) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s := <-f.pending:
			if _, err := f.handle(s); err != nil {
				f.log.Warn().Err(err).Msg("publish failed")
			}
		}
	}
}

// handle publishes s when due and reports whether it did.
func (f *Feed) handle(s ticker.Snapshot) (bool, error) {
	loc := f.location()
	key := feedKey{prayer: s.PrayerName, grace: s.IsGrace, city: loc.City, country: loc.CountryCode}

	f.mu.Lock()
	due := !f.sent || key != f.last || s.At.Sub(f.lastAt) >= f.Interval
	f.mu.Unlock()
	if !due {
		return false, nil
	}

	payload, err := json.Marshal(Message{
		Location:         loc,
		Prayer:           s.PrayerName,
		Time:             s.PrayerTime,
		IsGrace:          s.IsGrace,
		SecondsUntilNext: s.SecondsUntilNext(),
		Countdown:        s.Countdown(),
		At:               s.At,
	})
	if err != nil {
		return false, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.pub.Publish(f.topic, payload); err != nil {
		return false, err
	}

	f.mu.Lock()
	f.last, f.lastAt, f.sent = key, s.At, true
	f.mu.Unlock()

	f.log.Debug().Str("prayer", string(s.PrayerName)).Bool("grace", s.IsGrace).Msg("snapshot published")
	return true, nil
}
