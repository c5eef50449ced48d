// Package natsclock is an alternate tick.Host driven by NATS JetStream
// messages instead of a local time.Ticker: a distributed deployment publishes
// logic/render tick signals onto a JetStream stream from one authoritative
// clock process, and every other process subscribes through this Host so all
// of them tick in lockstep.
package natsclock

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Config is the connection and stream configuration for a JetStream-backed
// tick signal stream.
type Config struct {
	URLs           []string
	StreamName     string
	SubjectPrefix  string
	DurableName    string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// Host subscribes to two JetStream consumers, one per tick subject, and fans
// each delivered message out as a logic or render tick with a delta time
// measured between the local arrival times of consecutive messages; the
// message payload is not read.
type Host struct {
	conn          *nats.Conn
	js            jetstream.JetStream
	streamName    string
	subjectPrefix string
	rendering     bool
	logger        *log.Logger
}

// Connect dials NATS and creates the JetStream context and stream used for
// tick signals. rendering controls whether IsRendering reports true and
// whether the render consumer is ever created.
func Connect(cfg Config, rendering bool, logger *log.Logger) (*Host, error) {
	if logger == nil {
		logger = log.Default()
	}
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Printf("di: natsclock disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Printf("di: natsclock reconnected to %s", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(cfg.URLs[0], opts...)
	if err != nil {
		return nil, fmt.Errorf("natsclock: connect: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("natsclock: jetstream context: %w", err)
	}

	streamCfg := jetstream.StreamConfig{
		Name:      cfg.StreamName,
		Subjects:  []string{fmt.Sprintf("%s.>", cfg.SubjectPrefix)},
		Retention: jetstream.LimitsPolicy,
		MaxMsgs:   1,
		Storage:   jetstream.MemoryStorage,
		Discard:   jetstream.DiscardOld,
	}
	if _, err := js.CreateOrUpdateStream(context.Background(), streamCfg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("natsclock: create stream: %w", err)
	}

	return &Host{conn: conn, js: js, streamName: cfg.StreamName, subjectPrefix: cfg.SubjectPrefix, rendering: rendering, logger: logger}, nil
}

func (h *Host) IsRendering() bool { return h.rendering }

func (h *Host) SubscribeLogicTick(fn func(deltaTime float64)) func() {
	return h.subscribe("logic", fn)
}

func (h *Host) SubscribeRenderTick(fn func(deltaTime float64)) func() {
	if !h.rendering {
		return func() {}
	}
	return h.subscribe("render", fn)
}

func (h *Host) subscribe(kind string, fn func(deltaTime float64)) func() {
	subject := fmt.Sprintf("%s.tick.%s", h.subjectPrefix, kind)
	ctx, cancel := context.WithCancel(context.Background())

	consumer, err := h.js.CreateOrUpdateConsumer(ctx, h.streamName, jetstream.ConsumerConfig{
		Durable:       fmt.Sprintf("tick-%s-consumer", kind),
		AckPolicy:     jetstream.AckNonePolicy,
		FilterSubject: subject,
	})
	if err != nil {
		h.logger.Printf("di: natsclock: failed to create %s tick consumer: %v", kind, err)
		cancel()
		return func() {}
	}

	go func() {
		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			msgs, err := consumer.Fetch(1, jetstream.FetchMaxWait(time.Second))
			if err != nil {
				continue
			}
			for range msgs.Messages() {
				now := time.Now()
				dt := now.Sub(last).Seconds()
				last = now
				fn(dt)
			}
		}
	}()

	return cancel
}

// Close disconnects from NATS.
func (h *Host) Close() {
	h.conn.Close()
}
