// Package messaging connects the executor to the vehicle over a message bus.
//
// A Client speaks MQTT, Kafka or Redis pub/sub. The pose source, velocity
// sink and marker sink are built on the narrower Transport interface and
// exchange rosbridge-shaped JSON documents.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/bft-labs/driveseq/pkg/log"
)

// connectAttempts bounds connection retries for backends without their own
// reconnect loop.
const connectAttempts = 5

// Transport publishes and subscribes raw payloads by topic.
type Transport interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe calls handler for each message on topic, sequentially and
	// in arrival order, until ctx ends.
	Subscribe(ctx context.Context, topic string, handler func(payload []byte)) error
}

// ErrNotConnected is returned when the client is used before Connect.
var ErrNotConnected = errors.New("messaging: not connected")

// Client is the unified messaging client (MQTT, Kafka or Redis).
type Client struct {
	mu      sync.RWMutex
	cfg     Config
	logger  log.Logger
	mqtt    mqtt.Client
	kafkaW  *kafkago.Writer
	readers []*kafkago.Reader
	redis   *redis.Client
}

// NewClient creates a messaging client based on config.
func NewClient(cfg Config, logger log.Logger) *Client {
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "driveseq-" + uuid.NewString()[:8]
	}
	return &Client{cfg: cfg, logger: logger}
}

// Connect establishes the messaging connection.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.cfg.Backend {
	case BackendMQTT:
		return c.connectMQTT(ctx)
	case BackendKafka:
		return c.connectKafka()
	default:
		return c.connectRedis(ctx)
	}
}

func (c *Client) connectMQTT(ctx context.Context) error {
	broker := fmt.Sprintf("tcp://%s:%d", c.cfg.MQTT.Broker, c.cfg.MQTT.Port)
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(c.cfg.MQTT.ClientID).
		SetUsername(c.cfg.MQTT.Username).
		SetPassword(c.cfg.MQTT.Password).
		SetOrderMatters(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		client.Disconnect(250)
		return fmt.Errorf("mqtt connect: %w", ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	c.logger.Info("connected to mqtt broker", log.String("broker", broker), log.String("client_id", c.cfg.MQTT.ClientID))
	c.mqtt = client
	return nil
}

func (c *Client) connectKafka() error {
	c.kafkaW = &kafkago.Writer{
		Addr:                   kafkago.TCP(c.cfg.Kafka.Brokers...),
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}
	c.logger.Info("kafka writer ready", log.Any("brokers", c.cfg.Kafka.Brokers))
	return nil
}

func (c *Client) connectRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     c.cfg.Redis.Addr,
		Password: c.cfg.Redis.Password,
		DB:       c.cfg.Redis.DB,
	})

	bo := newBackoff(DefaultBackoffInitial, DefaultBackoffMax)
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = client.Ping(ctx).Err(); err == nil {
			c.logger.Info("connected to redis", log.String("addr", c.cfg.Redis.Addr))
			c.redis = client
			return nil
		}
		c.logger.Warn("redis ping failed",
			log.Int("attempt", attempt),
			log.Duration("retry_in", bo.Current()),
			log.Err(err),
		)
		if attempt == connectAttempts {
			break
		}
		if sleepErr := bo.Sleep(ctx); sleepErr != nil {
			err = sleepErr
			break
		}
	}
	_ = client.Close()
	return fmt.Errorf("redis connect: %w", err)
}

// Publish sends payload to topic.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch c.cfg.Backend {
	case BackendMQTT:
		if c.mqtt == nil || !c.mqtt.IsConnected() {
			return ErrNotConnected
		}
		token := c.mqtt.Publish(topic, c.cfg.MQTT.QoS, false, payload)
		select {
		case <-token.Done():
			return token.Error()
		case <-ctx.Done():
			return ctx.Err()
		}
	case BackendKafka:
		if c.kafkaW == nil {
			return ErrNotConnected
		}
		return c.kafkaW.WriteMessages(ctx, kafkago.Message{Topic: topic, Value: payload})
	case BackendRedis:
		if c.redis == nil {
			return ErrNotConnected
		}
		return c.redis.Publish(ctx, topic, payload).Err()
	default:
		return fmt.Errorf("unknown backend: %s", c.cfg.Backend)
	}
}

// Subscribe registers handler for messages on topic until ctx ends.
func (c *Client) Subscribe(ctx context.Context, topic string, handler func(payload []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.cfg.Backend {
	case BackendMQTT:
		return c.subscribeMQTT(ctx, topic, handler)
	case BackendKafka:
		c.subscribeKafka(ctx, topic, handler)
		return nil
	case BackendRedis:
		return c.subscribeRedis(ctx, topic, handler)
	default:
		return fmt.Errorf("unknown backend: %s", c.cfg.Backend)
	}
}

func (c *Client) subscribeMQTT(ctx context.Context, topic string, handler func([]byte)) error {
	if c.mqtt == nil {
		return ErrNotConnected
	}
	token := c.mqtt.Subscribe(topic, c.cfg.MQTT.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", topic, err)
	}

	client := c.mqtt
	go func() {
		<-ctx.Done()
		if client.IsConnected() {
			client.Unsubscribe(topic).WaitTimeout(time.Second)
		}
	}()
	return nil
}

func (c *Client) subscribeKafka(ctx context.Context, topic string, handler func([]byte)) {
	cfg := kafkago.ReaderConfig{
		Brokers: c.cfg.Kafka.Brokers,
		Topic:   topic,
	}
	if c.cfg.Kafka.GroupID != "" {
		cfg.GroupID = c.cfg.Kafka.GroupID
		cfg.StartOffset = kafkago.LastOffset
	}
	reader := kafkago.NewReader(cfg)
	if cfg.GroupID == "" {
		if err := reader.SetOffset(kafkago.LastOffset); err != nil {
			c.logger.Warn("kafka set offset failed", log.String("topic", topic), log.Err(err))
		}
	}
	c.readers = append(c.readers, reader)

	go func() {
		bo := newBackoff(DefaultBackoffInitial, DefaultBackoffMax)
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					return
				}
				c.logger.Warn("kafka read failed",
					log.String("topic", topic),
					log.Duration("retry_in", bo.Current()),
					log.Err(err),
				)
				if bo.Sleep(ctx) != nil {
					return
				}
				continue
			}
			bo.Reset()
			handler(msg.Value)
		}
	}()
}

func (c *Client) subscribeRedis(ctx context.Context, topic string, handler func([]byte)) error {
	if c.redis == nil {
		return ErrNotConnected
	}
	sub := c.redis.Subscribe(ctx, topic)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe %s: %w", topic, err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// IsConnected returns whether the messaging client is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch c.cfg.Backend {
	case BackendMQTT:
		return c.mqtt != nil && c.mqtt.IsConnected()
	case BackendKafka:
		return c.kafkaW != nil
	case BackendRedis:
		return c.redis != nil
	default:
		return false
	}
}

// Close shuts down the messaging connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.mqtt != nil {
		c.mqtt.Disconnect(1000)
		c.mqtt = nil
	}
	if c.kafkaW != nil {
		errs = append(errs, c.kafkaW.Close())
		c.kafkaW = nil
	}
	for _, r := range c.readers {
		errs = append(errs, r.Close())
	}
	c.readers = nil
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
		c.redis = nil
	}
	return errors.Join(errs...)
}
