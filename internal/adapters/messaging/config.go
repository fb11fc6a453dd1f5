package messaging

import (
	"fmt"
	"strings"

	"github.com/bft-labs/driveseq/internal/domain"
)

// Supported backends.
const (
	BackendMQTT  = "mqtt"
	BackendKafka = "kafka"
	BackendRedis = "redis"
)

// Default topic names, matching the robot middleware conventions.
const (
	DefaultPoseTopic     = "odom"
	DefaultVelocityTopic = "cmd_vel"
	DefaultMarkerTopic   = "visualization_marker"
)

// Config selects and configures the message bus.
type Config struct {
	Backend string
	MQTT    MQTTConfig
	Kafka   KafkaConfig
	Redis   RedisConfig
	Topics  Topics
}

// MQTTConfig defines MQTT broker settings.
type MQTTConfig struct {
	Broker   string
	Port     int
	ClientID string
	Username string
	Password string
	QoS      byte
}

// KafkaConfig defines Kafka broker settings. An empty GroupID reads the
// first partition from the latest offset.
type KafkaConfig struct {
	Brokers []string
	GroupID string
}

// RedisConfig defines the Redis pub/sub server.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Topics names the three channels the executor uses.
type Topics struct {
	Pose     string
	Velocity string
	Marker   string
}

// DefaultConfig returns an MQTT configuration for a local broker.
func DefaultConfig() Config {
	return Config{
		Backend: BackendMQTT,
		MQTT: MQTTConfig{
			Broker: "localhost",
			Port:   1883,
			QoS:    1,
		},
		Kafka: KafkaConfig{Brokers: []string{"localhost:9092"}},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Topics: Topics{
			Pose:     DefaultPoseTopic,
			Velocity: DefaultVelocityTopic,
			Marker:   DefaultMarkerTopic,
		},
	}
}

// Validate checks the settings of the selected backend.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMQTT:
		if c.MQTT.Broker == "" || c.MQTT.Port <= 0 {
			return fmt.Errorf("%w: mqtt broker and port are required", domain.ErrInvalidConfig)
		}
		if c.MQTT.QoS > 2 {
			return fmt.Errorf("%w: mqtt qos must be 0, 1 or 2", domain.ErrInvalidConfig)
		}
	case BackendKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("%w: kafka brokers are required", domain.ErrInvalidConfig)
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("%w: redis address is required", domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown messaging backend %q (want %s)", domain.ErrInvalidConfig,
			c.Backend, strings.Join([]string{BackendMQTT, BackendKafka, BackendRedis}, ", "))
	}

	if c.Topics.Pose == "" || c.Topics.Velocity == "" || c.Topics.Marker == "" {
		return fmt.Errorf("%w: pose, velocity and marker topics are required", domain.ErrInvalidConfig)
	}
	return nil
}
