package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/driveseq/internal/adapters/messaging"
	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/pkg/executor"
)

// Pose backends. BackendSim runs against an in-process simulated vehicle.
const (
	BackendSim   = "sim"
	BackendMQTT  = messaging.BackendMQTT
	BackendKafka = messaging.BackendKafka
	BackendRedis = messaging.BackendRedis
)

// Actuators select where velocity commands go.
const (
	ActuatorBus  = "bus"
	ActuatorHTTP = "http"
)

// Config holds CLI configuration for driveseq.
type Config struct {
	DescriptionPath    string
	WaitForDescription bool
	Watch              bool
	ReportPath         string
	LogLevel           string

	Backend  string
	Actuator string

	RobotURL    string
	HTTPTimeout time.Duration

	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
	MQTTQoS      int

	KafkaBrokers string
	KafkaGroupID string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PoseTopic     string
	VelocityTopic string
	MarkerTopic   string

	LinearSpeed      float64
	AngularSpeed     float64
	HeadingTolerance float64
	PollInterval     time.Duration
	StopSettle       time.Duration
	CorrectOvershoot bool
	ReadyTimeout     time.Duration

	MarkerFrame    string
	MarkerCopies   int
	MarkerInterval time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	bus := messaging.DefaultConfig()
	ex := executor.Config{}
	ex.SetDefaults()

	return Config{
		LogLevel:         "info",
		Backend:          BackendSim,
		Actuator:         ActuatorBus,
		HTTPTimeout:      5 * time.Second,
		MQTTBroker:       bus.MQTT.Broker,
		MQTTPort:         bus.MQTT.Port,
		MQTTQoS:          int(bus.MQTT.QoS),
		KafkaBrokers:     strings.Join(bus.Kafka.Brokers, ","),
		RedisAddr:        bus.Redis.Addr,
		PoseTopic:        bus.Topics.Pose,
		VelocityTopic:    bus.Topics.Velocity,
		MarkerTopic:      bus.Topics.Marker,
		LinearSpeed:      ex.LinearSpeed,
		AngularSpeed:     ex.AngularSpeed,
		HeadingTolerance: ex.HeadingTolerance,
		PollInterval:     ex.PollInterval,
		StopSettle:       ex.StopSettle,
		ReadyTimeout:     ex.ReadyTimeout,
		MarkerFrame:      ex.MarkerFrame,
		MarkerCopies:     ex.MarkerCopies,
		MarkerInterval:   ex.MarkerInterval,
	}
}

// Validate checks the configuration for errors and normalizes derived values.
func (c *Config) Validate() error {
	if c.DescriptionPath == "" {
		return fmt.Errorf("%w: description is required", domain.ErrInvalidConfig)
	}

	switch c.Backend {
	case BackendSim, BackendMQTT, BackendKafka, BackendRedis:
	default:
		return fmt.Errorf("%w: unknown backend %q", domain.ErrInvalidConfig, c.Backend)
	}

	switch c.Actuator {
	case ActuatorBus:
	case ActuatorHTTP:
		if c.Backend == BackendSim {
			return fmt.Errorf("%w: http actuator needs a bus backend for pose feedback", domain.ErrInvalidConfig)
		}
		if c.RobotURL == "" {
			return fmt.Errorf("%w: robot-url is required with the http actuator", domain.ErrInvalidConfig)
		}
		if c.HTTPTimeout <= 0 {
			return fmt.Errorf("%w: http timeout must be positive", domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown actuator %q", domain.ErrInvalidConfig, c.Actuator)
	}

	// Ensure no trailing slash
	c.RobotURL = strings.TrimRight(c.RobotURL, "/")

	if c.MQTTQoS < 0 || c.MQTTQoS > 2 {
		return fmt.Errorf("%w: mqtt qos must be 0, 1 or 2", domain.ErrInvalidConfig)
	}

	if c.Backend != BackendSim {
		if err := c.Messaging().Validate(); err != nil {
			return err
		}
	}

	ex := c.Executor()
	ex.SetDefaults()
	return ex.Validate()
}

// Messaging returns the bus settings for the selected backend.
func (c Config) Messaging() messaging.Config {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return messaging.Config{
		Backend: c.Backend,
		MQTT: messaging.MQTTConfig{
			Broker:   c.MQTTBroker,
			Port:     c.MQTTPort,
			ClientID: c.MQTTClientID,
			Username: c.MQTTUsername,
			Password: c.MQTTPassword,
			QoS:      byte(c.MQTTQoS),
		},
		Kafka: messaging.KafkaConfig{
			Brokers: brokers,
			GroupID: c.KafkaGroupID,
		},
		Redis: messaging.RedisConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		},
		Topics: messaging.Topics{
			Pose:     c.PoseTopic,
			Velocity: c.VelocityTopic,
			Marker:   c.MarkerTopic,
		},
	}
}

// Executor returns the run parameters.
func (c Config) Executor() executor.Config {
	return executor.Config{
		LinearSpeed:      c.LinearSpeed,
		AngularSpeed:     c.AngularSpeed,
		HeadingTolerance: c.HeadingTolerance,
		PollInterval:     c.PollInterval,
		StopSettle:       c.StopSettle,
		CorrectOvershoot: c.CorrectOvershoot,
		ReadyTimeout:     c.ReadyTimeout,
		MarkerFrame:      c.MarkerFrame,
		MarkerCopies:     c.MarkerCopies,
		MarkerInterval:   c.MarkerInterval,
	}
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.MQTTPassword != "" {
		c.MQTTPassword = "*****"
	}
	if c.RedisPassword != "" {
		c.RedisPassword = "*****"
	}
	return c
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntPtr sets an int value from a pointer so zero can be configured.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i < 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
