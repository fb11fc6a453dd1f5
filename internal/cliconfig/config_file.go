package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Description        string `toml:"description"`
	WaitForDescription *bool  `toml:"wait_for_description"`
	Watch              *bool  `toml:"watch"`
	ReportPath         string `toml:"report_path"`
	LogLevel           string `toml:"log_level"`
	Backend            string `toml:"backend"`
	Actuator           string `toml:"actuator"`
	RobotURL           string `toml:"robot_url"`
	HTTPTimeout        string `toml:"http_timeout"`

	MQTT  FileMQTT  `toml:"mqtt"`
	Kafka FileKafka `toml:"kafka"`
	Redis FileRedis `toml:"redis"`

	Topics FileTopics `toml:"topics"`
	Motion FileMotion `toml:"motion"`
	Marker FileMarker `toml:"marker"`
}

// FileMQTT is the [mqtt] table.
type FileMQTT struct {
	Broker   string `toml:"broker"`
	Port     int    `toml:"port"`
	ClientID string `toml:"client_id"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	QoS      *int   `toml:"qos"`
}

// FileKafka is the [kafka] table.
type FileKafka struct {
	Brokers string `toml:"brokers"`
	GroupID string `toml:"group_id"`
}

// FileRedis is the [redis] table.
type FileRedis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       *int   `toml:"db"`
}

// FileTopics is the [topics] table.
type FileTopics struct {
	Pose     string `toml:"pose"`
	Velocity string `toml:"velocity"`
	Marker   string `toml:"marker"`
}

// FileMotion is the [motion] table.
type FileMotion struct {
	LinearSpeed      float64 `toml:"linear_speed"`
	AngularSpeed     float64 `toml:"angular_speed"`
	HeadingTolerance float64 `toml:"heading_tolerance"`
	PollInterval     string  `toml:"poll_interval"`
	StopSettle       string  `toml:"stop_settle"`
	CorrectOvershoot *bool   `toml:"correct_overshoot"`
	ReadyTimeout     string  `toml:"ready_timeout"`
}

// FileMarker is the [marker] table.
type FileMarker struct {
	Frame    string `toml:"frame"`
	Copies   int    `toml:"copies"`
	Interval string `toml:"interval"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.driveseq/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".driveseq", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("description", fc.Description, &cfg.DescriptionPath)
	s.setBool("wait", fc.WaitForDescription, &cfg.WaitForDescription)
	s.setBool("watch", fc.Watch, &cfg.Watch)
	s.setString("report", fc.ReportPath, &cfg.ReportPath)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("backend", fc.Backend, &cfg.Backend)
	s.setString("actuator", fc.Actuator, &cfg.Actuator)
	s.setString("robot-url", fc.RobotURL, &cfg.RobotURL)
	if err := s.setDuration("http-timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setString("mqtt-broker", fc.MQTT.Broker, &cfg.MQTTBroker)
	s.setInt("mqtt-port", fc.MQTT.Port, &cfg.MQTTPort)
	s.setString("mqtt-client-id", fc.MQTT.ClientID, &cfg.MQTTClientID)
	s.setString("mqtt-username", fc.MQTT.Username, &cfg.MQTTUsername)
	s.setString("mqtt-password", fc.MQTT.Password, &cfg.MQTTPassword)
	s.setIntPtr("mqtt-qos", fc.MQTT.QoS, &cfg.MQTTQoS)

	s.setString("kafka-brokers", fc.Kafka.Brokers, &cfg.KafkaBrokers)
	s.setString("kafka-group", fc.Kafka.GroupID, &cfg.KafkaGroupID)

	s.setString("redis-addr", fc.Redis.Addr, &cfg.RedisAddr)
	s.setString("redis-password", fc.Redis.Password, &cfg.RedisPassword)
	s.setIntPtr("redis-db", fc.Redis.DB, &cfg.RedisDB)

	s.setString("pose-topic", fc.Topics.Pose, &cfg.PoseTopic)
	s.setString("velocity-topic", fc.Topics.Velocity, &cfg.VelocityTopic)
	s.setString("marker-topic", fc.Topics.Marker, &cfg.MarkerTopic)

	s.setFloat("linear-speed", fc.Motion.LinearSpeed, &cfg.LinearSpeed)
	s.setFloat("angular-speed", fc.Motion.AngularSpeed, &cfg.AngularSpeed)
	s.setFloat("heading-tolerance", fc.Motion.HeadingTolerance, &cfg.HeadingTolerance)
	if err := s.setDuration("poll", fc.Motion.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("stop-settle", fc.Motion.StopSettle, &cfg.StopSettle); err != nil {
		return err
	}
	s.setBool("correct-overshoot", fc.Motion.CorrectOvershoot, &cfg.CorrectOvershoot)
	if err := s.setDuration("ready-timeout", fc.Motion.ReadyTimeout, &cfg.ReadyTimeout); err != nil {
		return err
	}

	s.setString("marker-frame", fc.Marker.Frame, &cfg.MarkerFrame)
	s.setInt("marker-copies", fc.Marker.Copies, &cfg.MarkerCopies)
	if err := s.setDuration("marker-interval", fc.Marker.Interval, &cfg.MarkerInterval); err != nil {
		return err
	}

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
