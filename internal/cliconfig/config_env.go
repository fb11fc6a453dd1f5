package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (DRIVESEQ_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("description", os.Getenv("DRIVESEQ_DESCRIPTION"), &cfg.DescriptionPath)
	s.setBoolFromString("wait", os.Getenv("DRIVESEQ_WAIT"), &cfg.WaitForDescription)
	s.setBoolFromString("watch", os.Getenv("DRIVESEQ_WATCH"), &cfg.Watch)
	s.setString("report", os.Getenv("DRIVESEQ_REPORT"), &cfg.ReportPath)
	s.setString("log-level", os.Getenv("DRIVESEQ_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("backend", os.Getenv("DRIVESEQ_BACKEND"), &cfg.Backend)
	s.setString("actuator", os.Getenv("DRIVESEQ_ACTUATOR"), &cfg.Actuator)
	s.setString("robot-url", os.Getenv("DRIVESEQ_ROBOT_URL"), &cfg.RobotURL)
	if err := s.setDuration("http-timeout", os.Getenv("DRIVESEQ_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setString("mqtt-broker", os.Getenv("DRIVESEQ_MQTT_BROKER"), &cfg.MQTTBroker)
	if err := s.setIntFromString("mqtt-port", os.Getenv("DRIVESEQ_MQTT_PORT"), &cfg.MQTTPort); err != nil {
		return err
	}
	s.setString("mqtt-client-id", os.Getenv("DRIVESEQ_MQTT_CLIENT_ID"), &cfg.MQTTClientID)
	s.setString("mqtt-username", os.Getenv("DRIVESEQ_MQTT_USERNAME"), &cfg.MQTTUsername)
	s.setString("mqtt-password", os.Getenv("DRIVESEQ_MQTT_PASSWORD"), &cfg.MQTTPassword)
	if err := s.setIntFromString("mqtt-qos", os.Getenv("DRIVESEQ_MQTT_QOS"), &cfg.MQTTQoS); err != nil {
		return err
	}

	s.setString("kafka-brokers", os.Getenv("DRIVESEQ_KAFKA_BROKERS"), &cfg.KafkaBrokers)
	s.setString("kafka-group", os.Getenv("DRIVESEQ_KAFKA_GROUP"), &cfg.KafkaGroupID)

	s.setString("redis-addr", os.Getenv("DRIVESEQ_REDIS_ADDR"), &cfg.RedisAddr)
	s.setString("redis-password", os.Getenv("DRIVESEQ_REDIS_PASSWORD"), &cfg.RedisPassword)
	if err := s.setIntFromString("redis-db", os.Getenv("DRIVESEQ_REDIS_DB"), &cfg.RedisDB); err != nil {
		return err
	}

	s.setString("pose-topic", os.Getenv("DRIVESEQ_POSE_TOPIC"), &cfg.PoseTopic)
	s.setString("velocity-topic", os.Getenv("DRIVESEQ_VELOCITY_TOPIC"), &cfg.VelocityTopic)
	s.setString("marker-topic", os.Getenv("DRIVESEQ_MARKER_TOPIC"), &cfg.MarkerTopic)

	if err := s.setFloatFromString("linear-speed", os.Getenv("DRIVESEQ_LINEAR_SPEED"), &cfg.LinearSpeed); err != nil {
		return err
	}
	if err := s.setFloatFromString("angular-speed", os.Getenv("DRIVESEQ_ANGULAR_SPEED"), &cfg.AngularSpeed); err != nil {
		return err
	}
	if err := s.setFloatFromString("heading-tolerance", os.Getenv("DRIVESEQ_HEADING_TOLERANCE"), &cfg.HeadingTolerance); err != nil {
		return err
	}
	if err := s.setDuration("poll", os.Getenv("DRIVESEQ_POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("stop-settle", os.Getenv("DRIVESEQ_STOP_SETTLE"), &cfg.StopSettle); err != nil {
		return err
	}
	s.setBoolFromString("correct-overshoot", os.Getenv("DRIVESEQ_CORRECT_OVERSHOOT"), &cfg.CorrectOvershoot)
	if err := s.setDuration("ready-timeout", os.Getenv("DRIVESEQ_READY_TIMEOUT"), &cfg.ReadyTimeout); err != nil {
		return err
	}

	s.setString("marker-frame", os.Getenv("DRIVESEQ_MARKER_FRAME"), &cfg.MarkerFrame)
	if err := s.setIntFromString("marker-copies", os.Getenv("DRIVESEQ_MARKER_COPIES"), &cfg.MarkerCopies); err != nil {
		return err
	}
	if err := s.setDuration("marker-interval", os.Getenv("DRIVESEQ_MARKER_INTERVAL"), &cfg.MarkerInterval); err != nil {
		return err
	}

	return nil
}
