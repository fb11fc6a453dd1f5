package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	zero := 0

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				Description: "/tmp/square.json",
				Backend:     BackendMQTT,
				HTTPTimeout: "2s",
				MQTT:        FileMQTT{Broker: "broker.local", Port: 8883, QoS: &zero},
				Motion: FileMotion{
					LinearSpeed:      0.4,
					PollInterval:     "20ms",
					StopSettle:       "-1s",
					CorrectOvershoot: &trueVal,
				},
				Marker: FileMarker{Copies: 3},
			},
			changed: map[string]bool{},
			initial: Config{MQTTQoS: 1},
			expected: Config{
				DescriptionPath:  "/tmp/square.json",
				Backend:          BackendMQTT,
				HTTPTimeout:      2 * time.Second,
				MQTTBroker:       "broker.local",
				MQTTPort:         8883,
				MQTTQoS:          0,
				LinearSpeed:      0.4,
				PollInterval:     20 * time.Millisecond,
				StopSettle:       -time.Second,
				CorrectOvershoot: true,
				MarkerCopies:     3,
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				Description: "/config/commands.yaml",
				Backend:     BackendRedis,
			},
			changed: map[string]bool{"description": true},
			initial: Config{
				DescriptionPath: "/flag/commands.json",
				Backend:         BackendSim,
			},
			expected: Config{
				DescriptionPath: "/flag/commands.json", // unchanged because flag was set
				Backend:         BackendRedis,
			},
			wantErr: false,
		},
		{
			name:       "zero values keep defaults",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial: Config{
				LinearSpeed:  0.29,
				MarkerCopies: 10,
			},
			expected: Config{
				LinearSpeed:  0.29,
				MarkerCopies: 10,
			},
			wantErr: false,
		},
		{
			name: "returns error for invalid duration",
			fileConfig: FileConfig{
				Motion: FileMotion{ReadyTimeout: "soon"},
			},
			changed: map[string]bool{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyFileConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyFileConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	// Create a temporary TOML file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.toml")

	tomlContent := `
description = "/tmp/square.yaml"
backend = "kafka"
log_level = "debug"

[kafka]
brokers = "k1:9092,k2:9092"
group_id = "driveseq"

[topics]
pose = "robot/odom"

[motion]
angular_speed = 0.5
stop_settle = "250ms"
correct_overshoot = true

[marker]
copies = 5
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.Description != "/tmp/square.yaml" {
		t.Errorf("Description = %v, want /tmp/square.yaml", fc.Description)
	}
	if fc.Backend != "kafka" {
		t.Errorf("Backend = %v, want kafka", fc.Backend)
	}
	if fc.Kafka.Brokers != "k1:9092,k2:9092" {
		t.Errorf("Kafka.Brokers = %v", fc.Kafka.Brokers)
	}
	if fc.Topics.Pose != "robot/odom" {
		t.Errorf("Topics.Pose = %v, want robot/odom", fc.Topics.Pose)
	}
	if fc.Motion.AngularSpeed != 0.5 {
		t.Errorf("Motion.AngularSpeed = %v, want 0.5", fc.Motion.AngularSpeed)
	}
	if fc.Motion.StopSettle != "250ms" {
		t.Errorf("Motion.StopSettle = %v, want 250ms", fc.Motion.StopSettle)
	}
	if fc.Motion.CorrectOvershoot == nil || *fc.Motion.CorrectOvershoot != true {
		t.Errorf("Motion.CorrectOvershoot = %v, want true", fc.Motion.CorrectOvershoot)
	}
	if fc.Marker.Copies != 5 {
		t.Errorf("Marker.Copies = %v, want 5", fc.Marker.Copies)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
backend = "sim"
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	// Should return a path containing .driveseq
	if path != "" && !strings.Contains(path, ".driveseq") {
		t.Errorf("DefaultConfigPath() = %v, should contain .driveseq", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
