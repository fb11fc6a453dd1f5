package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/driveseq/internal/adapters/fs"
	httpAdapter "github.com/bft-labs/driveseq/internal/adapters/http"
	"github.com/bft-labs/driveseq/internal/adapters/messaging"
	"github.com/bft-labs/driveseq/internal/adapters/sim"
	"github.com/bft-labs/driveseq/internal/app"
	"github.com/bft-labs/driveseq/internal/cliconfig"
	"github.com/bft-labs/driveseq/pkg/angle"
	"github.com/bft-labs/driveseq/pkg/executor"
	"github.com/bft-labs/driveseq/pkg/log"
)

const helpDescription = `
Drive a wheeled robot through a queue of rotate and move commands using
live odometry feedback, and publish an optional contour for display.

Pose feedback and velocity commands travel over MQTT, Kafka or Redis
pub/sub in rosbridge-shaped JSON. Velocity commands can go to the robot
REST API instead. The sim backend runs against a simulated vehicle.

Configure via $HOME/.driveseq/config.toml, DRIVESEQ_* variables, or flags.
`

var exampleUsage = strings.TrimSpace(`
  driveseq --description square.yaml
  driveseq --description square.yaml --watch
  driveseq run --backend mqtt --mqtt-broker 10.0.0.5 --description commands.json
  driveseq run --backend kafka --actuator http --robot-url http://robot:8080 -d commands.json
  driveseq validate commands.json
  driveseq simulate --backend redis
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	logger, _ := log.NewConsoleLogger(os.Stderr, "info")

	// load resolves file, env and flag settings; flags win over env, env over file.
	load := func(cmd *cobra.Command) error {
		cfgFile := cfgPath
		if cfgFile == "" {
			cfgFile = cliconfig.DefaultConfigPath()
		}

		changed := map[string]bool{}
		cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

		if cfgFile != "" && cliconfig.FileExists(cfgFile) {
			fc, err := cliconfig.LoadFileConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
				return err
			}
		}

		if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
			return err
		}

		l, err := log.NewConsoleLogger(os.Stderr, cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = l
		return nil
	}

	runE := func(cmd *cobra.Command, args []string) error {
		if err := load(cmd); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger.Info("configuration", log.Any("config", cfg.Redacted()))

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg, cmd.OutOrStdout(), logger)
	}

	root := &cobra.Command{
		Use:           "driveseq",
		Short:         "Execute rotate and move command queues with closed-loop pose feedback",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runE,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.driveseq/config.toml)")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a command description (default)",
		Args:  cobra.NoArgs,
		RunE:  runE,
	}

	for _, flags := range []*pflag.FlagSet{root.Flags(), runCmd.Flags()} {
		bindRunFlags(flags, &cfg)
		bindBusFlags(flags, &cfg)
	}

	validateCmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Parse a description without actuating anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := fs.LoadDescription(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d commands\n", args[0], len(desc.Commands))
			for i, c := range desc.Commands {
				fmt.Fprintf(out, "  %3d  %s\n", i, c)
			}
			if desc.Contour != nil {
				fmt.Fprintf(out, "contour: %d points\n", len(desc.Contour.Points))
			}
			return nil
		},
	}

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Serve a simulated vehicle on the message bus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(cmd); err != nil {
				return err
			}
			if cfg.Backend == cliconfig.BackendSim {
				return errors.New("simulate needs a bus backend (mqtt, kafka or redis)")
			}
			busCfg := cfg.Messaging()
			if err := busCfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client := messaging.NewClient(busCfg, logger)
			if err := client.Connect(ctx); err != nil {
				return fmt.Errorf("connect %s: %w", busCfg.Backend, err)
			}
			defer closeClient(client, logger)

			vehicle := sim.NewVehicle(sim.WithRealtime())
			return messaging.ServeVehicle(ctx, client, busCfg.Topics, cfg.MarkerFrame, vehicle, logger)
		},
	}
	bindBusFlags(simulateCmd.Flags(), &cfg)

	root.AddCommand(runCmd, validateCmd, simulateCmd)

	if err := root.Execute(); err != nil {
		logger.Error("driveseq", log.Err(err))
		os.Exit(1)
	}
}

func bindRunFlags(flags *pflag.FlagSet, cfg *cliconfig.Config) {
	flags.StringVarP(&cfg.DescriptionPath, "description", "d", cfg.DescriptionPath, "command description file (.json, .yaml)")
	flags.BoolVar(&cfg.WaitForDescription, "wait", cfg.WaitForDescription, "wait for the description file to appear")
	flags.BoolVar(&cfg.Watch, "watch", cfg.Watch, "rerun whenever the description file changes")
	flags.StringVar(&cfg.ReportPath, "report", cfg.ReportPath, "write a JSON run report to this path")

	flags.StringVar(&cfg.Actuator, "actuator", cfg.Actuator, "where velocity commands go (bus, http)")
	flags.StringVar(&cfg.RobotURL, "robot-url", cfg.RobotURL, "robot REST base URL for the http actuator")
	flags.DurationVar(&cfg.HTTPTimeout, "http-timeout", cfg.HTTPTimeout, "HTTP timeout")

	flags.Float64Var(&cfg.LinearSpeed, "linear-speed", cfg.LinearSpeed, "forward speed in m/s")
	flags.Float64Var(&cfg.AngularSpeed, "angular-speed", cfg.AngularSpeed, "turn rate in rad/s")
	flags.Float64Var(&cfg.HeadingTolerance, "heading-tolerance", cfg.HeadingTolerance, "rotate convergence band in radians")
	flags.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "control tick period")
	flags.DurationVar(&cfg.StopSettle, "stop-settle", cfg.StopSettle, "hold after each stop command (negative disables)")
	flags.BoolVar(&cfg.CorrectOvershoot, "correct-overshoot", cfg.CorrectOvershoot, "let rotate reverse after passing the target")
	flags.DurationVar(&cfg.ReadyTimeout, "ready-timeout", cfg.ReadyTimeout, "max wait for the first pose")

	flags.StringVar(&cfg.MarkerFrame, "marker-frame", cfg.MarkerFrame, "frame id of the contour marker")
	flags.IntVar(&cfg.MarkerCopies, "marker-copies", cfg.MarkerCopies, "times the contour marker is published")
	flags.DurationVar(&cfg.MarkerInterval, "marker-interval", cfg.MarkerInterval, "pause between marker copies")
}

func bindBusFlags(flags *pflag.FlagSet, cfg *cliconfig.Config) {
	flags.StringVar(&cfg.Backend, "backend", cfg.Backend, "pose backend (sim, mqtt, kafka, redis)")

	flags.StringVar(&cfg.MQTTBroker, "mqtt-broker", cfg.MQTTBroker, "MQTT broker host")
	flags.IntVar(&cfg.MQTTPort, "mqtt-port", cfg.MQTTPort, "MQTT broker port")
	flags.StringVar(&cfg.MQTTClientID, "mqtt-client-id", cfg.MQTTClientID, "MQTT client id (generated when empty)")
	flags.StringVar(&cfg.MQTTUsername, "mqtt-username", cfg.MQTTUsername, "MQTT username")
	flags.StringVar(&cfg.MQTTPassword, "mqtt-password", cfg.MQTTPassword, "MQTT password")
	flags.IntVar(&cfg.MQTTQoS, "mqtt-qos", cfg.MQTTQoS, "MQTT QoS (0, 1, 2)")

	flags.StringVar(&cfg.KafkaBrokers, "kafka-brokers", cfg.KafkaBrokers, "comma-separated Kafka brokers")
	flags.StringVar(&cfg.KafkaGroupID, "kafka-group", cfg.KafkaGroupID, "Kafka consumer group")

	flags.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address")
	flags.StringVar(&cfg.RedisPassword, "redis-password", cfg.RedisPassword, "Redis password")
	flags.IntVar(&cfg.RedisDB, "redis-db", cfg.RedisDB, "Redis database")

	flags.StringVar(&cfg.PoseTopic, "pose-topic", cfg.PoseTopic, "odometry topic")
	flags.StringVar(&cfg.VelocityTopic, "velocity-topic", cfg.VelocityTopic, "velocity command topic")
	flags.StringVar(&cfg.MarkerTopic, "marker-topic", cfg.MarkerTopic, "contour marker topic")
}

// run wires the collaborators for cfg and executes the description. With
// cfg.Watch it keeps running and restarts whenever the file changes.
func run(ctx context.Context, cfg cliconfig.Config, out io.Writer, logger log.Logger) error {
	if cfg.WaitForDescription {
		if err := fs.WaitForFile(ctx, cfg.DescriptionPath, logger); err != nil {
			return err
		}
	}
	desc, err := fs.LoadDescription(cfg.DescriptionPath)
	if err != nil {
		return err
	}

	var (
		source       executor.PoseSource
		velocitySink executor.VelocitySink
		markerSink   executor.MarkerSink
	)
	if cfg.Backend == cliconfig.BackendSim {
		vehicle := sim.NewVehicle(sim.WithRealtime())
		source, velocitySink, markerSink = vehicle, vehicle, sim.NewMarkerRecorder()
	} else {
		busCfg := cfg.Messaging()
		client := messaging.NewClient(busCfg, logger)
		if err := client.Connect(ctx); err != nil {
			return fmt.Errorf("connect %s: %w", busCfg.Backend, err)
		}
		defer closeClient(client, logger)

		source = messaging.NewPoseSource(client, busCfg.Topics.Pose, logger)
		markerSink = messaging.NewMarkerSink(client, busCfg.Topics.Marker, logger)
		velocitySink = messaging.NewVelocitySink(client, busCfg.Topics.Velocity)

		if cfg.Actuator == cliconfig.ActuatorHTTP {
			robot := httpAdapter.NewVelocitySink(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.RobotURL, logger)
			if err := robot.Probe(ctx); err != nil {
				return fmt.Errorf("robot at %s: %w", cfg.RobotURL, err)
			}
			velocitySink = robot
		}
	}

	hub := app.NewPoseHub(source)
	if err := hub.Start(ctx); err != nil {
		return fmt.Errorf("subscribe to pose feedback: %w", err)
	}

	opts := []executor.Option{
		executor.WithLogger(logger),
		executor.WithPoseSource(hub),
		executor.WithVelocitySink(velocitySink),
		executor.WithMarkerSink(markerSink),
	}
	if cfg.ReportPath != "" {
		opts = append(opts, executor.WithReportRepository(fs.NewReportFileRepository(cfg.ReportPath)))
	}

	execute := func(ctx context.Context, desc executor.Description) error {
		progress := &progressHandler{out: out, total: len(desc.Commands)}
		ex, err := executor.New(cfg.Executor(), desc, append(opts, executor.WithEventHandler(progress))...)
		if err != nil {
			return fmt.Errorf("create executor: %w", err)
		}
		if err := ex.Start(ctx); err != nil {
			return fmt.Errorf("start executor: %w", err)
		}

		err = ex.Wait(context.Background())
		report := ex.Report()
		logger.Info("run ended",
			log.String("run_id", report.RunID),
			log.String("phase", report.Phase),
			log.Int("commands", len(report.Commands)),
			log.Int("contour_delivered", report.ContourDelivered),
		)
		return err
	}

	if !cfg.Watch {
		err := execute(ctx, desc)
		if errors.Is(err, context.Canceled) {
			logger.Info("received signal, stopped")
		}
		return err
	}
	return watch(ctx, fs.NewDescriptionWatcher(cfg.DescriptionPath, fs.DefaultDebounce, logger), desc, execute, logger)
}

// watch runs desc and restarts with the new document on every change,
// cancelling a run still in progress. It returns when ctx ends.
func watch(ctx context.Context, watcher *fs.DescriptionWatcher, desc executor.Description,
	execute func(context.Context, executor.Description) error, logger log.Logger) error {
	reloads := make(chan executor.Description, 1)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- watcher.Watch(ctx, func(d executor.Description) {
			// Only the latest document matters.
			select {
			case <-reloads:
			default:
			}
			reloads <- d
		})
	}()

	watcherFailed := func(err error) error {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("watch description: %w", err)
	}

	for {
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func(d executor.Description) { done <- execute(runCtx, d) }(desc)

		select {
		case err := <-done:
			cancel()
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("run failed, waiting for the description to change", log.Err(err))
			} else {
				logger.Info("waiting for the description to change")
			}
			select {
			case desc = <-reloads:
			case err := <-watchErr:
				return watcherFailed(err)
			case <-ctx.Done():
				return nil
			}

		case desc = <-reloads:
			logger.Info("description changed, restarting")
			cancel()
			<-done

		case err := <-watchErr:
			cancel()
			<-done
			return watcherFailed(err)

		case <-ctx.Done():
			cancel()
			<-done
			logger.Info("received signal, stopped")
			return nil
		}
	}
}

func closeClient(client *messaging.Client, logger log.Logger) {
	if err := client.Close(); err != nil {
		logger.Warn("failed to close bus client", log.Err(err))
	}
}

// progressHandler prints one line per command to out.
type progressHandler struct {
	executor.BaseEventHandler
	out   io.Writer
	total int
}

func (h *progressHandler) OnCommandStart(e executor.CommandEvent) {
	fmt.Fprintf(h.out, "[%d/%d] %s\n", e.Index+1, h.total, e.Command)
}

func (h *progressHandler) OnCommandDone(e executor.CommandDoneEvent) {
	if e.Error != nil {
		fmt.Fprintf(h.out, "[%d/%d] failed after %s: %v\n", e.Index+1, h.total, e.Duration.Round(time.Millisecond), e.Error)
		return
	}
	fmt.Fprintf(h.out, "[%d/%d] done in %s, %d ticks, pose (%.2f, %.2f) heading %.1fdeg\n",
		e.Index+1, h.total, e.Duration.Round(time.Millisecond), e.Ticks,
		e.Final.Position.X, e.Final.Position.Y, angle.Degrees(e.Final.Heading))
}
