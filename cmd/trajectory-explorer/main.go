// Command trajectory-explorer analyzes a raster time-space diagram from
// the command line: it loads a PNG, extracts vehicle trajectories, runs a
// scripted sequence of measurement requests against them and exports the
// recorded results.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/jlaval-gh/Trajectory-Explorer/internal/api"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/config"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/dispatcher"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/extract"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/handlers"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/influx"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/logging"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/measure"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/monitor"
	intOtel "github.com/jlaval-gh/Trajectory-Explorer/internal/otel"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/storage"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/worker"
)

// AppVersion and BuildDate can be set at build time via ldflags.
var (
	AppVersion string = "0.0.1"
	BuildDate  string = "unknown"

	AppName string = "trajectory-explorer"
)

// global state
var (
	SessionStartTime time.Time = time.Now()

	SlogManager *logging.SlogManager
	Logger      *slog.Logger

	OTelProvider *intOtel.Provider

	sessionLogFile *os.File

	// services
	handlerService  *handlers.Service
	workerManager   *worker.Manager
	eventDispatcher *dispatcher.Dispatcher
	storageBackend  storage.Backend
	influxManager   *influx.Manager
	monitorService  *monitor.Service
)

// setup loads configuration and wires every service. Config and storage
// problems degrade to defaults instead of aborting so a bare binary next
// to a PNG still works.
func setup() error {
	SlogManager = logging.NewSlogManager()

	if err := config.Load("."); err != nil {
		// defaults are layered before the file read, so a missing config
		// file still yields a fully configured run
		fmt.Fprintf(os.Stderr, "config: %v, using defaults\n", err)
	}

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	var err error
	sessionLogFile, err = os.Create(logging.LogFilePath(logsDir, AppName, SessionStartTime))
	if err != nil {
		return fmt.Errorf("creating session log: %w", err)
	}

	OTelProvider, err = intOtel.New(intOtel.FromAppConfig(config.GetOTelConfig(), sessionLogFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "otel: %v, telemetry disabled\n", err)
		OTelProvider, _ = intOtel.New(intOtel.Config{})
	}

	SlogManager.Setup(sessionLogFile, viper.GetString("logLevel"), OTelProvider.LoggerProvider())
	Logger = SlogManager.Logger()
	Logger.Info("Starting up", "version", AppVersion, "buildDate", BuildDate)

	zlog := zerolog.New(sessionLogFile).With().Timestamp().Logger()

	storageBackend, err = storage.NewBackend(config.GetStorageConfig(), zlog)
	if err != nil {
		Logger.Warn("Storage backend unavailable, results kept in session only", "error", err)
		storageBackend = nil
	} else if err := storageBackend.Init(); err != nil {
		Logger.Warn("Storage backend init failed, results kept in session only", "error", err)
		storageBackend = nil
	}

	if viper.GetBool("influx.enabled") {
		influxManager = influx.NewManager(zlog, filepath.Join(logsDir, "influx_backup.lp.gz"))
		if err := influxManager.Connect(); err != nil {
			Logger.Warn("InfluxDB unavailable, metrics disabled", "error", err)
			influxManager = nil
		}
	}

	workerManager = worker.NewManager(Logger)

	measureCfg := measure.Config{
		WindowDuration:      viper.GetFloat64("measure.windowDuration"),
		ApertureLength:      viper.GetFloat64("measure.apertureLength"),
		PlatoonCount:        viper.GetInt("measure.platoonCount"),
		SegmentHeight:       viper.GetFloat64("measure.segmentHeight"),
		DefaultWaveSpeedKmh: viper.GetFloat64("measure.defaultWaveSpeedKmh"),
	}
	extractCfg := extract.Config{
		ColumnStep:     viper.GetInt("extract.columnStep"),
		MinPoints:      viper.GetInt("extract.minPoints"),
		WhiteTolerance: viper.GetFloat64("extract.whiteTolerance"),
	}

	var uploader *api.Client
	if viper.GetBool("api.enabled") {
		uploader = api.New(viper.GetString("api.url"), viper.GetString("api.key"))
		if err := uploader.Healthcheck(); err != nil {
			Logger.Warn("Results frontend unreachable, uploads disabled", "error", err)
			uploader = nil
		}
	}

	handlerService = handlers.NewService(handlers.Dependencies{
		LogManager: SlogManager,
		Extractor:  extract.New(extractCfg, Logger),
		Engine:     measure.New(measureCfg, Logger),
		EngineCfg:  measureCfg,
		Worker:     workerManager,
		Backend:    storageBackend,
		Influx:     influxManager,
		Uploader:   uploader,
	}, handlers.NewDiagramContext())

	eventDispatcher, err = dispatcher.New(logging.NewDispatcherLogger(Logger))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	handlerService.RegisterHandlers(eventDispatcher)

	monitorService = monitor.NewService(monitor.Dependencies{
		LogManager: SlogManager,
		Session:    handlerService,
		StatusPath: filepath.Join(logsDir, "status.json"),
		Interval:   time.Second,
	})
	if err := monitorService.Start(); err != nil {
		Logger.Warn("Status monitor failed to start", "error", err)
	}

	return nil
}

// teardown flushes telemetry and closes the session log.
func teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if monitorService != nil {
		monitorService.Stop()
	}
	if influxManager != nil {
		if err := influxManager.Close(); err != nil {
			Logger.Warn("Closing InfluxDB", "error", err)
		}
	}
	if storageBackend != nil {
		if err := storageBackend.Close(); err != nil {
			Logger.Warn("Closing storage backend", "error", err)
		}
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "otel shutdown: %v\n", err)
		}
	}
	if sessionLogFile != nil {
		sessionLogFile.Close()
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: %s <diagram.png> <temporalSpanMin> <spatialSpanM> <script>

The script is a text file of analysis commands, one per line:

  mode <line|polygon|platoon|loopdetector>
  point <timeMin> <positionM>
  export <path> <csv|tsv>

Lines starting with # are comments.
`, AppName)
}

// dispatch runs one command and prints the event string the handler
// returned.
func dispatch(e dispatcher.Event) error {
	res, err := eventDispatcher.Dispatch(e)
	if err != nil {
		return err
	}
	if s, ok := res.(string); ok && s != "" {
		fmt.Println(s)
	}
	return nil
}

func run(args []string) error {
	if len(args) < 4 {
		usage()
		return fmt.Errorf("expected 4 arguments, got %d", len(args))
	}

	events, err := readScript(args[3])
	if err != nil {
		return err
	}

	if err := dispatch(dispatcher.Event{
		Command:   ":LOAD:DIAGRAM:",
		Args:      []string{args[0], args[1], args[2]},
		Timestamp: time.Now(),
	}); err != nil {
		return err
	}

	for _, e := range events {
		if err := dispatch(e); err != nil {
			return err
		}
	}

	return dispatch(dispatcher.Event{Command: ":END:DIAGRAM:", Timestamp: time.Now()})
}

func main() {
	if err := setup(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
	defer teardown()

	if err := run(os.Args[1:]); err != nil {
		Logger.Error("Run failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		teardown()
		os.Exit(1)
	}
	Logger.Info("Session complete")
}
