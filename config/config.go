package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	stdlog "log"
	"log/slog"
	"os"
	"path"
	"sync"
	"time"

	"github.com/gwos/zbxctl/logzer"
	"github.com/gwos/zbxctl/sdk/clients"
	tcgerr "github.com/gwos/zbxctl/sdk/errors"
	sdklog "github.com/gwos/zbxctl/sdk/log"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"gopkg.in/yaml.v3"
)

var (
	once sync.Once
	cfg  *Config
)

// SecVerPrefix marks encrypted values in config file
const SecVerPrefix = "_v1_"

// LogLevel defines levels in logrus-style
type LogLevel int

// Enum levels
const (
	Error LogLevel = iota
	Warn
	Info
	Debug
	Trace
)

func (l LogLevel) String() string {
	return [...]string{"Error", "Warn", "Info", "Debug", "Trace"}[l.clamp()]
}

// ZerologLevel returns matching zerolog level, out of range values are clamped
func (l LogLevel) ZerologLevel() zerolog.Level {
	return [...]zerolog.Level{
		zerolog.ErrorLevel,
		zerolog.WarnLevel,
		zerolog.InfoLevel,
		zerolog.DebugLevel,
		zerolog.TraceLevel,
	}[l.clamp()]
}

func (l LogLevel) clamp() LogLevel {
	return min(max(l, Error), Trace)
}

// Connection defines Zabbix API connection configuration
type Connection clients.ZabbixConnection

// AsClient returns as clients type
func (c *Connection) AsClient() *clients.ZabbixConnection {
	conn := clients.ZabbixConnection(*c)
	return &conn
}

// LoadCredentials reads the pre-built login request from CredentialsFile
func (c *Connection) LoadCredentials() error {
	if c.CredentialsFile == "" {
		return nil
	}
	data, err := os.ReadFile(c.CredentialsFile)
	if err != nil {
		return fmt.Errorf("%w: could not read credentials: %v", tcgerr.ErrBadRequest, err)
	}
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return fmt.Errorf("%w: credentials are not valid JSON: %s", tcgerr.ErrBadRequest, c.CredentialsFile)
	}
	c.Credentials = data
	return nil
}

// MarshalYAML implements yaml.Marshaler interface
// and stores the password encrypted if SecKeyEnv is set
func (c Connection) MarshalYAML() (any, error) {
	type plain Connection
	p := plain(c)
	var err error
	p.Password, err = EncryptSecret(p.Password)
	return p, err
}

// UnmarshalYAML implements the yaml.Unmarshaler interface
// and decrypts the password
func (c *Connection) UnmarshalYAML(unmarshal func(any) error) error {
	type plain Connection
	if err := unmarshal((*plain)(c)); err != nil {
		return err
	}
	var err error
	c.Password, err = DecryptSecret(c.Password)
	return err
}

// Logging defines logger configuration
type Logging struct {
	// LogCondense accepts time duration for condensing similar records
	// if 0 turn off condensing
	LogCondense time.Duration `env:"LOGCONDENSE" yaml:"logCondense"`
	// LogFile accepts file path to log in addition to stderr
	LogFile        string `env:"LOGFILE" yaml:"logFile"`
	LogFileMaxSize int64  `env:"LOGFILEMAXSIZE" yaml:"logFileMaxSize"`
	// Log files are rotated count times before being removed.
	// If count is 0, old versions are removed rather than rotated.
	LogFileRotate int      `env:"LOGFILEROTATE" yaml:"logFileRotate"`
	LogLevel      LogLevel `env:"LOGLEVEL" yaml:"logLevel"`
	LogColors     bool     `env:"LOGCOLORS" yaml:"logColors"`
	LogTimeFormat string   `env:"LOGTIMEFORMAT" yaml:"logTimeFormat"`
}

// Config defines zbxctl configuration
type Config struct {
	Connection Connection `envPrefix:"CONNECTION_" yaml:"connection"`
	Logging    Logging    `envPrefix:"LOGGING_" yaml:"logging"`
}

func defaults() Config {
	return Config{
		Connection: Connection{
			AppName:  "zbxctl",
			TokenTTL: clients.DefaultTokenTTL,
		},
		Logging: Logging{
			LogCondense:    0,
			LogFileMaxSize: 1024 * 1024 * 10, // 10MB
			LogFileRotate:  5,
			LogLevel:       Warn,
			LogColors:      false,
			LogTimeFormat:  time.RFC3339,
		},
	}
}

// GetConfig implements Singleton pattern
func GetConfig() *Config {
	once.Do(func() {
		/* buffer the logging while configuring */
		logBuf := &logzer.LogBuffer{
			Level: zerolog.TraceLevel,
			Size:  16,
		}
		log.Logger = zerolog.New(logBuf).
			With().Timestamp().Caller().Logger()
		log.Info().Msgf("Build info: %s / %s", buildTag, buildTime)

		cfg = load()

		/* init logger and flush buffer */
		w := cfg.initLogger()
		logzer.WriteLogBuffer(logBuf, w)
	})
	return cfg
}

// load merges defaults, file, and env
func load() *Config {
	applyFlags()
	c := new(Config)
	*c = defaults()
	if data, err := os.ReadFile(c.ConfigPath()); err != nil {
		log.Warn().Err(err).
			Str("configPath", c.ConfigPath()).
			Msg("could not read config")
	} else {
		if err := yaml.Unmarshal(data, c); err != nil {
			log.Err(err).
				Str("configData", string(data)).
				Str("configPath", c.ConfigPath()).
				Msg("could not parse config")
		}
	}
	if err := applyEnv(c); err != nil {
		log.Warn().Err(err).
			Msg("could not apply env vars")
	}
	if c.Connection.TokenTTL <= 0 {
		c.Connection.TokenTTL = clients.DefaultTokenTTL
	}
	return c
}

// ConfigPath returns config file path
func (cfg Config) ConfigPath() string {
	if ConfigFile != "" {
		return ConfigFile
	}
	configPath := os.Getenv(ConfigEnv)
	if configPath == "" {
		configPath = ConfigName
		if wd, err := os.Getwd(); err == nil {
			configPath = path.Join(wd, ConfigName)
		}
	}
	return configPath
}

// InitTracerProvider inits provider
func (cfg Config) InitTracerProvider() (*tracesdk.TracerProvider, error) {
	return initOTLP(fmt.Sprintf("zbxctl:%s", cfg.Connection.AppName))
}

func (cfg Config) initLogger() zerolog.LevelWriter {
	lvl := cfg.Logging.LogLevel.ZerologLevel()
	/* condensing hides records needed for debug */
	if lvl <= zerolog.DebugLevel {
		cfg.Logging.LogCondense = 0
	}
	opts := []logzer.Option{
		logzer.WithColors(cfg.Logging.LogColors),
		logzer.WithCondense(cfg.Logging.LogCondense),
		logzer.WithLevel(lvl),
		logzer.WithTimeFormat(cfg.Logging.LogTimeFormat),
	}
	if cfg.Logging.LogFile != "" {
		opts = append(opts, logzer.WithLogFile(&logzer.LogFile{
			FilePath: cfg.Logging.LogFile,
			MaxSize:  cfg.Logging.LogFileMaxSize,
			Rotate:   cfg.Logging.LogFileRotate,
		}))
	}

	/* prevent writes in global logger */
	log.Logger = zerolog.Nop()
	/* reset to defaults */
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	/* apply options */
	w := logzer.NewLoggerWriter(opts...)
	/* set global logger */
	log.Logger = zerolog.New(w).
		With().Timestamp().Caller().
		Logger()
	/* adapt SDK logger */
	sdklog.Logger = slog.New(&logzer.SLogHandler{CallerSkipFrame: 3})
	/* set as standard logger output */
	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)
	return w
}
