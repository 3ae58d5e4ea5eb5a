package config

import (
	"io/ioutil"
	"path"
	"strings"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/rafaeljusto/tocloud/internal/cloud"
	"github.com/robfig/cron"
	"gopkg.in/yaml.v2"
)

// prefix is used as a namespace identifier for environment variables.
const prefix = "tocloud"

var config unsafe.Pointer

// Config stores all the necessary information to send activity files to the
// clouds and keep track in the local storage.
type Config struct {
	Services []Service `yaml:"services" envconfig:"services"`
	Strategy Strategy  `yaml:"strategy" envconfig:"strategy"`

	Retry struct {
		MaxAttempts     int           `yaml:"max attempts" envconfig:"max_attempts"`
		InitialInterval time.Duration `yaml:"initial interval" envconfig:"initial_interval"`
		MaxInterval     time.Duration `yaml:"max interval" envconfig:"max_interval"`
		Multiplier      float64       `yaml:"multiplier" envconfig:"multiplier"`
	} `yaml:"retry" envconfig:"retry"`

	RateLimit struct {
		UploadsPerSecond float64 `yaml:"uploads per second" envconfig:"uploads_per_second"`
		Burst            int     `yaml:"burst" envconfig:"burst"`
	} `yaml:"rate limit" envconfig:"rate_limit"`

	Queue struct {
		Workers int `yaml:"workers" envconfig:"workers"`
		Size    int `yaml:"size" envconfig:"size"`
	} `yaml:"queue" envconfig:"queue"`

	Watch struct {
		Directory  string      `yaml:"directory" envconfig:"directory"`
		Extensions []Extension `yaml:"extensions" envconfig:"extensions"`
	} `yaml:"watch" envconfig:"watch"`

	Scheduler struct {
		Sync   CronSchedule `yaml:"sync" envconfig:"sync"`
		Report CronSchedule `yaml:"report" envconfig:"report"`
	} `yaml:"scheduler" envconfig:"scheduler"`

	Database struct {
		Type DatabaseType `yaml:"type" envconfig:"type"`
		File string       `yaml:"file" envconfig:"file"`
	} `yaml:"database" envconfig:"db"`

	Log struct {
		File  string   `yaml:"file" envconfig:"file"`
		Level LogLevel `yaml:"level" envconfig:"level"`
	} `yaml:"log" envconfig:"log"`

	Email struct {
		Server   string      `yaml:"server" envconfig:"server"`
		Port     int         `yaml:"port" envconfig:"port"`
		Username string      `yaml:"username" envconfig:"username"`
		Password encrypted   `yaml:"password" envconfig:"password"`
		From     string      `yaml:"from" envconfig:"from"`
		To       []string    `yaml:"to" envconfig:"to"`
		Format   EmailFormat `yaml:"format" envconfig:"format"`
	} `yaml:"email" envconfig:"email"`

	ICloud struct {
		Container string `yaml:"container" envconfig:"container"`
		Documents string `yaml:"documents" envconfig:"documents"`
	} `yaml:"icloud" envconfig:"icloud"`

	AWS struct {
		AccessKeyID     encrypted `yaml:"access key id" envconfig:"access_key_id"`
		SecretAccessKey encrypted `yaml:"secret access key" envconfig:"secret_access_key"`
		Region          string    `yaml:"region" envconfig:"region"`
		BucketName      string    `yaml:"bucket name" envconfig:"bucket_name"`
		Prefix          string    `yaml:"prefix" envconfig:"prefix"`
	} `yaml:"aws" envconfig:"aws"`

	GCS struct {
		Project         string `yaml:"project" envconfig:"project"`
		BucketName      string `yaml:"bucket name" envconfig:"bucket_name"`
		Prefix          string `yaml:"prefix" envconfig:"prefix"`
		CredentialsFile string `yaml:"credentials file" envconfig:"credentials_file"`
	} `yaml:"gcs" envconfig:"gcs"`

	Metrics struct {
		Address string `yaml:"address" envconfig:"address"`
	} `yaml:"metrics" envconfig:"metrics"`
}

// Current return the actual system configuration, stored internally in a global
// variable.
func Current() *Config {
	return (*Config)(atomic.LoadPointer(&config))
}

// Update modify the current system configuration.
func Update(c *Config) {
	atomic.StorePointer(&config, unsafe.Pointer(c))
}

// Default defines all default configuration values.
func Default() {
	c := Current()
	if c == nil {
		c = new(Config)
	}

	c.Services = []Service{Service(cloud.LocationICloud)}
	c.Strategy = StrategyFirstAvailable
	c.Retry.MaxAttempts = 3
	c.Retry.InitialInterval = time.Second
	c.Retry.MaxInterval = 30 * time.Second
	c.Retry.Multiplier = 2
	c.RateLimit.Burst = 1
	c.Queue.Workers = 2
	c.Queue.Size = 100
	c.Watch.Extensions = []Extension{".fit", ".gpx", ".tcx"}
	c.Scheduler.Sync = mustCronSchedule("*/15 * * * *")
	c.Scheduler.Report = mustCronSchedule("0 6 * * 1")
	c.Database.Type = DatabaseTypeBoltDB
	c.Database.File = path.Join("/", "var", "lib", "tocloud", "tocloud.db")
	c.Log.Level = LogLevelError
	c.Email.Format = EmailFormatHTML
	c.ICloud.Documents = cloud.DefaultDocumentsDir

	Update(c)
}

// LoadFromFile parse an YAML file and fill the system configuration parameters.
// On error it will return an Error type encapsulated in a traceable error. To
// retrieve the desired error you can do:
//
//	type causer interface {
//	  Cause() error
//	}
//
//	if causeErr, ok := err.(causer); ok {
//	  switch specificErr := causeErr.Cause().(type) {
//	  case *config.Error:
//	    // handle specifically
//	  default:
//	    // unknown error
//	  }
//	}
func LoadFromFile(filename string) error {
	content, err := ioutil.ReadFile(filename)
	if err != nil {
		return errors.WithStack(newError(filename, ErrorCodeReadingFile, err))
	}

	c := Current()
	if c == nil {
		c = new(Config)
	}

	if err = yaml.Unmarshal(content, c); err != nil {
		return errors.WithStack(newError(filename, ErrorCodeParsingYAML, err))
	}

	Update(c)
	return nil
}

// LoadFromEnvironment analysis all project environment variables. On error it
// will return an Error type encapsulated in a traceable error. To retrieve the
// desired error you can do:
//
//	type causer interface {
//	  Cause() error
//	}
//
//	if causeErr, ok := err.(causer); ok {
//	  switch specificErr := causeErr.Cause().(type) {
//	  case *config.Error:
//	    // handle specifically
//	  default:
//	    // unknown error
//	  }
//	}
func LoadFromEnvironment() error {
	c := Current()
	if c == nil {
		c = new(Config)
	}

	if err := envconfig.Process(prefix, c); err != nil {
		return errors.WithStack(newError("", ErrorCodeReadingEnvVars, err))
	}

	Update(c)
	return nil
}

// Service identifies a cloud that will receive the activity files. The order
// in the configuration is the order of preference.
type Service cloud.Location

// UnmarshalText ensure that the service defined in the configuration is
// supported.
func (s *Service) UnmarshalText(value []byte) error {
	location, err := cloud.ParseLocation(string(value))
	if err != nil {
		return newError("", ErrorCodeService, err)
	}

	*s = Service(location)
	return nil
}

// Location returns the cloud location of the service.
func (s Service) Location() cloud.Location {
	return cloud.Location(s)
}

const (
	// StrategyFirstAvailable sends the activity file to the first available
	// service, following the configuration order.
	StrategyFirstAvailable Strategy = "first-available"

	// StrategyFanOut sends the activity file to all configured services.
	StrategyFanOut Strategy = "fan-out"
)

var strategyValid = map[string]bool{
	string(StrategyFirstAvailable): true,
	string(StrategyFanOut):         true,
}

// Strategy determinate how the services are used when syncing an activity.
type Strategy string

// UnmarshalText ensure that the strategy defined in the configuration is
// valid.
func (s *Strategy) UnmarshalText(value []byte) error {
	strategy := string(value)
	strategy = strings.TrimSpace(strategy)
	strategy = strings.ToLower(strategy)

	if ok := strategyValid[strategy]; !ok {
		return newError("", ErrorCodeStrategy, nil)
	}

	*s = Strategy(strategy)
	return nil
}

// Extension is a file extension that identifies activity files in the watched
// directory. It is always stored in lower case with a leading dot.
type Extension string

// UnmarshalText normalizes the extension.
func (e *Extension) UnmarshalText(value []byte) error {
	extension := string(value)
	extension = strings.TrimSpace(extension)
	extension = strings.ToLower(extension)

	if extension == "" || extension == "." || strings.ContainsAny(extension, `/\ `) {
		return newError("", ErrorCodeExtension, nil)
	}

	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}

	*e = Extension(extension)
	return nil
}

// CronSchedule stores a parsed cron specification, in the standard 5 fields
// format (minute, hour, day of month, month, day of week).
type CronSchedule struct {
	Spec  string
	Value cron.Schedule
}

// UnmarshalText parses the cron specification.
func (c *CronSchedule) UnmarshalText(value []byte) error {
	spec := strings.TrimSpace(string(value))

	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return newError("", ErrorCodeCronSpec, err)
	}

	c.Spec = spec
	c.Value = schedule
	return nil
}

func mustCronSchedule(spec string) CronSchedule {
	var c CronSchedule
	if err := c.UnmarshalText([]byte(spec)); err != nil {
		panic(err)
	}
	return c
}

const (
	// DatabaseTypeAuditFile use a human readable file, that stores one record
	// per line. As the structure is simple, this database format will have less
	// features than other types.
	DatabaseTypeAuditFile DatabaseType = "audit-file"

	// DatabaseTypeBoltDB use a fast key/value storage that stores all binary
	// content in only one file. For more information please check
	// https://github.com/boltdb/bolt
	DatabaseTypeBoltDB DatabaseType = "boltdb"
)

var databaseTypeValid = map[string]bool{
	string(DatabaseTypeAuditFile): true,
	string(DatabaseTypeBoltDB):    true,
}

// DatabaseType determinate what type of strategy will be used to store the
// sync ledger.
type DatabaseType string

// UnmarshalText ensure that the database type defined in the configuration is
// valid.
func (d *DatabaseType) UnmarshalText(value []byte) error {
	databaseType := string(value)
	databaseType = strings.TrimSpace(databaseType)
	databaseType = strings.ToLower(databaseType)

	if ok := databaseTypeValid[databaseType]; !ok {
		return newError("", ErrorCodeDatabaseType, nil)
	}

	*d = DatabaseType(databaseType)
	return nil
}

const (
	// LogLevelDebug usually only enabled when debugging. Very verbose logging.
	LogLevelDebug LogLevel = "debug"

	// LogLevelInfo general operational entries about what's going on inside the
	// application.
	LogLevelInfo LogLevel = "info"

	// LogLevelWarning non-critical entries that deserve eyes.
	LogLevelWarning LogLevel = "warning"

	// LogLevelError used for errors that should definitely be noted.
	LogLevelError LogLevel = "error"

	// LogLevelFatal it will terminates the process after the the entry is logged.
	LogLevelFatal LogLevel = "fatal"

	// LogLevelPanic highest level of severity. Logs and then calls panic with the
	// message passed to Debug, Info, ...
	LogLevelPanic LogLevel = "panic"
)

var logLevelValid = map[string]bool{
	string(LogLevelDebug):   true,
	string(LogLevelInfo):    true,
	string(LogLevelWarning): true,
	string(LogLevelError):   true,
	string(LogLevelFatal):   true,
	string(LogLevelPanic):   true,
}

// LogLevel determinate the verbosity of the log entries.
type LogLevel string

// UnmarshalText ensure that the log level defined in the configuration is
// valid.
func (l *LogLevel) UnmarshalText(value []byte) error {
	logLevel := string(value)
	logLevel = strings.TrimSpace(logLevel)
	logLevel = strings.ToLower(logLevel)

	if ok := logLevelValid[logLevel]; !ok {
		return newError("", ErrorCodeLogLevel, nil)
	}

	*l = LogLevel(logLevel)
	return nil
}

type encrypted struct {
	Value string
}

// UnmarshalText automatically decrypts a value from the configuration. On error
// it will return an Error type encapsulated in a traceable error.
func (e *encrypted) UnmarshalText(value []byte) error {
	e.Value = string(value)

	if strings.HasPrefix(e.Value, "encrypted:") {
		var err error
		if e.Value, err = passwordDecrypt(strings.TrimPrefix(e.Value, "encrypted:")); err != nil {
			return errors.WithStack(err)
		}
	}

	return nil
}

const (
	// EmailFormatPlain ascii only content for e-mail clients that accept only
	// simple text.
	EmailFormatPlain EmailFormat = "plain"

	// EmailFormatHTML better structured content that requires HTML support by the
	// e-mail client.
	EmailFormatHTML EmailFormat = "html"
)

var emailFormatValid = map[string]bool{
	string(EmailFormatPlain): true,
	string(EmailFormatHTML):  true,
}

// EmailFormat defines the desired content format to be used in report e-mails.
// By default "html" is used.
type EmailFormat string

// UnmarshalText ensure that the email format defined in the configuration is
// valid.
func (e *EmailFormat) UnmarshalText(value []byte) error {
	emailFormat := string(value)
	emailFormat = strings.TrimSpace(emailFormat)
	emailFormat = strings.ToLower(emailFormat)

	if ok := emailFormatValid[emailFormat]; !ok {
		return newError("", ErrorCodeEmailFormat, nil)
	}

	*e = EmailFormat(emailFormat)
	return nil
}
