package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/smtp"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rafaeljusto/tocloud"
	"github.com/rafaeljusto/tocloud/internal/cloud"
	"github.com/rafaeljusto/tocloud/internal/config"
	"github.com/rafaeljusto/tocloud/internal/report"
	"github.com/rafaeljusto/tocloud/internal/storage"
	"github.com/robfig/cron"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/time/rate"
)

var (
	toCloud    *tocloud.ToCloud
	logger     *logrus.Logger
	logReport  *report.Log
	logFile    *os.File
	ctx        context.Context
	cancel     context.CancelFunc
	cancelFunc func()
)

func main() {
	defer logFile.Close()

	// ctx is used to abort long transactions, such as big files uploads or
	// waiting for an activity lock
	ctx = context.Background()
	ctx, cancel = context.WithCancel(ctx)

	app := cli.NewApp()
	app.Name = "tocloud"
	app.Usage = "Send recorded activity files to the clouds"
	app.Version = config.Version
	app.Authors = []cli.Author{
		{
			Name:  "Rafael Dantas Justo",
			Email: "adm@rafael.net.br",
		},
	}
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "Tool configuration file (YAML)",
		},
	}
	app.Before = initialize
	app.Commands = []cli.Command{
		{
			Name:  "sync",
			Usage: "send now an activity file to the clouds",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "verbose,v",
					Usage: "show what is happening behind the scenes",
				},
			},
			ArgsUsage: "<file> [activityID] [activityName]",
			Action:    commandSync,
		},
		{
			Name:  "check",
			Usage: "verify if the configured clouds are reachable",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "verbose,v",
					Usage: "show what is happening behind the scenes",
				},
			},
			Action: commandCheck,
		},
		{
			Name:      "status",
			Usage:     "show where an activity was synced",
			ArgsUsage: "<activityID>",
			Action:    commandStatus,
		},
		{
			Name:    "list",
			Aliases: []string{"ls"},
			Usage:   "list all activities synced with the clouds",
			Action:  commandList,
		},
		{
			Name:   "start",
			Usage:  "run the scheduler (will block forever)",
			Action: commandStart,
		},
		{
			Name:   "report",
			Usage:  "test report notification",
			Action: commandReport,
		},
		{
			Name:      "encrypt",
			Aliases:   []string{"enc"},
			Usage:     "encrypt a password or secret",
			ArgsUsage: "<password>",
			Action:    commandEncrypt,
		},
	}

	manageSignals(cancel, func() {
		if cancelFunc != nil {
			cancelFunc()
		}
	})

	app.Run(os.Args)
}

func initialize(c *cli.Context) error {
	config.Default()

	var err error

	if c.String("config") != "" {
		if err = config.LoadFromFile(c.String("config")); err != nil {
			fmt.Printf("error loading configuration file. details: %s\n", err)
			return err
		}
	}

	if err = config.LoadFromEnvironment(); err != nil {
		fmt.Printf("error loading configuration from environment variables. details: %s\n", err)
		return err
	}

	logger = logrus.New()
	logger.Out = os.Stdout

	// optionally set logger output file defined in configuration. if not
	// defined stdout will be used
	if config.Current().Log.File != "" {
		if logFile, err = os.OpenFile(config.Current().Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640); err != nil {
			fmt.Printf("error opening log file “%s”. details: %s\n", config.Current().Log.File, err)
			return err
		}

		// writes to the stdout and to the log file
		logger.Out = io.MultiWriter(os.Stdout, logFile)
	}

	switch config.Current().Log.Level {
	case config.LogLevelDebug:
		logger.Level = logrus.DebugLevel
	case config.LogLevelInfo:
		logger.Level = logrus.InfoLevel
	case config.LogLevelWarning:
		logger.Level = logrus.WarnLevel
	case config.LogLevelError:
		logger.Level = logrus.ErrorLevel
	case config.LogLevelFatal:
		logger.Level = logrus.FatalLevel
	case config.LogLevelPanic:
		logger.Level = logrus.PanicLevel
	}

	logReport = report.NewLogger(logger)

	services, err := initializeServices()
	if err != nil {
		return err
	}

	var localStorage storage.Storage
	switch config.Current().Database.Type {
	case config.DatabaseTypeAuditFile:
		localStorage = storage.NewAuditFile(logger, config.Current().Database.File)
	case config.DatabaseTypeBoltDB:
		localStorage = storage.NewBoltDB(logger, config.Current().Database.File)
	}

	var limiter *rate.Limiter
	if uploadsPerSecond := config.Current().RateLimit.UploadsPerSecond; uploadsPerSecond > 0 {
		burst := config.Current().RateLimit.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(uploadsPerSecond), burst)
	}

	toCloud = &tocloud.ToCloud{
		Services: services,
		Storage:  localStorage,
		Logger:   logReport,
		Strategy: tocloud.Strategy(config.Current().Strategy),
		Retry: tocloud.RetryPolicy{
			MaxAttempts:     config.Current().Retry.MaxAttempts,
			InitialInterval: config.Current().Retry.InitialInterval,
			MaxInterval:     config.Current().Retry.MaxInterval,
			Multiplier:      config.Current().Retry.Multiplier,
		},
		Limiter: limiter,
	}

	return nil
}

// initializeServices builds the clouds in the order of preference of the
// configuration.
func initializeServices() ([]cloud.CloudService, error) {
	var services []cloud.CloudService

	for _, service := range config.Current().Services {
		switch service.Location() {
		case cloud.LocationICloud:
			services = append(services, cloud.NewICloud(ctx, logReport, cloud.ICloudConfig{
				Container: config.Current().ICloud.Container,
				Documents: config.Current().ICloud.Documents,
			}))

		case cloud.LocationAWS:
			awsCloud, err := cloud.NewAWS(logReport, cloud.AWSConfig{
				AccessKeyID:     config.Current().AWS.AccessKeyID.Value,
				SecretAccessKey: config.Current().AWS.SecretAccessKey.Value,
				Region:          config.Current().AWS.Region,
				BucketName:      config.Current().AWS.BucketName,
				Prefix:          config.Current().AWS.Prefix,
			}, false)

			if err != nil {
				fmt.Printf("error initializing AWS cloud. details: %s\n", err)
				return nil, err
			}
			services = append(services, awsCloud)

		case cloud.LocationGCS:
			gcsCloud, err := cloud.NewGCS(ctx, logReport, cloud.GCSConfig{
				Project:         config.Current().GCS.Project,
				BucketName:      config.Current().GCS.BucketName,
				Prefix:          config.Current().GCS.Prefix,
				CredentialsFile: config.Current().GCS.CredentialsFile,
			})

			if err != nil {
				fmt.Printf("error initializing GCS cloud. details: %s\n", err)
				return nil, err
			}
			services = append(services, gcsCloud)
		}
	}

	return services, nil
}

func commandSync(c *cli.Context) error {
	if !c.Bool("verbose") {
		logger.Out = ioutil.Discard
	}

	if !c.Args().Present() {
		fmt.Println("activity file not informed")
		return nil
	}

	filename := c.Args().Get(0)
	activityID := c.Args().Get(1)
	activityName := c.Args().Get(2)

	var uploads []cloud.Upload
	var err error

	if activityID != "" {
		uploads, err = toCloud.SyncActivity(ctx, filename, activityID, activityName)
	} else {
		uploads, err = toCloud.SyncFile(ctx, filename)
	}

	if err != nil {
		logger.Error(err)
		if kind, ok := cloud.KindOf(err); ok {
			fmt.Printf("Sync failed (%s)\n", kind)
		}
		return nil
	}

	printUploads(uploads)
	return nil
}

func commandCheck(c *cli.Context) error {
	if !c.Bool("verbose") {
		logger.Out = ioutil.Discard
	}

	status := toCloud.CheckServices(ctx)

	var names []string
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Service              | Status")
	fmt.Printf("%s-+-%s\n", strings.Repeat("-", 20), strings.Repeat("-", 11))

	for _, name := range names {
		available := "available"
		if !status[name] {
			available = "unavailable"
		}
		fmt.Printf("%-20s | %-11s\n", name, available)
	}

	return nil
}

func commandStatus(c *cli.Context) error {
	if !c.Args().Present() {
		fmt.Println("activity not informed")
		return nil
	}

	records, err := toCloud.SyncStatus(c.Args().First())
	if err != nil {
		logger.Error(err)
		return nil
	}

	// show every configured service, even the ones that never received the
	// activity
	synced := make(map[string]storage.Record)
	for _, record := range records {
		synced[record.Service] = record
	}

	fmt.Println("Service              | Status      | Synced at")
	fmt.Printf("%s-+-%s-+-%s\n", strings.Repeat("-", 20), strings.Repeat("-", 11), strings.Repeat("-", 16))

	for _, service := range toCloud.Services {
		if record, ok := synced[service.Name()]; ok {
			fmt.Printf("%-20s | %-11s | %s\n", service.Name(), "synced", record.SyncedAt.Format("2006-01-02 15:04"))
			delete(synced, service.Name())
		} else {
			fmt.Printf("%-20s | %-11s | %s\n", service.Name(), "not synced", "")
		}
	}

	for _, record := range synced {
		fmt.Printf("%-20s | %-11s | %s\n", record.Service, "synced", record.SyncedAt.Format("2006-01-02 15:04"))
	}

	return nil
}

func commandList(c *cli.Context) error {
	records, err := toCloud.ListSynced()
	if err != nil {
		logger.Error(err)
		return nil
	}

	sort.Sort(records)

	fmt.Println("Synced at        | Service              | Activity / File")
	fmt.Printf("%s-+-%s-+-%s\n", strings.Repeat("-", 16), strings.Repeat("-", 20), strings.Repeat("-", 40))

	for _, record := range records {
		name := record.ID()
		if record.ActivityName != "" {
			name = fmt.Sprintf("%s (%s)", name, record.ActivityName)
		}
		fmt.Printf("%-16s | %-20s | %s\n", record.SyncedAt.Format("2006-01-02 15:04"), record.Service, name)
	}

	return nil
}

func commandStart(c *cli.Context) error {
	queue := tocloud.NewQueue(toCloud, config.Current().Queue.Workers, config.Current().Queue.Size)

	queueCtx, queueCancel := context.WithCancel(ctx)
	go queue.Start(queueCtx)

	var metricsServer *http.Server
	if address := config.Current().Metrics.Address; address != "" {
		metricsServer = startMetrics(address)
	}

	var extensions []string
	for _, extension := range config.Current().Watch.Extensions {
		extensions = append(extensions, string(extension))
	}

	watch := &watcher{
		directory:  config.Current().Watch.Directory,
		extensions: extensions,
		queue:      queue,
		storage:    toCloud.Storage,
		logger:     logReport,
	}

	scheduler := cron.New()

	if watch.directory != "" {
		scheduler.Schedule(config.Current().Scheduler.Sync.Value, jobFunc(func() {
			if err := watch.sweep(queueCtx); err != nil {
				logger.Error(err)
			}
		}))
	}

	scheduler.Schedule(config.Current().Scheduler.Report.Value, jobFunc(func() {
		report.Add(logReport)

		if err := toCloud.SendReport(emailInfo()); err != nil {
			logger.Error(err)
		}
	}))

	scheduler.Start()

	stopped := make(chan bool)
	cancelFunc = func() {
		scheduler.Stop()
		stopped <- true
	}

	select {
	case <-stopped:
		queueCancel()
		queue.Wait()

		if metricsServer != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()

			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warningf("error stopping metrics server. details: %s", err)
			}
		}
	}

	return nil
}

func startMetrics(address string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warningf("error listening metrics server. details: %s", err)
		}
	}()

	return server
}

func commandReport(c *cli.Context) error {
	test := report.NewTest()
	test.Errors = append(test.Errors, errors.New("simulated error 1"))
	test.Errors = append(test.Errors, errors.New("simulated error 2"))
	test.Errors = append(test.Errors, errors.New("simulated error 3"))

	report.Add(test)

	if err := toCloud.SendReport(emailInfo()); err != nil {
		logger.Error(err)
	}

	return nil
}

func commandEncrypt(c *cli.Context) error {
	if pwd, err := config.PasswordEncrypt(c.Args().First()); err != nil {
		logger.Error(err)
	} else {
		fmt.Printf("encrypted:%s\n", pwd)
	}

	return nil
}

func emailInfo() tocloud.EmailInfo {
	return tocloud.EmailInfo{
		Sender:   tocloud.EmailSenderFunc(smtp.SendMail),
		Server:   config.Current().Email.Server,
		Port:     config.Current().Email.Port,
		Username: config.Current().Email.Username,
		Password: config.Current().Email.Password.Value,
		From:     config.Current().Email.From,
		To:       config.Current().Email.To,
		Format:   report.Format(config.Current().Email.Format),
	}
}

func printUploads(uploads []cloud.Upload) {
	for _, upload := range uploads {
		fmt.Printf("Synced with %s as “%s” (%d bytes, sha256 %s)\n", upload.Service, upload.RemoteName, upload.Size, upload.Checksum)
	}
}

// jobFunc is used only to implement inline functions in the scheduler.
type jobFunc func()

func (j jobFunc) Run() {
	j()
}
