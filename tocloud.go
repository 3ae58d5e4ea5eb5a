// Package tocloud keeps recorded activity files synced with one or more cloud
// storage services. It decides which service receives each file, retries
// transient failures and keeps a local ledger of what was synced where.
package tocloud

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rafaeljusto/tocloud/internal/cloud"
	"github.com/rafaeljusto/tocloud/internal/log"
	"github.com/rafaeljusto/tocloud/internal/report"
	"github.com/rafaeljusto/tocloud/internal/storage"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// StrategyFirstAvailable sends the file to the first available service,
	// following the services order. When the upload fails with a transient
	// problem the next service is tried.
	StrategyFirstAvailable Strategy = "first-available"

	// StrategyFanOut sends the file to all services concurrently. The sync only
	// succeeds when every service has the file.
	StrategyFanOut Strategy = "fan-out"
)

// Strategy determinate how the services are used when syncing a file.
type Strategy string

// ToCloud manages the activity files synchronization. The same activity is
// never uploaded by two goroutines at the same time, so a ToCloud must not be
// copied after first use.
type ToCloud struct {
	// Services in order of preference.
	Services []cloud.CloudService

	// Storage is the local ledger of synced files. It is optional.
	Storage storage.Storage

	Logger   log.Logger
	Strategy Strategy
	Retry    RetryPolicy

	// Limiter paces the upload attempts. It is optional.
	Limiter *rate.Limiter

	locks keyedLock
}

type syncRequest struct {
	id           string
	key          string
	filename     string
	activityID   string
	activityName string
	upload       func(context.Context, cloud.CloudService) (cloud.Upload, error)
}

// SyncFile sends a file to the clouds using the local file name as the remote
// name. On success it returns one upload for each service that received the
// file. On error it will return an Error type encapsulated in a traceable
// error. To retrieve the desired error you can do:
//
//	type causer interface {
//	  Cause() error
//	}
//
//	if causeErr, ok := err.(causer); ok {
//	  switch specificErr := causeErr.Cause().(type) {
//	  case *tocloud.Error:
//	    // handle specifically
//	  default:
//	    // unknown error
//	  }
//	}
//
// The failure class of the last cloud problem is available with cloud.KindOf.
func (t *ToCloud) SyncFile(ctx context.Context, filename string) ([]cloud.Upload, error) {
	remoteName := cloud.RemoteFileName(filename)

	return t.sync(ctx, syncRequest{
		id:       remoteName,
		key:      "file/" + remoteName,
		filename: filename,
		upload: func(ctx context.Context, service cloud.CloudService) (cloud.Upload, error) {
			return service.UploadFile(ctx, filename)
		},
	})
}

// SyncActivity sends an activity file to the clouds. Uploads of the same
// activity are serialized, so an older content never replaces a newer one. On
// error it will return an Error type encapsulated in a traceable error, like
// SyncFile.
func (t *ToCloud) SyncActivity(ctx context.Context, filename, activityID, activityName string) ([]cloud.Upload, error) {
	return t.sync(ctx, syncRequest{
		id:           activityID,
		key:          "activity/" + activityID,
		filename:     filename,
		activityID:   activityID,
		activityName: activityName,
		upload: func(ctx context.Context, service cloud.CloudService) (cloud.Upload, error) {
			return service.UploadActivityFile(ctx, filename, activityID, activityName)
		},
	})
}

func (t *ToCloud) sync(ctx context.Context, req syncRequest) ([]cloud.Upload, error) {
	if len(t.Services) == 0 {
		return nil, errors.WithStack(newError(req.id, ErrorCodeNoServices, nil))
	}

	unlock, err := t.locks.lock(ctx, req.key)
	if err != nil {
		return nil, errors.WithStack(newError(req.id, ErrorCodeLocking, err))
	}
	defer unlock()

	strategy := t.Strategy
	if strategy == "" {
		strategy = StrategyFirstAvailable
	}

	syncReport := report.NewSyncActivity()
	syncReport.Filename = req.filename
	syncReport.ActivityID = req.activityID
	syncReport.ActivityName = req.activityName
	syncReport.Strategy = string(strategy)

	defer func() {
		syncReport.Durations.Sync = time.Since(syncReport.CreatedAt)
		report.Add(syncReport)
	}()

	t.Logger.Debugf("tocloud: syncing file “%s” using strategy “%s”", req.filename, strategy)

	var uploads []cloud.Upload
	switch strategy {
	case StrategyFanOut:
		uploads, syncReport.Attempts, err = t.fanOut(ctx, req)
	default:
		uploads, syncReport.Attempts, err = t.firstAvailable(ctx, req)
	}

	syncReport.Uploads = uploads

	if err != nil {
		syncCounter.WithLabelValues(string(strategy), "failure").Inc()
		syncReport.Errors = append(syncReport.Errors, err)
		return nil, err
	}

	syncCounter.WithLabelValues(string(strategy), "success").Inc()

	for _, upload := range uploads {
		if err := t.save(upload); err != nil {
			// the file is already in the cloud, so the sync is still a success
			t.Logger.Warningf("tocloud: %s", err)
			syncReport.Errors = append(syncReport.Errors, err)
		}
	}

	t.Logger.Infof("tocloud: file “%s” synced with %d service(s)", req.filename, len(uploads))
	return uploads, nil
}

// firstAvailable walks the services in order on each round, stopping on the
// first successful upload. A service that rejected the write is skipped on
// the following rounds, while a problem with the local file or a cancelled
// context stops the walk.
func (t *ToCloud) firstAvailable(ctx context.Context, req syncRequest) ([]cloud.Upload, int, error) {
	b := t.Retry.backOff(ctx)
	maxAttempts := t.Retry.attempts()

	rejected := make(map[int]bool)
	var rejectedNames []string

	var lastErr error
	var attempt int

	for attempt = 1; attempt <= maxAttempts; attempt++ {
		for i, service := range t.Services {
			if rejected[i] {
				continue
			}

			upload, err := t.attempt(ctx, service, req)
			if err == nil {
				return []cloud.Upload{upload}, attempt, nil
			}

			lastErr = err
			if ctx.Err() != nil {
				return nil, attempt, errors.WithStack(t.syncFailed(req, []string{service.Name()}, err))
			}

			if kind, _ := cloud.KindOf(err); kind == cloud.KindLocalPrecondition {
				return nil, attempt, errors.WithStack(t.syncFailed(req, []string{service.Name()}, err))
			}

			if !cloud.Retryable(err) {
				t.Logger.Debugf("tocloud: service “%s” rejected file “%s”, trying the next one", service.Name(), req.filename)
				rejected[i] = true
				rejectedNames = append(rejectedNames, service.Name())
			}
		}

		if len(rejected) == len(t.Services) {
			return nil, attempt, errors.WithStack(t.syncFailed(req, rejectedNames, lastErr))
		}

		if attempt == maxAttempts {
			break
		}

		t.Logger.Debugf("tocloud: no service accepted file “%s” on attempt %d, retrying", req.filename, attempt)
		if err := wait(b); err != nil {
			break
		}
	}

	return nil, attempt, errors.WithStack(t.syncFailed(req, nil, lastErr))
}

// fanOut sends the file to every service concurrently, each one with its own
// retry sequence.
func (t *ToCloud) fanOut(ctx context.Context, req syncRequest) ([]cloud.Upload, int, error) {
	uploads := make([]cloud.Upload, len(t.Services))
	failures := make([]error, len(t.Services))
	attempts := make([]int, len(t.Services))

	var g errgroup.Group
	for i, service := range t.Services {
		i, service := i, service
		g.Go(func() error {
			uploads[i], attempts[i], failures[i] = t.retryService(ctx, service, req)
			return failures[i]
		})
	}

	if err := g.Wait(); err == nil {
		var maxAttempts int
		for _, a := range attempts {
			if a > maxAttempts {
				maxAttempts = a
			}
		}
		return uploads, maxAttempts, nil
	}

	var failed []string
	var firstErr error
	var maxAttempts int
	for i, err := range failures {
		if attempts[i] > maxAttempts {
			maxAttempts = attempts[i]
		}
		if err == nil {
			continue
		}

		failed = append(failed, t.Services[i].Name())
		if firstErr == nil {
			firstErr = err
		}
	}

	return nil, maxAttempts, errors.WithStack(t.syncFailed(req, failed, firstErr))
}

func (t *ToCloud) retryService(ctx context.Context, service cloud.CloudService, req syncRequest) (cloud.Upload, int, error) {
	b := t.Retry.backOff(ctx)
	maxAttempts := t.Retry.attempts()

	for attempt := 1; ; attempt++ {
		upload, err := t.attempt(ctx, service, req)
		if err == nil {
			return upload, attempt, nil
		}

		if !t.retryable(ctx, err) || attempt >= maxAttempts {
			return cloud.Upload{}, attempt, err
		}

		t.Logger.Debugf("tocloud: service “%s” failed to receive file “%s” on attempt %d, retrying", service.Name(), req.filename, attempt)
		if waitErr := wait(b); waitErr != nil {
			return cloud.Upload{}, attempt, err
		}
	}
}

// attempt checks the service availability right before uploading.
func (t *ToCloud) attempt(ctx context.Context, service cloud.CloudService, req syncRequest) (cloud.Upload, error) {
	if t.Limiter != nil {
		if err := t.Limiter.Wait(ctx); err != nil {
			return cloud.Upload{}, &cloud.Error{ID: req.id, Code: cloud.ErrorCodeCancelled, Err: err}
		}
	}

	start := time.Now()

	var upload cloud.Upload
	var err error

	if !service.IsAvailable(ctx) {
		err = &cloud.Error{
			ID:   req.id,
			Code: cloud.ErrorCodeBackendUnavailable,
			Err:  fmt.Errorf("service “%s” unavailable", service.Name()),
		}
	} else {
		upload, err = req.upload(ctx, service)
	}

	uploadDuration.WithLabelValues(service.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := "unknown"
		if kind, ok := cloud.KindOf(err); ok {
			outcome = string(kind)
		}
		uploadAttemptsCounter.WithLabelValues(service.Name(), outcome).Inc()

		t.Logger.Warningf("tocloud: service “%s” failed to receive file “%s”. details: %s", service.Name(), req.filename, err)
		return cloud.Upload{}, err
	}

	uploadAttemptsCounter.WithLabelValues(service.Name(), "success").Inc()
	return upload, nil
}

// retryable decides if another attempt is worth it. Nothing is retried after
// the caller gives up.
func (t *ToCloud) retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return cloud.Retryable(err)
}

func (t *ToCloud) syncFailed(req syncRequest, services []string, err error) *Error {
	syncErr := newError(req.id, ErrorCodeSyncFailed, err)
	syncErr.Services = services
	return syncErr
}

func (t *ToCloud) save(upload cloud.Upload) error {
	if t.Storage == nil {
		return nil
	}

	record := storage.Record{
		ActivityID:   upload.ActivityID,
		ActivityName: upload.ActivityName,
		Service:      upload.Service,
		RemoteName:   upload.RemoteName,
		Checksum:     upload.Checksum,
		Size:         upload.Size,
		SyncedAt:     upload.UploadedAt,
	}

	if err := t.Storage.Save(record); err != nil {
		return errors.WithStack(newError(record.ID(), ErrorCodeSavingRecord, err))
	}

	return nil
}

// CheckServices verifies right now the availability of every service. The
// result is keyed by the service name.
func (t *ToCloud) CheckServices(ctx context.Context) map[string]bool {
	checkReport := report.NewCheckServices()
	checkReport.Services = make(map[string]bool, len(t.Services))

	var lock sync.Mutex
	var g errgroup.Group

	for _, service := range t.Services {
		service := service
		g.Go(func() error {
			available := service.IsAvailable(ctx)

			value := 0.0
			if available {
				value = 1
			}
			serviceAvailableGauge.WithLabelValues(service.Name()).Set(value)

			lock.Lock()
			checkReport.Services[service.Name()] = available
			lock.Unlock()
			return nil
		})
	}

	g.Wait()

	checkReport.Durations.Check = time.Since(checkReport.CreatedAt)
	report.Add(checkReport)

	result := make(map[string]bool, len(checkReport.Services))
	for name, available := range checkReport.Services {
		result[name] = available
		t.Logger.Debugf("tocloud: service “%s” available: %t", name, available)
	}
	return result
}

// SyncStatus lists where the activity (or plain file remote name) is synced,
// according to the local ledger.
func (t *ToCloud) SyncStatus(id string) (storage.Records, error) {
	records, err := t.ListSynced()
	if err != nil {
		return nil, err
	}

	var status storage.Records
	for _, record := range records {
		if record.ID() == id {
			status = append(status, record)
		}
	}

	return status, nil
}

// ListSynced retrieves all records of the local ledger.
func (t *ToCloud) ListSynced() (storage.Records, error) {
	if t.Storage == nil {
		return nil, errors.WithStack(newError("", ErrorCodeNoStorage, nil))
	}

	records, err := t.Storage.List()
	if err != nil {
		return nil, errors.WithStack(newError("", ErrorCodeListingRecords, err))
	}

	return records, nil
}
