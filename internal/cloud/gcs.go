package cloud

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"github.com/rafaeljusto/tocloud/internal/log"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCSName is the name used to identify the Google Cloud Storage service.
const GCSName = "Google Cloud Storage"

// GCSConfig stores all necessary parameters to initialize a GCS session.
type GCSConfig struct {
	Project         string
	BucketName      string
	Prefix          string
	CredentialsFile string
}

// GCSAPI is the subset of Google Cloud Storage operations used by the
// service. It allows replacing the remote calls in tests.
type GCSAPI interface {
	BucketAttrs(ctx context.Context, bucket string) (*storage.BucketAttrs, error)
	WriteObject(ctx context.Context, bucket, name string, metadata map[string]string, r io.Reader) (*storage.ObjectAttrs, error)
	DeleteObject(ctx context.Context, bucket, name string) error
}

type gcsClient struct {
	client *storage.Client
}

func (g gcsClient) BucketAttrs(ctx context.Context, bucket string) (*storage.BucketAttrs, error) {
	return g.client.Bucket(bucket).Attrs(ctx)
}

// WriteObject only commits the object when the writer is closed. Cancelling
// the context before that discards everything that was sent.
func (g gcsClient) WriteObject(ctx context.Context, bucket, name string, metadata map[string]string, r io.Reader) (*storage.ObjectAttrs, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := g.client.Bucket(bucket).Object(name).NewWriter(ctx)
	w.Metadata = metadata

	if _, err := io.Copy(w, r); err != nil {
		cancel()
		w.Close()
		return nil, errors.WithStack(err)
	}

	if err := w.Close(); err != nil {
		return nil, errors.WithStack(err)
	}

	return w.Attrs(), nil
}

func (g gcsClient) DeleteObject(ctx context.Context, bucket, name string) error {
	return g.client.Bucket(bucket).Object(name).Delete(ctx)
}

// GCS is the Google solution for storing the activity files in the cloud.
type GCS struct {
	Logger     log.Logger
	BucketName string
	Prefix     string
	API        GCSAPI
	Clock      Clock
}

// NewGCS initializes the Google Cloud Storage client. When no credentials file
// is informed the application default credentials are used. On error it will
// return an Error type encapsulated in a traceable error.
func NewGCS(ctx context.Context, logger log.Logger, config GCSConfig) (*GCS, error) {
	var opts []option.ClientOption
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}

	c, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.WithStack(newError("", ErrorCodeInitializingSession, err))
	}

	return &GCS{
		Logger:     logger,
		BucketName: config.BucketName,
		Prefix:     config.Prefix,
		API:        gcsClient{client: c},
		Clock:      realClock{},
	}, nil
}

// Name returns the Google Cloud Storage service identifier.
func (g *GCS) Name() string {
	return GCSName
}

// IsAvailable checks if the bucket can be reached with the current
// credentials.
func (g *GCS) IsAvailable(ctx context.Context) bool {
	if _, err := g.API.BucketAttrs(ctx, g.BucketName); err != nil {
		g.Logger.Debugf("cloud: gcs bucket “%s” unavailable. details: %s", g.BucketName, err)
		return false
	}
	return true
}

// UploadFile sends the file to the bucket keeping the local file name. If an
// error occurs it will be an Error type encapsulated in a traceable error. To
// retrieve the desired error you can do:
//
//	type causer interface {
//	  Cause() error
//	}
//
//	if causeErr, ok := err.(causer); ok {
//	  switch specificErr := causeErr.Cause().(type) {
//	  case *cloud.Error:
//	    // handle specifically
//	  default:
//	    // unknown error
//	  }
//	}
func (g *GCS) UploadFile(ctx context.Context, filename string) (Upload, error) {
	return g.send(ctx, filename, RemoteFileName(filename), "", "")
}

// UploadActivityFile sends the file to the bucket using an object name
// derived from the activity identifier. Errors follow the same rules of
// UploadFile.
func (g *GCS) UploadActivityFile(ctx context.Context, filename, activityID, activityName string) (Upload, error) {
	if err := checkActivityID(activityID); err != nil {
		return Upload{}, err
	}

	return g.send(ctx, filename, RemoteActivityName(activityID), activityID, activityName)
}

func (g *GCS) send(ctx context.Context, filename, remoteName, activityID, activityName string) (Upload, error) {
	g.Logger.Debugf("cloud: sending file “%s” to google cloud as “%s”", filename, remoteName)

	if _, err := statLocalFile(remoteName, filename); err != nil {
		return Upload{}, err
	}

	if _, err := g.API.BucketAttrs(ctx, g.BucketName); err != nil {
		return Upload{}, errors.WithStack(newError(remoteName, ErrorCodeBackendUnavailable, err))
	}

	f, err := openLocalFile(remoteName, filename)
	if err != nil {
		return Upload{}, err
	}
	defer f.Close()

	d, err := digestLocalFile(remoteName, f)
	if err != nil {
		return Upload{}, err
	}

	var metadata map[string]string
	if activityID != "" {
		metadata = map[string]string{
			"activity-id":        activityID,
			"activity-name":      activityName,
			"activity-extension": ActivityExtension(filename),
		}
	}

	objectName := g.objectName(remoteName)

	attrs, err := g.API.WriteObject(ctx, g.BucketName, objectName, metadata, contextReader{ctx: ctx, reader: f})
	if err != nil {
		code := gcsErrorCode(ctx, err)
		if code == ErrorCodeCancelled {
			g.Logger.Debug("cloud: operation cancelled by user")
		}
		return Upload{}, errors.WithStack(newError(remoteName, code, err))
	}

	if attrs != nil && len(attrs.MD5) > 0 && !bytes.Equal(attrs.MD5, d.md5) {
		g.Logger.Debugf("cloud: removing object “%s” with wrong checksum", objectName)

		// a fresh context is used, the original one could be the reason of the
		// corrupted object
		if err := g.API.DeleteObject(context.Background(), g.BucketName, objectName); err != nil {
			g.Logger.Warningf("cloud: error removing object “%s”. details: %s", objectName, err)
		}

		return Upload{}, errors.WithStack(newError(remoteName, ErrorCodeComparingChecksums, nil))
	}

	g.Logger.Infof("cloud: file “%s” sent successfully to the google cloud", filename)

	return Upload{
		Service:      g.Name(),
		RemoteName:   objectName,
		ActivityID:   activityID,
		ActivityName: activityName,
		Checksum:     d.sha256,
		Size:         d.size,
		UploadedAt:   clockOrDefault(g.Clock).Now(),
	}, nil
}

func (g *GCS) objectName(remoteName string) string {
	if g.Prefix == "" {
		return remoteName
	}
	return path.Join(g.Prefix, remoteName)
}

// gcsErrorCode classifies the low level errors of the Google Cloud Storage
// library.
func gcsErrorCode(ctx context.Context, err error) ErrorCode {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return ErrorCodeCancelled
	}

	if errors.Is(err, storage.ErrBucketNotExist) {
		return ErrorCodeBackendUnavailable
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests, apiErr.Code >= 500:
			return ErrorCodeWriteThrottled
		case apiErr.Code == http.StatusNotFound:
			return ErrorCodeBackendUnavailable
		case apiErr.Code >= 400:
			return ErrorCodeWriteRejected
		}
	}

	return ErrorCodePartialUpload
}
