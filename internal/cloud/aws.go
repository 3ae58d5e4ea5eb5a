package cloud

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"os"
	"path"
	"sync/atomic"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
	"github.com/rafaeljusto/tocloud/internal/log"
)

// AWSName is the name used to identify the AWS S3 service.
const AWSName = "AWS S3"

var multipartUploadLimit int64 = 104857600 // 100 MB in bytes

// MultipartUploadLimit defines the limit where we decide if we will send the
// file in one shot or if we will use multipart upload strategy. By default we
// use 100 MB.
func MultipartUploadLimit(value int64) {
	atomic.StoreInt64(&multipartUploadLimit, value)
}

// AWSConfig stores all necessary parameters to initialize a AWS session.
type AWSConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	Prefix          string
}

// AWS stores the activity files in an Amazon S3 bucket. S3 only shows an
// object after it was completely received, so a failed transfer never leaves
// a partial object behind.
type AWS struct {
	Logger     log.Logger
	BucketName string
	Prefix     string
	S3         s3iface.S3API
	Clock      Clock
}

// NewAWS initializes the Amazon cloud object, defining the bucket that is
// going to be used. When the access key isn't informed the default AWS
// credential chain is used. For more details set the debug flag to receive
// low level information in the standard output. On error it will return an
// Error type encapsulated in a traceable error.
func NewAWS(logger log.Logger, config AWSConfig, debug bool) (*AWS, error) {
	awsConfig := aws.NewConfig().WithRegion(config.Region)
	if config.AccessKeyID != "" {
		awsConfig = awsConfig.WithCredentials(credentials.NewStaticCredentials(config.AccessKeyID, config.SecretAccessKey, ""))
	}

	if debug {
		awsConfig = awsConfig.WithLogLevel(aws.LogDebugWithHTTPBody | aws.LogDebugWithRequestErrors | aws.LogDebugWithRequestRetries | aws.LogDebugWithSigning)
	}

	awsSession, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, errors.WithStack(newError("", ErrorCodeInitializingSession, err))
	}

	return &AWS{
		Logger:     logger,
		BucketName: config.BucketName,
		Prefix:     config.Prefix,
		S3:         s3.New(awsSession),
		Clock:      realClock{},
	}, nil
}

// Name returns the AWS service identifier.
func (a *AWS) Name() string {
	return AWSName
}

// IsAvailable checks if the bucket exists and the credentials can access it.
func (a *AWS) IsAvailable(ctx context.Context) bool {
	if err := a.headBucket(ctx); err != nil {
		a.Logger.Debugf("cloud: aws bucket “%s” unavailable. details: %s", a.BucketName, err)
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
func (a *AWS) UploadFile(ctx context.Context, filename string) (Upload, error) {
	return a.send(ctx, filename, RemoteFileName(filename), "", "")
}

// UploadActivityFile sends the file to the bucket using a key derived from
// the activity identifier, replacing any older version of the same activity.
// The activity is also stored in the object metadata. Errors follow the same
// rules of UploadFile.
func (a *AWS) UploadActivityFile(ctx context.Context, filename, activityID, activityName string) (Upload, error) {
	if err := checkActivityID(activityID); err != nil {
		return Upload{}, err
	}

	return a.send(ctx, filename, RemoteActivityName(activityID), activityID, activityName)
}

func (a *AWS) send(ctx context.Context, filename, remoteName, activityID, activityName string) (Upload, error) {
	a.Logger.Debugf("cloud: sending file “%s” to aws cloud as “%s”", filename, remoteName)

	if _, err := statLocalFile(remoteName, filename); err != nil {
		return Upload{}, err
	}

	if err := a.headBucket(ctx); err != nil {
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

	metadata := make(map[string]*string)
	if activityID != "" {
		// user metadata must be US-ASCII
		metadata["Activity-Id"] = aws.String(url.QueryEscape(activityID))
		metadata["Activity-Name"] = aws.String(url.QueryEscape(activityName))
		metadata["Activity-Extension"] = aws.String(url.QueryEscape(ActivityExtension(filename)))
	}

	key := a.key(remoteName)

	if d.size <= atomic.LoadInt64(&multipartUploadLimit) {
		a.Logger.Debugf("cloud: using small file strategy (%d)", d.size)
		err = a.sendSmall(ctx, f, key, d, metadata)

	} else {
		a.Logger.Debugf("cloud: using big file strategy (%d)", d.size)
		err = a.sendBig(ctx, f, key, metadata)
	}

	if err != nil {
		code := awsErrorCode(err)
		if code == ErrorCodeCancelled {
			a.Logger.Debug("cloud: operation cancelled by user")
		}
		return Upload{}, errors.WithStack(newError(remoteName, code, err))
	}

	a.Logger.Infof("cloud: file “%s” sent successfully to the aws cloud", filename)

	return Upload{
		Service:      a.Name(),
		RemoteName:   key,
		ActivityID:   activityID,
		ActivityName: activityName,
		Checksum:     d.sha256,
		Size:         d.size,
		UploadedAt:   clockOrDefault(a.Clock).Now(),
	}, nil
}

func (a *AWS) sendSmall(ctx context.Context, f *os.File, key string, d digests, metadata map[string]*string) error {
	putObjectInput := s3.PutObjectInput{
		Bucket:        aws.String(a.BucketName),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(d.size),
		ContentMD5:    aws.String(base64.StdEncoding.EncodeToString(d.md5)),
		Metadata:      metadata,
	}

	_, err := a.S3.PutObjectWithContext(ctx, &putObjectInput)
	return err
}

// sendBig uses the multipart upload. When a part fails the whole multipart
// upload is aborted, so no partial object becomes visible.
func (a *AWS) sendBig(ctx context.Context, f *os.File, key string, metadata map[string]*string) error {
	uploader := s3manager.NewUploaderWithClient(a.S3, func(u *s3manager.Uploader) {
		u.LeavePartsOnError = false
	})

	_, err := uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:   aws.String(a.BucketName),
		Key:      aws.String(key),
		Body:     f,
		Metadata: metadata,
	})
	return err
}

func (a *AWS) headBucket(ctx context.Context) error {
	_, err := a.S3.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(a.BucketName),
	})
	return err
}

func (a *AWS) key(remoteName string) string {
	if a.Prefix == "" {
		return remoteName
	}
	return path.Join(a.Prefix, remoteName)
}

// awsErrorCode classifies the low level errors of the AWS SDK.
func awsErrorCode(err error) ErrorCode {
	var awsErr awserr.Error
	if !errors.As(err, &awsErr) {
		return ErrorCodePartialUpload
	}

	switch awsErr.Code() {
	case request.CanceledErrorCode:
		return ErrorCodeCancelled
	case "BadDigest":
		return ErrorCodeComparingChecksums
	case "IncompleteBody", "MultipartUpload":
		return ErrorCodePartialUpload
	case s3.ErrCodeNoSuchBucket:
		return ErrorCodeBackendUnavailable
	case "SlowDown", "RequestTimeout", "ServiceUnavailable", "InternalError",
		request.ErrCodeRequestError, request.ErrCodeResponseTimeout:
		return ErrorCodeWriteThrottled
	}

	if reqErr, ok := awsErr.(awserr.RequestFailure); ok {
		switch {
		case reqErr.StatusCode() == http.StatusTooManyRequests, reqErr.StatusCode() >= 500:
			return ErrorCodeWriteThrottled
		case reqErr.StatusCode() >= 400:
			return ErrorCodeWriteRejected
		}
	}

	return ErrorCodeWriteRejected
}
