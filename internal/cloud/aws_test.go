package cloud_test

import (
	"context"
	"encoding/base64"
	"errors"
	"net/url"
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rafaeljusto/tocloud/internal/cloud"
)

func TestNewAWS(t *testing.T) {
	scenarios := []struct {
		description   string
		config        cloud.AWSConfig
		debug         bool
		expected      *cloud.AWS
		expectedError error
	}{
		{
			description: "it should build a AWS cloud instance correctly",
			config: cloud.AWSConfig{
				AccessKeyID:     "keyid",
				SecretAccessKey: "secret",
				Region:          "us-east-1",
				BucketName:      "activities",
				Prefix:          "runner",
			},
			debug: true,
			expected: &cloud.AWS{
				BucketName: "activities",
				Prefix:     "runner",
			},
		},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.description, func(t *testing.T) {
			awsCloud, err := cloud.NewAWS(nil, scenario.config, scenario.debug)

			// we are not interested on testing low level structures from AWS library
			// or clock controlling layer
			if scenario.expected != nil && awsCloud != nil {
				if awsCloud.S3 == nil {
					t.Error("s3 client not initialized")
				}
				scenario.expected.S3 = awsCloud.S3
				scenario.expected.Clock = awsCloud.Clock
			}

			if !reflect.DeepEqual(scenario.expected, awsCloud) {
				t.Errorf("cloud instances don't match.\n%s", Diff(scenario.expected, awsCloud))
			}
			if !reflect.DeepEqual(scenario.expectedError, err) {
				t.Errorf("errors don't match. expected “%v” and got “%v”", scenario.expectedError, err)
			}
		})
	}
}

func TestAWS_UploadActivityFile(t *testing.T) {
	const content = "<gpx><trk><name>Morning run</name></trk></gpx>"
	filename := createActivityFile(t, "tocloud-test-*.gpx", content)
	emptyFilename := createActivityFile(t, "tocloud-test-*.gpx", "")

	var putCalls int

	scenarios := []struct {
		description      string
		filename         string
		activityID       string
		activityName     string
		s3               func(t *testing.T) s3iface.S3API
		expected         cloud.Upload
		expectedPutCalls int
		expectedError    error
	}{
		{
			description:  "it should send the activity correctly",
			filename:     filename,
			activityID:   "42",
			activityName: "Corrida de manhã",
			s3: func(t *testing.T) s3iface.S3API {
				return mockS3API{
					mockHeadBucketWithContext: func(ctx aws.Context, input *s3.HeadBucketInput, opts ...request.Option) (*s3.HeadBucketOutput, error) {
						return &s3.HeadBucketOutput{}, nil
					},
					mockPutObjectWithContext: func(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
						putCalls++

						if key := aws.StringValue(input.Key); key != "runner/activity-42" {
							t.Errorf("unexpected key “%s”", key)
						}
						if bucket := aws.StringValue(input.Bucket); bucket != "activities" {
							t.Errorf("unexpected bucket “%s”", bucket)
						}
						if length := aws.Int64Value(input.ContentLength); length != int64(len(content)) {
							t.Errorf("unexpected content length %d", length)
						}
						if _, err := base64.StdEncoding.DecodeString(aws.StringValue(input.ContentMD5)); err != nil {
							t.Errorf("content md5 isn't base64 encoded. details: %s", err)
						}

						name, err := url.QueryUnescape(aws.StringValue(input.Metadata["Activity-Name"]))
						if err != nil || name != "Corrida de manhã" {
							t.Errorf("unexpected activity name metadata “%s”", name)
						}
						if extension := aws.StringValue(input.Metadata["Activity-Extension"]); extension != ".gpx" {
							t.Errorf("unexpected activity extension metadata “%s”", extension)
						}

						return &s3.PutObjectOutput{ETag: aws.String("etag")}, nil
					},
				}
			},
			expected: cloud.Upload{
				Service:      cloud.AWSName,
				RemoteName:   "runner/activity-42",
				ActivityID:   "42",
				ActivityName: "Corrida de manhã",
				Checksum:     checksum(content),
				Size:         int64(len(content)),
				UploadedAt:   fixedNow().Now(),
			},
			expectedPutCalls: 1,
		},
		{
			description: "it should detect an invalid activity without contacting the cloud",
			filename:    filename,
			activityID:  "",
			s3: func(t *testing.T) s3iface.S3API {
				return mockS3API{}
			},
			expectedError: &cloud.Error{
				Code: cloud.ErrorCodeInvalidActivityID,
			},
		},
		{
			description: "it should detect an empty file without contacting the cloud",
			filename:    emptyFilename,
			activityID:  "42",
			s3: func(t *testing.T) s3iface.S3API {
				return mockS3API{}
			},
			expectedError: &cloud.Error{
				ID:   "activity-42",
				Code: cloud.ErrorCodeEmptyFile,
			},
		},
		{
			description: "it should detect when the bucket is unreachable",
			filename:    filename,
			activityID:  "42",
			s3: func(t *testing.T) s3iface.S3API {
				return mockS3API{
					mockHeadBucketWithContext: func(ctx aws.Context, input *s3.HeadBucketInput, opts ...request.Option) (*s3.HeadBucketOutput, error) {
						return nil, awserr.New(s3.ErrCodeNoSuchBucket, "bucket not found", nil)
					},
				}
			},
			expectedError: &cloud.Error{
				ID:   "activity-42",
				Code: cloud.ErrorCodeBackendUnavailable,
				Err:  awserr.New(s3.ErrCodeNoSuchBucket, "bucket not found", nil),
			},
		},
		{
			description: "it should detect a throttled write",
			filename:    filename,
			activityID:  "42",
			s3: func(t *testing.T) s3iface.S3API {
				return mockS3API{
					mockHeadBucketWithContext: func(ctx aws.Context, input *s3.HeadBucketInput, opts ...request.Option) (*s3.HeadBucketOutput, error) {
						return &s3.HeadBucketOutput{}, nil
					},
					mockPutObjectWithContext: func(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
						putCalls++
						return nil, awserr.New("SlowDown", "reduce your request rate", nil)
					},
				}
			},
			expectedPutCalls: 1,
			expectedError: &cloud.Error{
				ID:   "activity-42",
				Code: cloud.ErrorCodeWriteThrottled,
				Err:  awserr.New("SlowDown", "reduce your request rate", nil),
			},
		},
		{
			description: "it should detect a permanent write rejection",
			filename:    filename,
			activityID:  "42",
			s3: func(t *testing.T) s3iface.S3API {
				return mockS3API{
					mockHeadBucketWithContext: func(ctx aws.Context, input *s3.HeadBucketInput, opts ...request.Option) (*s3.HeadBucketOutput, error) {
						return &s3.HeadBucketOutput{}, nil
					},
					mockPutObjectWithContext: func(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
						putCalls++
						return nil, awserr.NewRequestFailure(awserr.New("AccessDenied", "access denied", nil), 403, "REQ123")
					},
				}
			},
			expectedPutCalls: 1,
			expectedError: &cloud.Error{
				ID:   "activity-42",
				Code: cloud.ErrorCodeWriteRejected,
				Err:  awserr.NewRequestFailure(awserr.New("AccessDenied", "access denied", nil), 403, "REQ123"),
			},
		},
		{
			description: "it should detect a server failure as throttled",
			filename:    filename,
			activityID:  "42",
			s3: func(t *testing.T) s3iface.S3API {
				return mockS3API{
					mockHeadBucketWithContext: func(ctx aws.Context, input *s3.HeadBucketInput, opts ...request.Option) (*s3.HeadBucketOutput, error) {
						return &s3.HeadBucketOutput{}, nil
					},
					mockPutObjectWithContext: func(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
						putCalls++
						return nil, awserr.NewRequestFailure(awserr.New("BadGateway", "bad gateway", nil), 502, "REQ123")
					},
				}
			},
			expectedPutCalls: 1,
			expectedError: &cloud.Error{
				ID:   "activity-42",
				Code: cloud.ErrorCodeWriteThrottled,
				Err:  awserr.NewRequestFailure(awserr.New("BadGateway", "bad gateway", nil), 502, "REQ123"),
			},
		},
		{
			description: "it should detect a corrupted transfer",
			filename:    filename,
			activityID:  "42",
			s3: func(t *testing.T) s3iface.S3API {
				return mockS3API{
					mockHeadBucketWithContext: func(ctx aws.Context, input *s3.HeadBucketInput, opts ...request.Option) (*s3.HeadBucketOutput, error) {
						return &s3.HeadBucketOutput{}, nil
					},
					mockPutObjectWithContext: func(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
						putCalls++
						return nil, awserr.New("BadDigest", "the content md5 did not match", nil)
					},
				}
			},
			expectedPutCalls: 1,
			expectedError: &cloud.Error{
				ID:   "activity-42",
				Code: cloud.ErrorCodeComparingChecksums,
				Err:  awserr.New("BadDigest", "the content md5 did not match", nil),
			},
		},
		{
			description: "it should detect a cancelled transfer",
			filename:    filename,
			activityID:  "42",
			s3: func(t *testing.T) s3iface.S3API {
				return mockS3API{
					mockHeadBucketWithContext: func(ctx aws.Context, input *s3.HeadBucketInput, opts ...request.Option) (*s3.HeadBucketOutput, error) {
						return &s3.HeadBucketOutput{}, nil
					},
					mockPutObjectWithContext: func(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
						putCalls++
						return nil, awserr.New(request.CanceledErrorCode, "request context canceled", context.Canceled)
					},
				}
			},
			expectedPutCalls: 1,
			expectedError: &cloud.Error{
				ID:   "activity-42",
				Code: cloud.ErrorCodeCancelled,
				Err:  awserr.New(request.CanceledErrorCode, "request context canceled", context.Canceled),
			},
		},
		{
			description: "it should detect an interrupted connection",
			filename:    filename,
			activityID:  "42",
			s3: func(t *testing.T) s3iface.S3API {
				return mockS3API{
					mockHeadBucketWithContext: func(ctx aws.Context, input *s3.HeadBucketInput, opts ...request.Option) (*s3.HeadBucketOutput, error) {
						return &s3.HeadBucketOutput{}, nil
					},
					mockPutObjectWithContext: func(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
						putCalls++
						return nil, errors.New("connection reset by peer")
					},
				}
			},
			expectedPutCalls: 1,
			expectedError: &cloud.Error{
				ID:   "activity-42",
				Code: cloud.ErrorCodePartialUpload,
				Err:  errors.New("connection reset by peer"),
			},
		},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.description, func(t *testing.T) {
			putCalls = 0

			awsCloud := &cloud.AWS{
				Logger:     quietLogger(),
				BucketName: "activities",
				Prefix:     "runner",
				S3:         scenario.s3(t),
				Clock:      fixedNow(),
			}

			upload, err := awsCloud.UploadActivityFile(context.Background(), scenario.filename, scenario.activityID, scenario.activityName)

			if !reflect.DeepEqual(scenario.expected, upload) {
				t.Errorf("uploads don't match.\n%s", Diff(scenario.expected, upload))
			}
			if !cloud.ErrorEqual(scenario.expectedError, err) {
				t.Errorf("errors don't match. expected “%v” and got “%v”", scenario.expectedError, err)
			}
			if putCalls != scenario.expectedPutCalls {
				t.Errorf("unexpected number of writes. expected %d and got %d", scenario.expectedPutCalls, putCalls)
			}
		})
	}
}

func TestAWS_UploadFile(t *testing.T) {
	filename := createActivityFile(t, "tocloud-test-*.fit", "binary activity data")

	var key string
	awsCloud := &cloud.AWS{
		Logger:     quietLogger(),
		BucketName: "activities",
		S3: mockS3API{
			mockHeadBucketWithContext: func(ctx aws.Context, input *s3.HeadBucketInput, opts ...request.Option) (*s3.HeadBucketOutput, error) {
				return &s3.HeadBucketOutput{}, nil
			},
			mockPutObjectWithContext: func(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
				key = aws.StringValue(input.Key)
				if len(input.Metadata) > 0 {
					t.Errorf("unexpected metadata for a plain file: %v", input.Metadata)
				}
				return &s3.PutObjectOutput{}, nil
			},
		},
		Clock: fixedNow(),
	}

	upload, err := awsCloud.UploadFile(context.Background(), filename)
	if err != nil {
		t.Fatalf("unexpected error. details: %s", err)
	}

	if expected := cloud.RemoteFileName(filename); key != expected || upload.RemoteName != expected {
		t.Errorf("unexpected remote name. expected “%s” and got “%s” (key “%s”)", expected, upload.RemoteName, key)
	}
}

func TestAWS_IsAvailable(t *testing.T) {
	scenarios := []struct {
		description string
		err         error
		expected    bool
	}{
		{
			description: "it should detect an available bucket",
			expected:    true,
		},
		{
			description: "it should detect an unavailable bucket",
			err:         awserr.NewRequestFailure(awserr.New("Forbidden", "forbidden", nil), 403, "REQ123"),
		},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.description, func(t *testing.T) {
			var bucket string
			awsCloud := &cloud.AWS{
				Logger:     quietLogger(),
				BucketName: "activities",
				S3: mockS3API{
					mockHeadBucketWithContext: func(ctx aws.Context, input *s3.HeadBucketInput, opts ...request.Option) (*s3.HeadBucketOutput, error) {
						bucket = aws.StringValue(input.Bucket)
						return &s3.HeadBucketOutput{}, scenario.err
					},
				},
			}

			if available := awsCloud.IsAvailable(context.Background()); available != scenario.expected {
				t.Errorf("availability doesn't match. expected “%t” and got “%t”", scenario.expected, available)
			}
			if bucket != "activities" {
				t.Errorf("unexpected bucket “%s”", bucket)
			}
		})
	}
}

type mockS3API struct {
	s3iface.S3API

	mockHeadBucketWithContext func(aws.Context, *s3.HeadBucketInput, ...request.Option) (*s3.HeadBucketOutput, error)
	mockPutObjectWithContext  func(aws.Context, *s3.PutObjectInput, ...request.Option) (*s3.PutObjectOutput, error)
}

func (m mockS3API) HeadBucketWithContext(ctx aws.Context, input *s3.HeadBucketInput, opts ...request.Option) (*s3.HeadBucketOutput, error) {
	return m.mockHeadBucketWithContext(ctx, input, opts...)
}

func (m mockS3API) PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	return m.mockPutObjectWithContext(ctx, input, opts...)
}
