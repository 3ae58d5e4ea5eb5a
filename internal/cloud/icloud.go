package cloud

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rafaeljusto/tocloud/internal/log"
)

// ICloudName is the name used to identify the iCloud service.
const ICloudName = "iCloud"

// DefaultDocumentsDir is the documents sub-location inside the ubiquity
// container.
const DefaultDocumentsDir = "Documents"

const (
	iCloudDirMode  = 0755
	iCloudFileMode = 0644
)

// ContainerResolver locates the storage container of the provider. The
// container may only become resolvable some time after the application
// started, or stop being resolvable when the account signs out.
type ContainerResolver interface {
	ResolveContainer(ctx context.Context) (string, error)
}

// ContainerResolverFunc is an easy way to implement a ContainerResolver.
type ContainerResolverFunc func(ctx context.Context) (string, error)

// ResolveContainer calls the function itself.
func (c ContainerResolverFunc) ResolveContainer(ctx context.Context) (string, error) {
	return c(ctx)
}

// DirectoryResolver resolves the container as a local directory kept in sync
// by the operating system, like the iCloud Drive ubiquity container.
type DirectoryResolver struct {
	Path string
}

// ResolveContainer checks that the directory exists and is writable.
func (d DirectoryResolver) ResolveContainer(ctx context.Context) (string, error) {
	if d.Path == "" {
		return "", errors.New("container path not defined")
	}

	info, err := os.Stat(d.Path)
	if err != nil {
		return "", errors.WithStack(err)
	}

	if !info.IsDir() {
		return "", errors.Errorf("container “%s” is not a directory", d.Path)
	}

	if err := writable(d.Path); err != nil {
		return "", errors.Wrapf(err, "container “%s” is not writable", d.Path)
	}

	return d.Path, nil
}

// ICloudConfig stores all necessary parameters to locate the iCloud
// container.
type ICloudConfig struct {
	Container string
	Documents string
}

// containerState is a consistent view of the resolved locations.
type containerState struct {
	container string
	documents string
}

// ICloud stores the activity files in the documents sub-location of an
// iCloud ubiquity container. Files are written to a hidden staging file and
// renamed over the destination, so a remote file is either complete or
// absent.
type ICloud struct {
	Logger       log.Logger
	Resolver     ContainerResolver
	DocumentsDir string
	Clock        Clock

	state atomic.Pointer[containerState]
}

// NewICloud initializes the iCloud service. The container doesn't need to be
// resolvable yet, IsAvailable will keep checking it.
func NewICloud(ctx context.Context, logger log.Logger, config ICloudConfig) *ICloud {
	documents := config.Documents
	if documents == "" {
		documents = DefaultDocumentsDir
	}

	i := &ICloud{
		Logger:       logger,
		Resolver:     DirectoryResolver{Path: config.Container},
		DocumentsDir: documents,
		Clock:        realClock{},
	}

	if _, err := i.resolve(ctx); err != nil {
		logger.Infof("cloud: icloud container not resolved yet. details: %s", err)
	}

	return i
}

// Name returns the iCloud service identifier.
func (i *ICloud) Name() string {
	return ICloudName
}

// IsAvailable resolves again the container and the documents sub-location.
// The previous state is never trusted, as the user can sign out at any time.
func (i *ICloud) IsAvailable(ctx context.Context) bool {
	_, err := i.resolve(ctx)
	return err == nil
}

// Resolved returns the state found by the last resolution, without checking
// the provider again.
func (i *ICloud) Resolved() bool {
	return i.state.Load() != nil
}

// UploadFile copies the file to the documents sub-location keeping the local
// file name. If an error occurs it will be an Error type encapsulated in a
// traceable error. To retrieve the desired error you can do:
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
func (i *ICloud) UploadFile(ctx context.Context, filename string) (Upload, error) {
	return i.send(ctx, filename, RemoteFileName(filename), "", "")
}

// UploadActivityFile copies the file to the documents sub-location using a
// name derived from the activity identifier. An older copy of the same
// activity is replaced. Errors follow the same rules of UploadFile.
func (i *ICloud) UploadActivityFile(ctx context.Context, filename, activityID, activityName string) (Upload, error) {
	if err := checkActivityID(activityID); err != nil {
		return Upload{}, err
	}

	return i.send(ctx, filename, RemoteActivityName(activityID), activityID, activityName)
}

func (i *ICloud) send(ctx context.Context, filename, remoteName, activityID, activityName string) (Upload, error) {
	i.Logger.Debugf("cloud: sending file “%s” to icloud as “%s”", filename, remoteName)

	if _, err := statLocalFile(remoteName, filename); err != nil {
		return Upload{}, err
	}

	// the same snapshot is used until the end of the transfer, even if a
	// concurrent availability check changes the state
	state, err := i.resolve(ctx)
	if err != nil {
		return Upload{}, errors.WithStack(newError(remoteName, ErrorCodeBackendUnavailable, err))
	}

	local, err := openLocalFile(remoteName, filename)
	if err != nil {
		return Upload{}, err
	}
	defer local.Close()

	if err := os.MkdirAll(state.documents, iCloudDirMode); err != nil {
		return Upload{}, errors.WithStack(newError(remoteName, ErrorCodeBackendUnavailable, err))
	}

	stagingPath := filepath.Join(state.documents, fmt.Sprintf(".%s.%s.partial", remoteName, uuid.NewString()))
	staging, err := os.OpenFile(stagingPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, iCloudFileMode)
	if err != nil {
		return Upload{}, errors.WithStack(newError(remoteName, writeErrorCode(err), err))
	}

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(staging, hash), contextReader{ctx: ctx, reader: local})
	if err == nil {
		err = staging.Sync()
	}
	if closeErr := staging.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		i.discard(stagingPath)

		if ctx.Err() != nil {
			i.Logger.Debug("cloud: operation cancelled by user")
			return Upload{}, errors.WithStack(newError(remoteName, ErrorCodeCancelled, err))
		}

		code := ErrorCodePartialUpload
		if errors.Is(err, syscall.ENOSPC) {
			code = ErrorCodeWriteThrottled
		}
		return Upload{}, errors.WithStack(newError(remoteName, code, err))
	}

	if err := os.Rename(stagingPath, filepath.Join(state.documents, remoteName)); err != nil {
		i.discard(stagingPath)
		return Upload{}, errors.WithStack(newError(remoteName, writeErrorCode(err), err))
	}

	i.Logger.Infof("cloud: file “%s” sent successfully to icloud", filename)

	return Upload{
		Service:      i.Name(),
		RemoteName:   remoteName,
		ActivityID:   activityID,
		ActivityName: activityName,
		Checksum:     hex.EncodeToString(hash.Sum(nil)),
		Size:         size,
		UploadedAt:   clockOrDefault(i.Clock).Now(),
	}, nil
}

// resolve finds the current locations of the container and the documents
// sub-location, publishing the new state for concurrent readers.
func (i *ICloud) resolve(ctx context.Context) (*containerState, error) {
	if i.Resolver == nil {
		err := errors.New("container resolver not defined")
		i.unresolved(err)
		return nil, err
	}

	container, err := i.Resolver.ResolveContainer(ctx)
	if err != nil {
		i.unresolved(err)
		return nil, errors.WithStack(err)
	}

	documentsDir := i.DocumentsDir
	if documentsDir == "" {
		documentsDir = DefaultDocumentsDir
	}

	state := &containerState{
		container: container,
		documents: filepath.Join(container, documentsDir),
	}

	// a missing documents directory is created on the first upload
	if info, err := os.Stat(state.documents); err == nil && !info.IsDir() {
		err = errors.Errorf("documents location “%s” is not a directory", state.documents)
		i.unresolved(err)
		return nil, err

	} else if err == nil {
		if err := writable(state.documents); err != nil {
			i.unresolved(err)
			return nil, errors.WithStack(err)
		}

	} else if !os.IsNotExist(err) {
		i.unresolved(err)
		return nil, errors.WithStack(err)
	}

	if previous := i.state.Swap(state); previous == nil || *previous != *state {
		i.Logger.Infof("cloud: icloud container resolved at “%s”", state.container)
	}

	return state, nil
}

func (i *ICloud) unresolved(err error) {
	if previous := i.state.Swap(nil); previous != nil {
		i.Logger.Warningf("cloud: icloud container “%s” became unreachable. details: %s", previous.container, err)
	}
}

func (i *ICloud) discard(stagingPath string) {
	if err := os.Remove(stagingPath); err != nil && !os.IsNotExist(err) {
		i.Logger.Warningf("cloud: error removing partial file “%s”. details: %s", stagingPath, err)
	}
}

// writeErrorCode classifies a failure writing in the container.
func writeErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, syscall.ENOSPC):
		return ErrorCodeWriteThrottled
	case os.IsNotExist(err):
		return ErrorCodeBackendUnavailable
	}

	return ErrorCodeWriteRejected
}
