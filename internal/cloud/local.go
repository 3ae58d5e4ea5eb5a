package cloud

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// checkActivityID rejects identifiers that can't build a stable remote name.
func checkActivityID(activityID string) error {
	if strings.TrimSpace(activityID) == "" {
		return errors.WithStack(newError("", ErrorCodeInvalidActivityID, nil))
	}
	return nil
}

// statLocalFile verifies that the local file can be uploaded. Only metadata is
// read, the file content is untouched.
func statLocalFile(id, filename string) (os.FileInfo, error) {
	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithStack(newError(id, ErrorCodeMissingFile, err))
		}
		return nil, errors.WithStack(newError(id, ErrorCodeOpeningFile, err))
	}

	if !info.Mode().IsRegular() {
		return nil, errors.WithStack(newError(id, ErrorCodeMissingFile, fmt.Errorf("“%s” is not a regular file", filename)))
	}

	if info.Size() == 0 {
		return nil, errors.WithStack(newError(id, ErrorCodeEmptyFile, nil))
	}

	return info, nil
}

// openLocalFile opens the file for reading only.
func openLocalFile(id, filename string) (*os.File, error) {
	f, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithStack(newError(id, ErrorCodeMissingFile, err))
		}
		return nil, errors.WithStack(newError(id, ErrorCodeOpeningFile, err))
	}
	return f, nil
}

type digests struct {
	sha256 string
	md5    []byte
	size   int64
}

// digestLocalFile reads the whole content computing the hashes used to check
// the integrity of the remote object. The read position is moved back to the
// beginning of the file.
func digestLocalFile(id string, f io.ReadSeeker) (digests, error) {
	sha256Hash := sha256.New()
	md5Hash := md5.New()

	size, err := io.Copy(io.MultiWriter(sha256Hash, md5Hash), f)
	if err != nil {
		return digests{}, errors.WithStack(newError(id, ErrorCodeOpeningFile, err))
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return digests{}, errors.WithStack(newError(id, ErrorCodeOpeningFile, err))
	}

	return digests{
		sha256: hex.EncodeToString(sha256Hash.Sum(nil)),
		md5:    md5Hash.Sum(nil),
		size:   size,
	}, nil
}

// contextReader stops the transfer as soon as the context is done.
type contextReader struct {
	ctx    context.Context
	reader io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.reader.Read(p)
}
