package cloud

import (
	"context"
	"time"
)

// CloudService offers all necessary operations to keep activity files synced
// with one cloud storage provider. Implementations never create, delete or
// modify the local file.
type CloudService interface {
	// Name returns a stable and human readable identifier of the cloud. It is
	// used for display, logging and to key any state stored per cloud.
	Name() string

	// IsAvailable checks right now if the storage location of the cloud is
	// reachable and writable. It never changes remote state and the result is
	// never cached, so call it just before an upload attempt.
	IsAvailable(ctx context.Context) bool

	// UploadFile sends the file verbatim to the cloud, using the local file name
	// to build the remote name. An existing remote object with the same name is
	// overwritten.
	UploadFile(ctx context.Context, filename string) (Upload, error)

	// UploadActivityFile sends the file to the cloud associating it with a
	// recorded activity. The remote name depends only on the activity
	// identifier, so uploading the same activity again replaces the previous
	// remote object. The activity name is informative only.
	UploadActivityFile(ctx context.Context, filename, activityID, activityName string) (Upload, error)
}

// Upload stores all the information of a file that was successfully sent to
// the cloud.
type Upload struct {
	// Service is the name of the cloud that received the file.
	Service string

	// RemoteName identifies the object inside the cloud storage location.
	RemoteName string

	// ActivityID is the activity associated with the file. Empty when the file
	// was uploaded without an activity.
	ActivityID string

	// ActivityName is the human readable name of the activity.
	ActivityName string

	// Checksum is a hex encoded SHA256 of the uploaded content.
	Checksum string

	// Size of the uploaded content in bytes.
	Size int64

	// UploadedAt is the time the remote object was completed.
	UploadedAt time.Time
}
