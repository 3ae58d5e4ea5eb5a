package cloud

import (
	"path/filepath"
	"strings"
)

// activityPrefix makes remote activity files easy to spot among other
// documents in the same storage location. Plain files never start with it.
const activityPrefix = "activity-"

// RemoteActivityName builds the remote name of an activity file. Only the
// activity identifier is used, so the same activity always maps to the same
// remote object, whatever the local file name or extension. Characters of
// the identifier outside [A-Za-z0-9_-] are percent-encoded, which keeps the
// mapping free of collisions between different identifiers.
func RemoteActivityName(activityID string) string {
	return activityPrefix + escapeName(activityID, false)
}

// ActivityExtension returns the normalized extension of a local activity
// file. It is kept as object metadata, as the remote name doesn't carry it.
func ActivityExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// RemoteFileName builds the remote name of a plain file from its local base
// name. A leading dot is escaped so the remote object is never hidden, and
// the first letter of a name that looks like an activity (in any case) is
// escaped so a plain file never replaces an activity.
func RemoteFileName(filename string) string {
	name := escapeName(filepath.Base(filename), true)
	switch {
	case strings.HasPrefix(name, "."):
		name = "%2E" + name[1:]
	case strings.HasPrefix(strings.ToLower(name), activityPrefix):
		name = escapeByte(name[0]) + name[1:]
	}
	return name
}

func escapeName(value string, keepDots bool) string {
	var name strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		if safeNameChar(c) || (keepDots && c == '.') {
			name.WriteByte(c)
			continue
		}
		name.WriteString(escapeByte(c))
	}

	return name.String()
}

func escapeByte(c byte) string {
	const hex = "0123456789ABCDEF"
	return string([]byte{'%', hex[c>>4], hex[c&0x0F]})
}

func safeNameChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_':
		return true
	}

	return false
}
