package cloud

import (
	"fmt"
	"strings"
)

const (
	// LocationICloud indicates the iCloud ubiquity container.
	LocationICloud Location = "icloud"

	// LocationAWS indicates the Amazon AWS S3 cloud.
	LocationAWS Location = "aws"

	// LocationGCS indicates the Google Cloud Storage.
	LocationGCS Location = "gcs"
)

// Location identifies a supported cloud in configuration files and command
// line flags.
type Location string

// ParseLocation converts a text to a Location type.
func ParseLocation(value string) (Location, error) {
	value = strings.ToLower(value)
	value = strings.TrimSpace(value)

	switch value {
	case string(LocationICloud):
		return LocationICloud, nil
	case string(LocationAWS):
		return LocationAWS, nil
	case string(LocationGCS):
		return LocationGCS, nil
	}

	// not return a library error here because this is used when parsing the
	// configuration
	return Location(""), fmt.Errorf("unknown location “%s”", value)
}

// Defined returns true if the location has a valid value.
func (l Location) Defined() bool {
	return l == LocationICloud || l == LocationAWS || l == LocationGCS
}

// ServiceName returns the name reported by the cloud service of the location.
func (l Location) ServiceName() string {
	switch l {
	case LocationICloud:
		return ICloudName
	case LocationAWS:
		return AWSName
	case LocationGCS:
		return GCSName
	}
	return ""
}
