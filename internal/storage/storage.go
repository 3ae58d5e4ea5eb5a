package storage

import (
	"sort"
	"strings"
	"time"
)

// Record stores the result of a successful upload of an activity file to one
// cloud service.
type Record struct {
	ActivityID   string    `json:"activityID,omitempty"`
	ActivityName string    `json:"activityName,omitempty"`
	Service      string    `json:"service"`
	RemoteName   string    `json:"remoteName"`
	Checksum     string    `json:"checksum"`
	Size         int64     `json:"size"`
	SyncedAt     time.Time `json:"syncedAt"`
}

// ID identifies the synced content inside a service. Files uploaded without
// an activity are identified by the remote name.
func (r Record) ID() string {
	if r.ActivityID != "" {
		return r.ActivityID
	}
	return r.RemoteName
}

// Key is the unique identifier of the record in the storage. There's only one
// record for each activity in each service.
func (r Record) Key() string {
	return r.Service + "/" + r.ID()
}

// Records represents a sorted list of records that are ordered by key. It has
// the necessary methods so you could use the sort package of the standard
// library.
type Records []Record

// Len returns the number of records.
func (r Records) Len() int { return len(r) }

// Less compares two positions of the slice and verifies the preference. They
// are ordered by the key, that should be unique.
func (r Records) Less(i, j int) bool {
	return strings.Compare(r[i].Key(), r[j].Key()) < 0
}

// Swap change the records position inside the slice.
func (r Records) Swap(i, j int) { r[i], r[j] = r[j], r[i] }

// Search looks for the record of an activity (or plain file remote name) in a
// specific service. The list must be sorted, as returned by the storages.
func (r Records) Search(service, id string) (Record, bool) {
	key := Record{Service: service, ActivityID: id}.Key()

	index := sort.Search(len(r), func(i int) bool {
		return strings.Compare(r[i].Key(), key) >= 0
	})

	if index < len(r) && r[index].Key() == key {
		return r[index], true
	}

	return Record{}, false
}

// Activity returns the records of an activity in all services.
func (r Records) Activity(activityID string) Records {
	var records Records
	for _, record := range r {
		if record.ActivityID == activityID {
			records = append(records, record)
		}
	}
	return records
}

// Storage represents all commands to manage the sync ledger locally. After an
// activity file is uploaded we keep track of it locally, so the application
// can tell what is already synced without contacting the clouds.
type Storage interface {
	// Save a record. An older record of the same activity in the same service
	// is replaced.
	Save(Record) error

	// List all records in the storage, sorted by key.
	List() (Records, error)

	// Remove the record of an activity (or plain file remote name) in a
	// service.
	Remove(service, id string) error
}
