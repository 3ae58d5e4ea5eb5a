package storage

import (
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
	"github.com/rafaeljusto/tocloud/internal/log"
)

var boltDBBucket = []byte("tocloud")

const (
	boltDBFileMode = 0600
	boltDBTimeout  = 5 * time.Second
)

// BoltDB stores the sync ledger in a key value database file. The database
// is only opened while an operation is running, so other processes can
// inspect it.
type BoltDB struct {
	logger   log.Logger
	Filename string
}

// NewBoltDB initializes a BoltDB storage.
func NewBoltDB(logger log.Logger, filename string) *BoltDB {
	return &BoltDB{
		logger:   logger,
		Filename: filename,
	}
}

// Save a record in the database. If an error occurs it will be an Error type
// encapsulated in a traceable error. To retrieve the desired error you can
// do:
//
//	type causer interface {
//	  Cause() error
//	}
//
//	if causeErr, ok := err.(causer); ok {
//	  switch specificErr := causeErr.Cause().(type) {
//	  case storage.Error:
//	    // handle specifically
//	  default:
//	    // unknown error
//	  }
//	}
func (b *BoltDB) Save(record Record) error {
	b.logger.Debugf("storage: saving record “%s” in boltdb storage", record.Key())

	db, err := b.open()
	if err != nil {
		return err
	}
	defer db.Close()

	encoded, err := json.Marshal(record)
	if err != nil {
		return errors.WithStack(newRecordError(record.Key(), ErrorCodeEncodingRecord, err))
	}

	err = db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(boltDBBucket)
		if err != nil {
			return err
		}

		return bucket.Put([]byte(record.Key()), encoded)
	})

	if err != nil {
		return errors.WithStack(newRecordError(record.Key(), ErrorCodeSave, err))
	}

	b.logger.Infof("storage: record “%s” saved successfully in boltdb storage", record.Key())
	return nil
}

// List all records in the database. If an error occurs it will be an Error
// type encapsulated in a traceable error.
func (b *BoltDB) List() (Records, error) {
	b.logger.Debug("storage: listing records from boltdb storage")

	db, err := b.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var records Records

	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltDBBucket)
		if bucket == nil {
			// no record stored yet
			return nil
		}

		// keys are sorted by the database
		return bucket.ForEach(func(k, v []byte) error {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				return errors.WithStack(newRecordError(string(k), ErrorCodeDecodingRecord, err))
			}
			records = append(records, record)
			return nil
		})
	})

	if err != nil {
		if storageErr, ok := errors.Cause(err).(Error); ok {
			return nil, errors.WithStack(storageErr)
		}
		return nil, errors.WithStack(newError(ErrorCodeListing, err))
	}

	b.logger.Infof("storage: records listed successfully from boltdb storage (%d)", len(records))
	return records, nil
}

// Remove the record of an activity in a service. Removing a record that
// doesn't exist is not an error. If an error occurs it will be an Error type
// encapsulated in a traceable error.
func (b *BoltDB) Remove(service, id string) error {
	key := Record{Service: service, ActivityID: id}.Key()
	b.logger.Debugf("storage: removing record “%s” from boltdb storage", key)

	db, err := b.open()
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltDBBucket)
		if bucket == nil {
			return nil
		}

		return bucket.Delete([]byte(key))
	})

	if err != nil {
		return errors.WithStack(newRecordError(key, ErrorCodeDelete, err))
	}

	b.logger.Infof("storage: record “%s” removed successfully from boltdb storage", key)
	return nil
}

func (b *BoltDB) open() (*bolt.DB, error) {
	db, err := bolt.Open(b.Filename, boltDBFileMode, &bolt.Options{Timeout: boltDBTimeout})
	if err != nil {
		return nil, errors.WithStack(newError(ErrorCodeOpeningFile, err))
	}
	return db, nil
}
