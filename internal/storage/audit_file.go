package storage

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rafaeljusto/tocloud/internal/log"
)

const (
	auditFileFileMode = 0600
	auditFileColumns  = 7
)

// AuditFile stores the sync ledger in a simple text file, one record per
// line. New records are appended and the last line of a key is the one that
// counts, so the file also keeps the history of the synchronizations.
//
// Each line has the format:
//
//	<synced at> <service> <activity id> <remote name> <checksum> <size> <activity name>
//
// Service, activity id and remote name are query escaped, and the activity
// name takes the rest of the line.
type AuditFile struct {
	logger   log.Logger
	Filename string
}

// NewAuditFile initializes a new AuditFile object.
func NewAuditFile(logger log.Logger, filename string) *AuditFile {
	return &AuditFile{
		logger:   logger,
		Filename: filename,
	}
}

// Save a record. If an error occurs it will be an Error type encapsulated in
// a traceable error. To retrieve the desired error you can do:
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
func (a *AuditFile) Save(record Record) error {
	a.logger.Debugf("storage: saving record “%s” in audit file storage", record.Key())

	auditFile, err := os.OpenFile(a.Filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, auditFileFileMode)
	if err != nil {
		return errors.WithStack(newError(ErrorCodeOpeningFile, err))
	}
	defer auditFile.Close()

	if _, err = auditFile.WriteString(formatAuditLine(record)); err != nil {
		return errors.WithStack(newError(ErrorCodeWritingFile, err))
	}

	a.logger.Infof("storage: record “%s” saved successfully in audit file storage", record.Key())
	return nil
}

// List all records in the audit file. A missing audit file means that there's
// nothing synced yet. If an error occurs it will be an Error type encapsulated
// in a traceable error.
func (a *AuditFile) List() (Records, error) {
	a.logger.Debug("storage: listing records from audit file storage")

	auditFile, err := os.Open(a.Filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WithStack(newError(ErrorCodeOpeningFile, err))
	}
	defer auditFile.Close()

	index := make(map[string]int)
	var records Records

	scanner := bufio.NewScanner(auditFile)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}

		record, err := parseAuditLine(scanner.Text())
		if err != nil {
			return nil, err
		}

		if i, ok := index[record.Key()]; ok {
			records[i] = record
			continue
		}

		index[record.Key()] = len(records)
		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.WithStack(newError(ErrorCodeReadingFile, err))
	}

	sort.Sort(records)

	a.logger.Infof("storage: records listed successfully from audit file storage (%d)", len(records))
	return records, nil
}

// Remove the record of an activity in a service. The current audit file is
// kept with a timestamp suffix and a new one is written without the record.
// If an error occurs it will be an Error type encapsulated in a traceable
// error.
func (a *AuditFile) Remove(service, id string) error {
	key := Record{Service: service, ActivityID: id}.Key()
	a.logger.Debugf("storage: removing record “%s” from audit file storage", key)

	records, err := a.List()
	if err != nil {
		return err
	}

	if _, err := os.Stat(a.Filename); os.IsNotExist(err) {
		return nil
	}

	if err = os.Rename(a.Filename, a.Filename+"."+time.Now().Format("20060102150405")); err != nil {
		return errors.WithStack(newError(ErrorCodeMovingFile, err))
	}

	auditFile, err := os.OpenFile(a.Filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, auditFileFileMode)
	if err != nil {
		return errors.WithStack(newError(ErrorCodeOpeningFile, err))
	}
	defer auditFile.Close()

	for _, record := range records {
		if record.Key() == key {
			continue
		}

		if _, err = auditFile.WriteString(formatAuditLine(record)); err != nil {
			return errors.WithStack(newError(ErrorCodeWritingFile, err))
		}
	}

	a.logger.Infof("storage: record “%s” removed successfully from audit file storage", key)
	return nil
}

func formatAuditLine(record Record) string {
	return fmt.Sprintf("%s %s %s %s %s %d %s\n",
		record.SyncedAt.Format(time.RFC3339),
		url.QueryEscape(record.Service),
		url.QueryEscape(record.ActivityID),
		url.QueryEscape(record.RemoteName),
		record.Checksum,
		record.Size,
		strings.Replace(record.ActivityName, "\n", " ", -1),
	)
}

func parseAuditLine(line string) (Record, error) {
	lineParts := strings.SplitN(line, " ", auditFileColumns)
	if len(lineParts) != auditFileColumns {
		return Record{}, errors.WithStack(newError(ErrorCodeFormat, errors.Errorf("wrong number of columns in line “%s”", line)))
	}

	var record Record
	var err error

	if record.SyncedAt, err = time.Parse(time.RFC3339, lineParts[0]); err != nil {
		return Record{}, errors.WithStack(newError(ErrorCodeDateFormat, err))
	}

	if record.Service, err = url.QueryUnescape(lineParts[1]); err != nil {
		return Record{}, errors.WithStack(newError(ErrorCodeFormat, err))
	}

	if record.ActivityID, err = url.QueryUnescape(lineParts[2]); err != nil {
		return Record{}, errors.WithStack(newError(ErrorCodeFormat, err))
	}

	if record.RemoteName, err = url.QueryUnescape(lineParts[3]); err != nil {
		return Record{}, errors.WithStack(newError(ErrorCodeFormat, err))
	}

	record.Checksum = lineParts[4]

	if record.Size, err = strconv.ParseInt(lineParts[5], 10, 64); err != nil {
		return Record{}, errors.WithStack(newError(ErrorCodeSizeFormat, err))
	}

	record.ActivityName = lineParts[6]
	return record, nil
}
