// Package report build a text with all actions performed by the tool. As the
// tool can work in background, it is useful to periodically retrieve a report
// with all synced activities.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"text/template"
	"time"

	"github.com/pkg/errors"
	"github.com/rafaeljusto/tocloud/internal/cloud"
)

var (
	reports     []Report
	reportsLock sync.Mutex
)

const (
	// FormatPlain send e-mail containing only ascii characters.
	FormatPlain Format = "plain"

	// FormatHTML send e-mail with a HTML structure for better presentation
	// of the content.
	FormatHTML Format = "html"
)

// Format defines the format used in the e-mail content.
type Format string

// String gives the string representation that can be used in e-mail headers.
func (f Format) String() string {
	switch f {
	case FormatPlain:
		return "text/plain"
	case FormatHTML:
		return "text/html"
	}

	return "text/plain"
}

const formatHTMLPrefix = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>tocloud report</title>
    <style type="text/css">
      body {
        font-family: "sans-serif";
      }

      .report {
        border-bottom: 2px solid lightgrey;
        padding: 10px 0px 20px 0px;
      }

      .report h1 {
        background-color: #7fd18b;
        border-radius: 10px;
        margin-bottom: 30px;
        padding: 15px;
      }

      .report .date {
        color: grey;
      }

      .report .unavailable {
        color: darkred;
      }
    </style>
  </head>
  <body>
`

const formatHTMLSuffix = `  </body>
</html>`

// Report is the contract that every report must respect so it can be included
// in the notification engine.
type Report interface {
	Build(Format) (string, error)
}

type basic struct {
	CreatedAt time.Time
	Errors    []error
}

func newBasic() basic {
	return basic{
		CreatedAt: time.Now(),
	}
}

// SyncActivity stores all useful information of an activity file sent to the
// clouds, including the attempts needed and how long it took.
type SyncActivity struct {
	basic

	Filename     string
	ActivityID   string
	ActivityName string
	Strategy     string
	Attempts     int
	Uploads      []cloud.Upload
	Durations    struct {
		Sync time.Duration
	}
}

// NewSyncActivity initialize a new report item for the activity sync action.
func NewSyncActivity() SyncActivity {
	return SyncActivity{
		basic: newBasic(),
	}
}

// Build creates a report with details of an activity file synced to the
// clouds. On error it will return an Error type encapsulated in a traceable
// error. To retrieve the desired error you can do:
//
//	type causer interface {
//	  Cause() error
//	}
//
//	if causeErr, ok := err.(causer); ok {
//	  switch specificErr := causeErr.Cause().(type) {
//	  case *report.Error:
//	    // handle specifically
//	  default:
//	    // unknown error
//	  }
//	}
func (s SyncActivity) Build(f Format) (string, error) {
	var tmpl string

	switch f {
	case FormatHTML:
		tmpl = `
    <section class="report">
      <h1>Activity Synced</h1>
      <div class="date">
        {{.CreatedAt.Format "2006-01-02 15:04:05"}}
      </div>
      <h2>Activity</h2>
      <div>
        <label>File:</label>
        <span>{{.Filename}}</span>
      </div>
      {{if .ActivityID -}}
      <div>
        <label>ID:</label>
        <span>{{.ActivityID}}</span>
      </div>
      <div>
        <label>Name:</label>
        <span>{{.ActivityName}}</span>
      </div>
      {{- end}}
      <div>
        <label>Strategy:</label>
        <span>{{.Strategy}}</span>
      </div>
      <div>
        <label>Attempts:</label>
        <span>{{.Attempts}}</span>
      </div>
      <h2>Uploads</h2>
      <table>
        <thead>
          <tr>
            <th>Service</th>
            <th>Remote Name</th>
            <th>Date</th>
            <th>Size</th>
            <th>Checksum</th>
          </tr>
        </thead>
        <tbody>
          {{range $upload := .Uploads}}
          <tr>
            <td>{{$upload.Service}}</td>
            <td>{{$upload.RemoteName}}</td>
            <td>{{$upload.UploadedAt.Format "2006-01-02 15:04:05"}}</td>
            <td>{{$upload.Size}}</td>
            <td>{{$upload.Checksum}}</td>
          </tr>
          {{- end}}
        </tbody>
      </table>
      <h2>Durations</h2>
      <div>
        <label>Sync:</label>
        <span>{{.Durations.Sync}}</span>
      </div>
      {{if .Errors -}}
      <h2>Errors</h2>
      <ul>
        {{range $err := .Errors}}
        <li>{{$err}}</li>
        {{- end -}}
      </ul>
      {{- end}}
    </section>
  `

	case FormatPlain:
		fallthrough

	default:
		tmpl = `
[{{.CreatedAt.Format "2006-01-02 15:04:05"}}] Activity Synced

  Activity
  --------

    File:        {{.Filename}}
    {{- if .ActivityID}}
    ID:          {{.ActivityID}}
    Name:        {{.ActivityName}}
    {{- end}}
    Strategy:    {{.Strategy}}
    Attempts:    {{.Attempts}}

  Uploads
  -------
    {{range $upload := .Uploads}}
    * Service:   {{$upload.Service}}
      Remote:    {{$upload.RemoteName}}
      Date:      {{$upload.UploadedAt.Format "2006-01-02 15:04:05"}}
      Size:      {{$upload.Size}}
      Checksum:  {{$upload.Checksum}}
    {{- end}}

  Durations
  ---------

    Sync:        {{.Durations.Sync}}

  {{if .Errors -}}
  Errors
  ------
    {{range $err := .Errors}}
    * {{$err}}
    {{- end -}}
  {{- end}}
  `
	}

	return execute(tmpl, s)
}

// CheckServices stores the live availability of every configured cloud.
type CheckServices struct {
	basic

	Services  map[string]bool
	Durations struct {
		Check time.Duration
	}
}

// NewCheckServices initialize a new report item for the availability check.
func NewCheckServices() CheckServices {
	return CheckServices{
		basic: newBasic(),
	}
}

// ServiceStatus availability of one cloud in the check report.
type ServiceStatus struct {
	Name      string
	Available bool
}

// Statuses returns the services availability sorted by the service name, so
// the report output is stable.
func (c CheckServices) Statuses() []ServiceStatus {
	statuses := make([]ServiceStatus, 0, len(c.Services))
	for name, available := range c.Services {
		statuses = append(statuses, ServiceStatus{Name: name, Available: available})
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Name < statuses[j].Name
	})

	return statuses
}

// Build creates a report with the availability of each cloud. On error it will
// return an Error type encapsulated in a traceable error.
func (c CheckServices) Build(f Format) (string, error) {
	var tmpl string

	switch f {
	case FormatHTML:
		tmpl = `
    <section class="report">
      <h1>Services Check</h1>
      <div class="date">
        {{.CreatedAt.Format "2006-01-02 15:04:05"}}
      </div>
      <h2>Services</h2>
      <ul>
        {{range $status := .Statuses}}
        <li{{if not $status.Available}} class="unavailable"{{end}}>{{$status.Name}}: {{if $status.Available}}available{{else}}unavailable{{end}}</li>
        {{- end}}
      </ul>
      <h2>Durations</h2>
      <div>
        <label>Check:</label>
        <span>{{.Durations.Check}}</span>
      </div>
      {{if .Errors -}}
      <h2>Errors</h2>
      <ul>
        {{range $err := .Errors}}
        <li>{{$err}}</li>
        {{- end -}}
      </ul>
      {{- end}}
    </section>
  `

	case FormatPlain:
		fallthrough

	default:
		tmpl = `
[{{.CreatedAt.Format "2006-01-02 15:04:05"}}] Services Check

  Services
  --------
    {{range $status := .Statuses}}
    * {{$status.Name}}: {{if $status.Available}}available{{else}}unavailable{{end}}
    {{- end}}

  Durations
  ---------

    Check:       {{.Durations.Check}}

  {{if .Errors -}}
  Errors
  ------
    {{range $err := .Errors}}
    * {{$err}}
    {{- end -}}
  {{- end}}
  `
	}

	return execute(tmpl, c)
}

// Test is a simple test report only to check if everything is working well.
type Test struct {
	basic
}

// NewTest initialize a new test report to verify the notification mechanisms.
func NewTest() Test {
	return Test{
		basic: newBasic(),
	}
}

// Build creates a report for testing purpose. On error it will return an
// Error type encapsulated in a traceable error.
func (tr Test) Build(f Format) (string, error) {
	var tmpl string

	switch f {
	case FormatHTML:
		tmpl = `
    <section class="report">
      <h1>Test report</h1>
      <div class="date">
        {{.CreatedAt.Format "2006-01-02 15:04:05"}}
      </div>
      <p>Testing the notification mechanisms.</p>
      {{if .Errors -}}
      <h2>Errors</h2>
      <ul>
        {{range $err := .Errors}}
        <li>{{$err}}</li>
        {{- end -}}
      </ul>
      {{- end}}
    </section>
  `

	case FormatPlain:
		fallthrough

	default:
		tmpl = `
[{{.CreatedAt.Format "2006-01-02 15:04:05"}}] Test report

  Testing the notification mechanisms.

  {{if .Errors -}}
  Errors
  ------
    {{range $err := .Errors}}
    * {{$err}}
    {{- end -}}
  {{- end}}
  `
	}

	return execute(tmpl, tr)
}

func execute(tmpl string, data interface{}) (string, error) {
	t, err := template.New("report").Parse(tmpl)
	if err != nil {
		return "", errors.WithStack(newError(ErrorCodeTemplate, err))
	}

	var buffer bytes.Buffer
	if err := t.Execute(&buffer, data); err != nil {
		return "", errors.WithStack(newError(ErrorCodeExecutingTemplate, err))
	}
	return buffer.String(), nil
}

// Add stores the report information to be retrieved later.
func Add(r Report) {
	reportsLock.Lock()
	defer reportsLock.Unlock()

	reports = append(reports, r)
}

// Clear removes all reports from the internal cache. Useful for testing
// environments.
func Clear() {
	reportsLock.Lock()
	defer reportsLock.Unlock()

	reports = []Report{}
}

// Build generates the report in the specify format. Every time this function is
// called the internal cache of reports is cleared. On error it will return an
// Error type encapsulated in a traceable error. To retrieve the desired error
// you can do:
//
//	type causer interface {
//	  Cause() error
//	}
//
//	if causeErr, ok := err.(causer); ok {
//	  switch specificErr := causeErr.Cause().(type) {
//	  case *report.Error:
//	    // handle specifically
//	  default:
//	    // unknown error
//	  }
//	}
func Build(f Format) (string, error) {
	reportsLock.Lock()
	defer reportsLock.Unlock()
	defer func() {
		reports = nil
	}()

	var buffer string
	for _, r := range reports {
		tmp, err := r.Build(f)
		if err != nil {
			return "", errors.WithStack(err)
		}

		// using fmt.Sprintln to create a cross platform line break
		buffer += fmt.Sprintln(tmp)
	}

	if f == FormatHTML {
		buffer = formatHTMLPrefix + buffer + formatHTMLSuffix
	}

	return buffer, nil
}
