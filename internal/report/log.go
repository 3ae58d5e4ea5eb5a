package report

import (
	"fmt"
	"sync"
	"time"

	"github.com/rafaeljusto/tocloud/internal/log"
)

// maxWarnings limits the warnings kept between two report builds, so a daemon
// with a broken cloud doesn't grow without bounds.
const maxWarnings = 100

// Log create an extra layer on the log engine to add the warnings of the
// internal libraries to the report. It is also a Report itself, listing the
// warnings logged since the last build.
type Log struct {
	logger log.Logger

	warningsLock sync.Mutex
	warnings     []Warning
	dropped      int
	now          func() time.Time
}

// Warning is a logged problem kept for the next report.
type Warning struct {
	LoggedAt time.Time
	Message  string
}

// NewLogger initializes the log report encapsulating logger inside it. Warning
// messages are stored before calling the logger respective function.
func NewLogger(logger log.Logger) *Log {
	return &Log{
		logger: logger,
		now:    time.Now,
	}
}

// Debug add detailed messages for development. It uses the same behavior of the
// fmt.Sprint function.
func (l *Log) Debug(args ...interface{}) {
	l.logger.Debug(args...)
}

// Debugf add detailed messages for development. It uses the same behavior of
// the fmt.Sprintf function.
func (l *Log) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// Info add an informational message. It uses the same behavior of the
// fmt.Sprint function.
func (l *Log) Info(args ...interface{}) {
	l.logger.Info(args...)
}

// Infof add an informational message. It uses the same behavior of the
// fmt.Sprintf function.
func (l *Log) Infof(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

// Warning reports a problem that it is not critical for the system
// functionality. It uses the same behavior of the fmt.Sprint function.
func (l *Log) Warning(args ...interface{}) {
	l.store(fmt.Sprint(args...))
	l.logger.Warning(args...)
}

// Warningf reports a problem that it is not critical for the system
// functionality. It uses the same behavior of the fmt.Sprintf function.
func (l *Log) Warningf(format string, args ...interface{}) {
	l.store(fmt.Sprintf(format, args...))
	l.logger.Warningf(format, args...)
}

func (l *Log) store(message string) {
	l.warningsLock.Lock()
	defer l.warningsLock.Unlock()

	if len(l.warnings) >= maxWarnings {
		l.dropped++
		return
	}

	l.warnings = append(l.warnings, Warning{
		LoggedAt: l.now(),
		Message:  message,
	})
}

// Warnings returns a copy of the warnings stored since the last build.
func (l *Log) Warnings() []Warning {
	l.warningsLock.Lock()
	defer l.warningsLock.Unlock()

	return append([]Warning(nil), l.warnings...)
}

// Build lists the warnings logged since the last build and forgets them. When
// there's nothing to report an empty text is returned.
func (l *Log) Build(f Format) (string, error) {
	l.warningsLock.Lock()
	data := struct {
		Warnings []Warning
		Dropped  int
	}{
		Warnings: l.warnings,
		Dropped:  l.dropped,
	}
	l.warnings = nil
	l.dropped = 0
	l.warningsLock.Unlock()

	if len(data.Warnings) == 0 {
		return "", nil
	}

	var tmpl string

	switch f {
	case FormatHTML:
		tmpl = `
    <section class="report">
      <h1>Warnings</h1>
      <ul>
        {{range $w := .Warnings}}
        <li><span class="date">{{$w.LoggedAt.Format "2006-01-02 15:04:05"}}</span> {{$w.Message}}</li>
        {{- end}}
      </ul>
      {{if .Dropped -}}
      <p>{{.Dropped}} more warnings were discarded.</p>
      {{- end}}
    </section>
  `

	case FormatPlain:
		fallthrough

	default:
		tmpl = `
Warnings
--------
  {{range $w := .Warnings}}
  * [{{$w.LoggedAt.Format "2006-01-02 15:04:05"}}] {{$w.Message}}
  {{- end}}
  {{if .Dropped -}}
  {{.Dropped}} more warnings were discarded.
  {{- end}}
  `
	}

	return execute(tmpl, data)
}
