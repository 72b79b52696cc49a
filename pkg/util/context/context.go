package context

import (
	gocontext "context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Context extends the regular golang context.Context interface with access to a
// structured logger and the identifiers of the current pipeline execution.
type Context interface {
	gocontext.Context
	Logger() *logrus.Entry
	PipelineName() string
	JobName() string
	InputRef() string
	RunID() string
}

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyMsg: "message",
		},
	})
	return l
}

// Configure sets the level of the logger shared by all contexts.
// The special level "off" silences logging entirely.
func Configure(level string) error {
	if strings.EqualFold(level, "off") {
		logger.SetOutput(io.Discard)
		return nil
	}
	logger.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(lvl)
	return nil
}

// Background returns a non-nil, empty Context.
func Background() Context {
	return ctx{
		Context: gocontext.Background(),
	}
}

// FromContext returns a new Context from the given go context.
// If c already is a Context, it is returned unchanged.
func FromContext(c gocontext.Context) Context {
	if ec, ok := c.(Context); ok {
		return ec
	}
	return ctx{
		Context: c,
	}
}

// WithPipelineName returns a copy of the context with a pipeline name.
func WithPipelineName(c Context, name string) Context {
	return ctx{
		c,
		name,
		c.JobName(),
		c.InputRef(),
		c.RunID(),
	}
}

// WithJobName returns a copy of the context with a job name.
func WithJobName(c Context, name string) Context {
	return ctx{
		c,
		c.PipelineName(),
		name,
		c.InputRef(),
		c.RunID(),
	}
}

// WithInputRef returns a copy of the context with an input reference.
func WithInputRef(c Context, ref string) Context {
	return ctx{
		c,
		c.PipelineName(),
		c.JobName(),
		ref,
		c.RunID(),
	}
}

// WithRunID returns a copy of the context with a run identifier.
func WithRunID(c Context, runID string) Context {
	return ctx{
		c,
		c.PipelineName(),
		c.JobName(),
		c.InputRef(),
		runID,
	}
}

type ctx struct {
	gocontext.Context
	pipelineName string
	jobName      string
	inputRef     string
	runID        string
}

func (c ctx) Logger() *logrus.Entry {
	e := logrus.NewEntry(logger)
	if c.PipelineName() != "" {
		e = e.WithField("pipeline", c.PipelineName())
	}
	if c.JobName() != "" {
		e = e.WithField("job", c.JobName())
	}
	if c.InputRef() != "" {
		e = e.WithField("input", c.InputRef())
	}
	if c.RunID() != "" {
		e = e.WithField("run_id", c.RunID())
	}
	return e
}

func (c ctx) PipelineName() string {
	return c.pipelineName
}

func (c ctx) JobName() string {
	return c.jobName
}

func (c ctx) InputRef() string {
	return c.inputRef
}

func (c ctx) RunID() string {
	return c.runID
}
