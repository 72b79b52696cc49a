package pipeline

import (
	"github.com/pkg/errors"
)

// Factory builds a job instance from its configuration.
type Factory func(cfg map[string]interface{}) (Job, error)

// ConfigFactory returns a fresh configuration map for one job instantiation.
// It is invoked once per instantiation so configuration is never shared
// between runs.
type ConfigFactory func() map[string]interface{}

// JobSpec binds a stage name to its job factory and configuration factory.
// Immutable once added to a definition.
type JobSpec struct {
	Name        string
	Factory     Factory
	Config      ConfigFactory
	Description string
}

// NewInstance creates a job instance with a fresh configuration.
func (s JobSpec) NewInstance() (Job, error) {
	cfg := map[string]interface{}{}
	if s.Config != nil {
		cfg = s.Config()
	}
	job, err := s.Factory(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot instantiate job %s", s.Name)
	}
	return job, nil
}

// Definition is an ordered, name-indexed sequence of job specs. Insertion
// order is execution order. Build it once at startup; it is read-only during
// execution and safe to share across workers, but AddJob is not safe to call
// concurrently with execution.
type Definition struct {
	name  string
	jobs  []JobSpec
	index map[string]int
}

// NewDefinition returns an empty definition with the given name.
func NewDefinition(name string) *Definition {
	return &Definition{
		name:  name,
		index: make(map[string]int),
	}
}

// Name returns the definition name.
func (d *Definition) Name() string {
	return d.name
}

// Len returns the number of jobs in the definition.
func (d *Definition) Len() int {
	return len(d.jobs)
}

// Contains reports whether the definition holds a job with the given name.
func (d *Definition) Contains(name string) bool {
	_, ok := d.index[name]
	return ok
}

// AddJob appends a job to the definition.
func (d *Definition) AddJob(name string, factory Factory, config ConfigFactory, description string) error {
	if name == "" {
		return errors.New("job name cannot be empty")
	}
	if factory == nil {
		return errors.Errorf("job %s has no factory", name)
	}
	if _, exists := d.index[name]; exists {
		return DuplicateJobError{Name: name}
	}
	d.index[name] = len(d.jobs)
	d.jobs = append(d.jobs, JobSpec{
		Name:        name,
		Factory:     factory,
		Config:      config,
		Description: description,
	})
	return nil
}

// JobNames returns the job names in execution order.
func (d *Definition) JobNames() []string {
	names := make([]string, len(d.jobs))
	for i, j := range d.jobs {
		names[i] = j.Name
	}
	return names
}

// Job returns the spec of the job with the given name.
func (d *Definition) Job(name string) (JobSpec, error) {
	i, err := d.jobIndex(name)
	if err != nil {
		return JobSpec{}, err
	}
	return d.jobs[i], nil
}

// First returns the name of the first job.
func (d *Definition) First() (string, error) {
	if len(d.jobs) == 0 {
		return "", errors.New("pipeline has no jobs")
	}
	return d.jobs[0].Name, nil
}

// Last returns the name of the last job.
func (d *Definition) Last() (string, error) {
	if len(d.jobs) == 0 {
		return "", errors.New("pipeline has no jobs")
	}
	return d.jobs[len(d.jobs)-1].Name, nil
}

func (d *Definition) jobIndex(name string) (int, error) {
	i, exists := d.index[name]
	if !exists {
		return 0, UnknownJobError{Name: name, Available: d.JobNames()}
	}
	return i, nil
}

// JobsInRange returns the contiguous sub-sequence of jobs selected by the
// given boundaries, both inclusive. An empty boundary means the first,
// respectively the last, job of the definition.
func (d *Definition) JobsInRange(startFrom, stopAfter string) ([]JobSpec, error) {
	if len(d.jobs) == 0 {
		return nil, nil
	}

	startIdx := 0
	if startFrom != "" {
		i, err := d.jobIndex(startFrom)
		if err != nil {
			return nil, err
		}
		startIdx = i
	}
	stopIdx := len(d.jobs) - 1
	if stopAfter != "" {
		i, err := d.jobIndex(stopAfter)
		if err != nil {
			return nil, err
		}
		stopIdx = i
	}

	if startIdx > stopIdx {
		return nil, InvalidRangeError{
			StartFrom:  startFrom,
			StopAfter:  stopAfter,
			StartIndex: startIdx,
			StopIndex:  stopIdx,
		}
	}

	jobs := make([]JobSpec, stopIdx-startIdx+1)
	copy(jobs, d.jobs[startIdx:stopIdx+1])
	return jobs, nil
}
