// Copyright 2023 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package progress

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
)

type spanKeyType string

var spanKeyName = spanKeyType(uuid.New().String())

type Status string

const (
	StatusPending  Status = "Pending"
	StatusComplete Status = "Complete"
	StatusRunning  Status = "Running"
	StatusFailed   Status = "Failed"
)

// Tracer owns root spans. If an output is set, every span started under the
// tracer renders a progress bar to it.
type Tracer struct {
	name   string
	spans  sync.Map
	output io.Writer
}

func NewTracer(name string) *Tracer {
	return &Tracer{name: name}
}

// RenderTo enables progress bars written to w.
func (t *Tracer) RenderTo(w io.Writer) *Tracer {
	t.output = w
	return t
}

// Start creates a root span.
func (t *Tracer) Start(ctx context.Context, name string, total int) (context.Context, *Span) {
	span := newSpan(t, name, total)
	t.spans.Store(name, span)
	return context.WithValue(ctx, spanKeyName, span), span
}

func (t *Tracer) List() []Progress {
	var progress []Progress
	t.spans.Range(func(_, value any) bool {
		progress = append(progress, value.(*Span).Progress(t.name))
		return true
	})
	sort.Slice(progress, func(i, j int) bool {
		return progress[i].Name < progress[j].Name
	})
	return progress
}

type Span struct {
	name     string
	tracer   *Tracer
	bar      *progressbar.ProgressBar
	children sync.Map

	mu     sync.Mutex
	status Status
	total  int
	count  int
	err    error
	start  time.Time
	finish time.Time
}

func newSpan(tracer *Tracer, name string, total int) *Span {
	span := &Span{
		name:   name,
		tracer: tracer,
		status: StatusRunning,
		total:  total,
		start:  time.Now(),
	}
	if tracer != nil && tracer.output != nil {
		span.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(tracer.output),
			progressbar.OptionSetDescription(name),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish())
	}
	return span
}

func (s *Span) Add(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count += n
	if s.bar != nil {
		_ = s.bar.Add(n)
	}
}

func (s *Span) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusRunning {
		s.status = StatusComplete
		s.count = s.total
		s.finish = time.Now()
	}
	if s.bar != nil {
		_ = s.bar.Finish()
	}
}

func (s *Span) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusFailed
	s.err = err
	if s.finish.IsZero() {
		s.finish = time.Now()
	}
	if s.bar != nil {
		_ = s.bar.Exit()
	}
}

func (s *Span) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Span) Progress(tracer string) Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Progress{
		Tracer:     tracer,
		Name:       s.name,
		Status:     s.status,
		Count:      s.count,
		Total:      s.total,
		StartTime:  s.start,
		FinishTime: s.finish,
	}
	if s.err != nil {
		p.Error = s.err.Error()
	}
	return p
}

// Children returns progress of direct child spans ordered by name.
func (s *Span) Children() []Progress {
	var progress []Progress
	s.children.Range(func(_, value any) bool {
		progress = append(progress, value.(*Span).Progress(""))
		return true
	})
	sort.Slice(progress, func(i, j int) bool {
		return progress[i].Name < progress[j].Name
	})
	return progress
}

// Start creates a child span of the span carried by ctx. Without a parent the
// span is detached and not tracked.
func Start(ctx context.Context, name string, total int) (context.Context, *Span) {
	if ctx == nil {
		return nil, newSpan(nil, name, total)
	}
	parent, ok := ctx.Value(spanKeyName).(*Span)
	if !ok {
		return ctx, newSpan(nil, name, total)
	}
	childSpan := newSpan(parent.tracer, name, total)
	parent.children.Store(name, childSpan)
	return context.WithValue(ctx, spanKeyName, childSpan), childSpan
}

type Progress struct {
	Tracer     string
	Name       string
	Status     Status
	Error      string
	Count      int
	Total      int
	StartTime  time.Time
	FinishTime time.Time
}
