// Copyright 2026 gorse Project Authors
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

package base

import (
	"fmt"

	"github.com/juju/errors"
)

// DataError reports a malformed or out-of-range rating record.
type DataError struct {
	Line   int
	Reason string
}

func NewDataError(line int, format string, args ...any) *DataError {
	return &DataError{Line: line, Reason: fmt.Sprintf(format, args...)}
}

func (e *DataError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("data error at record %d: %s", e.Line, e.Reason)
	}
	return "data error: " + e.Reason
}

// ShapeMismatchError reports a network output whose width differs from the
// input dimension. Training cannot proceed after it.
type ShapeMismatchError struct {
	Expected int
	Actual   int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: expect width %d, but got %d", e.Expected, e.Actual)
}

// IsDataError returns true if the cause of err is a DataError.
func IsDataError(err error) bool {
	_, ok := errors.Cause(err).(*DataError)
	return ok
}

// IsShapeMismatch returns true if the cause of err is a ShapeMismatchError.
func IsShapeMismatch(err error) bool {
	_, ok := errors.Cause(err).(*ShapeMismatchError)
	return ok
}

// IsConfigError returns true if err is raised by hyper-parameter validation.
func IsConfigError(err error) bool {
	return errors.IsNotValid(err)
}
