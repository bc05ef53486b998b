// Copyright 2021 gorse Project Authors
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
	"bufio"
	"strings"
)

// ReadLines parse fields of each line for csv file. The separator may span
// several characters (e.g. "::"). Quoted fields may contain separators and
// line breaks. The handler receives the zero-based line number where a record
// starts and stops the scan by returning false.
func ReadLines(sc *bufio.Scanner, sep string, handler func(int, []string) bool) error {
	lineCount := 0               // line number of current position
	startLine := 0               // line number where current record starts
	fields := make([]string, 0)  // fields for current line
	builder := strings.Builder{} // string builder for current field
	quoted := false              // whether current position in quote
	for sc.Scan() {
		// read line
		line := sc.Text()
		// start of line
		if quoted {
			builder.WriteString("\r\n")
		} else {
			startLine = lineCount
		}
		// parse line
		for i := 0; i < len(line); i++ {
			if !quoted && sep != "" && strings.HasPrefix(line[i:], sep) {
				// end of field
				fields = append(fields, builder.String())
				builder.Reset()
				i += len(sep) - 1
			} else if line[i] == '"' {
				if quoted {
					if i+1 >= len(line) || line[i+1] != '"' {
						// end of quoted
						quoted = false
					} else {
						i++
						builder.WriteByte('"')
					}
				} else {
					// start of quoted
					quoted = true
				}
			} else {
				builder.WriteByte(line[i])
			}
		}
		// end of line
		if !quoted {
			fields = append(fields, builder.String())
			builder.Reset()
			if !handler(startLine, fields) {
				return nil
			}
			fields = []string{}
		}
		// increase line count
		lineCount++
	}
	return sc.Err()
}
