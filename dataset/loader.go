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

package dataset

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gorse-io/autorec/base"
	"github.com/juju/errors"
	_ "modernc.org/sqlite"
)

// Format describes a delimiter-separated rating log.
type Format struct {
	Sep    string
	Header bool
	// Columns holds the positions of user, item and rating fields.
	Columns [3]int
}

var (
	// MovieLens100K is the format of u.data.
	MovieLens100K = Format{Sep: "\t", Columns: [3]int{0, 1, 2}}
	// MovieLens1M is the format of ratings.dat.
	MovieLens1M = Format{Sep: "::", Columns: [3]int{0, 1, 2}}
	// MovieLensLatest is the format of ratings.csv.
	MovieLensLatest = Format{Sep: ",", Header: true, Columns: [3]int{0, 1, 2}}
)

// BuiltInFormat returns a named format.
func BuiltInFormat(name string) (Format, error) {
	switch name {
	case "ml-100k":
		return MovieLens100K, nil
	case "ml-1m", "ml-10m":
		return MovieLens1M, nil
	case "ml-latest", "csv":
		return MovieLensLatest, nil
	default:
		return Format{}, errors.NotValidf("format %q", name)
	}
}

// Loader streams rating records into a Builder. Raw user and item ids are
// mapped to dense ids. If ByItem is set, items are autoencoded over users.
type Loader struct {
	builder *Builder
	byItem  bool
	Users   *FreqDict
	Items   *FreqDict
}

func NewLoader(builder *Builder, byItem bool) *Loader {
	return &Loader{
		builder: builder,
		byItem:  byItem,
		Users:   NewFreqDict(),
		Items:   NewFreqDict(),
	}
}

// Entities returns the dictionary of autoencoded ids.
func (l *Loader) Entities() *FreqDict {
	if l.byItem {
		return l.Items
	}
	return l.Users
}

// Counterparts returns the dictionary of ids indexing vector positions.
func (l *Loader) Counterparts() *FreqDict {
	if l.byItem {
		return l.Users
	}
	return l.Items
}

// Add parses one record. The line number is used in data errors.
func (l *Loader) Add(line int, userId, itemId string, value float32) error {
	userId, itemId = strings.TrimSpace(userId), strings.TrimSpace(itemId)
	if userId == "" || itemId == "" {
		return l.builder.Reject(base.NewDataError(line, "empty id"))
	}
	if rescaler := l.builder.opts.Rescaler; !rescaler.Contains(value) {
		// reject before ids are assigned
		return l.builder.Reject(base.NewDataError(line, "rating %v out of range [%v, %v]", value, rescaler.Min, rescaler.Max))
	}
	rating := Rating{
		Entity:      l.Users.Id(userId),
		Counterpart: l.Items.Id(itemId),
		Value:       value,
	}
	if l.byItem {
		rating = rating.Transpose()
	}
	return l.builder.AddAt(line, rating)
}

// Read parses a rating log from a reader.
func (l *Loader) Read(r io.Reader, format Format) error {
	numFields := max(format.Columns[0], format.Columns[1], format.Columns[2]) + 1
	var err error
	sc := bufio.NewScanner(r)
	if readErr := base.ReadLines(sc, format.Sep, func(i int, fields []string) bool {
		line := i + 1
		if i == 0 && format.Header {
			return true
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			// skip blank lines
			return true
		}
		if len(fields) < numFields {
			err = l.builder.Reject(base.NewDataError(line, "expect %d fields, but got %d", numFields, len(fields)))
			return err == nil
		}
		value, parseErr := strconv.ParseFloat(strings.TrimSpace(fields[format.Columns[2]]), 32)
		if parseErr != nil {
			err = l.builder.Reject(base.NewDataError(line, "invalid rating %q", fields[format.Columns[2]]))
			return err == nil
		}
		err = l.Add(line, fields[format.Columns[0]], fields[format.Columns[1]], float32(value))
		return err == nil
	}); readErr != nil {
		return errors.Trace(readErr)
	}
	return err
}

// LoadCSV parses a rating log from a file.
func (l *Loader) LoadCSV(path string, format Format) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()
	return l.Read(f, format)
}

// LoadSQLite reads ratings from a SQLite database. The query must return user
// id, item id and rating columns.
func (l *Loader) LoadSQLite(ctx context.Context, dsn, query string) error {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return errors.Trace(err)
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return errors.Trace(err)
	}
	defer rows.Close()
	line := 0
	for rows.Next() {
		line++
		var (
			userId, itemId string
			value          float64
		)
		if err = rows.Scan(&userId, &itemId, &value); err != nil {
			if err = l.builder.Reject(base.NewDataError(line, "%v", err)); err != nil {
				return err
			}
			continue
		}
		if err = l.Add(line, userId, itemId, float32(value)); err != nil {
			return err
		}
	}
	return errors.Trace(rows.Err())
}
