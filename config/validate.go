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
package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/gorse-io/autorec/common/nn"
	"github.com/juju/errors"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	if err := validate.RegisterValidation("activation", func(fl validator.FieldLevel) bool {
		_, err := nn.NewActivation(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}
	return validate
}

// Validate checks the configuration. Violations are reported as NotValid
// errors.
func (config *Config) Validate() error {
	if err := newValidator().Struct(config); err != nil {
		return errors.NewNotValid(err, "invalid config")
	}
	if config.Data.Path == "" && config.Data.SQLiteDSN == "" {
		// a source may still be given on the command line
		return nil
	}
	if config.Data.Path != "" && config.Data.SQLiteDSN != "" {
		return errors.NotValidf("both data.path and data.sqlite_dsn")
	}
	if config.Data.Path != "" && config.Data.GetFormat().Sep == "" {
		return errors.NotValidf("empty separator of data.format")
	}
	return nil
}
