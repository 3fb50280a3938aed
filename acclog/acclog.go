// Copyright © 2020 AMIS Technologies
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package acclog gives the accumulator and vector-commitment packages a
// single place to log from, without forcing a concrete logging backend on
// callers who embed this module into a larger service.
package acclog

import "github.com/getamis/sirius/log"

var logger = log.Discard()

// Logger returns the package-wide logger. Defaults to a no-op sink.
func Logger() log.Logger {
	return logger
}

// SetLogger replaces the package-wide logger, e.g. with one backed by the
// host application's own structured logger.
func SetLogger(l log.Logger) {
	logger = l
}
