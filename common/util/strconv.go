// Copyright 2020 gorse Project Authors
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

package util

import (
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// ParseFloat parses a decimal string into a float of type T, ignoring surrounding spaces.
func ParseFloat[T constraints.Float](s string) (T, error) {
	var zero T
	v, err := strconv.ParseFloat(strings.TrimSpace(s), int(unsafe.Sizeof(zero))*8)
	return T(v), err
}

// FormatFloat formats a float with a fixed number of decimal places.
func FormatFloat[T constraints.Float](v T, precision int) string {
	var zero T
	return strconv.FormatFloat(float64(v), 'f', precision, int(unsafe.Sizeof(zero))*8)
}
