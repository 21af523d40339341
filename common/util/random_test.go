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
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomGenerator_Permutation(t *testing.T) {
	rng := NewRandomGenerator(0)
	perm := rng.Permutation(100)
	assert.Len(t, perm, 100)
	sorted := append([]int(nil), perm...)
	sort.Ints(sorted)
	assert.Equal(t, RangeInt(100), sorted)
	assert.NotEqual(t, RangeInt(100), perm)
	// same seed, same permutation
	assert.Equal(t, perm, NewRandomGenerator(0).Permutation(100))
	assert.NotEqual(t, perm, NewRandomGenerator(1).Permutation(100))
	// empty
	assert.Empty(t, rng.Permutation(0))
}

func TestRangeInt(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 3}, RangeInt(4))
	assert.Empty(t, RangeInt(0))
}
