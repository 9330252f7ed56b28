// Copyright (c) 2024-2025, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package types

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrConfiguration is matched (errors.Is) by every ConfigurationError.
	ErrConfiguration = errors.New("configuration error")

	// ErrZeroDistance is returned for a propagation query between co-located transmitter and receiver.
	ErrZeroDistance = errors.New("transmitter and receiver are co-located")

	// ErrUnknownCell is returned when a cell id is not known to the radio model.
	ErrUnknownCell = errors.New("unknown cell")

	// ErrUnknownUe is returned when a UE id is not known.
	ErrUnknownUe = errors.New("unknown UE")
)

// ConfigurationError reports a parameter that violates its contract. It is fatal at setup.
type ConfigurationError struct {
	Param  string
	Value  interface{}
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid configuration parameter '%s': %s", e.Param, e.Reason)
	}
	return fmt.Sprintf("invalid configuration parameter '%s' = %v: %s", e.Param, e.Value, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a ConfigurationError for parameter param with value v.
func NewConfigurationError(param string, v interface{}, reasonFormat string, args ...interface{}) error {
	return errors.WithStack(&ConfigurationError{
		Param:  param,
		Value:  v,
		Reason: fmt.Sprintf(reasonFormat, args...),
	})
}
