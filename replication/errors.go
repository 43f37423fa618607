/*
 *  Copyright (c) Huawei Technologies Co., Ltd. 2022-2023. All rights reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *       http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

package replication

import (
	"errors"
	"fmt"
)

// PairFaultError reports that the array observed the pair in an abnormal
// state outside the expected transition set. It is never retried here; the
// caller decides whether to re-invoke the whole operation.
type PairFaultError struct {
	PairID        string
	RunningStatus string
	HealthStatus  string
}

// Error implements the error interface.
func (e *PairFaultError) Error() string {
	return fmt.Sprintf("pair %s is at abnormal state, running status %s, health status %s",
		e.PairID, e.RunningStatus, e.HealthStatus)
}

// IsPairFault reports whether err signals an abnormal pair state.
func IsPairFault(err error) bool {
	var f *PairFaultError
	return errors.As(err, &f)
}
