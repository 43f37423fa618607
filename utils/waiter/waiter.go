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

// Package waiter provides the bounded polling primitive used by all pair and
// group state transitions.
package waiter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TimeoutError reports that a condition did not hold within the wait budget.
type TimeoutError struct {
	Attempts int
	Timeout  time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("condition not met after %d attempts within %v", e.Attempts, e.Timeout)
}

// IsTimeout reports whether err is a wait timeout, so callers can decide to
// re-invoke the whole higher level operation.
func IsTimeout(err error) bool {
	var t *TimeoutError
	return errors.As(err, &t)
}

// WaitForCondition polls predicate every interval until it returns true or
// the timeout budget is exhausted. Non-positive interval or timeout are
// clamped to one second. A predicate error aborts the wait immediately; it is
// never swallowed or retried here. The number of predicate invocations is
// bounded by ceil(timeout/interval).
func WaitForCondition(ctx context.Context, predicate func() (bool, error), interval, timeout time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	if timeout <= 0 {
		timeout = time.Second
	}

	attempts := int((timeout + interval - 1) / interval)

	for i := 0; i < attempts; i++ {
		done, err := predicate()
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}

	return &TimeoutError{Attempts: attempts, Timeout: timeout}
}
