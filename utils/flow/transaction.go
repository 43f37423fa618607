/*
 *  Copyright (c) Huawei Technologies Co., Ltd. 2022-2024. All rights reserved.
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

// Package flow implements a sequential transaction with compensating
// rollbacks, used by resource creation paths that must clean up in reverse
// order on failure.
package flow

import (
	"context"

	"huawei-replication-driver/utils/log"
)

type transactionStep struct {
	name       string
	exec       func(ctx context.Context) error
	onRollback func(ctx context.Context)
}

// Transaction chains steps; a failed Commit leaves the transaction positioned
// so Rollback compensates only the steps that actually ran.
type Transaction struct {
	name   string
	stepAt int
	steps  []transactionStep
}

// NewTransaction instantiates a named transaction.
func NewTransaction(name string) *Transaction {
	return &Transaction{
		name:  name,
		steps: []transactionStep{},
	}
}

// Then adds a step and its compensation. onRollback may be nil for steps with
// nothing to undo.
func (t *Transaction) Then(name string, exec func(ctx context.Context) error,
	onRollback func(ctx context.Context)) *Transaction {
	t.steps = append(t.steps, transactionStep{
		name:       name,
		exec:       exec,
		onRollback: onRollback,
	})
	return t
}

// Commit executes the steps in order and stops at the first error.
func (t *Transaction) Commit(ctx context.Context) error {
	for t.stepAt < len(t.steps) {
		step := t.steps[t.stepAt]
		if step.exec != nil {
			if err := step.exec(ctx); err != nil {
				log.AddContext(ctx).Errorf("Run step %s of transaction %s error: %v",
					step.name, t.name, err)
				return err
			}
		}

		t.stepAt++
	}

	return nil
}

// Rollback compensates the finished steps in reverse order. Rollback errors
// are the steps' own concern; a compensation must log and swallow internally.
func (t *Transaction) Rollback(ctx context.Context) {
	log.AddContext(ctx).Infof("Start to rollback transaction %s", t.name)

	for i := t.stepAt - 1; i >= 0; i-- {
		if t.steps[i].onRollback != nil {
			t.steps[i].onRollback(ctx)
		}
	}
}
