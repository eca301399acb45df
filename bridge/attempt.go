// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"errors"
	"fmt"

	"github.com/CoronaWhy/skill-picard/lib/memstore"
	"github.com/CoronaWhy/skill-picard/messaging"
	"github.com/CoronaWhy/skill-picard/workspace"
)

// Outcome classifies the result of one provisioning step. The sweep
// uses it to decide whether to keep going with the current channel,
// skip a dependent feature, or abandon the channel until the next
// sweep.
type Outcome int

const (
	// OutcomeOK: the step succeeded, or the object was already in the
	// desired state.
	OutcomeOK Outcome = iota

	// OutcomeSkip: the step's precondition is absent (object not
	// found, capability unsupported, privilege missing). The dependent
	// feature is skipped; the channel as a whole continues.
	OutcomeSkip

	// OutcomeFatal: the step failed in a way that leaves the channel
	// unusable. The channel is abandoned for this sweep and retried by
	// the next one because it never reaches the ledger.
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeSkip:
		return "skip"
	case OutcomeFatal:
		return "fatal"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// classify maps a platform error to an Outcome. Absence-like errors
// (not found, unsupported capability, absent key) classify as skips;
// already-in-desired-state classifies as success; everything else is
// fatal for the object that produced it.
func classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case messaging.IsAlreadyInRoom(err), workspace.IsAlreadyInChannel(err):
		return OutcomeOK
	case messaging.IsNotFound(err):
		return OutcomeSkip
	case messaging.IsUnrecognized(err):
		return OutcomeSkip
	case errors.Is(err, memstore.ErrNotFound):
		return OutcomeSkip
	default:
		return OutcomeFatal
	}
}
