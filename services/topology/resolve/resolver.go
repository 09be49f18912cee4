// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package resolve maps free-form text (log lines, stack traces, human
// phrasing) to canonical service ids in the current topology snapshot.
//
// The graph engine itself never interprets free text; it only answers
// "is this id in the snapshot". Resolution sits in front of it as a
// separate collaborator so the engine stays deterministic and the
// resolution strategy stays swappable.
package resolve

import (
	"context"
	"errors"
)

// ErrNoMatch is returned when no service in the snapshot could be
// matched against the given text.
var ErrNoMatch = errors.New("resolve: no matching service")

// Resolver maps text to a canonical service id from the snapshot the
// resolver was built against.
//
// Resolvers are snapshot-scoped: after a topology reload the owner must
// build a new resolver from the new snapshot.
type Resolver interface {
	Resolve(ctx context.Context, text string) (string, error)
}
