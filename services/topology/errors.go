// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package topology

import "errors"

// Sentinel errors for the topology service.
var (
	// ErrSnapshotNotLoaded indicates no topology snapshot has been built yet.
	ErrSnapshotNotLoaded = errors.New("topology snapshot not loaded")

	// ErrNoOrigin indicates the request carried neither an origin id nor log text.
	ErrNoOrigin = errors.New("request must provide origin_node_id or log_text")

	// ErrOriginUnresolved indicates no service could be matched from the log text.
	ErrOriginUnresolved = errors.New("no service matched the provided log text")

	// ErrTopologyRead indicates the topology file could not be read.
	ErrTopologyRead = errors.New("failed to read topology file")

	// ErrTopologyParse indicates the topology file was not valid JSON.
	ErrTopologyParse = errors.New("failed to parse topology file")
)
