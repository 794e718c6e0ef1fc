// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import "time"

// SetNowFunc replaces the history log clock.
func (h *HistoryLog) SetNowFunc(fn func() time.Time) { h.now = fn }
