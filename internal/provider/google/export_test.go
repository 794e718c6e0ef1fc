// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package google

var (
	ConvertMessages = convertMessages
	BuildConfig     = buildConfig
	EmbedConfig     = embedConfig
)
