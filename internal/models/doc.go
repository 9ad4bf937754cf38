// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

// Package models defines the entities shared by the four Podium services.
// All rows are keyed by UUID and all timestamps are UTC.
package models
