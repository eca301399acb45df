// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

// Package cron parses 5-field cron expressions ("m h dom mon dow") and
// computes the next occurrence after a given time. Fields accept
// wildcards, single values, ranges, comma lists, and steps (*/15,
// 1-30/5); day-of-week runs Sunday=0 through Saturday=6.
//
// All computation is in UTC. There is no seconds field, no named
// days or months, and no @hourly-style shortcuts: the sweep schedule
// is a plain wall-clock expression and nothing more.
package cron
