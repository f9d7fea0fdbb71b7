// Package domain models economic-calendar events from the ForexFactory
// weekly feed and defines the published snapshot contract.
//
// # Data Source
//
// Events originate from the faireconomy.media weekly calendar exports, which
// publish the same underlying data in two wire formats: a JSON array
// (primary) and an XML document of repeated <event> elements (fallback).
// Neither format is fully consistent across feed generations, so field
// extraction goes through ordered alias lists and every record passes
// through one canonicalization path regardless of origin.
//
// # Field Conventions
//
// Currency:
//
//	Usually under "country" despite being a currency code ("USD", "EUR").
//	Older payloads used "currency" or "ccy". Uppercased, not validated
//	against an ISO list.
//
// Time encodings (tried in priority order by [ResolveTime]):
//
//  1. Explicit epoch under "epoch", "timestamp", "unixtime" and variants.
//     Values above 1e12 are millisecond-resolution and floored to seconds.
//  2. Combined ISO date-time with an embedded offset, e.g.
//     "2024-03-05T08:30:00-05:00", converted to UTC.
//  3. Split date + time strings with no zone information, e.g.
//     "2024-03-05" + "8:30am". These are contractually in US Eastern time
//     ([DefaultSourceZone]) and are interpreted there before conversion.
//     Date orderings yyyy-mm-dd, mm-dd-yyyy, and mm/dd/yyyy appear in the
//     wild, crossed with 12-hour, bare-hour, and 24-hour clock forms.
//     Time tokens meaning "no specific time" ("all-day", "tentative",
//     "n/a", empty) normalize to local midnight.
//
// Impact:
//
//	Free-form strings coerced case-insensitively to the five-level enum
//	low/medium/high/holiday; anything else is unknown. The trading-client
//	projection further collapses this to three levels, where holiday
//	escalates to High and unknown degrades to Low ([ImpactForEA]).
//
// # Identity
//
// Event IDs are deterministic: "<CCY>-<epoch>-<slug>" where CCY is the
// letters-only currency truncated to 3 characters ("UNK" when empty), and
// the slug is the lowercased title with non-alphanumeric runs collapsed to
// hyphens, truncated to 60 characters ("event" when empty). Re-ingesting an
// unchanged feed reproduces identical IDs, which is what makes snapshot
// replacement idempotent. Two distinct events sharing the tuple collide and
// the collision is accepted as-is.
//
// # Admission
//
// A record is admitted into a snapshot only if it has a currency, a title,
// and a resolvable UTC instant. Failing records are dropped silently at the
// record level; drops are counted, never reported individually.
package domain
