// Package translate fans translation units out to a backend and collects the
// results in input order.
//
// Engine.TranslateAll dispatches index-tagged units to a bounded worker pool
// that writes into a pre-sized result slice, so output order never depends on
// completion order. Each unit is retried on transient backend failures with
// capped exponential backoff; a unit that still fails yields a *UnitError in
// its Outcome while the rest of the batch carries on. Units longer than the
// backend limit are split at sentence, word and finally rune boundaries and
// reassembled in order.
//
// CachingBackend memoises backend results in a Cache such as the SQLite store
// in internal/transcache.
package translate
