// Package transcache persists translations in SQLite so repeated runs over
// the same transcript do not pay for the same backend calls twice.
//
// Entries are keyed by backend name, source and target language and the
// SHA-256 of the input text. Store implements translate.Cache.
package transcache
