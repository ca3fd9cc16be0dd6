// Package sanitizer normalizes user supplied values before validation and storage.
//
// All functions are idempotent. Invalid input yields an empty value rather than
// an error so that the validator reports it.
//
// Normalization includes:
//   - Phone numbers: E.164, parsed against a default region when no country code is given
//   - Emails: trimmed and lower-cased
//   - Names and subjects: whitespace collapsed and trimmed
//   - URLs: https scheme added when missing, host lower-cased
//   - Slices: empty values and case-insensitive duplicates removed
package sanitizer
