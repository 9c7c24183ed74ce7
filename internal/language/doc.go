// Package language normalizes language codes for detection, translation and
// muxing.
//
// Detectors report ISO 639-3 codes, users type BCP 47 tags or English names,
// translation backends want ISO 639-1 and container metadata wants ISO 639-2.
// All of those conversions go through golang.org/x/text here so the rest of
// the module compares languages with Equal instead of string matching.
package language
