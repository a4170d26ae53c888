// Package conv provides checked integer conversions for artifact headers.
//
// Counts and dimensions read from blobs are untrusted; every conversion or
// size product derived from them goes through this package so that a
// corrupt header yields ErrOverflow instead of a huge allocation or a
// silently truncated value.
package conv
