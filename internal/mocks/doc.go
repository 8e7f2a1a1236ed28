// Package mocks provides centralized mock implementations for testing.
//
// Each mock exposes a function field per interface method; tests set
// only the behaviors they need, and unset methods fall back to a simple
// in-memory default. Keeping the mocks here avoids redefining them
// inline in every test package.
package mocks
