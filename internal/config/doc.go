// Package config loads and validates gateway configuration from the
// environment. Every value is read once at startup; there is no runtime
// reloading.
package config
