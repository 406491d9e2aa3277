// Package config loads, defaults, validates, and watches the relay
// configuration.
//
// Configuration comes from a YAML file, with ASTRORELAY_* environment
// variables taking precedence over file values. Everything with a sane
// public default (the geocoder, timeouts, paths) gets one; the astrology
// provider credential has no default and fails validation fast when absent.
package config
