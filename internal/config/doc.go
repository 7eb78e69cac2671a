// Package config holds the optovka configuration: defaults, validation,
// the optional .optovka.yaml file and the XDG paths used for the
// database and page dumps.
package config
