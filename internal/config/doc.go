// Package config handles YAML configuration loading with environment variable
// substitution.
//
// Configuration files support ${VAR} syntax for environment variable
// interpolation. Unset keys keep their defaults, so a config file only needs
// the fields it wants to change.
package config
