// Package config loads the settings of the idtoken command from a YAML file
// and IDTOKEN_* environment variables, and builds the transport client,
// signature algorithm and logger they describe.
package config
