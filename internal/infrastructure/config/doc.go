// Package config loads and validates netregistry configuration.
//
// Configuration comes from three layers, later layers overriding earlier
// ones: hardcoded defaults, a YAML file, and NETREGISTRY_* environment
// variables. A missing file is not fatal to callers that start from
// Default().
//
// Example config.yaml:
//
//	database:
//	  backend: sqlite
//	  path: ./data/netregistry.db
//	  wal_mode: true
//	  busy_timeout: 5
//	api:
//	  host: 0.0.0.0
//	  port: 8080
//	probe:
//	  attempt_timeout: 1
//	  tcp_ports: [80, 443]
//	mqtt:
//	  enabled: false
//	influxdb:
//	  enabled: false
//	logging:
//	  level: info
//	  format: json
package config
