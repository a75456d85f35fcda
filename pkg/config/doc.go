// Package config provides configuration for colbridge scans.
//
// A single Config groups every section a scan needs:
//
//   - Source: input path, format, compression and rows per chunk
//   - Output: consumer format and destination
//   - Scan: read-ahead depth, chunk limit and timeout
//   - Logging, Metrics, Tracing: ambient observability
//
// # Usage
//
//	cfg, err := config.Load("scan.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Load starts from Default, so a file only needs the values it changes.
// The CLI layers command-line flags over the file.
//
// # Environment Variable Substitution
//
// ${VAR} is replaced by the value of VAR before parsing. ${VAR:-fallback}
// uses fallback when VAR is unset or empty:
//
//	source:
//	  path: ${DATA_DIR}/events.arrows.zst
//	logging:
//	  level: ${LOG_LEVEL:-info}
package config
