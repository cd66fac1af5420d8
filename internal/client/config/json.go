package config

import (
	"encoding/json"
	"os"
	"time"

	"forum/internal/flagx"
	"forum/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify the timeout either as
// a string like "1s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerAddr     string         `json:"server_addr"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	MaxRetries     int            `json:"max_retries"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path is taken from the -c or -config flags via
// flagx.JsonConfigFlags; when neither is set, nothing is loaded.
// Read or unmarshal errors panic (caller should recover if desired).
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerAddr = jc.ServerAddr
	cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	cfg.MaxRetries = jc.MaxRetries
}
