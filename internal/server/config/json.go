package config

import (
	"encoding/json"
	"os"

	"forum/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Values are
// copied into the runtime Config after parsing.
type JsonConfig struct {
	EndpointAddr    string `json:"endpoint_addr"`
	DataDir         string `json:"data_dir"`
	CredentialsFile string `json:"credentials_file"`
	WorkerPoolSize  int    `json:"worker_pool_size"`
	S3RootUser      string `json:"s3_root_user"`
	S3RootPassword  string `json:"s3_root_password"`
	S3Bucket        string `json:"s3_bucket"`
	S3Region        string `json:"s3_region"`
	S3BaseEndpoint  string `json:"s3_base_endpoint"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path is taken from the -c or -config flags via
// flagx.JsonConfigFlags; when neither is set, nothing is loaded. Read or
// unmarshal errors panic, matching the fail-fast policy of the other
// config stages.
func parseJson(config *Config) {
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

	config.EndpointAddr = jc.EndpointAddr
	config.DataDir = jc.DataDir
	config.CredentialsFile = jc.CredentialsFile
	config.WorkerPoolSize = jc.WorkerPoolSize
	config.S3RootUser = jc.S3RootUser
	config.S3RootPassword = jc.S3RootPassword
	config.S3Bucket = jc.S3Bucket
	config.S3Region = jc.S3Region
	config.S3BaseEndpoint = jc.S3BaseEndpoint
}
