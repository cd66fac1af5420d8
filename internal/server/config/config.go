// Package config handles configuration for the server component,
// including defaults, an optional env-file overlay, JSON overlay, and
// command-line flags.
package config

// Config holds runtime settings for the forum server.
//
// Fields:
//   - EndpointAddr: bind address shared by the UDP control plane and the
//     TCP data plane (both planes use the same port, per the wire contract).
//   - DataDir: directory holding thread records, the credentials file and
//     (with the disk backend) uploaded attachments.
//   - CredentialsFile: name of the credentials file inside DataDir.
//   - WorkerPoolSize: number of control-plane workers.
//   - S3Bucket et al.: when S3Bucket is non-empty, attachments are stored
//     in an S3-compatible bucket instead of DataDir.
type Config struct {
	EndpointAddr    string
	DataDir         string
	CredentialsFile string
	WorkerPoolSize  int
	S3RootUser      string
	S3RootPassword  string
	S3Bucket        string
	S3Region        string
	S3BaseEndpoint  string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8888"
	c.DataDir = "data"
	c.CredentialsFile = "credentials.txt"
	c.WorkerPoolSize = 5
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the environment (optionally seeded by a .env file), an optional
// JSON file and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
