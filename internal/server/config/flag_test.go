package config

import (
	"flag"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", ":9090", "-g", ":9091", "-d", "db", "-k", "key", "-s", "salt", "-n", "12",
			"-m", "50,10,10", "-v", "debug", "-p", "s3", "-b", "bucket", "-e", "http://endpoint",
			"-w", "http://hook", "-q", "kafka:9092",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddrHTTP: ":9090",
				EndpointAddrGRPC: ":9091",
				DatabaseDSN:      "db",
				APIKey:           "key",
				HashSalt:         "salt",
				HashMinLength:    12,
				Milestones:       []int64{10, 50},
				LogLevel:         "debug",
				StorageProvider:  "s3",
				S3Bucket:         "bucket",
				S3BaseEndpoint:   "http://endpoint",
				WebhookURL:       "http://hook",
				KafkaBroker:      "kafka:9092",
			}},
		{name: "unknown flags are ignored", args: []string{"cmd", "-config", "x.json", "-a", ":1"},
			expected: &Config{EndpointAddrHTTP: ":1"}},
		{name: "bad milestone list panics", args: []string{"cmd", "-m", "10,abc"}, expectPanic: true},
		{name: "bad int panics", args: []string{"cmd", "-n", "many"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(tt.expected, config))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
