package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/memorylocks/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-k string   worker API key
//	-s string   identifier hash salt
//	-n int      identifier minimum length
//	-m list     milestones, comma separated (e.g., "10,25,50")
//	-v string   log level (debug, info, warn, error)
//	-p string   storage provider ("s3", "cloudinary" or "")
//	-b string   S3 bucket name
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-w string   milestone webhook URL
//	-q string   Kafka broker address
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with the -c/-config flag.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-k", "-s", "-n", "-m", "-v", "-p", "-b", "-e", "-w", "-q"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run the REST API")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run the gRPC health server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.APIKey, "k", config.APIKey, "worker API key")
	fs.StringVar(&config.HashSalt, "s", config.HashSalt, "identifier hash salt")
	fs.IntVar(&config.HashMinLength, "n", config.HashMinLength, "identifier minimum length")

	milestones := flagx.Int64List(config.Milestones)
	fs.Var(&milestones, "m", "milestones, comma separated")

	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")
	fs.StringVar(&config.StorageProvider, "p", config.StorageProvider, "storage provider (s3, cloudinary)")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.WebhookURL, "w", config.WebhookURL, "milestone webhook URL")
	fs.StringVar(&config.KafkaBroker, "q", config.KafkaBroker, "Kafka broker address")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.Milestones = []int64(milestones)
}
