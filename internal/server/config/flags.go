package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/courseauth/internal/flagx"
)

var knownFlags = []string{"-a", "-g", "-d", "-s", "-alg", "-t", "-r", "-e", "-cost", "-l", "-b", "-u", "-p", "-region", "-endpoint"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string        HTTP bind address (e.g., ":8000")
//	-g string        gRPC health bind address (e.g., ":50051")
//	-d string        PostgreSQL DSN
//	-s string        token signing secret
//	-alg string      signing algorithm (HS256, HS384, HS512)
//	-t int           access token validity, minutes
//	-r int           refresh token validity, days
//	-e int           password reset token validity, hours
//	-cost int        bcrypt cost
//	-l string        log level
//	-b string        S3 outbox bucket
//	-u / -p string   S3 credentials
//	-region string   S3 region
//	-endpoint string S3 base endpoint
//
// Unknown arguments are filtered out first so other flag sets (-c) coexist.
func parseFlags(config *Config, args []string) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	fs.StringVar(&config.SigningAlgorithm, "alg", config.SigningAlgorithm, "token signing algorithm")

	accessMinutes := fs.Int("t", int(config.AccessTokenValidityDuration/time.Minute), "access token validity (in minutes)")
	refreshDays := fs.Int("r", int(config.RefreshTokenValidityDuration/(24*time.Hour)), "refresh token validity (in days)")
	resetHours := fs.Int("e", int(config.ResetTokenValidityDuration/time.Hour), "password reset token validity (in hours)")

	fs.IntVar(&config.BcryptCost, "cost", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 outbox bucket")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 password")
	fs.StringVar(&config.S3Region, "region", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "endpoint", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessMinutes) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshDays) * 24 * time.Hour
		case "e":
			config.ResetTokenValidityDuration = time.Duration(*resetHours) * time.Hour
		}
	})
}
