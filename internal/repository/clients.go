package repository

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	rdsutils "github.com/aws/aws-sdk-go-v2/feature/rds/auth"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "github.com/lib/pq"

	"github.com/nholding/tenor/internal/config"
)

type Config struct {
	Profile      string // Primarily for dev purposes
	S3BucketName string
	Region       string

	DBEndpoint string // e.g. tenor.abc123xyz.eu-central-1.rds.amazonaws.com
	DBUser     string // IAM-enabled database user
	DBName     string
	DBPort     int // e.g. 5432

	DSN string // when set, used verbatim instead of an IAM auth token
}

// NewConfig extracts the AWS and database settings from the application config.
func NewConfig(cfg *config.Config) *Config {
	return &Config{
		Profile:      cfg.AWS.Profile,
		S3BucketName: cfg.AWS.S3Bucket,
		Region:       cfg.AWS.Region,
		DBEndpoint:   cfg.AWS.DBEndpoint,
		DBUser:       cfg.AWS.DBUser,
		DBName:       cfg.AWS.DBName,
		DBPort:       cfg.AWS.DBPort,
		DSN:          cfg.Database.DSN,
	}
}

type S3Client struct {
	Client     *s3.Client // The actual S3 client
	BucketName string     // The bucket name (from config)
}

// RDSClient encapsulates the PostgreSQL RDS client (sql.DB) with IAM authentication
type RDSClient struct {
	Client *sql.DB
}

func (c *Config) LoadAWSConfig(ctx context.Context) (*aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(c.Profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &cfg, nil
}

// NewS3Client creates a new S3 client and stores the bucket name
func NewS3Client(ctx context.Context, cfg *Config) (*S3Client, error) {
	if cfg.S3BucketName == "" {
		return nil, fmt.Errorf("no S3 bucket configured")
	}

	awsCfg, err := cfg.LoadAWSConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for S3 client: %w", err)
	}

	return &S3Client{
		Client:     s3.NewFromConfig(*awsCfg),
		BucketName: cfg.S3BucketName,
	}, nil
}

// NewRDSClient creates and returns a new PostgreSQL client. Without a DSN it authenticates
// against RDS with a short-lived IAM token.
func (c *Config) NewRDSClient(ctx context.Context) (*RDSClient, error) {
	connStr := c.DSN
	if connStr == "" {
		awsCfg, err := c.LoadAWSConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config for RDS: %w", err)
		}

		endpointWithPort := fmt.Sprintf("%s:%d", c.DBEndpoint, c.DBPort)

		// This operation is performed locally, not an API call
		authToken, err := rdsutils.BuildAuthToken(ctx, endpointWithPort, c.Region, c.DBUser, awsCfg.Credentials)
		if err != nil {
			return nil, fmt.Errorf("failed to create authentication token: %w", err)
		}

		connStr = fmt.Sprintf(
			"postgres://%s:%s@%s/%s?sslmode=require",
			url.QueryEscape(c.DBUser),
			url.QueryEscape(authToken),
			endpointWithPort,
			url.QueryEscape(c.DBName),
		)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL database: %w", err)
	}
	return &RDSClient{Client: db}, nil
}

// OpenDatabase opens the database selected by cfg.Database.Driver. For driver "none" it
// returns a nil *sql.DB and no error.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, Dialect, error) {
	switch cfg.Database.Driver {
	case "postgres":
		rds, err := NewConfig(cfg).NewRDSClient(ctx)
		if err != nil {
			return nil, "", err
		}
		return rds.Client, Postgres, nil
	case "sqlite":
		db, err := OpenSQLite(cfg.Database.SQLitePath)
		if err != nil {
			return nil, "", err
		}
		return db, SQLite, nil
	case "none", "":
		return nil, "", nil
	}
	return nil, "", fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}
