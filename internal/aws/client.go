package aws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
)

type Error string

const (
	ErrNoCredentials      = Error("no AWS credentials found")
	ErrExpiredCredentials = Error("AWS credentials have expired")
	ErrNoConnection       = Error("no connection to AWS")
	ErrInvalidProfile     = Error("invalid AWS profile")
	ErrInvalidRegion      = Error("invalid AWS region")
)

func (e Error) Error() string {
	return string(e)
}

// Connection hands out AWS service clients for the active profile.
type Connection interface {
	ActiveProfile() string
	ActiveRegion() string
	AccountID() string
	CheckConnectivity(context.Context) error
	S3Regional(region string) (*s3.Client, error)
	BucketRegion(ctx context.Context, bucket string) (string, error)
}

type ClientConfig struct {
	Profile string
	Region  string
	Timeout time.Duration
}

type serviceClients struct {
	s3Client  *s3.Client
	stsClient *sts.Client
	awsConfig aws.Config
}

// APIClient lazily creates per-region clients for one profile.
type APIClient struct {
	config    ClientConfig
	clients   map[string]*serviceClients
	accountID string
	mx        sync.RWMutex
}

// NewAPIClient creates a new APIClient for the given profile/region.
func NewAPIClient(cfg ClientConfig) (*APIClient, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: region cannot be empty", ErrInvalidRegion)
	}

	return &APIClient{
		config:  cfg,
		clients: make(map[string]*serviceClients),
	}, nil
}

// ActiveProfile returns the currently active AWS profile.
func (c *APIClient) ActiveProfile() string {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.config.Profile
}

// ActiveRegion returns the currently active AWS region.
func (c *APIClient) ActiveRegion() string {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.config.Region
}

// AccountID returns the cached AWS account ID.
func (c *APIClient) AccountID() string {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.accountID
}

// CheckConnectivity verifies connectivity to AWS by calling STS GetCallerIdentity.
// It caches the account ID on success.
func (c *APIClient) CheckConnectivity(ctx context.Context) error {
	clients, err := c.getClients(c.ActiveRegion())
	if err != nil {
		return err
	}
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	result, err := clients.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoConnection, WrapAWSError(err, "get caller identity"))
	}

	c.mx.Lock()
	defer c.mx.Unlock()
	c.accountID = aws.ToString(result.Account)

	return nil
}

// S3Regional returns an S3 client for a specific region.
func (c *APIClient) S3Regional(region string) (*s3.Client, error) {
	if region == "" {
		region = c.ActiveRegion()
	}
	clients, err := c.getClients(region)
	if err != nil {
		return nil, err
	}
	return clients.s3Client, nil
}

// BucketRegion retrieves the region a bucket lives in.
func (c *APIClient) BucketRegion(ctx context.Context, bucket string) (string, error) {
	client, err := c.S3Regional("")
	if err != nil {
		return "", err
	}
	output, err := client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{Bucket: &bucket})
	if err != nil {
		return "", WrapAWSError(err, "get bucket location")
	}
	// Empty LocationConstraint means us-east-1.
	if output.LocationConstraint == "" {
		return DefaultRegion, nil
	}

	return string(output.LocationConstraint), nil
}

// getClients retrieves or creates service clients for the specified region.
func (c *APIClient) getClients(region string) (*serviceClients, error) {
	c.mx.RLock()
	if clients, ok := c.clients[region]; ok {
		c.mx.RUnlock()
		return clients, nil
	}
	c.mx.RUnlock()

	c.mx.Lock()
	defer c.mx.Unlock()
	if clients, ok := c.clients[region]; ok {
		return clients, nil
	}
	clients, err := c.createClients(c.config.Profile, region)
	if err != nil {
		return nil, err
	}
	c.clients[region] = clients

	return clients, nil
}

func (c *APIClient) createClients(profile, region string) (*serviceClients, error) {
	ctx := context.Background()
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, WrapAWSError(err, "load AWS config")
	}

	return &serviceClients{
		awsConfig: cfg,
		s3Client:  s3.NewFromConfig(cfg),
		stsClient: sts.NewFromConfig(cfg),
	}, nil
}

// WrapAWSError wraps AWS SDK errors with additional context.
func WrapAWSError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "AccessDeniedException":
			return fmt.Errorf("access denied for %s: %w", operation, err)
		case "ExpiredToken", "ExpiredTokenException":
			return fmt.Errorf("%w: %s", ErrExpiredCredentials, operation)
		case "ThrottlingException", "SlowDown":
			return fmt.Errorf("rate limited during %s: %w", operation, err)
		case "InvalidClientTokenId":
			return fmt.Errorf("%w: %s", ErrNoCredentials, operation)
		default:
			return fmt.Errorf("%s failed: %s (%s)", operation, apiErr.ErrorMessage(), apiErr.ErrorCode())
		}
	}

	return fmt.Errorf("%s failed: %w", operation, err)
}
