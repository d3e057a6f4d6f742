package db

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// RDSTokenProvider builds RDS IAM authentication tokens from the default AWS
// credential chain.
type RDSTokenProvider struct {
	endpoint string
	region   string
	username string

	loadCredentials func(ctx context.Context, region string) (aws.CredentialsProvider, error)
}

// NewRDSTokenProvider validates the RDS endpoint parameters.
func NewRDSTokenProvider(host string, port int, region, username string) (*RDSTokenProvider, error) {
	switch {
	case host == "":
		return nil, fmt.Errorf("AWS IAM auth requires a host: %w", pgrows.ErrInvalidConfig)
	case region == "":
		return nil, fmt.Errorf("AWS IAM auth requires a region (--aws-region or $AWS_REGION): %w", pgrows.ErrInvalidConfig)
	case username == "":
		return nil, fmt.Errorf("AWS IAM auth requires a username (-U): %w", pgrows.ErrInvalidConfig)
	}
	return &RDSTokenProvider{
		endpoint:        net.JoinHostPort(host, strconv.Itoa(port)),
		region:          region,
		username:        username,
		loadCredentials: defaultAWSCredentials,
	}, nil
}

func defaultAWSCredentials(ctx context.Context, region string) (aws.CredentialsProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return cfg.Credentials, nil
}

// Token signs a new RDS auth token.
func (p *RDSTokenProvider) Token(ctx context.Context) (string, time.Time, error) {
	creds, err := p.loadCredentials(ctx, p.region)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("load AWS credentials: %w", err)
	}
	token, err := auth.BuildAuthToken(ctx, p.endpoint, p.region, p.username, creds)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build RDS auth token: %w", err)
	}
	return token, time.Now().Add(rdsTokenLifetime), nil
}

func (p *RDSTokenProvider) String() string {
	return fmt.Sprintf("RDS IAM (%s@%s, %s)", p.username, p.endpoint, p.region)
}
