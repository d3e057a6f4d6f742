package pgrows

import (
	"fmt"
	"time"
)

// User is a single row of the user_data table.
type User struct {
	UserID string `json:"user_id" db:"user_id"`
	Name   string `json:"name" db:"name"`
	Email  string `json:"email" db:"email"`
	Age    int    `json:"age" db:"age"`
}

// Batch is an ordered slice of users produced by a batch streamer.
type Batch []User

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// SSL client certificate paths (mTLS)
	SSLCert     string
	SSLKey      string
	SSLRootCert string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Azure Entra ID. If tenant, client and secret are all set, Service
	// Principal authentication is used; otherwise DefaultAzureCredential.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWS RDS IAM
	AWSRegion string

	// Google Cloud SQL instance connection name (project:region:instance)
	GoogleInstance string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodCertificate                    // mTLS
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodCertificate:
		return "Certificate"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}
