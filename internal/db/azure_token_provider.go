package db

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// EntraTokenProvider acquires Entra ID access tokens for Azure Database for PostgreSQL.
type EntraTokenProvider struct {
	credential  azcore.TokenCredential
	description string
}

// NewEntraTokenProvider picks Service Principal credentials when tenant, client
// and secret are all set, and the DefaultAzureCredential chain otherwise.
func NewEntraTokenProvider(tenantID, clientID, clientSecret string) (*EntraTokenProvider, error) {
	if tenantID != "" && clientID != "" && clientSecret != "" {
		cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
		if err != nil {
			return nil, fmt.Errorf("create Azure service principal credential: %w", err)
		}
		return &EntraTokenProvider{
			credential:  cred,
			description: fmt.Sprintf("Azure service principal (tenant=%s, client=%s)", tenantID, clientID),
		}, nil
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure default credential: %w", err)
	}
	return &EntraTokenProvider{credential: cred, description: "Azure default credential"}, nil
}

// Token requests an access token for AzurePostgreSQLScope.
func (p *EntraTokenProvider) Token(ctx context.Context) (string, time.Time, error) {
	tok, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{AzurePostgreSQLScope},
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("acquire Entra ID token: %w", err)
	}
	return tok.Token, tok.ExpiresOn, nil
}

func (p *EntraTokenProvider) String() string {
	return p.description
}
