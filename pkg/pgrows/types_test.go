package pgrows_test

import (
	"encoding/json"
	"testing"

	"github.com/vvka-141/pgrows/pkg/pgrows"
)

func TestAuthMethod_String(t *testing.T) {
	tests := []struct {
		method pgrows.AuthMethod
		want   string
	}{
		{pgrows.AuthMethodStandard, "Standard"},
		{pgrows.AuthMethodCertificate, "Certificate"},
		{pgrows.AuthMethodAWSIAM, "AWS IAM"},
		{pgrows.AuthMethodGoogleIAM, "Google IAM"},
		{pgrows.AuthMethodAzureEntraID, "Azure Entra ID"},
		{pgrows.AuthMethod(42), "Unknown(42)"},
	}

	for _, tt := range tests {
		if got := tt.method.String(); got != tt.want {
			t.Errorf("AuthMethod(%d).String() = %q, want %q", int(tt.method), got, tt.want)
		}
	}
}

func TestAuthMethod_IsValid(t *testing.T) {
	if !pgrows.AuthMethodAzureEntraID.IsValid() {
		t.Error("AuthMethodAzureEntraID should be valid")
	}
	if pgrows.AuthMethod(-1).IsValid() || pgrows.AuthMethod(5).IsValid() {
		t.Error("out-of-range auth methods should be invalid")
	}
}

func TestUser_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(pgrows.User{UserID: "u1", Name: "A", Email: "a@x.com", Age: 30})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"user_id":"u1","name":"A","email":"a@x.com","age":30}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}
