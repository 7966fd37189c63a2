package credential

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/fcmv1/pkg/fcmerr"
	"github.com/yusufsyaifudin/fcmv1/pkg/validator"
)

const serviceAccountType = "service_account"

// ServiceAccountKey represent service account key json
type ServiceAccountKey struct {
	Type                    string `json:"type"`
	ProjectID               string `json:"project_id" validate:"required"`
	PrivateKeyID            string `json:"private_key_id,omitempty"`
	PrivateKey              string `json:"private_key" validate:"required"`
	ClientEmail             string `json:"client_email" validate:"required"`
	ClientID                string `json:"client_id,omitempty"`
	AuthURI                 string `json:"auth_uri,omitempty"`
	TokenURI                string `json:"token_uri" validate:"required,url"`
	AuthProviderX509CertURL string `json:"auth_provider_x509_cert_url,omitempty"`
	ClientX509CertURL       string `json:"client_x509_cert_url,omitempty"`
}

// ParseKey decodes a service account key file content.
func ParseKey(raw []byte) (key ServiceAccountKey, err error) {
	err = json.Unmarshal(raw, &key)
	if err != nil {
		err = fcmerr.Wrap(fcmerr.CodeAuthentication, err, "malformed service account key")
		return
	}

	err = key.Validate()
	return
}

// ReadKeyFile reads and decodes the service account key stored at path.
func ReadKeyFile(path string) (key ServiceAccountKey, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		err = fcmerr.Wrap(fcmerr.CodeAuthentication, err, "cannot read service account key %s", path)
		return
	}

	return ParseKey(raw)
}

// KeyFromMap builds the key from an already decoded mapping, for example a
// section of an application config file.
func KeyFromMap(m map[string]interface{}) (key ServiceAccountKey, err error) {
	raw, err := json.Marshal(m)
	if err != nil {
		err = fcmerr.Wrap(fcmerr.CodeAuthentication, err, "cannot encode service account key")
		return
	}

	return ParseKey(raw)
}

// Validate checks the fields needed to sign a token request, including the private key PEM.
func (k ServiceAccountKey) Validate() error {
	if k.Type != "" && k.Type != serviceAccountType {
		return fcmerr.New(fcmerr.CodeAuthentication, "unsupported credential type %q, expect %q", k.Type, serviceAccountType)
	}

	if err := validator.Validate(k); err != nil {
		return fcmerr.Wrap(fcmerr.CodeAuthentication, err, "invalid service account key: %s", validator.Message(err))
	}

	if err := checkPrivateKey(k.PrivateKey); err != nil {
		return fcmerr.Wrap(fcmerr.CodeAuthentication, err, "invalid service account private key")
	}

	return nil
}

// JSON returns the key encoded the way Google publishes key files.
func (k ServiceAccountKey) JSON() ([]byte, error) {
	if k.Type == "" {
		k.Type = serviceAccountType
	}

	return json.Marshal(k)
}

func checkPrivateKey(privateKey string) error {
	block, _ := pem.Decode([]byte(privateKey))
	if block == nil {
		return fmt.Errorf("private key is not PEM encoded")
	}

	if _, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		return nil
	}

	if _, err := x509.ParsePKCS1PrivateKey(block.Bytes); err != nil {
		return fmt.Errorf("private key is neither PKCS8 nor PKCS1: %w", err)
	}

	return nil
}
