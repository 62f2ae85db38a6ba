package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// errSigningKeyNotFound is the one recoverable validation failure: the token
// names a key id the cached key set does not contain. It triggers a single
// refresh of the issuer configuration before validation gives up.
var errSigningKeyNotFound = errors.New("no matching signing key found")

// TenantValidator validates bearer tokens against one tenant's issuer. The
// issuer's OpenID Connect discovery document and signing-key set are fetched
// lazily on first validation and cached until a refresh is requested.
type TenantValidator struct {
	issuer   string
	audience string
	client   *http.Client
	now      func() time.Time

	mu      sync.Mutex
	jwksURI string
	keys    map[string]*rsa.PublicKey
}

// NewTenantValidator returns a validator bound to the issuer at domain. An
// empty audience disables audience verification.
func NewTenantValidator(domain, audience string, client *http.Client, now func() time.Time) *TenantValidator {
	if client == nil {
		client = http.DefaultClient
	}
	if now == nil {
		now = time.Now
	}
	return &TenantValidator{
		issuer:   "https://" + domain + "/",
		audience: audience,
		client:   client,
		now:      now,
	}
}

// Issuer returns the issuer the validator is bound to.
func (v *TenantValidator) Issuer() string {
	return v.issuer
}

// Validate verifies the token's signature, issuer, expiration and, when
// configured, audience. If signature verification fails because no matching
// signing key is known, the cached key set is refreshed and validation is
// retried exactly once; every other failure is terminal.
func (v *TenantValidator) Validate(ctx context.Context, tokenString string) (jwt.MapClaims, error) {
	tries := 0
	for {
		keys, err := v.signingKeys(ctx)
		if err != nil {
			return nil, err
		}

		keyfunc := func(t *jwt.Token) (interface{}, error) {
			kid, _ := t.Header["kid"].(string)
			if key, ok := keys[kid]; ok {
				return key, nil
			}
			return nil, errSigningKeyNotFound
		}

		opts := []jwt.ParserOption{
			jwt.WithValidMethods([]string{"RS256"}),
			jwt.WithTimeFunc(v.now),
			jwt.WithIssuer(v.issuer),
			jwt.WithExpirationRequired(),
		}
		if v.audience != "" {
			opts = append(opts, jwt.WithAudience(v.audience))
		}

		claims := jwt.MapClaims{}
		_, err = jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, keyfunc)
		if err == nil {
			return claims, nil
		}

		if errors.Is(err, errSigningKeyNotFound) && tries == 0 {
			// The issuer may have rotated its signing keys.
			v.requestRefresh()
			tries++
			continue
		}

		return nil, err
	}
}

// signingKeys returns the cached key set, fetching the discovery document and
// JWKS on first use.
func (v *TenantValidator) signingKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.keys != nil {
		return v.keys, nil
	}

	if v.jwksURI == "" {
		var doc struct {
			JWKSURI string `json:"jwks_uri"`
		}
		if err := v.fetchJSON(ctx, v.issuer+".well-known/openid-configuration", &doc); err != nil {
			return nil, fmt.Errorf("fetching openid configuration: %w", err)
		}
		if doc.JWKSURI == "" {
			return nil, fmt.Errorf("openid configuration for %s has no jwks_uri", v.issuer)
		}
		v.jwksURI = doc.JWKSURI
	}

	var set struct {
		Keys []jsonWebKey `json:"keys"`
	}
	if err := v.fetchJSON(ctx, v.jwksURI, &set); err != nil {
		return nil, fmt.Errorf("fetching jwks: %w", err)
	}

	keys := map[string]*rsa.PublicKey{}
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	v.keys = keys
	return keys, nil
}

// requestRefresh drops the cached configuration so the next validation
// refetches the discovery document and key set.
func (v *TenantValidator) requestRefresh() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.jwksURI = ""
	v.keys = nil
}

func (v *TenantValidator) fetchJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// jsonWebKey is the subset of RFC 7517 needed to extract an RSA public key,
// either from an x5c certificate chain or from the raw modulus and exponent.
type jsonWebKey struct {
	Kty string   `json:"kty"`
	Use string   `json:"use"`
	Alg string   `json:"alg"`
	Kid string   `json:"kid"`
	N   string   `json:"n"`
	E   string   `json:"e"`
	X5c []string `json:"x5c"`
}

func (k jsonWebKey) publicKey() (*rsa.PublicKey, error) {
	if len(k.X5c) > 0 {
		der, err := base64.StdEncoding.DecodeString(k.X5c[0])
		if err != nil {
			return nil, fmt.Errorf("base64 decode of x5c for kid %q: %w", k.Kid, err)
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, err
		}
		pub, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("certificate for kid %q does not hold an RSA key", k.Kid)
		}
		return pub, nil
	}

	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("base64 decode of modulus for kid %q: %w", k.Kid, err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("base64 decode of exponent for kid %q: %w", k.Kid, err)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: int(new(big.Int).SetBytes(eb).Int64()),
	}, nil
}
