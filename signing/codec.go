package signing

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/apiguard"
	"github.com/golang-jwt/jwt/v5"
)

// Method selects the signature algorithm.
type Method string

const (
	MethodEd25519 Method = "ed25519"
	MethodHS256   Method = "hs256"
)

// Config configures a [Codec]. For MethodHS256 PrivateKey is the shared
// secret. For MethodEd25519 PrivateKey is needed to encode and PublicKey to
// decode; the public key is derived from the private key when omitted.
// Keys may be raw bytes or PEM.
type Config struct {
	Method     Method
	PrivateKey []byte
	PublicKey  []byte
	Issuer     string
	KeyID      string
}

type eventClaims struct {
	EventType  string `json:"evt"`
	OccurredAt string `json:"occurred_at"`
	jwt.RegisteredClaims
}

// Codec signs persisted events as compact JWTs.
type Codec struct {
	config    Config
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
}

var _ apiguard.Codec = (*Codec)(nil)

func NewCodec(cfg Config) (*Codec, error) {
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)
	c := &Codec{config: cfg}

	switch cfg.Method {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
		c.method = jwt.SigningMethodHS256
		c.signKey = cfg.PrivateKey
		c.verifyKey = cfg.PrivateKey
	case MethodEd25519:
		c.method = jwt.SigningMethodEdDSA
		if len(cfg.PrivateKey) > 0 {
			priv, err := parseEdPrivateKey(cfg.PrivateKey)
			if err != nil {
				return nil, err
			}
			c.signKey = priv
			c.verifyKey = priv.Public()
		}
		if len(cfg.PublicKey) > 0 {
			pub, err := parseEdPublicKey(cfg.PublicKey)
			if err != nil {
				return nil, err
			}
			c.verifyKey = pub
		}
		if c.verifyKey == nil {
			return nil, errors.New("ed25519 requires private or public key")
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	return c, nil
}

// Encode describes the encode operation and its observable behavior.
//
// Encode fails when the codec was built with a verify-only key.
func (c *Codec) Encode(e *apiguard.APIKeyAuthenticated) ([]byte, error) {
	if c.signKey == nil {
		return nil, errors.New("codec has no signing key")
	}
	rec, err := apiguard.Persist(e)
	if err != nil {
		return nil, err
	}

	claims := eventClaims{
		EventType:  rec.EventType,
		OccurredAt: rec.OccurredAt.Format(time.RFC3339Nano),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:      rec.EventID,
			Subject: rec.APIKeyID,
			Issuer:  c.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(c.method, claims)
	if c.config.KeyID != "" {
		token.Header["kid"] = c.config.KeyID
	}

	signed, err := token.SignedString(c.signKey)
	if err != nil {
		return nil, err
	}
	return []byte(signed), nil
}

func (c *Codec) Decode(data []byte) (apiguard.PersistedEvent, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(string(data), &eventClaims{}, func(t *jwt.Token) (any, error) {
		if c.config.KeyID != "" {
			kid, _ := t.Header["kid"].(string)
			if kid != c.config.KeyID {
				return nil, errors.New("unknown kid")
			}
		}
		return c.verifyKey, nil
	})
	if err != nil {
		return apiguard.PersistedEvent{}, fmt.Errorf("%w: %v", apiguard.ErrEventCorrupt, err)
	}

	claims, ok := token.Claims.(*eventClaims)
	if !ok || !token.Valid {
		return apiguard.PersistedEvent{}, fmt.Errorf("%w: invalid claims", apiguard.ErrEventCorrupt)
	}

	occurredAt, err := time.Parse(time.RFC3339Nano, claims.OccurredAt)
	if err != nil {
		return apiguard.PersistedEvent{}, fmt.Errorf("%w: occurred_at: %v", apiguard.ErrEventCorrupt, err)
	}

	rec := apiguard.PersistedEvent{
		EventID:    claims.ID,
		EventType:  claims.EventType,
		APIKeyID:   claims.Subject,
		OccurredAt: occurredAt.UTC(),
	}
	if err := rec.Validate(); err != nil {
		return apiguard.PersistedEvent{}, err
	}
	return rec, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
