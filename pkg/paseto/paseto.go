package pasetotoken

import (
	"strings"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

// Tokens are v4.local (encrypted) PASETOs carrying user id and role.

type Config struct {
	Issuer   string
	Audience string

	AccessTTL time.Duration

	Implicit []byte
}

type Manager struct {
	cfg   Config
	key   paseto.V4SymmetricKey
	parse paseto.Parser
}

func New(cfg Config, symmetricHex string) (*Manager, error) {
	if cfg.Issuer == "" {
		return nil, ErrConfig{Msg: "Issuer is required"}
	}
	if cfg.Audience == "" {
		return nil, ErrConfig{Msg: "Audience is required"}
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}

	keyHex := strings.TrimSpace(symmetricHex)
	if keyHex == "" {
		return nil, ErrConfig{Msg: "symmetric key hex is required"}
	}
	key, err := paseto.V4SymmetricKeyFromHex(keyHex)
	if err != nil {
		return nil, ErrConfig{Msg: "invalid symmetric key hex: " + err.Error()}
	}

	p := paseto.NewParser()
	p.AddRule(paseto.IssuedBy(cfg.Issuer))
	p.AddRule(paseto.ForAudience(cfg.Audience))
	p.AddRule(paseto.NotExpired())
	p.AddRule(paseto.ValidAt(time.Now()))

	return &Manager{cfg: cfg, key: key, parse: p}, nil
}

func (m *Manager) Issue(userID string, role Role, email string) (string, error) {
	now := time.Now()

	tok := paseto.NewToken()
	tok.SetIssuer(m.cfg.Issuer)
	tok.SetAudience(m.cfg.Audience)
	tok.SetJti(uuid.NewString())
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(now.Add(m.cfg.AccessTTL))
	tok.SetSubject(userID)

	tok.SetString("uid", userID)
	tok.SetString("role", string(role))
	if email != "" {
		tok.SetString("email", email)
	}

	return tok.V4Encrypt(m.key, m.cfg.Implicit), nil
}

func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	tok, err := m.parse.ParseV4Local(m.key, tokenStr, m.cfg.Implicit)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}

	claims, err := extractClaims(tok, m.cfg.Issuer, m.cfg.Audience)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}

	return claims, nil
}

func extractClaims(tok *paseto.Token, iss, aud string) (*Claims, error) {
	jti, err := tok.GetJti()
	if err != nil {
		return nil, err
	}

	sub, err := tok.GetSubject()
	if err != nil {
		return nil, err
	}

	iat, err := tok.GetIssuedAt()
	if err != nil {
		return nil, err
	}

	nbf, err := tok.GetNotBefore()
	if err != nil {
		return nil, err
	}

	exp, err := tok.GetExpiration()
	if err != nil {
		return nil, err
	}

	out := &Claims{
		Issuer:    iss,
		Audience:  aud,
		TokenID:   jti,
		Subject:   sub,
		IssuedAt:  iat,
		NotBefore: nbf,
		ExpiresAt: exp,
	}

	uid, err := tok.GetString("uid")
	if err != nil {
		return nil, err
	}
	out.UserID = uid

	roleStr, err := tok.GetString("role")
	if err != nil {
		return nil, err
	}
	out.Role = Role(roleStr)

	// email is optional
	if email, err := tok.GetString("email"); err == nil {
		out.Email = email
	}

	return out, nil
}
