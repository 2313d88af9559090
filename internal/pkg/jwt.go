package pkg

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"Mentor_Community/internal/model"
)

var (
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenInvalid      = errors.New("token invalid")
	ErrTokenParseFailure = errors.New("token parse failure")
)

// Claims 认证服务签发的 access token，subject 即用户 id
type Claims struct {
	Email string     `json:"email"`
	Role  model.Role `json:"user_role"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string {
	return c.Subject
}

// TokenParser 只做验签和解析，token 的签发归认证服务
type TokenParser struct {
	secret   []byte
	audience string
}

func NewTokenParser(secret, audience string) *TokenParser {
	return &TokenParser{secret: []byte(secret), audience: audience}
}

// Parse 解析 access token
func (p *TokenParser) Parse(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if p.audience != "" {
		opts = append(opts, jwt.WithAudience(p.audience))
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenInvalid
		default:
			return nil, ErrTokenParseFailure
		}
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	if claims.Role == "" {
		claims.Role = model.RoleLearner
	}
	return claims, nil
}

// Issue 与认证服务相同的签发方式，本地联调和测试使用
func (p *TokenParser) Issue(userID, email string, role model.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	rc := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if p.audience != "" {
		rc.Audience = jwt.ClaimStrings{p.audience}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: email, Role: role, RegisteredClaims: rc})
	return token.SignedString(p.secret)
}
