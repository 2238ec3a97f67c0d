package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	resourceAuth Resource = "auth"

	tokenRenewSkew       = 30 * time.Second
	defaultTokenLifetime = 15 * time.Minute
	loginLockTTL         = 10 * time.Second
)

var ErrNoCredential = errors.New("no service credential configured")

var (
	accessTokenPaths  = []string{"access_token", "accessToken", "token", "auth_token", "tokens.accessToken", "data.accessToken", "data.tokens.accessToken"}
	refreshTokenPaths = []string{"refresh_token", "refreshToken", "tokens.refreshToken", "data.refreshToken", "data.tokens.refreshToken"}
)

type ServiceCredentials struct {
	AuthURL     string
	Email       string
	Password    string
	StaticToken string
	Timeout     time.Duration
}

type cachedToken struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func (t cachedToken) usable(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt.Add(-tokenRenewSkew))
}

// ServiceTokens is the TokenSource used when the inbound request carries no
// credential. It logs in with API_USER/API_PASSWORD, reuses the token until
// shortly before its JWT expiry and shares it through redis when available.
type ServiceTokens struct {
	creds  ServiceCredentials
	http   *http.Client
	rdb    *redis.Client
	locker *redislock.Client
	logger *logrus.Logger
	now    func() time.Time

	mu      sync.Mutex
	current cachedToken
}

func NewServiceTokens(creds ServiceCredentials, logger *logrus.Logger) *ServiceTokens {
	timeout := creds.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	creds.AuthURL = strings.TrimRight(strings.TrimSpace(creds.AuthURL), "/")
	return &ServiceTokens{
		creds:  creds,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
		now:    time.Now,
	}
}

// WithRedis shares the token across replicas. Either argument may be nil.
func (s *ServiceTokens) WithRedis(rdb *redis.Client, locker *redislock.Client) *ServiceTokens {
	s.rdb = rdb
	s.locker = locker
	return s
}

// Configured reports whether any service credential is available.
func (s *ServiceTokens) Configured() bool {
	return s.creds.StaticToken != "" || (s.creds.Email != "" && s.creds.Password != "")
}

func (s *ServiceTokens) redisKey() string {
	return "ServiceToken:" + s.creds.Email
}

func (s *ServiceTokens) Token(ctx context.Context) (string, error) {
	if s.creds.StaticToken != "" {
		return s.creds.StaticToken, nil
	}
	if !s.Configured() {
		return "", ErrNoCredential
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.current.usable(now) {
		return s.current.AccessToken, nil
	}
	if shared, ok := s.loadShared(ctx); ok && shared.usable(now) {
		s.current = shared
		return shared.AccessToken, nil
	}

	if s.current.RefreshToken != "" {
		tok, err := s.exchange(ctx, "/auth/refresh", map[string]string{"refreshToken": s.current.RefreshToken})
		if err == nil {
			if tok.RefreshToken == "" {
				tok.RefreshToken = s.current.RefreshToken
			}
			s.store(ctx, tok)
			return tok.AccessToken, nil
		}
		s.logger.WithFields(logrus.Fields{
			"module":   "upstream",
			"funcName": "ServiceTokens.Token",
		}).Warn("token refresh failed, logging in again: " + err.Error())
	}

	tok, err := s.loginLocked(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Invalidate drops token if it is still the current one.
func (s *ServiceTokens) Invalidate(token string) {
	if s.creds.StaticToken != "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.AccessToken != token {
		return
	}
	s.current.AccessToken = ""
	s.current.ExpiresAt = time.Time{}
	if s.rdb != nil {
		if err := s.rdb.Del(context.Background(), s.redisKey()).Err(); err != nil {
			s.logger.WithField("module", "upstream").Warn("could not drop shared service token: " + err.Error())
		}
	}
}

// loginLocked serializes the login exchange across replicas when a redis lock is available.
func (s *ServiceTokens) loginLocked(ctx context.Context) (cachedToken, error) {
	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, "ServiceTokenLock:"+s.creds.Email, loginLockTTL, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
		})
		if err == nil {
			defer lock.Release(context.Background())
			if shared, ok := s.loadShared(ctx); ok && shared.usable(s.now()) {
				s.current = shared
				return shared, nil
			}
		} else {
			s.logger.WithField("module", "upstream").Warn("service token lock not obtained: " + err.Error())
		}
	}

	tok, err := s.exchange(ctx, "/auth/login", map[string]string{"email": s.creds.Email, "password": s.creds.Password})
	if err != nil {
		return cachedToken{}, err
	}
	s.store(ctx, tok)
	return tok, nil
}

func (s *ServiceTokens) store(ctx context.Context, tok cachedToken) {
	s.current = tok
	if s.rdb == nil {
		return
	}
	ttl := tok.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(tok)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, s.redisKey(), raw, ttl).Err(); err != nil {
		s.logger.WithField("module", "upstream").Warn("could not share service token: " + err.Error())
	}
}

func (s *ServiceTokens) loadShared(ctx context.Context) (cachedToken, bool) {
	if s.rdb == nil {
		return cachedToken{}, false
	}
	val, err := s.rdb.Get(ctx, s.redisKey()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WithField("module", "upstream").Warn("could not read shared service token: " + err.Error())
		}
		return cachedToken{}, false
	}
	var tok cachedToken
	if err := json.Unmarshal(val, &tok); err != nil {
		return cachedToken{}, false
	}
	return tok, true
}

func (s *ServiceTokens) exchange(ctx context.Context, path string, payload map[string]string) (cachedToken, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return cachedToken{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.creds.AuthURL+path, bytes.NewReader(body))
	if err != nil {
		return cachedToken{}, Unavailable(resourceAuth, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return cachedToken{}, Unavailable(resourceAuth, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return cachedToken{}, Unavailable(resourceAuth, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return cachedToken{}, Rejected(resourceAuth, resp.StatusCode, errorMessage(respBody))
	}
	if !gjson.ValidBytes(respBody) {
		return cachedToken{}, Malformed(resourceAuth, errors.New("invalid json"))
	}

	access := firstString(respBody, accessTokenPaths)
	if access == "" {
		return cachedToken{}, Malformed(resourceAuth, fmt.Errorf("%s response has no access token", path))
	}
	return cachedToken{
		AccessToken:  access,
		RefreshToken: firstString(respBody, refreshTokenPaths),
		ExpiresAt:    s.expiry(access),
	}, nil
}

// expiry reads the exp claim without verifying the signature; the auth
// service owns verification.
func (s *ServiceTokens) expiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return s.now().Add(defaultTokenLifetime)
}

func firstString(body []byte, paths []string) string {
	for _, p := range paths {
		if v := gjson.GetBytes(body, p); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
