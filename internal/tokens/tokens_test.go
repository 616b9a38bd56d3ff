package tokens

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/corpsite/corpsite-api/internal/config"
	"github.com/corpsite/corpsite-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAccessToken_ValidAndClaims(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-32-bytes-should-be-long-enough"

	u := &models.User{ID: "user-123", Username: "tester", Name: "Test User", Email: "test@example.com", Role: models.RoleInvestorsCMS}
	tokenStr, err := GenerateAccessToken(cfg, u, 2*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	// parse and validate
	parsed, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if !parsed.Valid {
		t.Fatalf("token should be valid")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("claims type assertion failed")
	}
	if claims["sub"] != u.ID {
		t.Fatalf("unexpected sub claim: got=%v want=%v", claims["sub"], u.ID)
	}
	if claims["role"] != models.RoleInvestorsCMS {
		t.Fatalf("unexpected role claim: %v", claims["role"])
	}
}

func TestGenerateAccessToken_Expiry(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "another-secret-32-bytes-longgggg"
	u := &models.User{ID: "u2", Name: "X", Email: "x@x", Role: models.RoleAdmin}
	tokenStr, err := GenerateAccessToken(cfg, u, 1*time.Second)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	// wait for expiry
	time.Sleep(2 * time.Second)
	_, err = jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) { return []byte(cfg.JWT.Secret), nil })
	if err == nil {
		t.Fatalf("expected token parse to fail after expiry")
	}
}

func TestParseToken_WrongSecretFails(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "secret-one-32-bytes-xxxxxxxxxxxxxxxx"
	u := &models.User{ID: "u3", Name: "Bob", Email: "bob@example.com", Role: models.RoleAdmin}
	tokenStr, err := GenerateAccessToken(cfg, u, 2*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	// attempt to parse with a different secret
	_, err = jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) { return []byte("different-secret-xxxxxxxxxxxxxxxx"), nil })
	if err == nil {
		t.Fatalf("expected parse to fail with wrong secret")
	}
}

func TestParseToken_Malformed(t *testing.T) {
	// not a JWT
	_, err := jwt.Parse("not.a.jwt", func(token *jwt.Token) (interface{}, error) { return []byte("x"), nil })
	if err == nil {
		t.Fatalf("expected parse to fail for malformed token")
	}
}

// Rejected when alg=none (unsigned token)
func TestParseToken_AlgNoneRejected(t *testing.T) {
	// header {"alg":"none"}
	payload := `{"sub":"u-none","exp":9999999999}`
	seg := &jwt.Token{}
	headerEnc := seg.EncodeSegment([]byte(`{"alg":"none"}`))
	payloadEnc := seg.EncodeSegment([]byte(payload))
	tok := headerEnc + "." + payloadEnc + "."
	_, err := jwt.Parse(tok, func(token *jwt.Token) (interface{}, error) { return []byte("x"), nil })
	if err == nil {
		t.Fatalf("expected parse to reject alg=none token")
	}
}

// Tampering with payload must fail signature verification
func TestParseToken_TamperedPayload(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "tamper-test-secret-32-bytes-xxxxxxx"
	u := &models.User{ID: "user-t", Name: "Tamper", Email: "t@example.com", Role: models.RoleInvestorsCMS}
	tokenStr, err := GenerateAccessToken(cfg, u, 5*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	// tamper payload: replace sub value
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	payloadBytes, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		t.Fatalf("DecodeSegment error: %v", err)
	}
	payloadStr := string(payloadBytes)
	payloadStr = strings.Replace(payloadStr, "InvestorsCMS", "admin", 1)
	parts[1] = (&jwt.Token{}).EncodeSegment([]byte(payloadStr))
	tampered := strings.Join(parts, ".")
	_, err = jwt.Parse(tampered, func(token *jwt.Token) (interface{}, error) { return []byte(cfg.JWT.Secret), nil })
	if err == nil {
		t.Fatalf("expected signature verification to fail for tampered token")
	}
}

func TestVerifier_RoundTrip(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "verifier-secret-32-bytes-xxxxxxxxx"
	u := &models.User{ID: "id-1", Username: "ir", Role: models.RoleInvestorsCMS}
	tokenStr, err := GenerateAccessToken(cfg, u, time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	tok, err := NewVerifier(cfg.JWT.Secret).Verify(context.Background(), tokenStr)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		t.Fatalf("Claims error: %v", err)
	}
	if claims["role"] != models.RoleInvestorsCMS || claims["sub"] != "id-1" {
		t.Fatalf("unexpected claims: %v", claims)
	}
	exp, err := ExpiresAt(tok)
	if err != nil {
		t.Fatalf("ExpiresAt error: %v", err)
	}
	if until := time.Until(exp); until <= 0 || until > time.Minute+time.Second {
		t.Fatalf("unexpected expiry %v", exp)
	}

	if _, err := NewVerifier("some-other-secret-xxxxxxxxxxxxxxxx").Verify(context.Background(), tokenStr); err == nil {
		t.Fatalf("expected verification with another secret to fail")
	}
}

func TestVerifier_RejectsForeignIssuer(t *testing.T) {
	secret := "issuer-secret-32-bytes-xxxxxxxxxxxx"
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"iss": "elsewhere", "sub": "x", "exp": time.Now().Add(time.Minute).Unix()})
	raw, err := jt.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewVerifier(secret).Verify(context.Background(), raw); err == nil {
		t.Fatalf("expected foreign issuer to be rejected")
	}
}

func TestGenerateAccessToken_RequiresSecret(t *testing.T) {
	if _, err := GenerateAccessToken(&config.Config{}, &models.User{ID: "x"}, time.Minute); err == nil {
		t.Fatalf("expected error without secret")
	}
}
