package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tbourn/go-scheduler-backend/internal/domain"
)

func fixedIssuer(now time.Time) *Issuer {
	i := NewIssuer("s3cret", "scheduler-backend", time.Hour)
	i.Now = func() time.Time { return now }
	return i
}

func TestIssueAndParse_RoundTrip(t *testing.T) {
	now := time.Now()
	i := fixedIssuer(now)
	u := &domain.User{ID: 7, Role: domain.RoleDoctor}

	tok, exp, err := i.Issue(u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if strings.Count(tok, ".") != 2 {
		t.Fatalf("expected compact JWT, got %q", tok)
	}
	if got := exp.Sub(now.UTC()); got != time.Hour {
		t.Fatalf("expiry offset = %v, want 1h", got)
	}

	c, err := i.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p := c.Principal(); p.ID != 7 || p.Role != domain.RoleDoctor {
		t.Fatalf("unexpected principal: %+v", p)
	}
	if c.Subject != "7" {
		t.Fatalf("subject = %q, want 7", c.Subject)
	}
}

func TestParse_Rejects(t *testing.T) {
	now := time.Now()
	i := fixedIssuer(now)
	tok, _, err := i.Issue(&domain.User{ID: 7, Role: domain.RolePatient})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	t.Run("expired", func(t *testing.T) {
		later := fixedIssuer(now.Add(2 * time.Hour))
		if _, err := later.Parse(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
	t.Run("wrong secret", func(t *testing.T) {
		other := fixedIssuer(now)
		other.Secret = []byte("different")
		if _, err := other.Parse(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
	t.Run("wrong issuer", func(t *testing.T) {
		other := fixedIssuer(now)
		other.Name = "someone-else"
		if _, err := other.Parse(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
	t.Run("garbage", func(t *testing.T) {
		if _, err := i.Parse("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
	t.Run("unknown role", func(t *testing.T) {
		bad, _, err := i.Issue(&domain.User{ID: 7, Role: "admin"})
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if _, err := i.Parse(bad); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
	t.Run("alg none", func(t *testing.T) {
		claims := &Claims{UserID: 7, Role: domain.RolePatient, RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "scheduler-backend",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("sign none: %v", err)
		}
		if _, err := i.Parse(unsigned); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestNewIssuer_DefaultTTL(t *testing.T) {
	if i := NewIssuer("s", "", 0); i.TTL != 12*time.Hour {
		t.Fatalf("TTL = %v, want 12h", i.TTL)
	}
}

func TestPasswordHashing(t *testing.T) {
	h, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if h == "password123" || !strings.HasPrefix(h, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", h)
	}
	if !CheckPassword(h, "password123") {
		t.Fatalf("CheckPassword should accept the original password")
	}
	if CheckPassword(h, "wrong") {
		t.Fatalf("CheckPassword should reject a wrong password")
	}
	if CheckPassword("not-a-hash", "password123") {
		t.Fatalf("CheckPassword should reject a malformed hash")
	}
}
