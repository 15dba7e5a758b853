package service

import (
	"testing"

	"github.com/wasl-next/internal/config"
)

func TestServiceTokenRoundTrip(t *testing.T) {
	cfg := config.InternalAPIConfig{
		JWTSecret:   "unit-test-secret-with-enough-length",
		ExpireHours: 1,
	}

	token, expiresAt, err := IssueServiceToken(cfg, "storefront")
	if err != nil {
		t.Fatalf("issue token failed: %v", err)
	}
	if token == "" || expiresAt.IsZero() {
		t.Fatalf("token and expiry should be set")
	}

	claims, err := ParseServiceToken(cfg, token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.ClientID != "storefront" {
		t.Fatalf("client id want storefront got %s", claims.ClientID)
	}
}

func TestServiceTokenRejectsMissingSecret(t *testing.T) {
	if _, _, err := IssueServiceToken(config.InternalAPIConfig{}, "storefront"); err == nil {
		t.Fatalf("issue without secret should fail")
	}
	if _, err := ParseServiceToken(config.InternalAPIConfig{}, "x"); err == nil {
		t.Fatalf("parse without secret should fail")
	}
}

func TestServiceTokenRejectsWrongSecret(t *testing.T) {
	issueCfg := config.InternalAPIConfig{JWTSecret: "secret-one-with-enough-length!!", ExpireHours: 1}
	parseCfg := config.InternalAPIConfig{JWTSecret: "secret-two-with-enough-length!!", ExpireHours: 1}

	token, _, err := IssueServiceToken(issueCfg, "storefront")
	if err != nil {
		t.Fatalf("issue token failed: %v", err)
	}
	if _, err := ParseServiceToken(parseCfg, token); err == nil {
		t.Fatalf("parse with wrong secret should fail")
	}
}
