package resolver

import (
	"strings"
	"testing"

	"github.com/soonish-io/notifycore/internal/config"
	"github.com/soonish-io/notifycore/internal/db/models"
)

func testFallback() Fallback {
	return config.FallbackSMTPConfig{
		Host: "smtp.example.com",
		Port: "587",
		Unverified: config.SMTPCredential{
			User:        "unverified-relay",
			AppPassword: "unverified-pass",
		},
		Verified: config.SMTPCredential{
			User:        "verified-relay",
			AppPassword: "verified-pass",
		},
	}
}

func TestFallbackTargetDisabledWhenHostEmpty(t *testing.T) {
	subscriber := models.Subscriber{Email: "alice@example.com", Verified: true}
	_, ok := fallbackTarget(config.FallbackSMTPConfig{}, subscriber)
	if ok {
		t.Fatal("fallbackTarget() should report false when Host is unset")
	}
}

func TestFallbackTargetSkippedWithoutEmail(t *testing.T) {
	subscriber := models.Subscriber{Email: "", Verified: true}
	_, ok := fallbackTarget(testFallback(), subscriber)
	if ok {
		t.Fatal("fallbackTarget() should report false when subscriber has no email")
	}
}

func TestFallbackTargetUsesVerifiedCredential(t *testing.T) {
	subscriber := models.Subscriber{Email: "alice@example.com", Verified: true}
	target, ok := fallbackTarget(testFallback(), subscriber)
	if !ok {
		t.Fatal("fallbackTarget() should succeed for a verified subscriber with an email")
	}
	if !strings.Contains(target.DeliveryURL, "verified-relay:verified-pass@smtp.example.com:587") {
		t.Fatalf("DeliveryURL %q does not use the verified credential pair", target.DeliveryURL)
	}
	if !strings.Contains(target.DeliveryURL, "toAddresses=alice%40example.com") {
		t.Fatalf("DeliveryURL %q does not address the subscriber", target.DeliveryURL)
	}
}

func TestFallbackTargetUsesUnverifiedCredential(t *testing.T) {
	subscriber := models.Subscriber{Email: "bob@example.com", Verified: false}
	target, ok := fallbackTarget(testFallback(), subscriber)
	if !ok {
		t.Fatal("fallbackTarget() should succeed for an unverified subscriber with an email")
	}
	if !strings.Contains(target.DeliveryURL, "unverified-relay:unverified-pass@smtp.example.com:587") {
		t.Fatalf("DeliveryURL %q does not use the unverified credential pair", target.DeliveryURL)
	}
}

func TestToSetNormalizesCase(t *testing.T) {
	set := toSet([]string{"Urgent", " urgent ", "release"})
	if len(set) != 2 {
		t.Fatalf("toSet() produced %d entries, want 2", len(set))
	}
	if !set["urgent"] || !set["release"] {
		t.Fatalf("toSet() = %v, want normalized keys urgent/release", set)
	}
}

func TestToSetEmpty(t *testing.T) {
	set := toSet(nil)
	if len(set) != 0 {
		t.Fatalf("toSet(nil) = %v, want empty", set)
	}
}
