package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		username, first, last string
		want                  string
	}{
		{"alice", "Alice", "Smith", "@alice"},
		{"", "Alice", "Smith", "Alice Smith"},
		{"", " Bob ", "", "Bob"},
		{"", "", "", "id7"},
	}
	for _, tt := range tests {
		if got := DisplayName(7, tt.username, tt.first, tt.last); got != tt.want {
			t.Errorf("DisplayName(%q, %q, %q) = %q, want %q", tt.username, tt.first, tt.last, got, tt.want)
		}
	}
}

func TestFormatPoints(t *testing.T) {
	if got := FormatPoints(1); got != "1 point" {
		t.Errorf("FormatPoints(1) = %q", got)
	}
	if got := FormatPoints(7); got != "7 points" {
		t.Errorf("FormatPoints(7) = %q", got)
	}
	if got := FormatPointsDelta(5); got != "+5 points" {
		t.Errorf("FormatPointsDelta(5) = %q", got)
	}
	if got := FormatPointsDelta(-10); got != "-10 points" {
		t.Errorf("FormatPointsDelta(-10) = %q", got)
	}
	if got := FormatPointsDelta(-1); got != "-1 point" {
		t.Errorf("FormatPointsDelta(-1) = %q", got)
	}
}

func TestNormalizeName(t *testing.T) {
	if got := NormalizeName(" @Alice "); got != "alice" {
		t.Errorf("NormalizeName = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("привет", 10); got != "привет" {
		t.Errorf("короткая строка: %q", got)
	}
	if got := Truncate("привет", 3); got != "при..." {
		t.Errorf("длинная строка: %q", got)
	}
}

func TestStoreError(t *testing.T) {
	if WrapStore("op", nil) != nil {
		t.Error("nil должен остаться nil")
	}

	base := errors.New("connection refused")
	err := fmt.Errorf("ledger: %w", WrapStore("ledger.top_n", base))

	var se *StoreError
	if !errors.As(err, &se) || se.Op != "ledger.top_n" {
		t.Fatalf("errors.As: %v", err)
	}
	if !errors.Is(err, base) {
		t.Error("исходная ошибка должна быть доступна через errors.Is")
	}
	if !IsStoreError(err) || IsStoreError(ErrUsage) {
		t.Error("IsStoreError")
	}
}

func TestUsageError(t *testing.T) {
	err := Usage("нужно число")
	if !errors.Is(err, ErrUsage) {
		t.Error("UsageError должен сводиться к ErrUsage")
	}
	if err.Error() != ErrUsage.Error()+": нужно число" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestLoadLocation(t *testing.T) {
	if LoadLocation("Nowhere/Invalid").String() != "UTC" {
		t.Error("неизвестный пояс должен давать UTC")
	}
}
