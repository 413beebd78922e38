package cli

import "testing"

func TestStrictModeDefaultsOnWhenUnset(t *testing.T) {
	t.Setenv("COREPACK_ENABLE_STRICT", "")
	if !strictMode() {
		t.Error("expected strict mode on by default when COREPACK_ENABLE_STRICT is unset")
	}
}

func TestStrictModeDisabledByZero(t *testing.T) {
	t.Setenv("COREPACK_ENABLE_STRICT", "0")
	if strictMode() {
		t.Error("expected COREPACK_ENABLE_STRICT=0 to disable strict mode")
	}
}

func TestStrictModeDisabledByFalse(t *testing.T) {
	t.Setenv("COREPACK_ENABLE_STRICT", "false")
	if strictMode() {
		t.Error("expected COREPACK_ENABLE_STRICT=false to disable strict mode")
	}
}

func TestStrictModeTruthyValueStaysOn(t *testing.T) {
	t.Setenv("COREPACK_ENABLE_STRICT", "1")
	if !strictMode() {
		t.Error("expected COREPACK_ENABLE_STRICT=1 to keep strict mode on")
	}
}
