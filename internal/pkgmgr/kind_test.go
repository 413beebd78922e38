package pkgmgr

import "testing"

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{"npm": Npm, "yarn": Yarn, "pnpm": Pnpm}
	for s, want := range cases {
		got, err := ParseKind(s)
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", s, err)
		}
		if got != want {
			t.Errorf("ParseKind(%q) = %v, want %v", s, got, want)
		}
	}

	if _, err := ParseKind("bun"); err == nil {
		t.Error("ParseKind(\"bun\") should error")
	}
}

func TestParseBin(t *testing.T) {
	for name, want := range map[string]Bin{
		"npm": BinNpm, "npx": BinNpx,
		"yarn": BinYarn, "yarnpkg": BinYarnpkg,
		"pnpm": BinPnpm, "pnpx": BinPnpx,
	} {
		got, ok := ParseBin(name)
		if !ok {
			t.Fatalf("ParseBin(%q): not ok", name)
		}
		if got != want {
			t.Errorf("ParseBin(%q) = %v, want %v", name, got, want)
		}
	}

	if _, ok := ParseBin("npm.cmd"); ok {
		t.Error("ParseBin(\"npm.cmd\") should not be ok")
	}
}

func TestBinKind(t *testing.T) {
	cases := []struct {
		bin  Bin
		kind Kind
	}{
		{BinNpm, Npm}, {BinNpx, Npm},
		{BinYarn, Yarn}, {BinYarnpkg, Yarn},
		{BinPnpm, Pnpm}, {BinPnpx, Pnpm},
	}
	for _, c := range cases {
		if got := c.bin.Kind(); got != c.kind {
			t.Errorf("%v.Kind() = %v, want %v", c.bin, got, c.kind)
		}
	}
}

func TestBinTransparent(t *testing.T) {
	for _, bin := range []Bin{BinNpm, BinNpx, BinPnpx} {
		if !bin.Transparent() {
			t.Errorf("%v.Transparent() = false, want true", bin)
		}
	}
	for _, bin := range []Bin{BinYarn, BinYarnpkg, BinPnpm} {
		if bin.Transparent() {
			t.Errorf("%v.Transparent() = true, want false", bin)
		}
	}
}

func TestIsTransparentArgs(t *testing.T) {
	if !BinYarn.IsTransparentArgs([]string{"init"}) {
		t.Error("yarn init should be transparent")
	}
	if !BinYarn.IsTransparentArgs([]string{"dlx", "cowsay"}) {
		t.Error("yarn dlx should be transparent")
	}
	if !BinPnpm.IsTransparentArgs([]string{"dlx", "cowsay"}) {
		t.Error("pnpm dlx should be transparent")
	}
	if BinNpm.IsTransparentArgs([]string{"dlx"}) {
		t.Error("npm has no dlx subcommand; should not be transparent via it")
	}
	if BinYarn.IsTransparentArgs([]string{"install"}) {
		t.Error("yarn install should not be transparent")
	}
	if BinYarn.IsTransparentArgs(nil) {
		t.Error("no args should not be transparent")
	}
}
