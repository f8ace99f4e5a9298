package shared

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Things Fall Apart", "things-fall-apart"},
		{"Émile Zola", "emile-zola"},
		{"  The   Great    Gatsby  ", "the-great-gatsby"},
		{"O'Brien's Book", "obriens-book"},
		{"1984", "1984"},
		{"!!!", "n-a"},
		{"", "n-a"},
		{"Crime_and_Punishment", "crime-and-punishment"},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIsUUID(t *testing.T) {
	if !IsUUID("9b4e1f2a-3c4d-4e5f-8a9b-0c1d2e3f4a5b") {
		t.Error("valid uuid rejected")
	}
	if IsUUID("things-fall-apart") {
		t.Error("slug accepted as uuid")
	}
}

func TestResolveKeyCondArg(t *testing.T) {
	cond, arg := ResolveKeyCondArg(t.Context(), "b", "9b4e1f2a-3c4d-4e5f-8a9b-0c1d2e3f4a5b")
	if cond != "b.id = $1" {
		t.Errorf("uuid key: cond = %q", cond)
	}
	if arg != "9b4e1f2a-3c4d-4e5f-8a9b-0c1d2e3f4a5b" {
		t.Errorf("uuid key: arg = %v", arg)
	}
	cond, _ = ResolveKeyCondArg(t.Context(), "b", "things-fall-apart")
	if cond != "b.slug = $1" {
		t.Errorf("slug key: cond = %q", cond)
	}
}

func TestClampPage(t *testing.T) {
	for _, c := range []struct {
		page, size, wantPage, wantSize int
	}{
		{0, 0, 1, 20},
		{2, 50, 2, 50},
		{-3, 1000, 1, 100},
	} {
		p, s := ClampPage(c.page, c.size, 20, 100)
		if p != c.wantPage || s != c.wantSize {
			t.Errorf("ClampPage(%d, %d) = (%d, %d), want (%d, %d)",
				c.page, c.size, p, s, c.wantPage, c.wantSize)
		}
	}
}
