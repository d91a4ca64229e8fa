package ident

import "testing"

func TestBuildAndParseRoundTrip(t *testing.T) {
	id, ok := Build("o1abc", "0032ABCDEF")
	if !ok {
		t.Fatalf("expected build to succeed")
	}
	if id != "o1abc:0032ABCDEF" {
		t.Fatalf("unexpected id: %s", id)
	}
	owner, local, ok := Parse(id)
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if owner != "o1abc" || local != "0032ABCDEF" {
		t.Fatalf("round trip mismatch: %s %s", owner, local)
	}
}

func TestBuildRejectsBadParts(t *testing.T) {
	cases := []struct{ owner, local string }{
		{"", "x"},
		{"x", ""},
		{"a:b", "x"},
		{"a", "x:y"},
	}
	for _, c := range cases {
		if _, ok := Build(c.owner, c.local); ok {
			t.Fatalf("expected build(%q, %q) to fail", c.owner, c.local)
		}
	}
}

func TestParseMalformedReturnsAbsent(t *testing.T) {
	for _, in := range []string{"", "nosep", ":leading", "trailing:", ":"} {
		if _, _, ok := Parse(in); ok {
			t.Fatalf("expected parse(%q) to fail", in)
		}
	}
}

func TestParseSplitsOnFirstSeparator(t *testing.T) {
	owner, local, ok := Parse("owner:a:b")
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if owner != "owner" || local != "a:b" {
		t.Fatalf("unexpected split: %s %s", owner, local)
	}
}

func TestFromRemoteURI(t *testing.T) {
	id, ok := FromRemoteURI("pubky://o1abc/pub/pubky.app/posts/0032XYZ", ResourcePosts)
	if !ok || id != "o1abc:0032XYZ" {
		t.Fatalf("unexpected result: %q %v", id, ok)
	}

	bad := []string{
		"https://o1abc/pub/pubky.app/posts/0032XYZ",
		"pubky://o1abc/pub/other.app/posts/0032XYZ",
		"pubky://o1abc/pub/pubky.app/files/0032XYZ",
		"pubky://o1abc/pub/pubky.app/posts/",
		"pubky://o1abc/pub/pubky.app/posts/a/b",
		"pubky://",
	}
	for _, uri := range bad {
		if _, ok := FromRemoteURI(uri, ResourcePosts); ok {
			t.Fatalf("expected %q to be rejected", uri)
		}
	}
}

func TestFromIDOrURI(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"owner1:post1", "owner1:post1", true},
		{"pubky://owner1/pub/pubky.app/posts/post1", "owner1:post1", true},
		{"pubky://owner1/pub/pubky.app/files/post1", "", false},
		{"noseparator", "", false},
		{"pubky://owner1/pub/other.app/posts/post1", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := FromIDOrURI(tc.in, ResourcePosts)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("FromIDOrURI(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
