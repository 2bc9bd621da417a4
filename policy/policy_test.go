package policy

import "testing"

func TestForPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want Policy
	}{
		{
			name: "stylesheet",
			path: "/style.css",
			want: Asset,
		},
		{
			name: "script",
			path: "/app.js",
			want: Asset,
		},
		{
			name: "versioned script",
			path: "/app.v2.js",
			want: Asset,
		},
		{
			name: "nested image",
			path: "/assets/img/logo.svg",
			want: Asset,
		},
		{
			name: "png",
			path: "/missing.png",
			want: Asset,
		},
		{
			name: "jpeg long form",
			path: "/photo.jpeg",
			want: Asset,
		},
		{
			name: "webp",
			path: "/banner.webp",
			want: Asset,
		},
		{
			name: "json",
			path: "/manifest.json",
			want: Asset,
		},
		{
			name: "uppercase extension",
			path: "/style.CSS",
			want: Asset,
		},
		{
			name: "mixed case extension",
			path: "/Index.Html",
			want: HTML,
		},
		{
			name: "root",
			path: "/",
			want: HTML,
		},
		{
			name: "html page",
			path: "/about.html",
			want: HTML,
		},
		{
			name: "index page",
			path: "/index.html",
			want: HTML,
		},
		{
			name: "csv",
			path: "/data.csv",
			want: None,
		},
		{
			name: "font",
			path: "/font.woff",
			want: None,
		},
		{
			name: "no extension",
			path: "/README",
			want: None,
		},
		{
			name: "directory path",
			path: "/assets/",
			want: None,
		},
		{
			name: "dot in directory only",
			path: "/v1.2/readme",
			want: None,
		},
		{
			name: "double extension takes last",
			path: "/archive.tar.gz",
			want: None,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ForPath(test.path); got != test.want {
				t.Errorf("ForPath(%q) = %+v, want %+v", test.path, got, test.want)
			}
		})
	}
}

func TestCacheable(t *testing.T) {
	if !Asset.Cacheable() {
		t.Error("asset policy must be cacheable")
	}
	if !HTML.Cacheable() {
		t.Error("html policy must be cacheable")
	}
	if None.Cacheable() {
		t.Error("empty policy must not be cacheable")
	}
}

func TestClass(t *testing.T) {
	tests := []struct {
		policy Policy
		want   string
	}{
		{Asset, "asset"},
		{HTML, "html"},
		{None, "uncached"},
	}

	for _, test := range tests {
		if got := test.policy.Class(); got != test.want {
			t.Errorf("Class() = %q, want %q", got, test.want)
		}
	}
}
