package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name                    string
		raw                     string
		unicode, entities, tags bool
		want                    string
	}{
		{
			name: "nothing requested",
			raw:  `<b>x</b> &amp; A`,
			want: `<b>x</b> &amp; A`,
		},
		{
			name:    "unicode escapes",
			raw:     `caf\u00e9 \x41\x42 tab\there`,
			unicode: true,
			want:    "café AB tab\there",
		},
		{
			name:     "entities",
			raw:      "Tom &amp; Jerry &lt;3 &#169;",
			entities: true,
			want:     "Tom & Jerry <3 ©",
		},
		{
			name: "tags",
			raw:  "<html><body><p>Hello <b>world</b></p>\n\n<p>again</p></body></html>",
			tags: true,
			want: "Hello world again",
		},
		{
			name: "tags keep escaped text readable",
			raw:  "<p>Tom &amp; Jerry</p>",
			tags: true,
			want: "Tom & Jerry",
		},
		{
			name:     "entity decoded tags are stripped",
			raw:      "&lt;b&gt;bold&lt;/b&gt;",
			entities: true,
			tags:     true,
			want:     "bold",
		},
		{
			name:     "unicode decoded before entities",
			raw:      `&amp;`,
			unicode:  true,
			entities: true,
			want:     "&",
		},
		{
			name:     "all passes",
			raw:      `<div><span> caf&eacute;  </div>`,
			unicode:  true,
			entities: true,
			tags:     true,
			want:     "café",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkup(tt.raw, tt.unicode, tt.entities, tt.tags))
		})
	}
}

func TestStripMarkup_IdempotentOnPlainText(t *testing.T) {
	inputs := []string{
		"plain words",
		"  spaced\n\tout  ",
		"<p>Tom &amp; Jerry</p>",
		"a < b and c > d",
		"<ul><li>one</li><li>two</li></ul>",
		`café`,
		"",
	}
	flags := [][3]bool{
		{true, true, true},
		{false, true, true},
		{false, false, true},
		{true, false, false},
	}

	for _, in := range inputs {
		for _, f := range flags {
			once := StripMarkup(in, f[0], f[1], f[2])
			twice := StripMarkup(once, f[0], f[1], f[2])
			assert.Equal(t, once, twice, "input %q flags %v", in, f)
		}
	}
}

func TestUnescapeJava(t *testing.T) {
	tests := map[string]string{
		`no escapes`:      "no escapes",
		`\n\r\t\b\f`:      "\n\r\t\b\f",
		`quote \" and \'`: `quote " and '`,
		`back\\slash`:     `back\slash`,
		`\\u0041`:         `\u0041`,
		`\uu0041`:         "A",
		`\u00e9`:          "é",
		`\ud83d\ude00`:    "😀",
		`\101\60\0`:       "A0\x00",
		`\377`:            "ÿ",
		`\u12`:            `\u12`,
		`\uzzzz`:          `\uzzzz`,
		`\q`:              "q",
		`\\\q`:            `\q`,
		`trailing \`:      "trailing ",
	}
	for in, want := range tests {
		assert.Equal(t, want, UnescapeJava(in), "input %q", in)
	}
}
