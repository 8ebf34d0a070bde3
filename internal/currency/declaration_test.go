package currency

import "testing"

func TestExtractDeclaration(t *testing.T) {
	tests := []struct {
		name    string
		message string
		wantOk  bool
		want    string
	}{
		{
			name:    "space form",
			message: "fix: tighten bounds\n\nXMR 4AdUndXHHZ9pfQj27iMAgMJnd2ztxpHn5Jv2684RgevnV8WowGNbk74kC7cA1BYUb1nPvBrTKwSLt4AMZXDWjKaTRhR4Jv",
			wantOk:  true,
			want:    "XMR 4AdUndXHHZ9pfQj27iMAgMJnd2ztxpHn5Jv2684RgevnV8WowGNbk74kC7cA1BYUb1nPvBrTKwSLt4AMZXDWjKaTRhR4Jv",
		},
		{
			name:    "colon form",
			message: "docs: update readme\n\nXMR: 4AdUexampleaddress",
			wantOk:  true,
			want:    "XMR 4AdUexampleaddress",
		},
		{
			name:    "no declaration",
			message: "just a normal commit",
			wantOk:  false,
		},
		{
			name:    "declaration not at start of message",
			message: "some preamble text\nXMR 4B1fakeaddress\nmore text",
			wantOk:  true,
			want:    "XMR 4B1fakeaddress",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			addr, ok := ExtractDeclaration(tc.message)
			if ok != tc.wantOk {
				t.Fatalf("ExtractDeclaration() ok = %v, want %v", ok, tc.wantOk)
			}
			if !ok {
				return
			}
			if addr.Symbol != XMR {
				t.Fatalf("unexpected symbol %v", addr.Symbol)
			}
			if got := addr.String(); got != tc.want {
				t.Fatalf("ExtractDeclaration() = %q, want %q", got, tc.want)
			}
		})
	}
}
