package common

import "testing"

func TestRegexSlice_ContainsOneOf(t *testing.T) {
	tests := []struct {
		name  string
		slice RegexSlice
		items []string
		want  string
	}{
		{
			name:  "exact match ignores case",
			slice: RegexSlice{MustNewRegexItem("Eun/merge-approved")},
			items: []string{"eun/MERGE-approved"},
			want:  "Eun/merge-approved",
		},
		{
			name:  "regex match",
			slice: RegexSlice{MustNewRegexItem("^octo/.+$")},
			items: []string{"octo/hello"},
			want:  "^octo/.+$",
		},
		{
			name:  "first matching expression wins",
			slice: RegexSlice{MustNewRegexItem("nope"), MustNewRegexItem(".*")},
			items: []string{"octo/hello"},
			want:  ".*",
		},
		{
			name:  "no match",
			slice: RegexSlice{MustNewRegexItem("^octo/")},
			items: []string{"other/hello"},
			want:  "",
		},
		{
			name:  "empty slice never matches",
			slice: nil,
			items: []string{"octo/hello"},
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.slice.ContainsOneOf(tt.items...); got != tt.want {
				t.Errorf("ContainsOneOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRegexSlice(t *testing.T) {
	got, err := ParseRegexSlice(" octo/.* , ,Eun/merge-approved")
	if err != nil {
		t.Fatalf("ParseRegexSlice() error = %v", err)
	}
	if got.String() != "octo/.*, Eun/merge-approved" {
		t.Errorf("ParseRegexSlice() = %q", got.String())
	}

	if _, err := ParseRegexSlice("octo/(("); err == nil {
		t.Error("ParseRegexSlice() expected an error for an invalid expression")
	}
}
