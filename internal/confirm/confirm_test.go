package confirm

import "testing"

func TestMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		phrase string
		input  string
		want   bool
	}{
		{name: "exact", phrase: FilePhrase, input: "delete file", want: true},
		{name: "case insensitive", phrase: FilePhrase, input: "Delete File", want: true},
		{name: "surrounding whitespace", phrase: FilePhrase, input: "  delete file \n", want: true},
		{name: "extra words rejected", phrase: FilePhrase, input: "delete the file", want: false},
		{name: "wrong phrase rejected", phrase: FilePhrase, input: "delete folder", want: false},
		{name: "empty input rejected", phrase: FilePhrase, input: "", want: false},
		{name: "folder phrase", phrase: FolderPhrase, input: "DELETE FOLDER", want: true},
		{name: "internal whitespace not collapsed", phrase: FolderPhrase, input: "delete  folder", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Matches(tt.phrase, tt.input); got != tt.want {
				t.Fatalf("Matches(%q, %q) = %v, want %v", tt.phrase, tt.input, got, tt.want)
			}
		})
	}
}
