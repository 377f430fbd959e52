package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestScrapeRequest_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		pincode string
		want    string
		ok      bool
	}{
		{"plain", "400001", "400001", true},
		{"padded", "  560001\t", "560001", true},
		{"blank", "   ", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ScrapeRequest{Pincode: tt.pincode}
			if got := req.Normalize(); got != tt.ok {
				t.Errorf("Normalize() = %v, want %v", got, tt.ok)
			}
			if req.Pincode != tt.want {
				t.Errorf("Pincode = %q, want %q", req.Pincode, tt.want)
			}
		})
	}
}

func TestScrapeResult_EmptyEncodesArrays(t *testing.T) {
	r := NewScrapeResult()
	r.Set(TermEarbuds, nil)

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(b), `{"headphones":[],"earbuds":[]}`; got != want {
		t.Errorf("json = %s, want %s", got, want)
	}
}

func TestScrapeResult_SetByTerm(t *testing.T) {
	r := NewScrapeResult()
	r.Set(TermHeadphones, []Product{{Name: "boAt Rockerz 450", Price: "₹1,499"}})
	r.Set("speakers", []Product{{Name: "ignored", Price: "₹1"}})

	if len(r.Headphones) != 1 || r.Headphones[0].Name != "boAt Rockerz 450" {
		t.Errorf("Headphones = %+v", r.Headphones)
	}
	if len(r.Earbuds) != 0 {
		t.Errorf("Earbuds = %+v, want empty", r.Earbuds)
	}
}

func TestScrapeError_WrapAndDetail(t *testing.T) {
	cause := errors.New("context deadline exceeded")
	err := NewScrapeError(ErrCodeSelectorTimeout, "location input not found", cause)

	if !errors.Is(err, cause) {
		t.Error("ScrapeError should unwrap to its cause")
	}
	if !strings.HasPrefix(err.Error(), ErrCodeSelectorTimeout+": ") {
		t.Errorf("Error() = %q, want code prefix", err.Error())
	}
	if got, want := err.Detail(), "location input not found: context deadline exceeded"; got != want {
		t.Errorf("Detail() = %q, want %q", got, want)
	}
	if got := NewScrapeError(ErrCodeInternal, "boom", nil).Detail(); got != "boom" {
		t.Errorf("Detail() without cause = %q, want %q", got, "boom")
	}
}
