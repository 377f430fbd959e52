package scraper

import "testing"

func TestIsTrackerHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"doubleclick.net", true},
		{"stats.g.doubleclick.net", true},
		{"WWW.Google-Analytics.com", true},
		{"api2.branch.io", true},
		{"blinkit.com", false},
		{"cdn.grofers.com", false},
		{"notdoubleclick.net", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isTrackerHost(tt.host); got != tt.want {
			t.Errorf("isTrackerHost(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestResourceTypesCoverDefaults(t *testing.T) {
	for _, name := range []string{"Image", "Font", "Media"} {
		if _, ok := resourceTypes[name]; !ok {
			t.Errorf("resource type %q not mapped", name)
		}
	}
}
