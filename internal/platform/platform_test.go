package platform

import "testing"

func TestIsMobile(t *testing.T) {
	tests := []struct {
		platform string
		want     bool
	}{
		{"cocoa", true},
		{"objc", true},
		{"swift", true},
		{"java", true},
		{"android", true},
		{"react-native", true},
		{"flutter", true},
		{"dart", true},
		{"apple-ios", true},
		{"python", false},
		{"javascript", false},
		{"go", false},
		{"", false},
		{"Java", false}, // identifiers are case-sensitive in the capture protocol
	}

	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			if got := IsMobile(tt.platform); got != tt.want {
				t.Errorf("IsMobile(%q) = %v, want %v", tt.platform, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	prefixes := []string{"com.acme.", "io.acme."}

	tests := []struct {
		name     string
		platform string
		module   string
		prefixes []string
		want     Kind
	}{
		{"non-mobile", "python", "", prefixes, NonMobile},
		{"native mobile", "cocoa", "", prefixes, MobileNative},
		{"wrapper mobile", "react-native", "", prefixes, MobileNative},
		{"java first-party", "java", "com.acme.api.Handler", prefixes, MobileJavaFirstParty},
		{"java second prefix", "java", "io.acme.util.Retry", prefixes, MobileJavaFirstParty},
		{"java third-party", "java", "okhttp3.RealCall", prefixes, MobileJavaThirdParty},
		{"java empty module", "java", "", prefixes, MobileJavaThirdParty},
		{"java no prefixes configured", "java", "com.acme.api.Handler", nil, MobileJavaThirdParty},
		{"blank prefix never matches", "java", "okhttp3.RealCall", []string{""}, MobileJavaThirdParty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.platform, tt.module, tt.prefixes); got != tt.want {
				t.Errorf("Classify(%q, %q) = %v, want %v", tt.platform, tt.module, got, tt.want)
			}
		})
	}
}

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		kind     Kind
		mobile   bool
		shortcut bool
		str      string
	}{
		{NonMobile, false, false, "non-mobile"},
		{MobileNative, true, true, "mobile-native"},
		{MobileJavaFirstParty, true, true, "mobile-java-first-party"},
		{MobileJavaThirdParty, true, false, "mobile-java-third-party"},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			if got := tt.kind.IsMobile(); got != tt.mobile {
				t.Errorf("IsMobile() = %v, want %v", got, tt.mobile)
			}
			if got := tt.kind.TakesLinkShortcut(); got != tt.shortcut {
				t.Errorf("TakesLinkShortcut() = %v, want %v", got, tt.shortcut)
			}
			if got := tt.kind.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
		})
	}
}
