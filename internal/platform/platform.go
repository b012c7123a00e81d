package platform

import "strings"

// Kind is the closed classification of an event's platform for frame-context
// composition. Mobile frames normally bypass standard panel composition in
// favor of a whole-frame source-link lookup; third-party Java frames are the
// one mobile case that falls through to standard composition.
type Kind int

const (
	// NonMobile platforms always use standard panel composition.
	NonMobile Kind = iota

	// MobileNative covers native mobile runtimes and their cross-platform
	// wrappers (everything mobile except the Java sub-rule below).
	MobileNative

	// MobileJavaFirstParty is a Java-platform frame whose module starts with a
	// configured first-party package prefix. Takes the mobile lookup shortcut.
	MobileJavaFirstParty

	// MobileJavaThirdParty is a Java-platform frame outside the first-party
	// prefixes. Suppresses the mobile shortcut and composes panels normally.
	MobileJavaThirdParty
)

// javaPlatform is the platform identifier subject to the first-party sub-rule.
const javaPlatform = "java"

// mobilePlatforms is the fixed set of platform identifiers considered mobile.
var mobilePlatforms = map[string]bool{
	"android":      true,
	"apple-ios":    true,
	"cocoa":        true,
	"objc":         true,
	"swift":        true,
	"java":         true,
	"react-native": true,
	"flutter":      true,
	"dart":         true,
}

// IsMobile reports whether the platform identifier belongs to the mobile set.
func IsMobile(platform string) bool {
	return mobilePlatforms[platform]
}

// Classify maps a platform identifier plus the frame's module to a Kind.
// firstPartyPrefixes is deployment-specific configuration; with an empty
// prefix list every Java frame classifies as third-party.
func Classify(platform, module string, firstPartyPrefixes []string) Kind {
	if !IsMobile(platform) {
		return NonMobile
	}
	if platform != javaPlatform {
		return MobileNative
	}
	for _, prefix := range firstPartyPrefixes {
		if prefix != "" && strings.HasPrefix(module, prefix) {
			return MobileJavaFirstParty
		}
	}
	return MobileJavaThirdParty
}

// IsMobile reports whether the kind belongs to a mobile platform.
func (k Kind) IsMobile() bool {
	return k != NonMobile
}

// TakesLinkShortcut reports whether frame rendering is delegated entirely to
// the source-link lookup collaborator instead of standard composition.
func (k Kind) TakesLinkShortcut() bool {
	return k == MobileNative || k == MobileJavaFirstParty
}

// String returns the kind name for logs and JSON output.
func (k Kind) String() string {
	switch k {
	case MobileNative:
		return "mobile-native"
	case MobileJavaFirstParty:
		return "mobile-java-first-party"
	case MobileJavaThirdParty:
		return "mobile-java-third-party"
	default:
		return "non-mobile"
	}
}
