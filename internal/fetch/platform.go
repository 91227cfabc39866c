package fetch

import (
	"strings"
)

// Platform represents a website builder or CMS whose markup we recognise.
type Platform string

const (
	// PlatformWordPress is WordPress, including The Events Calendar sites
	PlatformWordPress Platform = "wordpress"
	// PlatformSquarespace is Squarespace
	PlatformSquarespace Platform = "squarespace"
	// PlatformWix is Wix, which renders almost everything client side
	PlatformWix Platform = "wix"
	// PlatformShopify is Shopify
	PlatformShopify Platform = "shopify"
	// PlatformUnknown is an unrecognized platform
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform identifies the site builder from page markup.
func DetectPlatform(html string) Platform {
	lower := strings.ToLower(html)

	switch {
	case strings.Contains(lower, "wp-content/") || strings.Contains(lower, `content="wordpress`):
		return PlatformWordPress
	case strings.Contains(lower, "static1.squarespace.com") || strings.Contains(lower, "squarespace-cdn"):
		return PlatformSquarespace
	case strings.Contains(lower, "static.wixstatic.com") || strings.Contains(lower, `content="wix.com`):
		return PlatformWix
	case strings.Contains(lower, "cdn.shopify.com"):
		return PlatformShopify
	}

	return PlatformUnknown
}

// PlatformContentSelectors returns CSS selectors for main content on the given platform.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformWordPress:
		return []string{".entry-content", "#primary", "main", "article"}
	case PlatformSquarespace:
		return []string{"#page", ".sqs-layout", "main"}
	case PlatformWix:
		return []string{"#PAGES_CONTAINER", "main"}
	case PlatformShopify:
		return []string{"#MainContent", "main"}
	default:
		return nil
	}
}

// PlatformNoiseSelectors returns CSS selectors for platform chrome to strip before text extraction.
func PlatformNoiseSelectors(platform Platform) []string {
	switch platform {
	case PlatformWordPress:
		return []string{".wp-block-social-links", ".comments-area", "#wpadminbar"}
	case PlatformSquarespace:
		return []string{".sqs-announcement-bar-dropzone", ".sqs-cookie-banner-v2"}
	case PlatformWix:
		return []string{"#WIX_ADS", "#SITE_HEADER_WRAPPER nav"}
	case PlatformShopify:
		return []string{".cart-drawer", "#shopify-section-announcement-bar"}
	default:
		return nil
	}
}

// MinContentLength is the minimum extracted text length to consider a plain HTTP fetch useful.
// Shorter text usually means the page renders client side.
const MinContentLength = 500

// ShouldUseBrowser returns true if the extracted text is too short, or the platform is known to
// render client side.
func ShouldUseBrowser(extractedText string, platform Platform) bool {
	return platform == PlatformWix || len(strings.TrimSpace(extractedText)) < MinContentLength
}
