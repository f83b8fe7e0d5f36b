package app

import (
	"fmt"
	"log/slog"
	"mime"
)

// staticTypes pins the content types of assets under web/static, which some
// minimal container images do not know about.
var staticTypes = map[string]string{
	".css":  "text/css; charset=utf-8",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".webp": "image/webp",
}

func init() {
	if err := registerStaticTypes(staticTypes); err != nil {
		slog.Default().Warn("register static MIME types", slog.Any("error", err))
	}
}

func registerStaticTypes(types map[string]string) error {
	for ext, typ := range types {
		if mime.TypeByExtension(ext) != "" {
			continue
		}
		if err := mime.AddExtensionType(ext, typ); err != nil {
			return fmt.Errorf("app: register MIME type for %s: %w", ext, err)
		}
	}
	return nil
}
