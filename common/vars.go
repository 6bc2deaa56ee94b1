package common

var (
	// Version is overridden at build time with -ldflags "-X ...common.Version=<tag>".
	Version = "dev"

	PackageName = "github.com/ruteri/trustedcert-registry"
)
