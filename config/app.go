package config

import "strings"

const (
	localFrontendURL = "http://localhost:4200"
	localAPIURL      = "http://localhost:3000"
)

// Hosting platform variables consulted when no explicit URL is configured.
const (
	envPlatformMarker    = "VERCEL"
	envPlatformURL       = "VERCEL_URL"
	envPlatformProdURL   = "VERCEL_PROJECT_PRODUCTION_URL"
	localDevOriginSecond = "http://localhost:4000"
)

// resolve fills FrontendURL and APIURL. Outside local mode an explicit value wins,
// then the platform's production host, then its deployment host.
func (a *AppConfig) resolve(getenv func(string) string) {
	if !a.Local && getenv(envPlatformMarker) == "" && a.FrontendURL == "" && a.APIURL == "" {
		a.Local = true
	}

	if a.Local {
		if a.FrontendURL == "" {
			a.FrontendURL = localFrontendURL
		}
		if a.APIURL == "" {
			a.APIURL = localAPIURL
		}

		return
	}

	if a.FrontendURL == "" {
		switch {
		case getenv(envPlatformProdURL) != "":
			a.FrontendURL = "https://" + getenv(envPlatformProdURL)
		case getenv(envPlatformURL) != "":
			a.FrontendURL = "https://" + getenv(envPlatformURL)
		}
	}
	if a.APIURL == "" && getenv(envPlatformURL) != "" {
		a.APIURL = "https://" + getenv(envPlatformURL)
	}

	a.FrontendURL = strings.TrimRight(a.FrontendURL, "/")
	a.APIURL = strings.TrimRight(a.APIURL, "/")
}

// AllowedOrigins lists the origins permitted to make credentialed requests.
func (a *AppConfig) AllowedOrigins() []string {
	if a.Local {
		return []string{localFrontendURL, localDevOriginSecond}
	}
	if a.FrontendURL == "" {
		return nil
	}

	return []string{a.FrontendURL}
}
